package syncdeck

import (
	"context"
	"fmt"
	"sync"

	"github.com/himanishpuri/SyncDeck/internal/probe"
	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/storage"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

// syncService is the default implementation of the Service interface.
type syncService struct {
	config    *Config
	storage   Storage
	ownsStore bool
	registry  *cachedRegistry
	log       Logger
	store     *timeline.Store
	bus       *playback.Bus
	transport *playback.Transport
	snapper   *timeline.Resolver
	group     *syncer.Group

	mu          sync.RWMutex
	projectID   string
	projectName string
	watchers    map[int]func(float64)
	nextWatch   int
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	owns := false
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		owns = true
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	var registry MediaRegistry = stor
	if cfg.Registry != nil {
		registry = cfg.Registry
	}

	s := &syncService{
		config:      cfg,
		storage:     stor,
		ownsStore:   owns,
		registry:    newCachedRegistry(registry),
		log:         cfg.Logger,
		bus:         playback.NewBus(),
		projectName: cfg.ProjectName,
		watchers:    make(map[int]func(float64)),
	}

	s.store = timeline.NewStore(
		timeline.WithFrameRate(cfg.FrameRate),
		timeline.WithMediaLookup(s.registry),
	)
	s.transport = playback.NewTransport(s.store, s.bus)
	s.store.SetPlayhead(s.transport.Time)
	s.store.SetOnChange(s.timelineChanged)

	s.snapper = timeline.NewResolver(s.store)
	s.snapper.SetSnapPixels(cfg.SnapPixels)
	s.snapper.SetZoom(cfg.PixelsPerSecond)

	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = syncer.NewTimerScheduler(cfg.TickInterval)
	}
	s.group = syncer.NewGroup(s.transport, s.store, s.bus, scheduler,
		syncer.WithConfig(cfg.Sync),
		syncer.WithLogger(cfg.Logger),
	)

	return s, nil
}

func (s *syncService) Timeline() *timeline.Store       { return s.store }
func (s *syncService) Transport() *playback.Transport { return s.transport }
func (s *syncService) Snapper() *timeline.Resolver    { return s.snapper }
func (s *syncService) Sync() *syncer.Group            { return s.group }

// timelineChanged runs after every committed edit, outside the store lock.
func (s *syncService) timelineChanged(duration float64) {
	if s.transport.Time() > duration {
		s.transport.Seek(duration)
	}

	s.mu.RLock()
	watchers := make([]func(float64), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range watchers {
		fn(duration)
	}
}

func (s *syncService) WatchTimeline(fn func(duration float64)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

// ImportMedia probes a local file and registers it.
func (s *syncService) ImportMedia(ctx context.Context, path string) (models.MediaFile, error) {
	s.log.Infof("Importing media: %s", path)

	f, err := probe.Probe(ctx, path)
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("probing %s: %w", path, err)
	}

	id, err := s.storage.RegisterMedia(f)
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("failed to register media: %w", err)
	}
	f.ID = id

	s.log.Infof("Registered %s %s as %s (%.2fs)", f.Kind, f.Name, id, f.Duration)
	return f, nil
}

func (s *syncService) GetMedia(mediaID string) (models.MediaFile, error) {
	return s.registry.GetFile(mediaID)
}

func (s *syncService) ListMedia() ([]models.MediaFile, error) {
	return s.storage.ListMedia()
}

// DeleteMedia removes an asset from the registry. Assets still used by a
// clip on the live timeline are refused as well as stored ones.
func (s *syncService) DeleteMedia(mediaID string) error {
	for _, c := range s.store.AllClips() {
		if c.MediaID == mediaID {
			return fmt.Errorf("%w: clip %s", storage.ErrMediaInUse, c.ID)
		}
	}
	if err := s.storage.DeleteMedia(mediaID); err != nil {
		return err
	}
	s.registry.forget(mediaID)
	return nil
}

// PlaceMedia adds a full-length clip of a registered asset. Assets without
// their own clock get DefaultStillDuration.
func (s *syncService) PlaceMedia(trackID, mediaID string, start float64) (models.Clip, error) {
	f, err := s.registry.GetFile(mediaID)
	if err != nil {
		return models.Clip{}, err
	}
	duration := DefaultStillDuration
	if f.HasFiniteDuration() {
		duration = f.Duration
	}

	c, err := s.store.AddClip(trackID, mediaID, start, duration)
	if err != nil {
		return models.Clip{}, err
	}
	s.log.Debugf("Placed %s on track %s at %.3f", f.Name, trackID, c.StartTime)
	return c, nil
}

func (s *syncService) ProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID
}

// NewProject discards the live timeline and starts an unsaved project.
func (s *syncService) NewProject(name string) {
	s.transport.Pause()
	s.transport.Seek(0)
	if err := s.store.Restore(models.Project{FrameRate: s.config.FrameRate}); err != nil {
		s.log.Errorf("Resetting timeline: %v", err)
	}

	s.mu.Lock()
	s.projectID = ""
	s.projectName = name
	s.mu.Unlock()
}

// SaveProject writes the live timeline to storage and returns its id.
func (s *syncService) SaveProject() (string, error) {
	p := s.store.Snapshot()

	s.mu.RLock()
	p.ID, p.Name = s.projectID, s.projectName
	s.mu.RUnlock()

	id, err := s.storage.SaveProject(p)
	if err != nil {
		return "", fmt.Errorf("failed to save project: %w", err)
	}

	s.mu.Lock()
	s.projectID = id
	s.mu.Unlock()

	s.log.Infof("Saved project %q as %s", p.Name, id)
	return id, nil
}

// LoadProject replaces the live timeline with a stored project. On error the
// live timeline is unchanged.
func (s *syncService) LoadProject(projectID string) error {
	p, err := s.storage.LoadProject(projectID)
	if err != nil {
		return err
	}

	s.transport.Pause()
	if err := s.store.Restore(p); err != nil {
		return fmt.Errorf("restoring project %s: %w", projectID, err)
	}
	s.transport.Seek(0)

	s.mu.Lock()
	s.projectID = p.ID
	s.projectName = p.Name
	s.mu.Unlock()

	s.log.Infof("Loaded project %q (%d tracks)", p.Name, len(p.Tracks))
	return nil
}

func (s *syncService) ListProjects() ([]models.ProjectSummary, error) {
	return s.storage.ListProjects()
}

func (s *syncService) DeleteProject(projectID string) error {
	if err := s.storage.DeleteProject(projectID); err != nil {
		return err
	}
	s.mu.Lock()
	if s.projectID == projectID {
		s.projectID = ""
	}
	s.mu.Unlock()
	return nil
}

func (s *syncService) Run(ctx context.Context) {
	s.transport.Run(ctx, s.config.TickInterval)
}

// Close stops every sync loop. Storage passed in through WithStorage is left
// open for its owner.
func (s *syncService) Close() error {
	s.group.Close()
	s.bus.Close()
	if s.ownsStore {
		return s.storage.Close()
	}
	return nil
}
