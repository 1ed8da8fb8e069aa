package syncdeck

import (
	"context"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

type Service interface {
	// Timeline returns the live clip/track store. Edits go straight to it.
	Timeline() *timeline.Store
	Transport() *playback.Transport
	Snapper() *timeline.Resolver
	Sync() *syncer.Group

	ImportMedia(ctx context.Context, path string) (models.MediaFile, error)
	GetMedia(mediaID string) (models.MediaFile, error)
	ListMedia() ([]models.MediaFile, error)
	DeleteMedia(mediaID string) error
	PlaceMedia(trackID, mediaID string, start float64) (models.Clip, error)

	ProjectID() string
	NewProject(name string)
	SaveProject() (string, error)
	LoadProject(projectID string) error
	ListProjects() ([]models.ProjectSummary, error)
	DeleteProject(projectID string) error

	// WatchTimeline calls fn with the new duration after every edit.
	WatchTimeline(fn func(duration float64)) (unsubscribe func())
	// Run drives the transport clock until ctx is done.
	Run(ctx context.Context)
	Close() error
}

type Storage interface {
	SaveProject(p models.Project) (string, error)
	LoadProject(projectID string) (models.Project, error)
	ListProjects() ([]models.ProjectSummary, error)
	DeleteProject(projectID string) error
	RegisterMedia(f models.MediaFile) (string, error)
	GetFile(mediaID string) (models.MediaFile, error)
	ListMedia() ([]models.MediaFile, error)
	DeleteMedia(mediaID string) error
	Close() error
}

// MediaRegistry resolves a clip's media id to asset metadata.
type MediaRegistry interface {
	GetFile(mediaID string) (models.MediaFile, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
