//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "syncdeck.sqlite3"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Project struct {
	ID        string   `gorm:"primaryKey;type:varchar(36)"`
	Name      string   `gorm:"index:idx_project_name" json:"name"`
	FrameRate float64  `json:"frame_rate"`
	LoopIn    *float64 `json:"loop_in"`
	LoopOut   *float64 `json:"loop_out"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Track struct {
	ProjectID string   `gorm:"primaryKey;type:varchar(36)" json:"project_id"`
	ID        string   `gorm:"primaryKey;type:varchar(36)"`
	Position  int      `json:"position"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Muted     bool     `json:"muted"`
	Locked    bool     `json:"locked"`
	Accepts   []string `gorm:"serializer:json" json:"accepts"`
}

type Clip struct {
	ProjectID string  `gorm:"primaryKey;type:varchar(36)" json:"project_id"`
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	TrackID   string  `gorm:"type:varchar(36);index:idx_clip_track" json:"track_id"`
	MediaID   string  `gorm:"type:varchar(36);index:idx_clip_media" json:"media_id"`
	Position  int     `json:"position"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	InPoint   float64 `json:"in_point"`
	OutPoint  float64 `json:"out_point"`
	Speed     float64 `json:"speed"`
	Reverse   bool    `json:"reverse"`
}

type Marker struct {
	ProjectID string  `gorm:"primaryKey;type:varchar(36)" json:"project_id"`
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	Time      float64 `json:"time"`
	Label     string  `json:"label"`
}

type Media struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	Name      string  `json:"name"`
	Kind      string  `gorm:"index:idx_media_kind" json:"kind"`
	URL       string  `gorm:"uniqueIndex:idx_media_url" json:"url"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	SizeBytes int64   `json:"size_bytes"`
	CreatedAt time.Time
}

func (Media) TableName() string { return "media_files" }

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SYNCDECK_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := utils.EnsureParentDir(dbPath); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Project{}, &Track{}, &Clip{}, &Marker{}, &Media{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *DBClient) ready() error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return nil
}

// SaveProject replaces the stored copy of p in one transaction. A project
// without an id is given one; the id is returned.
func (c *DBClient) SaveProject(p models.Project) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = utils.GenerateUUID()
	}

	row := Project{ID: p.ID, Name: p.Name, FrameRate: p.FrameRate}
	if p.Loop != nil {
		in, out := p.Loop.InPoint, p.Loop.OutPoint
		row.LoopIn, row.LoopOut = &in, &out
	}

	var tracks []Track
	var clips []Clip
	for ti, t := range p.Tracks {
		accepts := make([]string, len(t.Accepts))
		for i, k := range t.Accepts {
			accepts[i] = string(k)
		}
		tracks = append(tracks, Track{
			ID:        t.ID,
			ProjectID: p.ID,
			Position:  ti,
			Name:      t.Name,
			Role:      string(t.Role),
			Muted:     t.Muted,
			Locked:    t.Locked,
			Accepts:   accepts,
		})
		for ci, cl := range t.Clips {
			clips = append(clips, Clip{
				ID:        cl.ID,
				ProjectID: p.ID,
				TrackID:   t.ID,
				MediaID:   cl.MediaID,
				Position:  ci,
				StartTime: cl.StartTime,
				EndTime:   cl.EndTime,
				InPoint:   cl.InPoint,
				OutPoint:  cl.OutPoint,
				Speed:     cl.Speed,
				Reverse:   cl.Reverse,
			})
		}
	}

	markers := make([]Marker, 0, len(p.Markers))
	for _, m := range p.Markers {
		markers = append(markers, Marker{ID: m.ID, ProjectID: p.ID, Time: m.Time, Label: m.Label})
	}

	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var existing Project
		err := tx.Where("id = ?", p.ID).First(&existing).Error
		switch {
		case err == nil:
			row.CreatedAt = existing.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("querying project: %w", err)
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		if err := deleteChildren(tx, p.ID); err != nil {
			return err
		}
		if len(tracks) > 0 {
			if err := tx.CreateInBatches(tracks, 100).Error; err != nil {
				return fmt.Errorf("inserting tracks: %w", err)
			}
		}
		if len(clips) > 0 {
			if err := tx.CreateInBatches(clips, 500).Error; err != nil {
				return fmt.Errorf("inserting clips: %w", err)
			}
		}
		if len(markers) > 0 {
			if err := tx.CreateInBatches(markers, 500).Error; err != nil {
				return fmt.Errorf("inserting markers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func deleteChildren(tx *gorm.DB, projectID string) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&Clip{}).Error; err != nil {
		return fmt.Errorf("clearing clips: %w", err)
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&Track{}).Error; err != nil {
		return fmt.Errorf("clearing tracks: %w", err)
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&Marker{}).Error; err != nil {
		return fmt.Errorf("clearing markers: %w", err)
	}
	return nil
}

// LoadProject reads a project with its tracks, clips and markers in stored order.
func (c *DBClient) LoadProject(id string) (models.Project, error) {
	if err := c.ready(); err != nil {
		return models.Project{}, err
	}

	var row Project
	if err := c.DB.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return models.Project{}, fmt.Errorf("querying project: %w", err)
	}

	var tracks []Track
	if err := c.DB.Where("project_id = ?", id).Order("position").Find(&tracks).Error; err != nil {
		return models.Project{}, fmt.Errorf("querying tracks: %w", err)
	}
	var clips []Clip
	if err := c.DB.Where("project_id = ?", id).Order("track_id, position").Find(&clips).Error; err != nil {
		return models.Project{}, fmt.Errorf("querying clips: %w", err)
	}
	var markers []Marker
	if err := c.DB.Where("project_id = ?", id).Order("time").Find(&markers).Error; err != nil {
		return models.Project{}, fmt.Errorf("querying markers: %w", err)
	}

	byTrack := make(map[string][]models.Clip)
	for _, cl := range clips {
		byTrack[cl.TrackID] = append(byTrack[cl.TrackID], models.Clip{
			ID:        cl.ID,
			MediaID:   cl.MediaID,
			TrackID:   cl.TrackID,
			StartTime: cl.StartTime,
			EndTime:   cl.EndTime,
			InPoint:   cl.InPoint,
			OutPoint:  cl.OutPoint,
			Speed:     cl.Speed,
			Reverse:   cl.Reverse,
		})
	}

	p := models.Project{ID: row.ID, Name: row.Name, FrameRate: row.FrameRate}
	if row.LoopIn != nil && row.LoopOut != nil {
		p.Loop = &models.LoopRegion{InPoint: *row.LoopIn, OutPoint: *row.LoopOut}
	}
	for _, t := range tracks {
		accepts := make([]models.MediaKind, len(t.Accepts))
		for i, k := range t.Accepts {
			accepts[i] = models.MediaKind(k)
		}
		p.Tracks = append(p.Tracks, models.Track{
			ID:      t.ID,
			Name:    t.Name,
			Role:    models.TrackRole(t.Role),
			Clips:   byTrack[t.ID],
			Muted:   t.Muted,
			Locked:  t.Locked,
			Accepts: accepts,
		})
	}
	for _, m := range markers {
		p.Markers = append(p.Markers, models.Marker{ID: m.ID, Time: m.Time, Label: m.Label})
	}
	return p, nil
}

// ListProjects returns a summary of every stored project, most recently saved first.
func (c *DBClient) ListProjects() ([]models.ProjectSummary, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var rows []Project
	if err := c.DB.Order("updated_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	out := make([]models.ProjectSummary, 0, len(rows))
	for _, r := range rows {
		var tracks, clips int64
		if err := c.DB.Model(&Track{}).Where("project_id = ?", r.ID).Count(&tracks).Error; err != nil {
			return nil, fmt.Errorf("counting tracks: %w", err)
		}
		if err := c.DB.Model(&Clip{}).Where("project_id = ?", r.ID).Count(&clips).Error; err != nil {
			return nil, fmt.Errorf("counting clips: %w", err)
		}
		out = append(out, models.ProjectSummary{
			ID:         r.ID,
			Name:       r.Name,
			FrameRate:  r.FrameRate,
			TrackCount: int(tracks),
			ClipCount:  int(clips),
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out, nil
}

func (c *DBClient) DeleteProject(id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Project{})
		if res.Error != nil {
			return fmt.Errorf("deleting project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return nil
	})
}

// RegisterMedia stores asset metadata and returns its id. Registering a URL
// that is already known returns the existing id.
func (c *DBClient) RegisterMedia(f models.MediaFile) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}

	var existing Media
	err := c.DB.Where("url = ?", f.URL).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing media: %w", err)
	}

	if f.ID == "" {
		f.ID = utils.GenerateUUID()
	}
	row := Media{
		ID:        f.ID,
		Name:      f.Name,
		Kind:      string(f.Kind),
		URL:       f.URL,
		Duration:  f.Duration,
		Width:     f.Width,
		Height:    f.Height,
		SizeBytes: f.SizeBytes,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if fetchErr := c.DB.Where("url = ?", f.URL).First(&existing).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching media after constraint violation: %w", fetchErr)
			}
			return existing.ID, nil
		}
		return "", fmt.Errorf("creating media: %w", err)
	}
	return row.ID, nil
}

// GetFile returns registry metadata for mediaID.
func (c *DBClient) GetFile(mediaID string) (models.MediaFile, error) {
	if err := c.ready(); err != nil {
		return models.MediaFile{}, err
	}
	var row Media
	if err := c.DB.Where("id = ?", mediaID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MediaFile{}, fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
		}
		return models.MediaFile{}, fmt.Errorf("querying media: %w", err)
	}
	return toMediaFile(row), nil
}

func (c *DBClient) ListMedia() ([]models.MediaFile, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var rows []Media
	if err := c.DB.Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	out := make([]models.MediaFile, len(rows))
	for i, r := range rows {
		out[i] = toMediaFile(r)
	}
	return out, nil
}

// DeleteMedia removes an asset that no stored clip references.
func (c *DBClient) DeleteMedia(mediaID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&Clip{}).Where("media_id = ?", mediaID).Count(&refs).Error; err != nil {
			return fmt.Errorf("counting media references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s (%d clips)", ErrMediaInUse, mediaID, refs)
		}
		res := tx.Where("id = ?", mediaID).Delete(&Media{})
		if res.Error != nil {
			return fmt.Errorf("deleting media: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
		}
		return nil
	})
}

func toMediaFile(r Media) models.MediaFile {
	return models.MediaFile{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      models.MediaKind(r.Kind),
		URL:       r.URL,
		Duration:  r.Duration,
		Width:     r.Width,
		Height:    r.Height,
		SizeBytes: r.SizeBytes,
	}
}
