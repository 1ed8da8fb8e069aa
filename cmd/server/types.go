//go:build !js && !wasm

package main

import (
	"fmt"
	"math"
	"time"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

// MaxUploadBytes bounds multipart media uploads.
const MaxUploadBytes = 2 << 30

// ClipDTO represents a clip in API responses
type ClipDTO struct {
	ID        string  `json:"id"`
	MediaID   string  `json:"media_id"`
	TrackID   string  `json:"track_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	InPoint   float64 `json:"in_point"`
	OutPoint  float64 `json:"out_point"`
	Speed     float64 `json:"speed"`
	Reverse   bool    `json:"reverse,omitempty"`
}

func toClipDTO(c models.Clip) ClipDTO {
	return ClipDTO{
		ID:        c.ID,
		MediaID:   c.MediaID,
		TrackID:   c.TrackID,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		InPoint:   c.InPoint,
		OutPoint:  c.OutPoint,
		Speed:     c.EffectiveSpeed(),
		Reverse:   c.Reverse,
	}
}

type TrackDTO struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Role    models.TrackRole   `json:"role"`
	Muted   bool               `json:"muted"`
	Locked  bool               `json:"locked"`
	Accepts []models.MediaKind `json:"accepts"`
	Clips   []ClipDTO          `json:"clips"`
}

func toTrackDTO(t models.Track) TrackDTO {
	clips := make([]ClipDTO, len(t.Clips))
	for i, c := range t.Clips {
		clips[i] = toClipDTO(c)
	}
	return TrackDTO{
		ID:      t.ID,
		Name:    t.Name,
		Role:    t.Role,
		Muted:   t.Muted,
		Locked:  t.Locked,
		Accepts: t.Accepts,
		Clips:   clips,
	}
}

type MarkerDTO struct {
	ID    string  `json:"id"`
	Time  float64 `json:"time"`
	Label string  `json:"label"`
}

type LoopDTO struct {
	InPoint  float64 `json:"in_point"`
	OutPoint float64 `json:"out_point"`
}

// TimelineResponse is the response for GET /api/timeline
type TimelineResponse struct {
	ProjectID string      `json:"project_id,omitempty"`
	FrameRate float64     `json:"frame_rate"`
	Duration  float64     `json:"duration"`
	Ripple    bool        `json:"ripple"`
	Tracks    []TrackDTO  `json:"tracks"`
	Markers   []MarkerDTO `json:"markers"`
	Loop      *LoopDTO    `json:"loop,omitempty"`
	Selected  []string    `json:"selected"`
}

// MediaDTO represents a registered asset in API responses
type MediaDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      models.MediaKind `json:"kind"`
	URL       string           `json:"url"`
	Duration  float64          `json:"duration"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
	SizeBytes int64            `json:"size_bytes"`
}

func toMediaDTO(f models.MediaFile) MediaDTO {
	return MediaDTO{
		ID:        f.ID,
		Name:      f.Name,
		Kind:      f.Kind,
		URL:       f.URL,
		Duration:  f.Duration,
		Width:     f.Width,
		Height:    f.Height,
		SizeBytes: f.SizeBytes,
	}
}

// ListMediaResponse is the response for GET /api/media
type ListMediaResponse struct {
	Media []MediaDTO `json:"media"`
	Count int        `json:"count"`
}

// ImportMediaRequest is the request body for POST /api/media/import
type ImportMediaRequest struct {
	// Path is a file on the server's disk
	Path string `json:"path"`
}

func (r *ImportMediaRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// AddTrackRequest is the request body for POST /api/tracks
type AddTrackRequest struct {
	Name string           `json:"name,omitempty"`
	Role models.TrackRole `json:"role"`
}

func (r *AddTrackRequest) Validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("unknown role %q", r.Role)
	}
	return nil
}

// UpdateTrackRequest is the request body for PATCH /api/tracks/{id}.
// Omitted fields are left unchanged.
type UpdateTrackRequest struct {
	Name   *string `json:"name,omitempty"`
	Muted  *bool   `json:"muted,omitempty"`
	Locked *bool   `json:"locked,omitempty"`
}

// PlaceClipRequest is the request body for POST /api/clips
type PlaceClipRequest struct {
	TrackID string  `json:"track_id"`
	MediaID string  `json:"media_id"`
	Start   float64 `json:"start"`
	// Duration overrides the asset's own length when positive
	Duration float64 `json:"duration,omitempty"`
}

func (r *PlaceClipRequest) Validate() error {
	if r.TrackID == "" || r.MediaID == "" {
		return fmt.Errorf("track_id and media_id are required")
	}
	return validTime("start", r.Start)
}

// ClipEditRequest is the request body for POST /api/clips/{id}/{op}. Which
// fields are read depends on op.
type ClipEditRequest struct {
	TrackID  string   `json:"track_id,omitempty"`
	Time     float64  `json:"time"`
	Edge     string   `json:"edge,omitempty"`
	Keep     string   `json:"keep,omitempty"`
	Speed    float64  `json:"speed,omitempty"`
	Reverse  bool     `json:"reverse,omitempty"`
	MediaID  string   `json:"media_id,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Snap     bool     `json:"snap,omitempty"`
}

// SplitResponse is the response for a split that keeps both halves
type SplitResponse struct {
	Left  ClipDTO `json:"left"`
	Right ClipDTO `json:"right"`
}

// PasteRequest is the request body for POST /api/paste. A nil At pastes at
// the playhead.
type PasteRequest struct {
	TrackID string   `json:"track_id,omitempty"`
	At      *float64 `json:"at,omitempty"`
}

// SelectRequest is the request body for PUT /api/selection
type SelectRequest struct {
	IDs    []string `json:"ids"`
	Toggle bool     `json:"toggle,omitempty"`
}

type AddMarkerRequest struct {
	Time  float64 `json:"time"`
	Label string  `json:"label,omitempty"`
}

func (r *AddMarkerRequest) Validate() error {
	return validTime("time", r.Time)
}

type LoopRequest struct {
	InPoint  float64 `json:"in_point"`
	OutPoint float64 `json:"out_point"`
}

type RippleRequest struct {
	Enabled bool `json:"enabled"`
}

// SnapRequest is the request body for POST /api/snap. With ClipID set the
// proposed time is a clip start and both its edges are tried.
type SnapRequest struct {
	Time            float64  `json:"time"`
	ClipID          string   `json:"clip_id,omitempty"`
	PixelsPerSecond *float64 `json:"pixels_per_second,omitempty"`
}

type SnapResponse struct {
	Time      float64 `json:"time"`
	Snapped   bool    `json:"snapped"`
	Threshold float64 `json:"threshold"`
}

// ResolvedClipDTO is one row of GET /api/resolve
type ResolvedClipDTO struct {
	ClipID    string  `json:"clip_id"`
	TrackID   string  `json:"track_id"`
	MediaID   string  `json:"media_id"`
	Visible   bool    `json:"visible"`
	MediaTime float64 `json:"media_time,omitempty"`
	Muted     bool    `json:"muted,omitempty"`
}

func toResolvedDTO(ct timeline.ClipTime) ResolvedClipDTO {
	return ResolvedClipDTO{
		ClipID:    ct.Clip.ID,
		TrackID:   ct.TrackID,
		MediaID:   ct.Clip.MediaID,
		Visible:   ct.Visible,
		MediaTime: ct.MediaTime,
		Muted:     ct.Muted,
	}
}

type ResolveResponse struct {
	Time  float64           `json:"time"`
	Clips []ResolvedClipDTO `json:"clips"`
}

// TransportRequest is the request body for POST /api/transport
type TransportRequest struct {
	// Action is one of play, pause, toggle, seek, speed or export
	Action string  `json:"action"`
	Time   float64 `json:"time,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	On     bool    `json:"on,omitempty"`
}

func (r *TransportRequest) Validate() error {
	switch r.Action {
	case "play", "pause", "toggle", "speed", "export":
		return nil
	case "seek":
		return validTime("time", r.Time)
	}
	return fmt.Errorf("unknown action %q", r.Action)
}

// TransportResponse mirrors the transport snapshot
type TransportResponse struct {
	playback.Snapshot
	Duration float64 `json:"duration"`
}

type NewProjectRequest struct {
	Name string `json:"name"`
}

type ProjectSummaryDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FrameRate  float64   `json:"frame_rate"`
	TrackCount int       `json:"track_count"`
	ClipCount  int       `json:"clip_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ListProjectsResponse struct {
	Projects []ProjectSummaryDTO `json:"projects"`
	Count    int                 `json:"count"`
}

type SaveProjectResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// DeleteResponse is the response for every DELETE endpoint
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and timeline metrics
type MetricsResponse struct {
	Status       string         `json:"status"`
	DatabasePath string         `json:"database_path"`
	ProjectID    string         `json:"project_id,omitempty"`
	MediaCount   int            `json:"media_count"`
	TrackCount   int            `json:"track_count"`
	ClipCount    int            `json:"clip_count"`
	Duration     float64        `json:"duration"`
	Subscribers  int            `json:"subscribers"`
	SyncStates   map[string]int `json:"sync_states"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// EventMessage is one frame on the /api/events websocket
type EventMessage struct {
	Type      string   `json:"type"`
	Time      float64  `json:"time"`
	Playing   *bool    `json:"playing,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
	Exporting *bool    `json:"exporting,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

func toEventMessage(e playback.Event) EventMessage {
	msg := EventMessage{Type: e.Kind.String(), Time: e.Time}
	switch e.Kind {
	case playback.EventTransport:
		msg.Playing = &e.Playing
	case playback.EventSpeed:
		msg.Rate = &e.Rate
	case playback.EventExporting:
		msg.Exporting = &e.Exporting
	}
	return msg
}

func validTime(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s must be a non-negative number", field)
	}
	return nil
}
