//go:build !js && !wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/storage"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service  syncdeck.Service
	config   *ServerConfig
	log      syncdeck.Logger
	upgrader websocket.Upgrader
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	DBPath         string
	MediaDir       string
	TempDir        string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service syncdeck.Service, config *ServerConfig) *Server {
	s := &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("http"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondEditError maps store and storage errors to a status code.
func (s *Server) respondEditError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, timeline.ErrTrackNotFound),
		errors.Is(err, timeline.ErrClipNotFound),
		errors.Is(err, timeline.ErrMarkerNotFound),
		errors.Is(err, timeline.ErrMediaNotFound),
		errors.Is(err, storage.ErrProjectNotFound),
		errors.Is(err, storage.ErrMediaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, timeline.ErrTrackLocked),
		errors.Is(err, timeline.ErrMinimumTracks),
		errors.Is(err, storage.ErrMediaInUse):
		status = http.StatusConflict
	case errors.Is(err, timeline.ErrOutsideClip),
		errors.Is(err, timeline.ErrTooShort),
		errors.Is(err, timeline.ErrInvertedTrim),
		errors.Is(err, timeline.ErrBeyondMedia),
		errors.Is(err, timeline.ErrInvalidEdge),
		errors.Is(err, timeline.ErrInvalidSpeed),
		errors.Is(err, timeline.ErrInvalidLoop),
		errors.Is(err, timeline.ErrKindNotAccepted),
		errors.Is(err, timeline.ErrInvalidRole),
		errors.Is(err, timeline.ErrEmptyClipboard),
		errors.Is(err, playback.ErrInvalidRate),
		errors.Is(err, playback.ErrInvalidTime):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Errorf("Request failed: %v", err)
	}
	s.respondError(w, status, err.Error())
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if val, ok := v.(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return false
		}
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SyncDeck API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"metrics":   "GET /api/health/metrics",
			"timeline":  "GET /api/timeline",
			"media":     "GET|POST /api/media",
			"import":    "POST /api/media/import",
			"tracks":    "POST /api/tracks, PATCH|DELETE /api/tracks/{id}",
			"clips":     "POST /api/clips, GET|DELETE /api/clips/{id}, POST /api/clips/{id}/{op}",
			"paste":     "POST /api/paste",
			"selection": "GET|PUT|DELETE /api/selection",
			"markers":   "POST /api/markers, DELETE /api/markers/{id}",
			"loop":      "PUT|DELETE /api/loop",
			"ripple":    "PUT /api/ripple",
			"snap":      "POST /api/snap",
			"resolve":   "GET /api/resolve?t={seconds}",
			"transport": "GET|POST /api/transport",
			"projects":  "GET|POST /api/projects, POST /api/projects/new, POST /api/projects/{id}/load, DELETE /api/projects/{id}",
			"events":    "GET /api/events (websocket)",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	media, err := s.service.ListMedia()
	if err != nil {
		s.log.Errorf("Failed to get media count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	states := make(map[string]int, len(syncStateNames))
	for _, st := range syncStateNames {
		states[st.String()] = 0
	}
	for _, st := range s.service.Sync().States() {
		states[st.String()]++
	}

	tl := s.service.Timeline()
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		ProjectID:    s.service.ProjectID(),
		MediaCount:   len(media),
		TrackCount:   len(tl.Tracks()),
		ClipCount:    len(tl.AllClips()),
		Duration:     tl.Duration(),
		Subscribers:  s.service.Transport().Bus().Len(),
		SyncStates:   states,
	})
}

// handleTimeline handles GET /api/timeline
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.timelineResponse())
}

func (s *Server) timelineResponse() TimelineResponse {
	tl := s.service.Timeline()
	tracks := tl.Tracks()
	resp := TimelineResponse{
		ProjectID: s.service.ProjectID(),
		FrameRate: tl.FrameRate(),
		Duration:  tl.Duration(),
		Ripple:    tl.Ripple(),
		Tracks:    make([]TrackDTO, len(tracks)),
		Markers:   []MarkerDTO{},
		Selected:  tl.Selected(),
	}
	for i, t := range tracks {
		resp.Tracks[i] = toTrackDTO(t)
	}
	for _, m := range tl.Markers() {
		resp.Markers = append(resp.Markers, MarkerDTO{ID: m.ID, Time: m.Time, Label: m.Label})
	}
	if loop, ok := tl.LoopRegion(); ok {
		resp.Loop = &LoopDTO{InPoint: loop.InPoint, OutPoint: loop.OutPoint}
	}
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	return resp
}

// handleListMedia handles GET /api/media
func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListMedia()
	if err != nil {
		s.log.Errorf("Failed to list media: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve media")
		return
	}

	dtos := make([]MediaDTO, len(files))
	for i, f := range files {
		dtos[i] = toMediaDTO(f)
	}
	s.respondJSON(w, http.StatusOK, ListMediaResponse{Media: dtos, Count: len(dtos)})
}

// handleUploadMedia handles POST /api/media (multipart file upload). The
// upload is stored under the media directory and then registered.
func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	if err := utils.MakeDir(s.config.MediaDir); err != nil {
		s.log.Errorf("Failed to create media dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	dst := filepath.Join(s.config.MediaDir, utils.GenerateUUID()+"_"+filepath.Base(header.Filename))
	if err := utils.MoveFile(tempFile, dst); err != nil {
		s.log.Errorf("Failed to store upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	s.importAndRespond(ctx, w, dst)
}

// handleImportMedia handles POST /api/media/import for files already on the server's disk
func (s *Server) handleImportMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req ImportMediaRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.importAndRespond(ctx, w, req.Path)
}

func (s *Server) importAndRespond(ctx context.Context, w http.ResponseWriter, path string) {
	f, err := s.service.ImportMedia(ctx, path)
	if err != nil {
		s.log.Warnf("Failed to import %s: %v", path, err)
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to import media: %v", err))
		return
	}
	s.respondJSON(w, http.StatusCreated, toMediaDTO(f))
}

// handleMediaItem handles GET and DELETE /api/media/{id}
func (s *Server) handleMediaItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/media/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Media ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		f, err := s.service.GetMedia(id)
		if err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, toMediaDTO(f))
	case http.MethodDelete:
		if err := s.service.DeleteMedia(id); err != nil {
			s.respondEditError(w, err)
			return
		}
		s.log.Infof("Deleted media %s", id)
		s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Media deleted successfully", ID: id})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAddTrack handles POST /api/tracks
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req AddTrackRequest
	if !s.decode(w, r, &req) {
		return
	}
	t, err := s.service.Timeline().AddTrack(req.Name, req.Role)
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toTrackDTO(t))
}

// handleTrack handles PATCH and DELETE /api/tracks/{id}
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tracks/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Track ID required")
		return
	}
	tl := s.service.Timeline()

	switch r.Method {
	case http.MethodPatch:
		var req UpdateTrackRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Name != nil {
			if err := tl.RenameTrack(id, *req.Name); err != nil {
				s.respondEditError(w, err)
				return
			}
		}
		if req.Muted != nil {
			if err := tl.SetTrackMuted(id, *req.Muted); err != nil {
				s.respondEditError(w, err)
				return
			}
		}
		if req.Locked != nil {
			if err := tl.SetTrackLocked(id, *req.Locked); err != nil {
				s.respondEditError(w, err)
				return
			}
		}
		t, ok := tl.Track(id)
		if !ok {
			s.respondEditError(w, timeline.ErrTrackNotFound)
			return
		}
		s.respondJSON(w, http.StatusOK, toTrackDTO(t))
	case http.MethodDelete:
		if err := tl.RemoveTrack(id); err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Track deleted successfully", ID: id})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handlePlaceClip handles POST /api/clips
func (s *Server) handlePlaceClip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req PlaceClipRequest
	if !s.decode(w, r, &req) {
		return
	}

	var c models.Clip
	var err error
	if req.Duration > 0 {
		c, err = s.service.Timeline().AddClip(req.TrackID, req.MediaID, req.Start, req.Duration)
	} else {
		c, err = s.service.PlaceMedia(req.TrackID, req.MediaID, req.Start)
	}
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toClipDTO(c))
}

// handleClip routes /api/clips/{id} and /api/clips/{id}/{op}
func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/clips/")
	id, op, _ := strings.Cut(rest, "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Clip ID required")
		return
	}
	tl := s.service.Timeline()

	if op == "" {
		switch r.Method {
		case http.MethodGet:
			c, ok := tl.Clip(id)
			if !ok {
				s.respondEditError(w, fmt.Errorf("%w: %s", timeline.ErrClipNotFound, id))
				return
			}
			s.respondJSON(w, http.StatusOK, toClipDTO(c))
		case http.MethodDelete:
			if err := tl.RemoveClip(id); err != nil {
				s.respondEditError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Clip deleted successfully", ID: id})
		default:
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req ClipEditRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.editClip(w, id, op, req)
}

func (s *Server) editClip(w http.ResponseWriter, id, op string, req ClipEditRequest) {
	tl := s.service.Timeline()

	var c models.Clip
	var err error
	switch op {
	case "move":
		start := req.Time
		if req.Snap {
			start = s.service.Snapper().SnapMove(id, start)
		}
		c, err = tl.MoveClip(id, req.TrackID, start)
	case "trim":
		var edge timeline.Edge
		if edge, err = timeline.ParseEdge(req.Edge); err == nil {
			at := req.Time
			if req.Snap {
				at, _ = s.service.Snapper().Snap(at, id)
			}
			c, err = tl.TrimClip(id, edge, at)
		}
	case "split":
		switch req.Keep {
		case "":
			var left, right models.Clip
			if left, right, err = tl.SplitClip(id, req.Time); err != nil {
				s.respondEditError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, SplitResponse{Left: toClipDTO(left), Right: toClipDTO(right)})
			return
		case "left":
			c, err = tl.SplitKeepLeft(id, req.Time)
		case "right":
			c, err = tl.SplitKeepRight(id, req.Time)
		default:
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown keep %q", req.Keep))
			return
		}
	case "speed":
		c, err = tl.SetClipSpeed(id, req.Speed)
	case "reverse":
		c, err = tl.SetClipReverse(id, req.Reverse)
	case "duplicate":
		c, err = tl.DuplicateClip(id)
	case "copy":
		if err = tl.Copy(id); err == nil {
			c, _ = tl.Clipboard()
		}
	case "replace":
		if req.MediaID == "" {
			s.respondError(w, http.StatusBadRequest, "media_id is required")
			return
		}
		c, err = tl.ReplaceClipMedia(id, req.MediaID, req.Duration)
	case "extract-audio":
		c, err = tl.ExtractAudio(id)
	default:
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown clip operation %q", op))
		return
	}
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toClipDTO(c))
}

// handlePaste handles POST /api/paste
func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req PasteRequest
	if !s.decode(w, r, &req) {
		return
	}

	var c models.Clip
	var err error
	if req.At != nil {
		c, err = s.service.Timeline().Paste(req.TrackID, *req.At)
	} else {
		c, err = s.service.Timeline().PasteAtPlayhead(req.TrackID)
	}
	if err != nil {
		s.respondEditError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toClipDTO(c))
}

// handleSelection handles GET, PUT and DELETE /api/selection. DELETE removes
// the selected clips from the timeline.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	tl := s.service.Timeline()

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req SelectRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Toggle {
			for _, id := range req.IDs {
				tl.ToggleSelect(id)
			}
		} else {
			tl.Select(req.IDs...)
		}
	case http.MethodDelete:
		n := tl.RemoveSelected()
		s.respondJSON(w, http.StatusOK, map[string]int{"removed": n})
		return
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	selected := tl.Selected()
	if selected == nil {
		selected = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"selected": selected})
}

// handleAddMarker handles POST /api/markers
func (s *Server) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req AddMarkerRequest
	if !s.decode(w, r, &req) {
		return
	}
	m := s.service.Timeline().AddMarker(req.Time, req.Label)
	s.respondJSON(w, http.StatusCreated, MarkerDTO{ID: m.ID, Time: m.Time, Label: m.Label})
}

// handleMarker handles DELETE /api/markers/{id}
func (s *Server) handleMarker(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/markers/")
	if r.Method != http.MethodDelete {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := s.service.Timeline().RemoveMarker(id); err != nil {
		s.respondEditError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Marker deleted successfully", ID: id})
}

// handleLoop handles PUT and DELETE /api/loop
func (s *Server) handleLoop(w http.ResponseWriter, r *http.Request) {
	tl := s.service.Timeline()

	switch r.Method {
	case http.MethodPut:
		var req LoopRequest
		if !s.decode(w, r, &req) {
			return
		}
		loop, err := tl.SetLoopRegion(req.InPoint, req.OutPoint)
		if err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, LoopDTO{InPoint: loop.InPoint, OutPoint: loop.OutPoint})
	case http.MethodDelete:
		tl.ClearLoop()
		w.WriteHeader(http.StatusNoContent)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRipple handles PUT /api/ripple
func (s *Server) handleRipple(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req RippleRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.service.Timeline().SetRipple(req.Enabled)
	s.respondJSON(w, http.StatusOK, req)
}

// handleSnap handles POST /api/snap
func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req SnapRequest
	if !s.decode(w, r, &req) {
		return
	}

	snapper := s.service.Snapper()
	if req.PixelsPerSecond != nil {
		snapper.SetZoom(*req.PixelsPerSecond)
	}

	resp := SnapResponse{Threshold: snapper.Threshold()}
	if req.ClipID != "" {
		resp.Time = snapper.SnapMove(req.ClipID, req.Time)
		resp.Snapped = resp.Time != timeline.Quantize(req.Time, s.service.Timeline().FrameRate())
	} else {
		resp.Time, resp.Snapped = snapper.Snap(req.Time, "")
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleResolve handles GET /api/resolve?t={seconds}. Without t the
// playhead is used.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	at := s.service.Transport().Time()
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || validTime("t", v) != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid time")
			return
		}
		at = v
	}

	resolved := s.service.Timeline().ResolveAt(at)
	clips := make([]ResolvedClipDTO, len(resolved))
	for i, ct := range resolved {
		clips[i] = toResolvedDTO(ct)
	}
	s.respondJSON(w, http.StatusOK, ResolveResponse{Time: at, Clips: clips})
}

// handleTransport handles GET and POST /api/transport
func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	tr := s.service.Transport()

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req TransportRequest
		if !s.decode(w, r, &req) {
			return
		}
		var err error
		switch req.Action {
		case "play":
			tr.Play()
		case "pause":
			tr.Pause()
		case "toggle":
			tr.Toggle()
		case "seek":
			err = tr.Seek(req.Time)
		case "speed":
			err = tr.SetSpeed(req.Rate)
		case "export":
			tr.SetExporting(req.On)
		}
		if err != nil {
			s.respondEditError(w, err)
			return
		}
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.respondJSON(w, http.StatusOK, TransportResponse{
		Snapshot: tr.Snapshot(),
		Duration: s.service.Timeline().Duration(),
	})
}

// handleProjects handles GET and POST /api/projects. POST saves the live
// timeline.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		summaries, err := s.service.ListProjects()
		if err != nil {
			s.log.Errorf("Failed to list projects: %v", err)
			s.respondError(w, http.StatusInternalServerError, "Failed to retrieve projects")
			return
		}
		dtos := make([]ProjectSummaryDTO, len(summaries))
		for i, p := range summaries {
			dtos[i] = ProjectSummaryDTO{
				ID:         p.ID,
				Name:       p.Name,
				FrameRate:  p.FrameRate,
				TrackCount: p.TrackCount,
				ClipCount:  p.ClipCount,
				UpdatedAt:  p.UpdatedAt,
			}
		}
		s.respondJSON(w, http.StatusOK, ListProjectsResponse{Projects: dtos, Count: len(dtos)})
	case http.MethodPost:
		id, err := s.service.SaveProject()
		if err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, SaveProjectResponse{Message: "Project saved successfully", ID: id})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProject routes /api/projects/new, /api/projects/{id}/load and
// DELETE /api/projects/{id}
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	id, op, _ := strings.Cut(rest, "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Project ID required")
		return
	}

	switch {
	case id == "new" && op == "" && r.Method == http.MethodPost:
		var req NewProjectRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.service.NewProject(req.Name)
		s.respondJSON(w, http.StatusCreated, s.timelineResponse())
	case op == "load" && r.Method == http.MethodPost:
		if err := s.service.LoadProject(id); err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, s.timelineResponse())
	case op == "" && r.Method == http.MethodDelete:
		if err := s.service.DeleteProject(id); err != nil {
			s.respondEditError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, DeleteResponse{Message: "Project deleted successfully", ID: id})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMedia routes requests to /api/media
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListMedia(w, r)
	case http.MethodPost:
		s.handleUploadMedia(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// syncStateNames lists every controller state reported by the metrics endpoint.
var syncStateNames = []syncer.State{syncer.Inactive, syncer.Converged, syncer.SoftCorrecting, syncer.HardCorrecting}
