//go:build !js && !wasm

package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/SyncDeck/pkg/logger"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
)

// setupTestServer creates a server over a temporary database
func setupTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	dir := t.TempDir()
	service, err := syncdeck.NewService(
		syncdeck.WithDBPath(filepath.Join(dir, "test_server.sqlite3")),
		syncdeck.WithLogger(logger.Nop()),
		syncdeck.WithScheduler(syncer.NewFrameScheduler()),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { service.Close() })

	s := NewServer(service, &ServerConfig{
		DBPath:         "test_server.sqlite3",
		MediaDir:       filepath.Join(dir, "media"),
		TempDir:        dir,
		AllowedOrigins: []string{"*"},
	})
	s.log = logger.Nop()
	return s, s.setupRoutes()
}

// do sends a JSON request and decodes the JSON response into out when non-nil
func do(t *testing.T, h http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("Failed to decode %s %s response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 18))); err != nil {
		t.Fatal(err)
	}
	return path
}

// importStill registers a PNG and places it on the first primary track
func importStill(t *testing.T, h http.Handler) (MediaDTO, ClipDTO) {
	t.Helper()

	var media MediaDTO
	rec := do(t, h, http.MethodPost, "/api/media/import", ImportMediaRequest{Path: writePNG(t)}, &media)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from import, got %d: %s", rec.Code, rec.Body.String())
	}

	var tl TimelineResponse
	do(t, h, http.MethodGet, "/api/timeline", nil, &tl)

	var clip ClipDTO
	rec = do(t, h, http.MethodPost, "/api/clips", PlaceClipRequest{TrackID: tl.Tracks[0].ID, MediaID: media.ID, Start: 1}, &clip)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from place, got %d: %s", rec.Code, rec.Body.String())
	}
	return media, clip
}

func TestHealthAndRoot(t *testing.T) {
	_, h := setupTestServer(t)

	if rec := do(t, h, http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/nope", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestTimelineStartsWithTwoPrimaries(t *testing.T) {
	_, h := setupTestServer(t)

	var tl TimelineResponse
	rec := do(t, h, http.MethodGet, "/api/timeline", nil, &tl)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(tl.Tracks) != 2 || tl.Tracks[0].Role != "primary" {
		t.Errorf("Expected two primary tracks, got %+v", tl.Tracks)
	}
	if tl.Duration != 1 {
		t.Errorf("Expected duration 1, got %v", tl.Duration)
	}
}

func TestPlaceSplitAndResolve(t *testing.T) {
	_, h := setupTestServer(t)
	_, clip := importStill(t, h)

	if clip.StartTime != 1 || clip.EndTime != 1+syncdeck.DefaultStillDuration {
		t.Fatalf("Unexpected placement: %+v", clip)
	}

	var split SplitResponse
	rec := do(t, h, http.MethodPost, "/api/clips/"+clip.ID+"/split", ClipEditRequest{Time: 3}, &split)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from split, got %d: %s", rec.Code, rec.Body.String())
	}
	if split.Left.EndTime != 3 || split.Right.StartTime != 3 {
		t.Errorf("Expected halves to meet at 3, got %+v", split)
	}

	var resolved ResolveResponse
	do(t, h, http.MethodGet, "/api/resolve?t=4", nil, &resolved)
	visible := 0
	for _, c := range resolved.Clips {
		if c.Visible {
			visible++
			if c.ClipID != split.Right.ID {
				t.Errorf("Expected right half visible at 4, got %s", c.ClipID)
			}
		}
	}
	if visible != 1 {
		t.Errorf("Expected 1 visible clip, got %d", visible)
	}
}

func TestEditErrorsMapToStatus(t *testing.T) {
	_, h := setupTestServer(t)
	_, clip := importStill(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"split outside clip", http.MethodPost, "/api/clips/" + clip.ID + "/split", ClipEditRequest{Time: 0.5}, http.StatusUnprocessableEntity},
		{"unknown clip", http.MethodPost, "/api/clips/missing/duplicate", ClipEditRequest{}, http.StatusNotFound},
		{"unknown op", http.MethodPost, "/api/clips/" + clip.ID + "/explode", ClipEditRequest{}, http.StatusNotFound},
		{"bad speed", http.MethodPost, "/api/clips/" + clip.ID + "/speed", ClipEditRequest{Speed: -1}, http.StatusUnprocessableEntity},
		{"bad edge", http.MethodPost, "/api/clips/" + clip.ID + "/trim", ClipEditRequest{Edge: "middle", Time: 2}, http.StatusUnprocessableEntity},
		{"bad role", http.MethodPost, "/api/tracks", AddTrackRequest{Role: "drums"}, http.StatusBadRequest},
		{"empty clipboard", http.MethodPost, "/api/paste", PasteRequest{}, http.StatusUnprocessableEntity},
		{"missing project", http.MethodPost, "/api/projects/nope/load", nil, http.StatusNotFound},
		{"bad loop", http.MethodPut, "/api/loop", LoopRequest{InPoint: 3, OutPoint: 2}, http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPut, "/api/clips", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLockedTrackConflicts(t *testing.T) {
	_, h := setupTestServer(t)
	_, clip := importStill(t, h)

	locked := true
	var track TrackDTO
	rec := do(t, h, http.MethodPatch, "/api/tracks/"+clip.TrackID, UpdateTrackRequest{Locked: &locked}, &track)
	if rec.Code != http.StatusOK || !track.Locked {
		t.Fatalf("Expected locked track, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/clips/"+clip.ID+"/move", ClipEditRequest{Time: 4}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 moving a clip on a locked track, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/tracks/"+clip.TrackID, nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 removing a required primary track, got %d", rec.Code)
	}
}

func TestCopyPasteAtPlayhead(t *testing.T) {
	_, h := setupTestServer(t)
	_, clip := importStill(t, h)

	if rec := do(t, h, http.MethodPost, "/api/clips/"+clip.ID+"/copy", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("Copy failed: %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/api/transport", TransportRequest{Action: "seek", Time: 2}, nil)

	var pasted ClipDTO
	rec := do(t, h, http.MethodPost, "/api/paste", PasteRequest{TrackID: clip.TrackID}, &pasted)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from paste, got %d: %s", rec.Code, rec.Body.String())
	}
	if pasted.StartTime != clip.EndTime {
		t.Errorf("Expected paste pushed to %v, got %v", clip.EndTime, pasted.StartTime)
	}
}

func TestTransportActions(t *testing.T) {
	_, h := setupTestServer(t)
	importStill(t, h)

	var snap TransportResponse
	do(t, h, http.MethodPost, "/api/transport", TransportRequest{Action: "seek", Time: 2.5}, &snap)
	if snap.Time != 2.5 || snap.Duration != 1+syncdeck.DefaultStillDuration {
		t.Errorf("Unexpected transport after seek: %+v", snap)
	}

	do(t, h, http.MethodPost, "/api/transport", TransportRequest{Action: "play"}, &snap)
	if !snap.Playing {
		t.Error("Expected playing after play")
	}

	rec := do(t, h, http.MethodPost, "/api/transport", TransportRequest{Action: "speed", Rate: 0}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for zero rate, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/transport", TransportRequest{Action: "rewind"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", rec.Code)
	}
}

func TestSnapEndpoint(t *testing.T) {
	_, h := setupTestServer(t)
	importStill(t, h)

	var resp SnapResponse
	do(t, h, http.MethodPost, "/api/snap", SnapRequest{Time: 1.04}, &resp)
	if !resp.Snapped || resp.Time != 1 {
		t.Errorf("Expected snap to clip start 1, got %+v", resp)
	}

	zoom := 800.0
	do(t, h, http.MethodPost, "/api/snap", SnapRequest{Time: 1.04, PixelsPerSecond: &zoom}, &resp)
	if resp.Snapped {
		t.Errorf("Expected no snap at high zoom, got %+v", resp)
	}
}

func TestProjectSaveAndLoad(t *testing.T) {
	_, h := setupTestServer(t)
	_, clip := importStill(t, h)

	var saved SaveProjectResponse
	rec := do(t, h, http.MethodPost, "/api/projects", nil, &saved)
	if rec.Code != http.StatusCreated || saved.ID == "" {
		t.Fatalf("Expected 201 with id, got %d: %s", rec.Code, rec.Body.String())
	}

	var fresh TimelineResponse
	do(t, h, http.MethodPost, "/api/projects/new", NewProjectRequest{Name: "Other"}, &fresh)
	if len(fresh.Tracks[0].Clips) != 0 {
		t.Fatal("Expected empty timeline after new project")
	}

	var loaded TimelineResponse
	rec = do(t, h, http.MethodPost, "/api/projects/"+saved.ID+"/load", nil, &loaded)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from load, got %d", rec.Code)
	}
	if loaded.ProjectID != saved.ID || len(loaded.Tracks[0].Clips) != 1 || loaded.Tracks[0].Clips[0].ID != clip.ID {
		t.Errorf("Unexpected loaded timeline: %+v", loaded)
	}

	var list ListProjectsResponse
	do(t, h, http.MethodGet, "/api/projects", nil, &list)
	if list.Count != 1 {
		t.Errorf("Expected 1 project, got %d", list.Count)
	}
}

func TestMediaUploadAndDelete(t *testing.T) {
	s, h := setupTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "poster.png")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(writePNG(t))
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from upload, got %d: %s", rec.Code, rec.Body.String())
	}

	var media MediaDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &media); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(media.URL, s.config.MediaDir) {
		t.Errorf("Expected upload stored under %s, got %s", s.config.MediaDir, media.URL)
	}
	if media.Kind != "image" || media.Width != 32 {
		t.Errorf("Unexpected media: %+v", media)
	}

	if rec := do(t, h, http.MethodDelete, "/api/media/"+media.ID, nil, nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from delete, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/media/"+media.ID, nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/timeline", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestEventStream(t *testing.T) {
	_, h := setupTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg EventMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if msg.Type != "snapshot" || msg.Duration == nil || *msg.Duration != 1 {
		t.Fatalf("Expected snapshot message, got %+v", msg)
	}

	resp, err := http.Post(ts.URL+"/api/markers", "application/json", strings.NewReader(`{"time":0.5,"label":"cue"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read timeline event: %v", err)
	}
	if msg.Type != "timeline" {
		t.Errorf("Expected timeline event, got %+v", msg)
	}

	resp, err = http.Post(ts.URL+"/api/transport", "application/json", strings.NewReader(`{"action":"seek","time":0.25}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read seek event: %v", err)
	}
	if msg.Type != "seek" || msg.Time != 0.25 {
		t.Errorf("Expected seek to 0.25, got %+v", msg)
	}
}
