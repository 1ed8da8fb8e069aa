//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/syncer"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/timeline"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorDecode
	ErrorEdit
	ErrorTransport
)

// haveMetadata is HTMLMediaElement.HAVE_METADATA.
const haveMetadata = 1

// mediaElement adapts an HTMLMediaElement to syncer.MediaElement.
type mediaElement struct {
	v js.Value
}

func (e mediaElement) CurrentTime() float64 { return e.v.Get("currentTime").Float() }
func (e mediaElement) Paused() bool         { return e.v.Get("paused").Bool() }
func (e mediaElement) Ready() bool          { return e.v.Get("readyState").Int() >= haveMetadata }
func (e mediaElement) Seek(t float64)       { e.v.Set("currentTime", t) }
func (e mediaElement) Rate() float64        { return e.v.Get("playbackRate").Float() }
func (e mediaElement) SetRate(rate float64) { e.v.Set("playbackRate", rate) }
func (e mediaElement) Pause()               { e.v.Call("pause") }

// Play starts playback. A rejected promise (autoplay policy) leaves the
// element paused and the controller retries on its next tick.
func (e mediaElement) Play() error {
	p := e.v.Call("play")
	if p.Type() == js.TypeObject && p.Get("catch").Type() == js.TypeFunction {
		var onReject js.Func
		onReject = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			onReject.Release()
			return nil
		})
		p.Call("catch", onReject)
	}
	return nil
}

// mediaTable is the in-page media registry the host fills before loading a
// project, so kind and duration checks work without a server.
type mediaTable struct {
	mu    sync.RWMutex
	files map[string]models.MediaFile
}

func (m *mediaTable) GetFile(id string) (models.MediaFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return models.MediaFile{}, fmt.Errorf("media %s not registered", id)
	}
	return f, nil
}

func (m *mediaTable) put(f models.MediaFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.ID] = f
}

var (
	media     = &mediaTable{files: make(map[string]models.MediaFile)}
	store     *timeline.Store
	bus       *playback.Bus
	transport *playback.Transport
	frames    *syncer.FrameScheduler
	group     *syncer.Group
	lastFrame float64
	frameFunc js.Func
)

func setup() {
	store = timeline.NewStore(timeline.WithMediaLookup(media))
	bus = playback.NewBus()
	transport = playback.NewTransport(store, bus)
	store.SetPlayhead(transport.Time)
	store.SetOnChange(func(duration float64) {
		if transport.Time() > duration {
			transport.Seek(duration)
		}
	})
	frames = syncer.NewFrameScheduler()
	group = syncer.NewGroup(transport, store, bus, frames)
}

// frame advances the transport by the wall time since the previous animation
// frame and runs every scheduled sync tick.
func frame(this js.Value, args []js.Value) interface{} {
	now := args[0].Float()
	if lastFrame > 0 {
		transport.Advance((now - lastFrame) / 1000)
	}
	lastFrame = now
	frames.Frame()
	js.Global().Call("requestAnimationFrame", frameFunc)
	return nil
}

func registerMedia(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: mediaJSON")
	}
	var f models.MediaFile
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return makeErrorResponse(ErrorDecode, fmt.Sprintf("Invalid media: %v", err))
	}
	if f.ID == "" {
		return makeErrorResponse(ErrorInvalidArgs, "media id is required")
	}
	media.put(f)
	return makeResponse(f.ID)
}

func loadProject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: projectJSON")
	}
	var p models.Project
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return makeErrorResponse(ErrorDecode, fmt.Sprintf("Invalid project: %v", err))
	}
	transport.Pause()
	if err := store.Restore(p); err != nil {
		return makeErrorResponse(ErrorEdit, err.Error())
	}
	transport.Seek(0)
	return makeResponse(len(store.AllClips()))
}

func exportProject(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(store.Snapshot())
	if err != nil {
		return makeErrorResponse(ErrorDecode, err.Error())
	}
	return makeResponse(string(data))
}

func bindElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[0].Type() != js.TypeString || args[1].Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: clipId, mediaElement")
	}
	clipID := args[0].String()
	if _, ok := store.Clip(clipID); !ok {
		return makeErrorResponse(ErrorEdit, fmt.Sprintf("clip %s not found", clipID))
	}
	state := group.Bind(clipID, mediaElement{v: args[1]}).State()
	return makeResponse(state.String())
}

func unbindElement(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: clipId")
	}
	return makeResponse(group.Unbind(args[0].String()))
}

func syncStates(this js.Value, args []js.Value) interface{} {
	out := js.Global().Get("Object").New()
	for id, st := range group.States() {
		out.Set(id, st.String())
	}
	return makeResponse(out)
}

// transportCall handles play, pause, toggle, seek, speed and export actions.
func transportCall(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected action name")
	}
	number := func() (float64, bool) {
		if len(args) < 2 || args[1].Type() != js.TypeNumber {
			return 0, false
		}
		return args[1].Float(), true
	}

	var err error
	switch action := args[0].String(); action {
	case "play":
		transport.Play()
	case "pause":
		transport.Pause()
	case "toggle":
		transport.Toggle()
	case "seek":
		t, ok := number()
		if !ok {
			return makeErrorResponse(ErrorInvalidArgs, "seek needs a time")
		}
		err = transport.Seek(t)
	case "speed":
		r, ok := number()
		if !ok {
			return makeErrorResponse(ErrorInvalidArgs, "speed needs a rate")
		}
		err = transport.SetSpeed(r)
	case "export":
		transport.SetExporting(len(args) > 1 && args[1].Truthy())
	default:
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		return makeErrorResponse(ErrorTransport, err.Error())
	}
	return makeResponse(snapshotObject(transport.Snapshot()))
}

// resolveAt returns the visible clips at a timeline time, defaulting to the
// playhead. Exporters call it once per rendered frame.
func resolveAt(this js.Value, args []js.Value) interface{} {
	t := transport.Time()
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		t = args[0].Float()
	}
	arr := js.Global().Get("Array").New()
	idx := 0
	for _, ct := range store.ResolveAt(t) {
		if !ct.Visible {
			continue
		}
		obj := js.Global().Get("Object").New()
		obj.Set("clipId", ct.Clip.ID)
		obj.Set("trackId", ct.TrackID)
		obj.Set("mediaId", ct.Clip.MediaID)
		obj.Set("mediaTime", ct.MediaTime)
		obj.Set("muted", ct.Muted)
		arr.SetIndex(idx, obj)
		idx++
	}
	return makeResponse(arr)
}

// onEvent forwards every bus event to a JavaScript callback.
func onEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return makeErrorResponse(ErrorInvalidArgs, "Expected a callback")
	}
	cb := args[0]
	bus.Subscribe(func(e playback.Event) {
		obj := js.Global().Get("Object").New()
		obj.Set("type", string(e.Kind))
		obj.Set("time", e.Time)
		obj.Set("playing", e.Playing)
		obj.Set("rate", e.Rate)
		obj.Set("exporting", e.Exporting)
		cb.Invoke(obj)
	})
	return makeResponse(true)
}

func snapshotObject(s playback.Snapshot) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("time", s.Time)
	obj.Set("playing", s.Playing)
	obj.Set("baseSpeed", s.BaseSpeed)
	obj.Set("exporting", s.Exporting)
	obj.Set("duration", store.Duration())
	return obj
}

func makeResponse(data interface{}) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 SyncDeck WASM module initializing...")
	}

	done := make(chan struct{})
	setup()
	frameFunc = js.FuncOf(frame)

	api := js.Global().Get("Object").New()
	api.Set("registerMedia", js.FuncOf(registerMedia))
	api.Set("loadProject", js.FuncOf(loadProject))
	api.Set("exportProject", js.FuncOf(exportProject))
	api.Set("bind", js.FuncOf(bindElement))
	api.Set("unbind", js.FuncOf(unbindElement))
	api.Set("states", js.FuncOf(syncStates))
	api.Set("transport", js.FuncOf(transportCall))
	api.Set("resolve", js.FuncOf(resolveAt))
	api.Set("onEvent", js.FuncOf(onEvent))
	js.Global().Set("syncdeck", api)

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		window.Call("requestAnimationFrame", frameFunc)
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ SyncDeck WASM module loaded and ready")
	}

	<-done
}
