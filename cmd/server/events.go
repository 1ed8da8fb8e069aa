//go:build !js && !wasm

package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/SyncDeck/pkg/syncdeck/playback"
)

const (
	// eventBuffer is how many messages a slow client may fall behind before
	// further messages are dropped for it.
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// handleEvents handles GET /api/events. The connection first receives a
// "snapshot" message, then every transport event and a "timeline" message
// after each edit.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	out := make(chan EventMessage, eventBuffer)
	send := func(msg EventMessage) {
		select {
		case out <- msg:
		default:
			s.log.Debugf("Dropping %s event for slow client %s", msg.Type, getClientIP(r))
		}
	}

	// Bus handlers run on the publisher's goroutine, so they only enqueue.
	unsubscribe := s.service.Transport().Bus().Subscribe(func(e playback.Event) {
		send(toEventMessage(e))
	})
	defer unsubscribe()
	unwatch := s.service.WatchTimeline(func(duration float64) {
		send(EventMessage{Type: "timeline", Time: s.service.Transport().Time(), Duration: &duration})
	})
	defer unwatch()

	snap := s.service.Transport().Snapshot()
	duration := s.service.Timeline().Duration()
	send(EventMessage{
		Type:      "snapshot",
		Time:      snap.Time,
		Playing:   &snap.Playing,
		Rate:      &snap.BaseSpeed,
		Exporting: &snap.Exporting,
		Duration:  &duration,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.log.Infof("Event stream opened for %s", getClientIP(r))
	defer s.log.Infof("Event stream closed for %s", getClientIP(r))

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debugf("Event write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
