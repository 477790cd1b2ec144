// Package sse streams lifecycle events to connected clients over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one SSE frame to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type lifecycleEvent struct {
	kind string
	path string
}

// Broker fans lifecycle events out to SSE clients.
//
// A single event loop owns all mutable state (the client set and the
// triage throttle timestamp); public methods talk to it through
// channels, so no locks are needed.
type Broker struct {
	triageMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	lifecycleCh   chan lifecycleEvent

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. triageThrottle bounds how often the
// aggregate triage.updated event is emitted; lifecycle events
// themselves are never throttled.
func NewBroker(triageThrottle time.Duration) *Broker {
	if triageThrottle <= 0 {
		triageThrottle = 2 * time.Second
	}
	b := &Broker{
		triageMin:     triageThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		lifecycleCh:   make(chan lifecycleEvent, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastTriage time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop the frame rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.lifecycleCh:
			broadcast(Event{Type: ev.kind, Data: map[string]string{"path": ev.path}})

			now := time.Now()
			if now.Sub(lastTriage) >= b.triageMin {
				lastTriage = now
				broadcast(Event{Type: "triage.updated", Data: map[string]string{}})
			}
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// PublishLifecycle broadcasts one lifecycle event (note.promoted,
// note.repaired, note.changed, note.removed) plus a throttled
// triage.updated signal telling clients to refresh their candidate
// view.
func (b *Broker) PublishLifecycle(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.lifecycleCh <- lifecycleEvent{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP handles GET /api/events.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
