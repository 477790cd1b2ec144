package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPublishLifecycle_Delivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLifecycle("note.promoted", "inbox/a.md")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.promoted") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"inbox/a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishLifecycle_TriageThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The first event carries a triage.updated signal; the second,
	// inside the throttle window, must not.
	b.PublishLifecycle("note.promoted", "a.md")
	b.PublishLifecycle("note.repaired", "b.md")

	time.Sleep(50 * time.Millisecond)
	triageCount := 0
	lifecycleCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "triage.updated") {
				triageCount++
			} else {
				lifecycleCount++
			}
		default:
			break loop
		}
	}

	if lifecycleCount != 2 {
		t.Errorf("lifecycle events = %d, want 2", lifecycleCount)
	}
	if triageCount != 1 {
		t.Errorf("triage events = %d, want 1 (throttled)", triageCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	b.PublishLifecycle("note.changed", "x.md")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.changed") {
		t.Errorf("handler output missing event: %q", body)
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Client buffer holds 64 frames; overflow must not block the loop.
	for i := 0; i < 70; i++ {
		b.PublishLifecycle("note.changed", "x.md")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	// Safe no-ops after close.
	b.PublishLifecycle("note.promoted", "x.md")
	b.Unsubscribe(ch)
}
