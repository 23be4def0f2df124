package events

import (
	"context"
	"testing"
	"time"
)

func TestHubRoutesByUser(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := hub.Subscribe(ctx, "u1", 4)
	all := hub.Subscribe(ctx, "", 4)
	if n := hub.Subscribers(); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	hub.Publish(Event{Type: TypeBadgeEarned, UserID: "u2"})
	hub.Publish(Event{Type: TypeLevelUp, UserID: "u1"})

	select {
	case evt := <-mine:
		if evt.Type != TypeLevelUp || evt.Timestamp == 0 {
			t.Fatalf("u1 got %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("u1 received nothing")
	}
	select {
	case evt := <-mine:
		t.Fatalf("u1 got another user's event: %+v", evt)
	default:
	}

	if len(all) != 2 {
		t.Fatalf("wildcard subscriber buffered %d events, want 2", len(all))
	}
}

func TestHubClosesOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.Subscribe(ctx, "u1", 1)

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
	if n := hub.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := hub.Subscribe(ctx, "u1", 1)

	hub.Publish(Event{Type: TypePointsCredited, UserID: "u1"})
	hub.Publish(Event{Type: TypePointsCredited, UserID: "u1"})
	if len(ch) != 1 {
		t.Fatalf("buffered = %d, want 1", len(ch))
	}

	var nilHub *Hub
	nilHub.Publish(Event{Type: TypeLevelUp})
}
