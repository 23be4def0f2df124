package events

import (
	"context"
	"sync"
	"time"
)

// Event types pushed to connected clients.
const (
	TypeQuestCompleted  = "quest_completed"
	TypeLevelUp         = "level_up"
	TypeBadgeEarned     = "badge_earned"
	TypeStreakMilestone = "streak_milestone"
	TypePointsCredited  = "points_credited"
	TypeRewardClaimed   = "reward_claimed"
)

type Event struct {
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Hub fans events out to per-user subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]string)}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, userID := range h.subs {
		if userID != "" && userID != evt.UserID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// slow consumer: drop
		}
	}
}

// Subscribe returns a channel of events for userID ("" receives all). The
// channel is closed when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID string, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = userID
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
