package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/testutil"

	"gorm.io/gorm"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) count(evtType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == evtType {
			n++
		}
	}
	return n
}

type fixture struct {
	db     *gorm.DB
	engine *Engine
	clock  *testutil.Clock
	events *recorder
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testutil.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	db := testutil.OpenTestDB(t)
	engine, err := NewEngine(db, EngineOptions{Now: clock.Now, Notifier: rec})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctx := context.Background()
	if err := engine.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return &fixture{db: db, engine: engine, clock: clock, events: rec, ctx: ctx}
}

func (f *fixture) points(t *testing.T, userID string) int64 {
	t.Helper()
	u, err := f.engine.Points.GetUser(f.ctx, userID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	return u.RewardPoints
}

func (f *fixture) badgeCodes(t *testing.T, userID string) map[string]int {
	t.Helper()
	list, err := f.engine.Badges.ListUserBadges(f.ctx, userID)
	if err != nil {
		t.Fatalf("ListUserBadges: %v", err)
	}
	out := map[string]int{}
	for _, ub := range list {
		out[ub.Badge.Code]++
	}
	return out
}

func (f *fixture) template(t *testing.T, code string) models.Quest {
	t.Helper()
	byCode, err := f.engine.Quests.Quests.TemplatesByCode(f.ctx, []string{code})
	if err != nil {
		t.Fatalf("TemplatesByCode: %v", err)
	}
	tpl, ok := byCode[code]
	if !ok {
		t.Fatalf("template %s not seeded", code)
	}
	return tpl
}
