package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
)

func TestStreakMultiplier(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{1, 1.1},
		{2, 1.2},
		{5, 1.5},
		{10, 2.0},
		{20, 3.0},
		{25, 3.0},
		{365, 3.0},
	}
	for _, tt := range tests {
		if got := StreakMultiplier(tt.count); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("StreakMultiplier(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestMilestoneRarity(t *testing.T) {
	tests := []struct {
		count int
		want  models.Rarity
	}{
		{7, models.RarityCommon},
		{14, models.RarityCommon},
		{30, models.RarityRare},
		{50, models.RarityEpic},
		{100, models.RarityLegendary},
		{365, models.RarityMythic},
	}
	for _, tt := range tests {
		if got := MilestoneRarity(tt.count); got != tt.want {
			t.Fatalf("MilestoneRarity(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

func TestUpdateStreakSameDayIsNoop(t *testing.T) {
	f := newFixture(t)

	first, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin)
	if err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	f.clock.Advance(3 * time.Hour)
	second, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin)
	if err != nil {
		t.Fatalf("UpdateStreak again: %v", err)
	}

	if second.CurrentCount != 1 || first.CurrentCount != 1 {
		t.Fatalf("counts = %d, %d, want 1, 1", first.CurrentCount, second.CurrentCount)
	}
	if second.Version != first.Version {
		t.Fatalf("same-day update wrote the row: version %d -> %d", first.Version, second.Version)
	}
	if second.Multiplier != 1.0 {
		t.Fatalf("first-day multiplier = %v, want 1.0", second.Multiplier)
	}
	if got := f.points(t, "u1"); got != 10 {
		t.Fatalf("points = %d, want 10", got)
	}
}

func TestUpdateStreakConsecutiveDays(t *testing.T) {
	f := newFixture(t)

	var st *models.Streak
	for day := 0; day < 3; day++ {
		var err error
		st, err = f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakPayment)
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		f.clock.AddDays(1)
	}

	if st.CurrentCount != 3 || st.MaxCount != 3 {
		t.Fatalf("count/max = %d/%d, want 3/3", st.CurrentCount, st.MaxCount)
	}
	if math.Abs(st.Multiplier-1.3) > 1e-9 {
		t.Fatalf("multiplier = %v, want 1.3", st.Multiplier)
	}
	// 10 + 12 + 13
	if got := f.points(t, "u1"); got != 35 {
		t.Fatalf("points = %d, want 35", got)
	}
}

func TestUpdateStreakResetsAfterGap(t *testing.T) {
	f := newFixture(t)

	for day := 0; day < 4; day++ {
		if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin); err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		f.clock.AddDays(1)
	}
	// last activity was 3 days ago by the time of the next update
	f.clock.AddDays(2)

	st, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin)
	if err != nil {
		t.Fatalf("UpdateStreak after gap: %v", err)
	}
	if st.CurrentCount != 1 || st.Multiplier != 1.0 {
		t.Fatalf("after gap count=%d multiplier=%v, want 1 and 1.0", st.CurrentCount, st.Multiplier)
	}
	if st.MaxCount != 4 {
		t.Fatalf("max count = %d, want 4", st.MaxCount)
	}
	if !st.IsActive {
		t.Fatalf("streak should be active after a fresh activity")
	}
}

func TestSevenDayLoginStreakAwardsMilestone(t *testing.T) {
	f := newFixture(t)

	var st *models.Streak
	for day := 0; day < 7; day++ {
		if day > 0 {
			f.clock.AddDays(1)
		}
		var err error
		st, err = f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin)
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
	}
	if st.CurrentCount != 7 {
		t.Fatalf("count = %d, want 7", st.CurrentCount)
	}

	// 10+12+13+14+15+16+17 day points plus the 70 point milestone bonus
	if got := f.points(t, "u1"); got != 167 {
		t.Fatalf("points = %d, want 167", got)
	}
	if codes := f.badgeCodes(t, "u1"); codes["LOGIN_STREAK_7"] != 1 || len(codes) != 1 {
		t.Fatalf("badges = %v, want exactly LOGIN_STREAK_7", codes)
	}
	if n := f.events.count(events.TypeStreakMilestone); n != 1 {
		t.Fatalf("milestone events = %d, want 1", n)
	}

	// a second activity on day 7 pays nothing more
	if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if got := f.points(t, "u1"); got != 167 {
		t.Fatalf("points after repeat = %d, want 167", got)
	}
}

func TestUpdateStreakValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "", models.StreakLogin); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty user: err = %v, want ErrValidation", err)
	}
	if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", "NAPPING"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown type: err = %v, want ErrValidation", err)
	}
}

func TestBreakStaleStreaks(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "u1", models.StreakLogin); err != nil {
		t.Fatalf("UpdateStreak u1: %v", err)
	}
	f.clock.AddDays(1)
	if _, err := f.engine.Streaks.UpdateStreak(f.ctx, "u2", models.StreakLogin); err != nil {
		t.Fatalf("UpdateStreak u2: %v", err)
	}
	f.clock.AddDays(1)

	// u1 last acted two days ago, u2 yesterday
	broken, err := f.engine.Streaks.BreakAllStale(f.ctx)
	if err != nil {
		t.Fatalf("BreakAllStale: %v", err)
	}
	if broken != 1 {
		t.Fatalf("broken = %d, want 1", broken)
	}

	list, err := f.engine.Streaks.ListStreaks(f.ctx, "u1")
	if err != nil {
		t.Fatalf("ListStreaks: %v", err)
	}
	if len(list) != 1 || list[0].IsActive || list[0].CurrentCount != 0 {
		t.Fatalf("u1 streaks = %+v, want one inactive streak at 0", list)
	}

	list, err = f.engine.Streaks.ListStreaks(f.ctx, "u2")
	if err != nil {
		t.Fatalf("ListStreaks u2: %v", err)
	}
	if len(list) != 1 || !list[0].IsActive {
		t.Fatalf("u2 streak should still be active: %+v", list)
	}
}
