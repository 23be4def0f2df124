package services

import (
	"errors"
	"testing"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/repository"
)

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		cur, req int
		want     float64
	}{
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{9, 4, 100},
		{3, 0, 100},
	}
	for _, tt := range tests {
		if got := PercentComplete(tt.cur, tt.req); got != tt.want {
			t.Fatalf("PercentComplete(%d, %d) = %v, want %v", tt.cur, tt.req, got, tt.want)
		}
	}
}

func TestQuestCompletesExactlyAtThreshold(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("GenerateWeeklyQuests: %v", err)
	}
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")

	for i := 1; i < tpl.RequirementCount; i++ {
		res, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, 1)
		if err != nil {
			t.Fatalf("progress %d: %v", i, err)
		}
		if res.IsCompleted || res.Progress != i {
			t.Fatalf("after %d: %+v, want progress %d and not completed", i, res, i)
		}
	}

	res, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, 1)
	if err != nil {
		t.Fatalf("final progress: %v", err)
	}
	if !res.IsCompleted || res.Percent != 100 {
		t.Fatalf("final = %+v, want completed at 100%%", res)
	}

	// no ACTIVE instance left: reported, not counted
	again, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, 1)
	if err != nil {
		t.Fatalf("extra progress: %v", err)
	}
	if again.IsCompleted || again.Progress != tpl.RequirementCount {
		t.Fatalf("extra = %+v, want untouched completed instance", again)
	}

	// quest reward plus the first QUEST_COMPLETION streak day
	if got := f.points(t, "u1"); got != tpl.PointsReward+BaseStreakPoints {
		t.Fatalf("points = %d, want %d", got, tpl.PointsReward+BaseStreakPoints)
	}
	if codes := f.badgeCodes(t, "u1"); codes[models.BadgeWeeklyWarrior] != 1 {
		t.Fatalf("badges = %v, want WEEKLY_WARRIOR", codes)
	}
	lvl, err := f.engine.Levels.GetLevel(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetLevel: %v", err)
	}
	if lvl.TotalXP != tpl.XPReward {
		t.Fatalf("xp = %d, want %d", lvl.TotalXP, tpl.XPReward)
	}
	if n := f.events.count(events.TypeQuestCompleted); n != 1 {
		t.Fatalf("quest_completed events = %d, want 1", n)
	}
}

func TestDirectCompletionIsLogged(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("GenerateWeeklyQuests: %v", err)
	}
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")
	res, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, tpl.RequirementCount)
	if err != nil {
		t.Fatalf("UpdateQuestProgress: %v", err)
	}
	if !res.IsCompleted {
		t.Fatalf("res = %+v, want completed", res)
	}

	recent, err := f.engine.Activities.ListRecent(f.ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	logged := 0
	for _, a := range recent {
		if a.ActivityType != models.ActivityQuestCompleted {
			continue
		}
		logged++
		if a.Metadata["synthetic"] != true || a.Metadata["userQuestId"] != res.UserQuestID {
			t.Fatalf("metadata = %v", a.Metadata)
		}
	}
	if logged != 1 {
		t.Fatalf("QUEST_COMPLETED activities = %d, want 1", logged)
	}

	streaks, err := f.engine.Streaks.ListStreaks(f.ctx, "u1")
	if err != nil {
		t.Fatalf("ListStreaks: %v", err)
	}
	if len(streaks) != 1 || streaks[0].StreakType != models.StreakQuestCompletion || streaks[0].CurrentCount != 1 {
		t.Fatalf("streaks = %+v, want one QUEST_COMPLETION streak", streaks)
	}
}

func TestWeeklyQuestsAssignedOncePerWeek(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")

	for round := 0; round < 3; round++ {
		if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
			t.Fatalf("round %d: GenerateWeeklyQuests: %v", round, err)
		}
		res, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, tpl.RequirementCount)
		if err != nil {
			t.Fatalf("round %d: UpdateQuestProgress: %v", round, err)
		}
		if got := res.IsCompleted; got != (round == 0) {
			t.Fatalf("round %d: completed = %v", round, got)
		}
	}
	if got := f.points(t, "u1"); got != tpl.PointsReward+BaseStreakPoints {
		t.Fatalf("points = %d, want one payout of %d", got, tpl.PointsReward+BaseStreakPoints)
	}

	// Sunday is still the same week
	f.clock.AddDays(6)
	if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("Sunday: GenerateWeeklyQuests: %v", err)
	}
	if _, err := f.engine.Quests.Quests.Active(f.ctx, "u1", tpl.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Sunday: err = %v, want no active instance", err)
	}

	f.clock.AddDays(1)
	if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("next Monday: GenerateWeeklyQuests: %v", err)
	}
	if _, err := f.engine.Quests.Quests.Active(f.ctx, "u1", tpl.ID); err != nil {
		t.Fatalf("next Monday: Active: %v", err)
	}
}

func TestWeeklyLoginQuestCountsEveryLogin(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Quests.GenerateWeeklyQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("GenerateWeeklyQuests: %v", err)
	}
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")
	if tpl.Description != "Log in five times this week" {
		t.Fatalf("description = %q", tpl.Description)
	}

	var completed []models.UserQuest
	for i := 0; i < tpl.RequirementCount; i++ {
		res, err := f.engine.Activities.Record(f.ctx, RecordInput{UserID: "u1", ActivityType: models.ActivityLogin})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
		completed = append(completed, res.CompletedQuests...)
	}
	if len(completed) != 1 || completed[0].QuestID != tpl.ID {
		t.Fatalf("completed = %+v, want the weekly login quest after %d same-day logins", completed, tpl.RequirementCount)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		at   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := startOfWeek(tt.at); !got.Equal(tt.want) {
			t.Fatalf("startOfWeek(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestUpdateQuestProgressErrors(t *testing.T) {
	f := newFixture(t)
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")

	if _, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero increment: err = %v, want ErrValidation", err)
	}
	if _, err := f.engine.Quests.UpdateQuestProgress(f.ctx, "u1", tpl.ID, models.ActivityLogin, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("never assigned: err = %v, want ErrNotFound", err)
	}
}

func TestGetQuestsAssignsDailySetOnce(t *testing.T) {
	f := newFixture(t)

	list, err := f.engine.Quests.GetQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetQuests: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("daily quests = %d, want 3", len(list))
	}
	for _, uq := range list {
		if uq.Quest.Type != models.QuestDaily || uq.Status != models.QuestActive {
			t.Fatalf("unexpected quest %+v", uq)
		}
		if uq.Quest.Code == "DAILY_POWER_USER" {
			t.Fatalf("bonus quest assigned below level %d", BonusQuestMinLevel)
		}
	}

	list, err = f.engine.Quests.GetQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetQuests again: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("second call returned %d quests, want 3", len(list))
	}

	// yesterday's set expires at midnight and a fresh one is assigned
	f.clock.AddDays(1)
	list, err = f.engine.Quests.GetQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetQuests next day: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("next day quests = %d, want 3", len(list))
	}
	today := f.clock.Now().Truncate(24 * time.Hour)
	for _, uq := range list {
		if uq.StartedAt.Before(today) {
			t.Fatalf("stale instance still listed: %+v", uq)
		}
	}
}

func TestBonusQuestUnlocksAtLevelFive(t *testing.T) {
	f := newFixture(t)

	// 100+150+225+337 reaches level 5
	if _, err := f.engine.Levels.AwardXP(f.ctx, "u1", 812); err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	templates, err := f.engine.Quests.GenerateDailyQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GenerateDailyQuests: %v", err)
	}
	found := false
	for _, tpl := range templates {
		if tpl.Code == "DAILY_POWER_USER" {
			found = true
		}
	}
	if !found {
		t.Fatalf("bonus quest missing at level 5: %d templates", len(templates))
	}
}

func TestFailQuest(t *testing.T) {
	f := newFixture(t)

	list, err := f.engine.Quests.GetQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetQuests: %v", err)
	}
	id := list[0].ID

	if _, err := f.engine.Quests.FailQuest(f.ctx, "u2", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user: err = %v, want ErrNotFound", err)
	}
	uq, err := f.engine.Quests.FailQuest(f.ctx, "u1", id)
	if err != nil {
		t.Fatalf("FailQuest: %v", err)
	}
	if uq.Status != models.QuestFailed {
		t.Fatalf("status = %s, want FAILED", uq.Status)
	}
	if _, err := f.engine.Quests.FailQuest(f.ctx, "u1", id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second abandon: err = %v, want ErrInvalidState", err)
	}
}

func TestExpiredQuestDoesNotProgress(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Quests.GetQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("GetQuests: %v", err)
	}
	f.clock.AddDays(1)

	completed, err := f.engine.Quests.ProgressForActivity(f.ctx, "u1", models.ActivityLogin, 1)
	if err != nil {
		t.Fatalf("ProgressForActivity: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("expired quest completed: %+v", completed)
	}
	n, err := f.engine.Quests.ExpireStale(f.ctx)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 3 {
		t.Fatalf("expired = %d, want 3", n)
	}
}
