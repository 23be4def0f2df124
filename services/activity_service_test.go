package services

import (
	"errors"
	"testing"

	"vpay-gamification/models"
)

func TestRecordLoginCompletesDailyQuestOnce(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Quests.GetQuests(f.ctx, "u1"); err != nil {
		t.Fatalf("GetQuests: %v", err)
	}

	res, err := f.engine.Activities.Record(f.ctx, RecordInput{UserID: "u1", ActivityType: models.ActivityLogin})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !res.Success || res.Error != "" {
		t.Fatalf("result = %+v, want clean success", res)
	}
	if len(res.CompletedQuests) != 1 || res.CompletedQuests[0].Quest.Code != "DAILY_LOGIN" {
		t.Fatalf("completed = %+v, want DAILY_LOGIN", res.CompletedQuests)
	}

	acts, err := f.engine.Activities.ListRecent(f.ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("activities = %d, want LOGIN plus a synthetic QUEST_COMPLETED", len(acts))
	}
	synthetic := 0
	for _, a := range acts {
		if a.ActivityType == models.ActivityQuestCompleted {
			synthetic++
			if a.Metadata["synthetic"] != true {
				t.Fatalf("quest completion not marked synthetic: %v", a.Metadata)
			}
		}
	}
	if synthetic != 1 {
		t.Fatalf("synthetic events = %d, want 1", synthetic)
	}

	// login streak 10 + quest reward 10 + quest-completion streak 10
	if got := f.points(t, "u1"); got != 30 {
		t.Fatalf("points = %d, want 30", got)
	}

	again, err := f.engine.Activities.Record(f.ctx, RecordInput{UserID: "u1", ActivityType: models.ActivityLogin})
	if err != nil {
		t.Fatalf("Record again: %v", err)
	}
	if len(again.CompletedQuests) != 0 {
		t.Fatalf("quest completed twice: %+v", again.CompletedQuests)
	}
	if got := f.points(t, "u1"); got != 30 {
		t.Fatalf("points after repeat = %d, want 30", got)
	}

	list, err := f.engine.Quests.GetQuests(f.ctx, "u1")
	if err != nil {
		t.Fatalf("GetQuests: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("quests = %d, want 2 active plus 1 completed today", len(list))
	}
	for _, uq := range list {
		if uq.Quest.Code == "DAILY_LOGIN" && uq.Status != models.QuestCompleted {
			t.Fatalf("DAILY_LOGIN was reassigned after completion: %+v", uq)
		}
	}
}

func TestRecordValidation(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Activities.Record(f.ctx, RecordInput{ActivityType: models.ActivityLogin})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if res == nil || res.Success || res.Error == "" {
		t.Fatalf("result = %+v, want failure with message", res)
	}
	if _, err := f.engine.Activities.Record(f.ctx, RecordInput{UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing type: err = %v, want ErrValidation", err)
	}
}

func TestRecordUnknownTypeIsLoggedOnly(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Activities.Record(f.ctx, RecordInput{UserID: "u1", ActivityType: "PROFILE_UPDATED"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	streaks, err := f.engine.Streaks.ListStreaks(f.ctx, "u1")
	if err != nil {
		t.Fatalf("ListStreaks: %v", err)
	}
	if len(streaks) != 0 {
		t.Fatalf("streaks = %+v, want none", streaks)
	}
}
