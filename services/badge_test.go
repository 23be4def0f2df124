package services

import (
	"fmt"
	"testing"

	"vpay-gamification/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func (f *fixture) seedPayments(t *testing.T, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		tx := &models.Transaction{
			ID:        fmt.Sprintf("tx-%s-%d", userID, i),
			UserID:    userID,
			Type:      models.TransactionPayment,
			Status:    models.TransactionCompleted,
			Amount:    decimal.NewFromInt(20),
			Currency:  "USD",
			CreatedAt: f.clock.Now(),
			UpdatedAt: f.clock.Now(),
		}
		if _, err := f.engine.Transactions.Record(f.ctx, tx); err != nil {
			t.Fatalf("Record transaction: %v", err)
		}
	}
}

func (f *fixture) seedCompletedQuests(t *testing.T, userID string, n int) {
	t.Helper()
	tpl := f.template(t, "WEEKLY_LOGIN_STREAK")
	now := f.clock.Now()
	for i := 0; i < n; i++ {
		uq := &models.UserQuest{
			ID:          fmt.Sprintf("uq-%s-%d", userID, i),
			UserID:      userID,
			QuestID:     tpl.ID,
			Status:      models.QuestCompleted,
			Progress:    datatypes.NewJSONType(models.QuestProgress{"LOGIN": tpl.RequirementCount}),
			StartedAt:   now,
			CompletedAt: &now,
		}
		if err := f.db.Create(uq).Error; err != nil {
			t.Fatalf("seed completed quest: %v", err)
		}
	}
}

func (f *fixture) seedBadges(t *testing.T, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.engine.Badges.AwardBadge(f.ctx, userID, fmt.Sprintf("SEED_BADGE_%d", i), nil); err != nil {
			t.Fatalf("AwardBadge: %v", err)
		}
	}
}

func TestCheckAchievementRules(t *testing.T) {
	tests := []struct {
		name     string
		payments int
		quests   int
		badges   int
		activity models.ActivityType
		badge    string
		want     bool
	}{
		{"no payment yet", 0, 0, 0, models.ActivityPaymentSent, models.BadgeFirstPayment, false},
		{"first payment", 1, 0, 0, models.ActivityPaymentSent, models.BadgeFirstPayment, true},
		{"second payment", 2, 0, 0, models.ActivityPaymentSent, models.BadgeFirstPayment, false},
		{"first payment on login", 1, 0, 0, models.ActivityLogin, models.BadgeFirstPayment, false},
		{"four quests", 0, 4, 0, models.ActivityQuestCompleted, models.BadgeQuestMaster, false},
		{"five quests", 0, 5, 0, models.ActivityQuestCompleted, models.BadgeQuestMaster, true},
		{"six quests", 0, 6, 0, models.ActivityQuestCompleted, models.BadgeQuestMaster, false},
		{"ten quests", 0, 10, 0, models.ActivityQuestCompleted, models.BadgeQuestMaster, true},
		{"four badges", 0, 0, 4, models.ActivityLogin, models.BadgeCollector, false},
		{"five badges", 0, 0, 5, models.ActivityLogin, models.BadgeCollector, true},
		{"six badges", 0, 0, 6, models.ActivityLogin, models.BadgeCollector, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedPayments(t, "u1", tt.payments)
			f.seedCompletedQuests(t, "u1", tt.quests)
			f.seedBadges(t, "u1", tt.badges)

			if _, err := f.engine.Badges.CheckAchievements(f.ctx, "u1", tt.activity, nil); err != nil {
				t.Fatalf("CheckAchievements: %v", err)
			}
			if got := f.badgeCodes(t, "u1")[tt.badge] == 1; got != tt.want {
				t.Fatalf("%s awarded = %v, want %v", tt.badge, got, tt.want)
			}
		})
	}
}

func TestCheckAchievementsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedPayments(t, "u1", 1)

	for i := 0; i < 2; i++ {
		if _, err := f.engine.Badges.CheckAchievements(f.ctx, "u1", models.ActivityPaymentSent, nil); err != nil {
			t.Fatalf("CheckAchievements %d: %v", i, err)
		}
	}
	if n := f.badgeCodes(t, "u1")[models.BadgeFirstPayment]; n != 1 {
		t.Fatalf("FIRST_PAYMENT awards = %d, want 1", n)
	}
}

func TestRarityFor(t *testing.T) {
	if got := RarityFor("SOMETHING_NEW"); got != models.RarityCommon {
		t.Fatalf("unknown rarity = %s, want COMMON", got)
	}
	for code, want := range models.BadgeRarities {
		if got := RarityFor(code); got != want {
			t.Fatalf("RarityFor(%s) = %s, want %s", code, got, want)
		}
	}
}
