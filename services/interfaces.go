package services

import (
	"context"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"

	"github.com/shopspring/decimal"
)

// Stores consumed by the engine. The gorm implementations live in repository/.

type ActivityStore interface {
	Append(ctx context.Context, a *models.UserActivity) error
	ListRecent(ctx context.Context, userID string, limit int) ([]models.UserActivity, error)
	ListCategorizedSince(ctx context.Context, userID string, since time.Time, exclude []models.ActivityType) ([]models.UserActivity, error)
}

type StreakStore interface {
	Get(ctx context.Context, userID string, streakType models.StreakType) (*models.Streak, error)
	Create(ctx context.Context, s *models.Streak) error
	CompareAndSwap(ctx context.Context, s *models.Streak, expected int64) error
	ListByUser(ctx context.Context, userID string) ([]models.Streak, error)
	ListStale(ctx context.Context, userID string, cutoff time.Time) ([]models.Streak, error)
	MaxActiveCount(ctx context.Context, userID string) (int, error)
}

type QuestStore interface {
	UpsertTemplates(ctx context.Context, templates []models.Quest) error
	TemplatesByCode(ctx context.Context, codes []string) (map[string]models.Quest, error)
	Assign(ctx context.Context, uq *models.UserQuest) (bool, error)
	HasStartedSince(ctx context.Context, userID, questID string, since time.Time) (bool, error)
	Active(ctx context.Context, userID, questID string) (*models.UserQuest, error)
	Latest(ctx context.Context, userID, questID string) (*models.UserQuest, error)
	GetInstance(ctx context.Context, id string) (*models.UserQuest, error)
	ActiveForRequirement(ctx context.Context, userID string, activityType models.ActivityType, now time.Time) ([]models.UserQuest, error)
	CompareAndSwap(ctx context.Context, uq *models.UserQuest, expected int64) error
	ExpireStale(ctx context.Context, userID string, now time.Time) (int64, error)
	ListForDisplay(ctx context.Context, userID string, completedSince time.Time) ([]models.UserQuest, error)
	CountCompleted(ctx context.Context, userID string) (int64, error)
}

type LevelStore interface {
	Get(ctx context.Context, userID string) (*models.UserLevel, error)
	Create(ctx context.Context, lvl *models.UserLevel) error
	Save(ctx context.Context, lvl *models.UserLevel, expected int64, grant *models.XPGrant) error
}

type BadgeStore interface {
	EnsureBadge(ctx context.Context, badge *models.NFTBadge) (*models.NFTBadge, error)
	Award(ctx context.Context, award *models.UserBadge) (*models.UserBadge, bool, error)
	MergeAwardMetadata(ctx context.Context, awardID string, extra map[string]any) error
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error)
}

type RecommendationStore interface {
	CreateBatch(ctx context.Context, recs []models.RewardRecommendation) error
	Get(ctx context.Context, id string) (*models.RewardRecommendation, error)
	ListByUser(ctx context.Context, userID string, status models.RecommendationStatus) ([]models.RewardRecommendation, error)
	Transition(ctx context.Context, id string, from []models.RecommendationStatus, to models.RecommendationStatus, at time.Time) (bool, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	UpsertPatterns(ctx context.Context, patterns []models.SpendingPattern) error
	SaveDiscountCode(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error)
}

type UserStore interface {
	Ensure(ctx context.Context, userID string) (*models.User, error)
	Credit(ctx context.Context, userID string, delta int64, reason, key string, at time.Time) (*models.User, bool, error)
	SetPreference(ctx context.Context, userID, key string, value any) error
	ListIDs(ctx context.Context) ([]string, error)
}

type TransactionStore interface {
	Record(ctx context.Context, t *models.Transaction) (bool, error)
	CountCompleted(ctx context.Context, userID string, txType models.TransactionType) (int64, error)
	ListCompletedSince(ctx context.Context, userID string, types []models.TransactionType, since time.Time) ([]models.Transaction, error)
	SumCompletedSince(ctx context.Context, userID string, txType models.TransactionType, since time.Time) (decimal.Decimal, error)
}

type LeaderboardStore interface {
	EnsureBoards(ctx context.Context, boards []models.Leaderboard) error
	Boards(ctx context.Context) ([]models.Leaderboard, error)
	BoardByCode(ctx context.Context, code string) (*models.Leaderboard, error)
	UpsertScore(ctx context.Context, boardID, userID string, score float64) error
	Entries(ctx context.Context, boardID string, limit int) ([]models.LeaderboardEntry, error)
	RecomputeRanks(ctx context.Context, boardID string) (int, error)
}

// Notifier receives real-time events for connected clients.
type Notifier interface {
	Publish(evt events.Event)
}

// BadgePublisher stores public NFT metadata for a freshly minted badge and
// returns its URL.
type BadgePublisher interface {
	PublishBadgeMetadata(ctx context.Context, badge *models.NFTBadge, award *models.UserBadge) (string, error)
}

// Clock returns the current time; every service reads time through one.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// startOfDay truncates t to its UTC calendar day.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns Monday 00:00 UTC of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func notify(n Notifier, evtType, userID string, data map[string]any) {
	if n == nil {
		return
	}
	n.Publish(events.Event{Type: evtType, UserID: userID, Data: data})
}
