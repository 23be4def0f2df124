package services

import (
	"context"
	"fmt"

	"vpay-gamification/models"
	"vpay-gamification/repository"

	"gorm.io/gorm"
)

type EngineOptions struct {
	Now                Clock
	Notifier           Notifier
	Publisher          BadgePublisher
	AnalysisWindowDays int
	Catalog            *models.Catalog
}

// Engine wires every service over one database.
type Engine struct {
	Points          *PointsService
	Badges          *BadgeService
	Levels          *ProgressionService
	Streaks         *StreakService
	Quests          *QuestService
	Leaderboards    *LeaderboardService
	Activities      *ActivityService
	Recommendations *RecommendationService

	Transactions *repository.TransactionRepository
}

func NewEngine(db *gorm.DB, opts EngineOptions) (*Engine, error) {
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = models.DefaultCatalog(); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	now := opts.Now
	if now == nil {
		now = systemClock
	}

	users := repository.NewUserRepository(db)
	activities := repository.NewActivityRepository(db)
	streaks := repository.NewStreakRepository(db)
	quests := repository.NewQuestRepository(db)
	levels := repository.NewLevelRepository(db)
	badges := repository.NewBadgeRepository(db)
	txs := repository.NewTransactionRepository(db)
	recs := repository.NewRecommendationRepository(db)
	boards := repository.NewLeaderboardRepository(db)

	e := &Engine{Transactions: txs}

	e.Points = NewPointsService(users, opts.Notifier)
	e.Points.Now = now

	e.Badges = NewBadgeService(badges, quests, txs, catalog)
	e.Badges.Publisher = opts.Publisher
	e.Badges.Notifier = opts.Notifier
	e.Badges.Now = now

	e.Levels = NewProgressionService(levels, e.Badges, e.Points)
	e.Levels.Notifier = opts.Notifier
	e.Levels.Now = now

	e.Streaks = NewStreakService(streaks, e.Badges, e.Points)
	e.Streaks.Notifier = opts.Notifier
	e.Streaks.Now = now

	e.Quests = NewQuestService(quests, users, e.Levels, e.Badges, e.Points, catalog)
	e.Quests.Notifier = opts.Notifier
	e.Quests.Now = now

	e.Leaderboards = NewLeaderboardService(boards, users, levels, streaks, quests, txs, catalog)
	e.Leaderboards.Now = now

	e.Activities = NewActivityService(activities, e.Streaks, e.Quests, e.Badges, e.Leaderboards)
	e.Activities.Now = now
	e.Quests.OnCompleted = e.Activities.RecordQuestCompleted

	e.Recommendations = NewRecommendationService(recs, txs, activities, users, e.Points, e.Badges, e.Activities)
	e.Recommendations.Notifier = opts.Notifier
	e.Recommendations.Now = now
	if opts.AnalysisWindowDays > 0 {
		e.Recommendations.SetWindowDays(opts.AnalysisWindowDays)
	}

	return e, nil
}

// Bootstrap seeds the quest, badge and leaderboard catalogs.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if err := e.Quests.SeedCatalog(ctx); err != nil {
		return err
	}
	if err := e.Badges.SeedCatalog(ctx); err != nil {
		return err
	}
	return e.Leaderboards.SeedBoards(ctx)
}
