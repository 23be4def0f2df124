package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// EnsureBoards inserts boards whose code is not yet known.
func (r *LeaderboardRepository) EnsureBoards(ctx context.Context, boards []models.Leaderboard) error {
	if len(boards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&boards).Error
}

func (r *LeaderboardRepository) Boards(ctx context.Context) ([]models.Leaderboard, error) {
	var out []models.Leaderboard
	err := r.db.WithContext(ctx).Order("code").Find(&out).Error
	return out, err
}

func (r *LeaderboardRepository) BoardByCode(ctx context.Context, code string) (*models.Leaderboard, error) {
	var b models.Leaderboard
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// UpsertScore caches the user's score on a board.
func (r *LeaderboardRepository) UpsertScore(ctx context.Context, boardID, userID string, score float64) error {
	entry := models.LeaderboardEntry{
		LeaderboardID: boardID,
		UserID:        userID,
		Score:         score,
		UpdatedAt:     time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "leaderboard_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(&entry).Error
}

// Entries returns a board ordered by score, best first.
func (r *LeaderboardRepository) Entries(ctx context.Context, boardID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("leaderboard_id = ?", boardID).
		Order("score DESC").Order("user_id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecomputeRanks numbers every entry of a board 1..n by score, ties broken
// by user id.
func (r *LeaderboardRepository) RecomputeRanks(ctx context.Context, boardID string) (int, error) {
	var updated int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries []models.LeaderboardEntry
		if err := tx.Where("leaderboard_id = ?", boardID).
			Order("score DESC").Order("user_id").
			Find(&entries).Error; err != nil {
			return err
		}
		for i, e := range entries {
			rank := i + 1
			if e.Rank == rank {
				continue
			}
			if err := tx.Model(&models.LeaderboardEntry{}).Where("id = ?", e.ID).Update("rank", rank).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	return updated, err
}
