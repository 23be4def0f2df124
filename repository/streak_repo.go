package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

func (r *StreakRepository) Get(ctx context.Context, userID string, streakType models.StreakType) (*models.Streak, error) {
	var s models.Streak
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND streak_type = ?", userID, streakType).
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// Create inserts a new streak row. ErrConflict means another request created
// it first.
func (r *StreakRepository) Create(ctx context.Context, s *models.Streak) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// CompareAndSwap writes s only if the stored version still equals expected.
func (r *StreakRepository) CompareAndSwap(ctx context.Context, s *models.Streak, expected int64) error {
	res := r.db.WithContext(ctx).Model(&models.Streak{}).
		Where("id = ? AND version = ?", s.ID, expected).
		Updates(map[string]any{
			"current_count":      s.CurrentCount,
			"max_count":          s.MaxCount,
			"last_activity_date": s.LastActivityDate,
			"multiplier":         s.Multiplier,
			"is_active":          s.IsActive,
			"version":            expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	s.Version = expected + 1
	return nil
}

func (r *StreakRepository) ListByUser(ctx context.Context, userID string) ([]models.Streak, error) {
	var out []models.Streak
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("streak_type").Find(&out).Error
	return out, err
}

// ListStale returns active streaks whose last activity is before cutoff.
// An empty userID matches every user.
func (r *StreakRepository) ListStale(ctx context.Context, userID string, cutoff time.Time) ([]models.Streak, error) {
	q := r.db.WithContext(ctx).Where("is_active = ? AND last_activity_date < ?", true, cutoff)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.Streak
	err := q.Find(&out).Error
	return out, err
}

// MaxActiveCount is the best current count over the user's active streaks.
func (r *StreakRepository) MaxActiveCount(ctx context.Context, userID string) (int, error) {
	var best int
	err := r.db.WithContext(ctx).Model(&models.Streak{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Select("COALESCE(MAX(current_count), 0)").
		Scan(&best).Error
	return best, err
}
