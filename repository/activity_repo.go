package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts one immutable activity row.
func (r *ActivityRepository) Append(ctx context.Context, a *models.UserActivity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListRecent returns the newest activities first.
func (r *ActivityRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.UserActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListCategorizedSince returns activities carrying both an amount and a
// category, newest first, excluding the given types.
func (r *ActivityRepository) ListCategorizedSince(ctx context.Context, userID string, since time.Time, exclude []models.ActivityType) ([]models.UserActivity, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Where("amount IS NOT NULL AND category IS NOT NULL")
	if len(exclude) > 0 {
		q = q.Where("activity_type NOT IN ?", exclude)
	}
	var out []models.UserActivity
	err := q.Order("occurred_at DESC").Find(&out).Error
	return out, err
}
