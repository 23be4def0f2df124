package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// CreateBatch persists a generated batch in one statement.
func (r *RecommendationRepository) CreateBatch(ctx context.Context, recs []models.RewardRecommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&recs).Error
}

func (r *RecommendationRepository) Get(ctx context.Context, id string) (*models.RewardRecommendation, error) {
	var rec models.RewardRecommendation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// ListByUser returns the user's recommendations, highest confidence first.
// An empty status matches all.
func (r *RecommendationRepository) ListByUser(ctx context.Context, userID string, status models.RecommendationStatus) ([]models.RewardRecommendation, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.RewardRecommendation
	err := q.Order("created_at DESC").Order("confidence DESC").Find(&out).Error
	return out, err
}

// Transition moves a recommendation to `to` only from one of `from`.
// It reports whether this call performed the transition.
func (r *RecommendationRepository) Transition(ctx context.Context, id string, from []models.RecommendationStatus, to models.RecommendationStatus, at time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if to == models.RecommendationClaimed {
		updates["claimed_at"] = at
	}
	res := r.db.WithContext(ctx).Model(&models.RewardRecommendation{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireStale marks open recommendations past expires_at as EXPIRED.
func (r *RecommendationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RewardRecommendation{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]models.RecommendationStatus{models.RecommendationPending, models.RecommendationViewed}, now).
		Update("status", models.RecommendationExpired)
	return res.RowsAffected, res.Error
}

// UpsertPatterns refreshes monthly spending aggregates.
func (r *RecommendationRepository) UpsertPatterns(ctx context.Context, patterns []models.SpendingPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}, {Name: "period_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_amount", "frequency", "avg_amount", "trend_direction", "updated_at"}),
	}).Create(&patterns).Error
}

func (r *RecommendationRepository) ListPatterns(ctx context.Context, userID string, periodStart time.Time) ([]models.SpendingPattern, error) {
	var out []models.SpendingPattern
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		Order("total_amount DESC").
		Find(&out).Error
	return out, err
}

// SaveDiscountCode stores the code for a recommendation once and returns the
// stored row.
func (r *RecommendationRepository) SaveDiscountCode(ctx context.Context, code *models.DiscountCode) (*models.DiscountCode, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(code).Error; err != nil {
		return nil, err
	}
	var out models.DiscountCode
	if err := db.Where("recommendation_id = ?", code.RecommendationID).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}
