package repository

import (
	"context"

	"vpay-gamification/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// EnsureBadge returns the catalog row for badge.Code, inserting badge when
// the code is new. Code is unique, so concurrent callers converge on one row.
func (r *BadgeRepository) EnsureBadge(ctx context.Context, badge *models.NFTBadge) (*models.NFTBadge, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(badge).Error; err != nil {
		return nil, err
	}
	var out models.NFTBadge
	if err := db.Where("code = ?", badge.Code).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// Award inserts the user badge unless the pair already exists, then returns
// the stored row. created reports whether this call inserted it.
func (r *BadgeRepository) Award(ctx context.Context, award *models.UserBadge) (*models.UserBadge, bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(award)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var out models.UserBadge
	if err := db.Preload("Badge").
		Where("user_id = ? AND badge_id = ?", award.UserID, award.BadgeID).
		First(&out).Error; err != nil {
		return nil, false, notFound(err)
	}
	return &out, res.RowsAffected > 0, nil
}

// MergeAwardMetadata adds keys to an award's metadata.
func (r *BadgeRepository) MergeAwardMetadata(ctx context.Context, awardID string, extra map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ub models.UserBadge
		if err := tx.Where("id = ?", awardID).First(&ub).Error; err != nil {
			return notFound(err)
		}
		merged := datatypes.JSONMap{}
		for k, v := range ub.Metadata {
			merged[k] = v
		}
		for k, v := range extra {
			merged[k] = v
		}
		return tx.Model(&models.UserBadge{}).Where("id = ?", awardID).Update("metadata", merged).Error
	})
}

func (r *BadgeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var out []models.UserBadge
	err := r.db.WithContext(ctx).Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&out).Error
	return out, err
}
