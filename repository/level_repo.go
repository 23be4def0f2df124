package repository

import (
	"context"

	"vpay-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LevelRepository struct {
	db *gorm.DB
}

func NewLevelRepository(db *gorm.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

func (r *LevelRepository) Get(ctx context.Context, userID string) (*models.UserLevel, error) {
	var lvl models.UserLevel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&lvl).Error; err != nil {
		return nil, notFound(err)
	}
	return &lvl, nil
}

// Create inserts the starting row; a concurrent insert is not an error.
func (r *LevelRepository) Create(ctx context.Context, lvl *models.UserLevel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(lvl).Error
}

// Save writes lvl if its version still equals expected. A non-nil grant is
// inserted in the same transaction; ErrDuplicate is returned when its key
// was already used and nothing is written.
func (r *LevelRepository) Save(ctx context.Context, lvl *models.UserLevel, expected int64, grant *models.XPGrant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if grant != nil {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(grant)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrDuplicate
			}
		}

		res := tx.Model(&models.UserLevel{}).
			Where("user_id = ? AND version = ?", lvl.UserID, expected).
			Updates(map[string]any{
				"level":            lvl.Level,
				"xp":               lvl.XP,
				"xp_to_next":       lvl.XPToNext,
				"total_xp":         lvl.TotalXP,
				"last_level_up_at": lvl.LastLevelUpAt,
				"version":          expected + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	lvl.Version = expected + 1
	return nil
}
