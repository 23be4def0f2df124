package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func ensureUser(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.User{
		ID:          userID,
		Tier:        models.TierBronze,
		Preferences: datatypes.JSONMap{},
	}).Error
}

// Ensure returns the user row, creating it on first sight.
func (r *UserRepository) Ensure(ctx context.Context, userID string) (*models.User, error) {
	db := r.db.WithContext(ctx)
	if err := ensureUser(db, userID); err != nil {
		return nil, err
	}
	var u models.User
	if err := db.Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Credit adds delta points under an idempotency key and recomputes the tier,
// all in one transaction. applied is false when the key was already used.
func (r *UserRepository) Credit(ctx context.Context, userID string, delta int64, reason, key string, at time.Time) (*models.User, bool, error) {
	var (
		out     models.User
		applied bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}

		entry := models.PointTransaction{
			UserID:         userID,
			Delta:          delta,
			Reason:         reason,
			IdempotencyKey: key,
			CreatedAt:      at.UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			applied = true
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				Update("reward_points", gorm.Expr("reward_points + ?", delta)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", userID).First(&out).Error; err != nil {
			return err
		}
		if tier := models.TierForPoints(out.RewardPoints); tier != out.Tier {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("tier", tier).Error; err != nil {
				return err
			}
			out.Tier = tier
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, applied, nil
}

// SetPreference merges a single key into the user's preferences.
func (r *UserRepository) SetPreference(ctx context.Context, userID, key string, value any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		var u models.User
		if err := tx.Where("id = ?", userID).First(&u).Error; err != nil {
			return err
		}
		prefs := datatypes.JSONMap{}
		for k, v := range u.Preferences {
			prefs[k] = v
		}
		prefs[key] = value
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("preferences", prefs).Error
	})
}

// ListIDs returns every known user id, for batch jobs.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}
