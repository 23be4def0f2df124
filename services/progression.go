package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/repository"
)

// LevelRarity maps a reached level to its badge rarity.
func LevelRarity(level int) models.Rarity {
	switch {
	case level >= 50:
		return models.RarityLegendary
	case level >= 25:
		return models.RarityEpic
	case level >= 10:
		return models.RarityRare
	default:
		return models.RarityCommon
	}
}

// LevelResult is returned by AwardXP.
type LevelResult struct {
	NewLevel  int               `json:"new_level"`
	LeveledUp bool              `json:"leveled_up"`
	Level     *models.UserLevel `json:"level"`
}

// ProgressionService owns UserLevel: XP accumulation and level-up cascades.
type ProgressionService struct {
	Levels   LevelStore
	Badges   *BadgeService
	Points   *PointsService
	Notifier Notifier
	Now      Clock
}

func NewProgressionService(levels LevelStore, badges *BadgeService, points *PointsService) *ProgressionService {
	return &ProgressionService{Levels: levels, Badges: badges, Points: points, Now: systemClock}
}

// GetLevel returns the user's level, or the starting level if none exists yet.
func (s *ProgressionService) GetLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	lvl, err := s.Levels.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewUserLevel(userID), nil
	}
	if err != nil {
		return nil, storageErr("load level", err)
	}
	return lvl, nil
}

// ensureLevel returns the stored level, creating the starting row lazily.
func (s *ProgressionService) ensureLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	lvl, err := s.Levels.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if err := s.Levels.Create(ctx, models.NewUserLevel(userID)); err != nil {
			return nil, err
		}
		return s.Levels.Get(ctx, userID)
	}
	return lvl, err
}

// AwardXP adds XP and settles any level-ups.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, amount int64) (*LevelResult, error) {
	return s.award(ctx, userID, amount, "", "")
}

// AwardXPOnce is AwardXP guarded by an idempotency key: a repeated key
// returns the current level without granting XP again.
func (s *ProgressionService) AwardXPOnce(ctx context.Context, userID string, amount int64, key, reason string) (*LevelResult, error) {
	if key == "" {
		return nil, validationErr("idempotency key is required")
	}
	return s.award(ctx, userID, amount, key, reason)
}

func (s *ProgressionService) award(ctx context.Context, userID string, amount int64, key, reason string) (*LevelResult, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	if amount < 0 {
		return nil, validationErr("xp amount must be non-negative, got %d", amount)
	}

	var (
		result  *LevelResult
		reached []int
	)
	err := retryOnConflict("award xp", func() error {
		cur, err := s.ensureLevel(ctx, userID)
		if err != nil {
			return err
		}
		reached = reached[:0]

		next := *cur
		next.TotalXP += amount
		xp := cur.XP + amount
		for xp >= next.XPToNext {
			next.Level++
			xp -= next.XPToNext
			next.XPToNext = models.XPToNext(next.Level)
			if next.XPToNext <= 0 {
				return fmt.Errorf("%w: non-positive threshold at level %d", ErrComputation, next.Level)
			}
			reached = append(reached, next.Level)
		}
		next.XP = xp
		if len(reached) > 0 {
			at := s.Now()
			next.LastLevelUpAt = &at
		}

		var grant *models.XPGrant
		if key != "" {
			grant = &models.XPGrant{
				UserID:         userID,
				Amount:         amount,
				Reason:         reason,
				IdempotencyKey: key,
				CreatedAt:      s.Now(),
			}
		} else if amount == 0 {
			result = &LevelResult{NewLevel: cur.Level, Level: cur}
			return nil
		}

		if err := s.Levels.Save(ctx, &next, cur.Version, grant); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				reached = reached[:0]
				result = &LevelResult{NewLevel: cur.Level, Level: cur}
				return nil
			}
			return err
		}
		result = &LevelResult{NewLevel: next.Level, LeveledUp: len(reached) > 0, Level: &next}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrComputation) {
			return nil, err
		}
		return nil, storageErr("award xp", err)
	}

	if amount > 0 {
		log.Printf("🎮 XP Awarded: %s → +%d, Lvl=%d, XP=%d/%d", userID, amount, result.Level.Level, result.Level.XP, result.Level.XPToNext)
	}
	for _, level := range reached {
		s.rewardLevelUp(ctx, userID, level)
	}
	return result, nil
}

// rewardLevelUp grants the level badge and level*100 bonus points. Both are
// idempotent per (user, level).
func (s *ProgressionService) rewardLevelUp(ctx context.Context, userID string, level int) {
	badgeType := fmt.Sprintf("LEVEL_%d", level)
	if _, err := s.Badges.AwardBadge(ctx, userID, badgeType, map[string]any{
		"level":  level,
		"rarity": string(LevelRarity(level)),
	}); err != nil {
		log.Printf("[Level] badge %s failed for %s: %v", badgeType, userID, err)
	}

	bonus := int64(level) * 100
	key := fmt.Sprintf("level:%s:%d", userID, level)
	if _, _, err := s.Points.Credit(ctx, userID, bonus, "level_up", key); err != nil {
		log.Printf("[Level] bonus points failed for %s level %d: %v", userID, level, err)
	}

	notify(s.Notifier, events.TypeLevelUp, userID, map[string]any{
		"level":        level,
		"bonus_points": bonus,
	})
}
