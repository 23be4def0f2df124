package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/repository"
)

// MaxStreakMultiplier caps the multiplier regardless of streak length.
const MaxStreakMultiplier = 3.0

// BaseStreakPoints is scaled by the multiplier on every counted day.
const BaseStreakPoints = 10

var streakMilestones = map[int]bool{7: true, 14: true, 30: true, 50: true, 100: true, 365: true}

// activityStreaks maps activity types to the streak they feed. Others are ignored.
var activityStreaks = map[models.ActivityType]models.StreakType{
	models.ActivityLogin:           models.StreakLogin,
	models.ActivityPaymentSent:     models.StreakPayment,
	models.ActivityPaymentReceived: models.StreakPayment,
	models.ActivityTaskCompleted:   models.StreakTaskCompletion,
	models.ActivityQuestCompleted:  models.StreakQuestCompletion,
}

// StreakForActivity returns the streak fed by an activity type.
func StreakForActivity(t models.ActivityType) (models.StreakType, bool) {
	st, ok := activityStreaks[t]
	return st, ok
}

// StreakMultiplier is min(1 + 0.1*count, 3).
func StreakMultiplier(count int) float64 {
	m := math.Round((1.0+0.1*float64(count))*100) / 100
	return math.Min(m, MaxStreakMultiplier)
}

// MilestoneRarity scales badge rarity with streak length.
func MilestoneRarity(count int) models.Rarity {
	switch {
	case count < 30:
		return models.RarityCommon
	case count < 50:
		return models.RarityRare
	case count < 100:
		return models.RarityEpic
	case count < 365:
		return models.RarityLegendary
	default:
		return models.RarityMythic
	}
}

type StreakService struct {
	Streaks  StreakStore
	Badges   *BadgeService
	Points   *PointsService
	Notifier Notifier
	Now      Clock
}

func NewStreakService(streaks StreakStore, badges *BadgeService, points *PointsService) *StreakService {
	return &StreakService{Streaks: streaks, Badges: badges, Points: points, Now: systemClock}
}

// UpdateStreak registers today's activity for a streak. A second call on the
// same day returns the streak unchanged.
func (s *StreakService) UpdateStreak(ctx context.Context, userID string, streakType models.StreakType) (*models.Streak, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	if !streakType.Valid() {
		return nil, validationErr("unknown streak type %q", streakType)
	}

	var (
		result  *models.Streak
		counted bool
	)
	err := retryOnConflict("update streak", func() error {
		today := startOfDay(s.Now())
		counted = false

		cur, err := s.Streaks.Get(ctx, userID, streakType)
		if errors.Is(err, repository.ErrNotFound) {
			st := &models.Streak{
				UserID:           userID,
				StreakType:       streakType,
				CurrentCount:     1,
				MaxCount:         1,
				LastActivityDate: today,
				Multiplier:       1.0,
				IsActive:         true,
			}
			if err := s.Streaks.Create(ctx, st); err != nil {
				return err
			}
			result, counted = st, true
			return nil
		}
		if err != nil {
			return err
		}

		last := startOfDay(cur.LastActivityDate)
		if last.Equal(today) {
			result = cur
			return nil
		}

		next := *cur
		next.LastActivityDate = today
		next.IsActive = true
		if last.Equal(today.AddDate(0, 0, -1)) {
			next.CurrentCount++
			next.Multiplier = StreakMultiplier(next.CurrentCount)
		} else {
			next.CurrentCount = 1
			next.Multiplier = 1.0
		}
		if next.CurrentCount > next.MaxCount {
			next.MaxCount = next.CurrentCount
		}

		if err := s.Streaks.CompareAndSwap(ctx, &next, cur.Version); err != nil {
			return err
		}
		result, counted = &next, true
		return nil
	})
	if err != nil {
		return nil, storageErr("update streak", err)
	}

	if counted {
		s.rewardDay(ctx, result)
	}
	return result, nil
}

// rewardDay credits the day's streak points and any milestone reward.
func (s *StreakService) rewardDay(ctx context.Context, st *models.Streak) {
	day := startOfDay(st.LastActivityDate).Format("2006-01-02")

	points := int64(math.Floor(BaseStreakPoints*st.Multiplier + 1e-9))
	key := fmt.Sprintf("streak:%s:%s:%s", st.UserID, st.StreakType, day)
	if _, _, err := s.Points.Credit(ctx, st.UserID, points, "streak_"+string(st.StreakType), key); err != nil {
		log.Printf("[Streak] day points failed for %s/%s: %v", st.UserID, st.StreakType, err)
	}

	if !streakMilestones[st.CurrentCount] {
		return
	}

	badgeType := fmt.Sprintf("%s_STREAK_%d", st.StreakType, st.CurrentCount)
	if _, err := s.Badges.AwardBadge(ctx, st.UserID, badgeType, map[string]any{
		"streakType": string(st.StreakType),
		"count":      st.CurrentCount,
		"rarity":     string(MilestoneRarity(st.CurrentCount)),
	}); err != nil {
		log.Printf("[Streak] milestone badge %s failed for %s: %v", badgeType, st.UserID, err)
	}

	bonus := int64(st.CurrentCount) * 10
	bonusKey := fmt.Sprintf("streak-milestone:%s:%s:%d:%s", st.UserID, st.StreakType, st.CurrentCount, day)
	if _, _, err := s.Points.Credit(ctx, st.UserID, bonus, "streak_milestone", bonusKey); err != nil {
		log.Printf("[Streak] milestone bonus failed for %s: %v", st.UserID, err)
	}

	log.Printf("🔥 [Streak] %s reached %d-day %s streak", st.UserID, st.CurrentCount, st.StreakType)
	notify(s.Notifier, events.TypeStreakMilestone, st.UserID, map[string]any{
		"streak_type":  st.StreakType,
		"count":        st.CurrentCount,
		"badge":        badgeType,
		"bonus_points": bonus,
	})
}

// CheckAndBreakStale deactivates the user's streaks whose last activity is
// before yesterday.
func (s *StreakService) CheckAndBreakStale(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, validationErr("user id is required")
	}
	return s.breakStale(ctx, userID)
}

// BreakAllStale is the cron entry point for CheckAndBreakStale.
func (s *StreakService) BreakAllStale(ctx context.Context) (int, error) {
	return s.breakStale(ctx, "")
}

func (s *StreakService) breakStale(ctx context.Context, userID string) (int, error) {
	cutoff := startOfDay(s.Now()).AddDate(0, 0, -1)
	stale, err := s.Streaks.ListStale(ctx, userID, cutoff)
	if err != nil {
		return 0, storageErr("list stale streaks", err)
	}

	broken := 0
	var errs []error
	for i := range stale {
		st := stale[i]
		next := st
		next.IsActive = false
		next.CurrentCount = 0
		next.Multiplier = 1.0
		if err := s.Streaks.CompareAndSwap(ctx, &next, st.Version); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// touched concurrently: a fresh activity wins over the sweep
				continue
			}
			errs = append(errs, err)
			continue
		}
		broken++
	}
	if len(errs) > 0 {
		return broken, storageErr("break stale streaks", errors.Join(errs...))
	}
	return broken, nil
}

func (s *StreakService) ListStreaks(ctx context.Context, userID string) ([]models.Streak, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	out, err := s.Streaks.ListByUser(ctx, userID)
	return out, storageErr("list streaks", err)
}
