package services

import (
	"context"
	"log"

	"vpay-gamification/events"
	"vpay-gamification/models"
)

// PointsService is the only writer of User.RewardPoints.
type PointsService struct {
	Users    UserStore
	Notifier Notifier
	Now      Clock
}

func NewPointsService(users UserStore, notifier Notifier) *PointsService {
	return &PointsService{Users: users, Notifier: notifier, Now: systemClock}
}

// Credit adds points exactly once per key. The returned bool is false when
// the key had already been applied.
func (s *PointsService) Credit(ctx context.Context, userID string, points int64, reason, key string) (*models.User, bool, error) {
	if userID == "" {
		return nil, false, validationErr("user id is required")
	}
	if points < 0 {
		return nil, false, validationErr("points must be non-negative, got %d", points)
	}
	if key == "" {
		return nil, false, validationErr("idempotency key is required")
	}

	user, applied, err := s.Users.Credit(ctx, userID, points, reason, key, s.Now())
	if err != nil {
		return nil, false, storageErr("credit points", err)
	}
	if applied && points > 0 {
		log.Printf("💰 [Points] %s +%d (%s) → %d, tier %s", userID, points, reason, user.RewardPoints, user.Tier)
		notify(s.Notifier, events.TypePointsCredited, userID, map[string]any{
			"points": points,
			"reason": reason,
			"total":  user.RewardPoints,
			"tier":   user.Tier,
		})
	}
	return user, applied, nil
}

// GetUser returns the user's point balance and tier.
func (s *PointsService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	u, err := s.Users.Ensure(ctx, userID)
	if err != nil {
		return nil, storageErr("load user", err)
	}
	return u, nil
}
