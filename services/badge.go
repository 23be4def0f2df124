package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/utils"

	"gorm.io/datatypes"
)

var (
	questMasterCounts    = map[int64]bool{5: true, 10: true, 25: true, 50: true, 100: true}
	badgeCollectorCounts = map[int64]bool{5: true, 10: true, 25: true, 50: true}
)

type BadgeService struct {
	Badges       BadgeStore
	Quests       QuestStore
	Transactions TransactionStore
	Publisher    BadgePublisher
	Notifier     Notifier
	Now          Clock

	descriptions map[string]models.BadgeSeed
}

func NewBadgeService(badges BadgeStore, quests QuestStore, txs TransactionStore, catalog *models.Catalog) *BadgeService {
	s := &BadgeService{
		Badges:       badges,
		Quests:       quests,
		Transactions: txs,
		Now:          systemClock,
		descriptions: map[string]models.BadgeSeed{},
	}
	if catalog != nil {
		for _, b := range catalog.Badges {
			s.descriptions[b.Code] = b
		}
	}
	return s
}

// RarityFor looks a badge type up in the static rarity table.
func RarityFor(badgeType string) models.Rarity {
	if r, ok := models.BadgeRarities[badgeType]; ok {
		return r
	}
	return models.RarityCommon
}

// SeedCatalog makes sure every catalog badge exists.
func (s *BadgeService) SeedCatalog(ctx context.Context) error {
	for code := range s.descriptions {
		if _, err := s.Badges.EnsureBadge(ctx, s.catalogEntry(code, RarityFor(code))); err != nil {
			return storageErr("seed badge "+code, err)
		}
	}
	return nil
}

func (s *BadgeService) catalogEntry(badgeType string, rarity models.Rarity) *models.NFTBadge {
	b := &models.NFTBadge{
		Code:   badgeType,
		Name:   utils.BadgeDisplayName(badgeType),
		Rarity: rarity,
	}
	if seed, ok := s.descriptions[badgeType]; ok {
		b.Name = seed.Name
		b.Description = seed.Description
	}
	return b
}

// AwardBadge grants badgeType to the user. Awarding a badge the user already
// holds returns the existing award unchanged.
func (s *BadgeService) AwardBadge(ctx context.Context, userID, badgeType string, metadata map[string]any) (*models.UserBadge, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	if badgeType == "" {
		return nil, validationErr("badge type is required")
	}

	rarity := RarityFor(badgeType)
	if r, ok := metadata["rarity"]; ok {
		switch v := r.(type) {
		case models.Rarity:
			rarity = v
		case string:
			rarity = models.Rarity(v)
		}
	}

	badge, err := s.Badges.EnsureBadge(ctx, s.catalogEntry(badgeType, rarity))
	if err != nil {
		return nil, storageErr("ensure badge "+badgeType, err)
	}

	now := s.Now()
	merged := datatypes.JSONMap{"earnedAt": now.Format(time.RFC3339)}
	for k, v := range metadata {
		merged[k] = v
	}

	award, created, err := s.Badges.Award(ctx, &models.UserBadge{
		UserID:   userID,
		BadgeID:  badge.ID,
		Metadata: merged,
		EarnedAt: now,
	})
	if err != nil {
		return nil, storageErr("award badge "+badgeType, err)
	}
	if !created {
		return award, nil
	}

	log.Printf("🎖️ [Badge] %s awarded %s (%s)", userID, badge.Code, badge.Rarity)
	notify(s.Notifier, events.TypeBadgeEarned, userID, map[string]any{
		"badge":  badge.Code,
		"name":   badge.Name,
		"rarity": badge.Rarity,
	})

	if s.Publisher != nil {
		url, err := s.Publisher.PublishBadgeMetadata(ctx, badge, award)
		if err != nil {
			log.Printf("[Badge] metadata publish failed for %s/%s: %v", userID, badge.Code, err)
		} else if err := s.Badges.MergeAwardMetadata(ctx, award.ID, map[string]any{"metadataUrl": url}); err != nil {
			log.Printf("[Badge] could not store metadata url for %s: %v", award.ID, err)
		} else {
			if award.Metadata == nil {
				award.Metadata = datatypes.JSONMap{}
			}
			award.Metadata["metadataUrl"] = url
		}
	}
	return award, nil
}

// CheckAchievements evaluates the achievement rules after an activity and
// returns the badges awarded by this call's rules (held badges included).
func (s *BadgeService) CheckAchievements(ctx context.Context, userID string, activityType models.ActivityType, metadata map[string]any) ([]models.UserBadge, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}

	var (
		awarded []models.UserBadge
		errs    []error
	)
	award := func(badgeType string, meta map[string]any) {
		ub, err := s.AwardBadge(ctx, userID, badgeType, meta)
		if err != nil {
			errs = append(errs, err)
			return
		}
		awarded = append(awarded, *ub)
	}

	if activityType == models.ActivityPaymentSent {
		n, err := s.Transactions.CountCompleted(ctx, userID, models.TransactionPayment)
		if err != nil {
			errs = append(errs, storageErr("count payments", err))
		} else if n == 1 {
			award(models.BadgeFirstPayment, map[string]any{"trigger": string(activityType)})
		}
	}

	completed, err := s.Quests.CountCompleted(ctx, userID)
	if err != nil {
		errs = append(errs, storageErr("count completed quests", err))
	} else if questMasterCounts[completed] {
		award(models.BadgeQuestMaster, map[string]any{"questsCompleted": completed})
	}

	held, err := s.Badges.CountByUser(ctx, userID)
	if err != nil {
		errs = append(errs, storageErr("count badges", err))
	} else if badgeCollectorCounts[held] {
		award(models.BadgeCollector, map[string]any{"badgeCount": held})
	}

	if len(errs) > 0 {
		return awarded, fmt.Errorf("achievements for %s: %w", userID, errors.Join(errs...))
	}
	return awarded, nil
}

func (s *BadgeService) ListUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	out, err := s.Badges.ListByUser(ctx, userID)
	return out, storageErr("list badges", err)
}
