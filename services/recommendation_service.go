package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/repository"
	"vpay-gamification/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	discountPercent     = 15
	rewardCurrency      = "USD"
	exclusiveAccessPref = "exclusiveAccess"
)

// ClaimResult describes the reward realized by ClaimRecommendation.
type ClaimResult struct {
	Recommendation *models.RewardRecommendation `json:"recommendation"`
	RewardType     models.RewardType            `json:"reward_type"`
	Value          decimal.Decimal              `json:"value"`
	Details        map[string]any               `json:"details,omitempty"`
}

type RecommendationService struct {
	Recommendations RecommendationStore
	Transactions    TransactionStore
	Activities      ActivityStore
	Users           UserStore
	Points          *PointsService
	Badges          *BadgeService
	Log             *ActivityService
	Notifier        Notifier
	Now             Clock

	windowDays atomic.Int64
}

func NewRecommendationService(recs RecommendationStore, txs TransactionStore, activities ActivityStore, users UserStore, points *PointsService, badges *BadgeService, activityLog *ActivityService) *RecommendationService {
	s := &RecommendationService{
		Recommendations: recs,
		Transactions:    txs,
		Activities:      activities,
		Users:           users,
		Points:          points,
		Badges:          badges,
		Log:             activityLog,
		Now:             systemClock,
	}
	s.windowDays.Store(DefaultAnalysisWindowDays)
	return s
}

// WindowDays is the analysis window used when a caller passes none.
func (s *RecommendationService) WindowDays() int {
	return int(s.windowDays.Load())
}

// SetWindowDays changes the default analysis window; config reloads call it.
func (s *RecommendationService) SetWindowDays(days int) {
	if days <= 0 {
		days = DefaultAnalysisWindowDays
	}
	if old := s.windowDays.Swap(int64(days)); old != int64(days) {
		log.Printf("[Recommendation] analysis window %d → %d days", old, days)
	}
}

// cashbackRate is 1% plus spend, frequency and trend bonuses, capped at 5%.
func cashbackRate(a *SpendingAnalysis) float64 {
	rate := 1.0
	switch {
	case a.TotalSpent.GreaterThan(decimal.NewFromInt(2000)):
		rate += 2
	case a.TotalSpent.GreaterThan(decimal.NewFromInt(1000)):
		rate += 1
	}
	switch {
	case a.TransactionFrequency > 5:
		rate += 1
	case a.TransactionFrequency > 2:
		rate += 0.5
	}
	if a.SpendingTrend == models.TrendIncreasing {
		rate += 0.5
	}
	return math.Min(rate, 5)
}

// GenerateRecommendations runs the rule cascade over the user's spending and
// balance, persists the batch and returns it by descending confidence.
func (s *RecommendationService) GenerateRecommendations(ctx context.Context, userID string) ([]models.RewardRecommendation, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	analysis, err := s.AnalyzeUserSpending(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.Ensure(ctx, userID)
	if err != nil {
		return nil, storageErr("load user", err)
	}

	now := s.Now()
	in := func(days int) *time.Time {
		t := now.AddDate(0, 0, days)
		return &t
	}
	rec := func(t models.RewardType, value decimal.Decimal, confidence float64, reasoning string, meta datatypes.JSONMap, expires *time.Time) models.RewardRecommendation {
		return models.RewardRecommendation{
			UserID:     userID,
			RewardType: t,
			Value:      value,
			Confidence: confidence,
			Reasoning:  reasoning,
			Metadata:   meta,
			Status:     models.RecommendationPending,
			ExpiresAt:  expires,
		}
	}

	var out []models.RewardRecommendation

	if analysis.TotalSpent.GreaterThan(decimal.NewFromInt(500)) {
		rate := cashbackRate(analysis)
		value := analysis.AvgTransactionAmount.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)).Round(2)
		out = append(out, rec(models.RewardCashback, value, 0.85,
			fmt.Sprintf("%.1f%% cashback on an average payment of %s", rate, analysis.AvgTransactionAmount.StringFixed(2)),
			datatypes.JSONMap{"rate": rate, "trend": analysis.SpendingTrend}, in(7)))
	}

	if user.Tier == models.TierGold || user.Tier == models.TierPlatinum || analysis.TotalSpent.GreaterThan(decimal.NewFromInt(2000)) {
		rarity := models.RarityRare
		if user.Tier == models.TierPlatinum {
			rarity = models.RarityLegendary
		}
		out = append(out, rec(models.RewardNFT, decimal.NewFromInt(1), 0.75,
			fmt.Sprintf("%s collectible for %s members", rarity, user.Tier),
			datatypes.JSONMap{"rarity": rarity, "tier": user.Tier}, in(30)))
	}

	if analysis.TransactionFrequency > 3 {
		amount := math.Floor(analysis.TransactionFrequency * 10)
		out = append(out, rec(models.RewardBonusTokens, decimal.NewFromFloat(amount), 0.9,
			fmt.Sprintf("%.2f payments a day earns %d bonus tokens", analysis.TransactionFrequency, int64(amount)),
			datatypes.JSONMap{"frequency": analysis.TransactionFrequency}, in(7)))
	}

	if len(analysis.TopCategories) > 0 {
		top := analysis.TopCategories[0]
		value := top.Amount.Mul(decimal.NewFromInt(discountPercent)).Div(decimal.NewFromInt(100)).Round(2)
		out = append(out, rec(models.RewardDiscount, value, 0.8,
			fmt.Sprintf("%d%% off %s, your top category", discountPercent, top.Category),
			datatypes.JSONMap{"category": top.Category, "percent": discountPercent}, in(14)))
	}

	if user.RewardPoints > 1000 {
		out = append(out, rec(models.RewardExclusiveAccess, decimal.Zero, 0.7,
			fmt.Sprintf("%d reward points unlock exclusive access", user.RewardPoints),
			datatypes.JSONMap{"points": user.RewardPoints}, in(30)))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	if err := s.Recommendations.CreateBatch(ctx, out); err != nil {
		return nil, storageErr("save recommendations", err)
	}
	log.Printf("[Recommendation] %d generated for %s (spent %s, freq %.3f)", len(out), userID, analysis.TotalSpent.StringFixed(2), analysis.TransactionFrequency)
	if out == nil {
		out = []models.RewardRecommendation{}
	}
	return out, nil
}

// owned loads a recommendation and hides other users' rows as not found.
func (s *RecommendationService) owned(ctx context.Context, userID, id string) (*models.RewardRecommendation, error) {
	if userID == "" || id == "" {
		return nil, validationErr("user id and recommendation id are required")
	}
	rec, err := s.Recommendations.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && rec.UserID != userID) {
		return nil, notFoundErr("recommendation %s", id)
	}
	if err != nil {
		return nil, storageErr("load recommendation", err)
	}
	return rec, nil
}

// ClaimRecommendation realizes an open, unexpired recommendation once.
func (s *RecommendationService) ClaimRecommendation(ctx context.Context, userID, id string) (*ClaimResult, error) {
	rec, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, invalidStateErr("recommendation %s is %s", id, rec.Status)
	}

	now := s.Now()
	open := []models.RecommendationStatus{models.RecommendationPending, models.RecommendationViewed}
	if rec.ExpiresAt != nil && !now.Before(*rec.ExpiresAt) {
		if _, err := s.Recommendations.Transition(ctx, id, open, models.RecommendationExpired, now); err != nil {
			return nil, storageErr("expire recommendation", err)
		}
		return nil, invalidStateErr("recommendation %s expired at %s", id, rec.ExpiresAt.Format(time.RFC3339))
	}

	details, err := s.applyReward(ctx, rec, now)
	if err != nil {
		return nil, err
	}

	ok, err := s.Recommendations.Transition(ctx, id, open, models.RecommendationClaimed, now)
	if err != nil {
		return nil, storageErr("claim recommendation", err)
	}
	if !ok {
		return nil, invalidStateErr("recommendation %s was claimed or expired concurrently", id)
	}
	rec.Status = models.RecommendationClaimed
	rec.ClaimedAt = &now

	log.Printf("🎁 [Recommendation] %s claimed %s worth %s", userID, rec.RewardType, rec.Value.String())
	notify(s.Notifier, events.TypeRewardClaimed, userID, map[string]any{
		"recommendation_id": rec.ID,
		"reward_type":       rec.RewardType,
		"value":             rec.Value.String(),
	})

	if s.Log != nil {
		value := rec.Value
		res, err := s.Log.Record(ctx, RecordInput{
			UserID:       userID,
			ActivityType: models.ActivityRewardClaimed,
			Metadata: map[string]any{
				"recommendationId": rec.ID,
				"rewardType":       string(rec.RewardType),
				"value":            rec.Value.String(),
			},
			Amount: &value,
		})
		if err != nil {
			log.Printf("[Recommendation] claim activity for %s failed: %v", rec.ID, err)
		} else if res.Error != "" {
			log.Printf("[Recommendation] claim activity fan-out for %s: %s", rec.ID, res.Error)
		}
	}

	return &ClaimResult{Recommendation: rec, RewardType: rec.RewardType, Value: rec.Value, Details: details}, nil
}

// applyReward performs the type-specific side effect. Every effect is keyed
// by the recommendation id so a retried claim does not pay twice.
func (s *RecommendationService) applyReward(ctx context.Context, rec *models.RewardRecommendation, now time.Time) (map[string]any, error) {
	key := "claim:" + rec.ID

	switch rec.RewardType {
	case models.RewardCashback:
		k := key
		tx := &models.Transaction{
			UserID:         rec.UserID,
			Type:           models.TransactionCashback,
			Status:         models.TransactionCompleted,
			Amount:         rec.Value,
			Currency:       rewardCurrency,
			IdempotencyKey: &k,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := s.Transactions.Record(ctx, tx); err != nil {
			return nil, storageErr("record cashback", err)
		}
		return map[string]any{"currency": rewardCurrency}, nil

	case models.RewardBonusTokens:
		user, _, err := s.Points.Credit(ctx, rec.UserID, rec.Value.IntPart(), "recommendation_bonus", key)
		if err != nil {
			return nil, err
		}
		return map[string]any{"reward_points": user.RewardPoints}, nil

	case models.RewardDiscount:
		category, _ := rec.Metadata["category"].(string)
		expires := now.AddDate(0, 0, 30)
		code, err := s.Recommendations.SaveDiscountCode(ctx, &models.DiscountCode{
			RecommendationID: rec.ID,
			UserID:           rec.UserID,
			Code:             utils.DiscountCode(category, rec.ID),
			Category:         category,
			Percent:          discountPercent,
			ExpiresAt:        &expires,
			CreatedAt:        now,
		})
		if err != nil {
			return nil, storageErr("save discount code", err)
		}
		return map[string]any{"code": code.Code, "percent": code.Percent, "category": code.Category}, nil

	case models.RewardNFT:
		meta := map[string]any{"recommendationId": rec.ID}
		if r, ok := rec.Metadata["rarity"]; ok {
			meta["rarity"] = r
		}
		award, err := s.Badges.AwardBadge(ctx, rec.UserID, models.BadgeNFTReward, meta)
		if err != nil {
			return nil, err
		}
		return map[string]any{"user_badge_id": award.ID}, nil

	case models.RewardExclusiveAccess:
		if err := s.Users.SetPreference(ctx, rec.UserID, exclusiveAccessPref, true); err != nil {
			return nil, storageErr("grant exclusive access", err)
		}
		return map[string]any{"preference": exclusiveAccessPref}, nil
	}
	return nil, fmt.Errorf("%w: unknown reward type %q", ErrComputation, rec.RewardType)
}

// MarkViewed moves a PENDING recommendation to VIEWED. Other states are left
// as they are.
func (s *RecommendationService) MarkViewed(ctx context.Context, userID, id string) (*models.RewardRecommendation, error) {
	rec, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.RecommendationPending {
		return rec, nil
	}
	ok, err := s.Recommendations.Transition(ctx, id,
		[]models.RecommendationStatus{models.RecommendationPending}, models.RecommendationViewed, s.Now())
	if err != nil {
		return nil, storageErr("mark viewed", err)
	}
	if ok {
		rec.Status = models.RecommendationViewed
	}
	return rec, nil
}

func (s *RecommendationService) ListRecommendations(ctx context.Context, userID string, status models.RecommendationStatus) ([]models.RewardRecommendation, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	out, err := s.Recommendations.ListByUser(ctx, userID, status)
	return out, storageErr("list recommendations", err)
}

// ExpireStale is the cron sweep for recommendations past ExpiresAt.
func (s *RecommendationService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.Recommendations.ExpireStale(ctx, s.Now())
	return n, storageErr("expire recommendations", err)
}
