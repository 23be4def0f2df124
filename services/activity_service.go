package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vpay-gamification/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// maxQueuedEvents bounds the events one Record call may process, synthetic
// QUEST_COMPLETED events included.
const maxQueuedEvents = 16

type RecordInput struct {
	UserID       string              `json:"user_id"`
	ActivityType models.ActivityType `json:"activity_type"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	Amount       *decimal.Decimal    `json:"amount,omitempty"`
	Category     *string             `json:"category,omitempty"`
}

type RecordResult struct {
	Success         bool                 `json:"success"`
	Error           string               `json:"error,omitempty"`
	Activity        *models.UserActivity `json:"activity,omitempty"`
	CompletedQuests []models.UserQuest   `json:"completed_quests,omitempty"`
}

// ActivityService appends activities and drives every engine that reacts to
// them.
type ActivityService struct {
	Activities   ActivityStore
	Streaks      *StreakService
	Quests       *QuestService
	Badges       *BadgeService
	Leaderboards *LeaderboardService
	Now          Clock
}

func NewActivityService(activities ActivityStore, streaks *StreakService, quests *QuestService, badges *BadgeService, boards *LeaderboardService) *ActivityService {
	return &ActivityService{
		Activities:   activities,
		Streaks:      streaks,
		Quests:       quests,
		Badges:       badges,
		Leaderboards: boards,
		Now:          systemClock,
	}
}

// Record appends the activity and fans it out. Only the append can fail the
// call; fan-out failures are logged and reported in RecordResult.Error.
func (s *ActivityService) Record(ctx context.Context, in RecordInput) (*RecordResult, error) {
	if in.UserID == "" {
		return &RecordResult{Error: "user id is required"}, validationErr("user id is required")
	}
	if in.ActivityType == "" {
		return &RecordResult{Error: "activity type is required"}, validationErr("activity type is required")
	}

	queue := []RecordInput{in}
	result := &RecordResult{}
	var errs []error

	for processed := 0; len(queue) > 0; processed++ {
		evt := queue[0]
		queue = queue[1:]
		if processed >= maxQueuedEvents {
			log.Printf("[Activity] queue limit reached for %s, dropping %d events", in.UserID, len(queue)+1)
			break
		}

		activity, err := s.append(ctx, evt)
		if err != nil {
			if processed == 0 {
				result.Error = err.Error()
				return result, err
			}
			errs = append(errs, err)
			continue
		}
		if processed == 0 {
			result.Success = true
			result.Activity = activity
		}

		completed, stepErrs := s.fanOut(ctx, evt)
		errs = append(errs, stepErrs...)
		result.CompletedQuests = append(result.CompletedQuests, completed...)

		for _, uq := range completed {
			queue = append(queue, questCompletedInput(uq))
		}
	}

	if len(errs) > 0 {
		result.Error = errors.Join(errs...).Error()
	}
	return result, nil
}

func questCompletedInput(uq models.UserQuest) RecordInput {
	return RecordInput{
		UserID:       uq.UserID,
		ActivityType: models.ActivityQuestCompleted,
		Metadata: map[string]any{
			"questId":     uq.QuestID,
			"userQuestId": uq.ID,
			"synthetic":   true,
		},
	}
}

// RecordQuestCompleted logs a quest completed outside Record and fans the
// QUEST_COMPLETED event out like any other activity.
func (s *ActivityService) RecordQuestCompleted(ctx context.Context, uq models.UserQuest) {
	res, err := s.Record(ctx, questCompletedInput(uq))
	if err != nil {
		log.Printf("[Activity] logging completion of %s for %s failed: %v", uq.ID, uq.UserID, err)
		return
	}
	if res.Error != "" {
		log.Printf("[Activity] completion of %s for %s: %s", uq.ID, uq.UserID, res.Error)
	}
}

func (s *ActivityService) append(ctx context.Context, in RecordInput) (*models.UserActivity, error) {
	a := &models.UserActivity{
		UserID:       in.UserID,
		ActivityType: in.ActivityType,
		Metadata:     datatypes.JSONMap(in.Metadata),
		Category:     in.Category,
		Timestamp:    s.Now(),
	}
	if a.Metadata == nil {
		a.Metadata = datatypes.JSONMap{}
	}
	if in.Amount != nil {
		a.Amount = decimal.NewNullDecimal(*in.Amount)
	}
	if err := s.Activities.Append(ctx, a); err != nil {
		return nil, storageErr("append activity", err)
	}
	return a, nil
}

// fanOut runs each reaction independently and collects their errors.
func (s *ActivityService) fanOut(ctx context.Context, in RecordInput) ([]models.UserQuest, []error) {
	var errs []error
	step := func(name string, err error) {
		if err == nil {
			return
		}
		log.Printf("[Activity] %s failed for %s/%s: %v", name, in.UserID, in.ActivityType, err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	if st, ok := StreakForActivity(in.ActivityType); ok && s.Streaks != nil {
		_, err := s.Streaks.UpdateStreak(ctx, in.UserID, st)
		step("streak", err)
	}

	var completed []models.UserQuest
	if s.Quests != nil {
		var err error
		completed, err = s.Quests.ProgressForActivity(ctx, in.UserID, in.ActivityType, 1)
		step("quests", err)
	}

	if s.Badges != nil {
		_, err := s.Badges.CheckAchievements(ctx, in.UserID, in.ActivityType, in.Metadata)
		step("achievements", err)
	}

	if s.Leaderboards != nil {
		step("leaderboards", s.Leaderboards.UpdateUserScores(ctx, in.UserID))
	}
	return completed, errs
}

func (s *ActivityService) ListRecent(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	out, err := s.Activities.ListRecent(ctx, userID, limit)
	return out, storageErr("list activities", err)
}
