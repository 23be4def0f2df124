package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"vpay-gamification/events"
	"vpay-gamification/models"
	"vpay-gamification/repository"

	"gorm.io/datatypes"
)

// BonusQuestMinLevel unlocks the daily bonus quest.
const BonusQuestMinLevel = 5

// ProgressResult is returned by UpdateQuestProgress.
type ProgressResult struct {
	UserQuestID string  `json:"user_quest_id"`
	Progress    int     `json:"progress"`
	Required    int     `json:"required"`
	Percent     float64 `json:"percent"`
	IsCompleted bool    `json:"is_completed"`
}

// PercentComplete is min(current/required, 1)*100. A non-positive
// requirement counts as done.
func PercentComplete(current, required int) float64 {
	if required <= 0 {
		return 100
	}
	return math.Min(float64(current)/float64(required), 1.0) * 100
}

type QuestService struct {
	Quests   QuestStore
	Users    UserStore
	Levels   *ProgressionService
	Badges   *BadgeService
	Points   *PointsService
	Notifier Notifier
	Now      Clock
	// OnCompleted receives instances completed through UpdateQuestProgress.
	// Completions found while fanning out an activity are returned to the
	// caller instead.
	OnCompleted func(ctx context.Context, uq models.UserQuest)

	catalog *models.Catalog
	mu      sync.Mutex
	seeded  bool
}

func NewQuestService(quests QuestStore, users UserStore, levels *ProgressionService, badges *BadgeService, points *PointsService, catalog *models.Catalog) *QuestService {
	return &QuestService{
		Quests:  quests,
		Users:   users,
		Levels:  levels,
		Badges:  badges,
		Points:  points,
		Now:     systemClock,
		catalog: catalog,
	}
}

// SeedCatalog upserts every catalog template by code.
func (s *QuestService) SeedCatalog(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked(ctx)
}

func (s *QuestService) seedLocked(ctx context.Context) error {
	var templates []models.Quest
	for _, q := range s.catalog.Quests.Daily {
		templates = append(templates, q.Template(models.QuestDaily))
	}
	for _, q := range s.catalog.Quests.DailyBonus {
		templates = append(templates, q.Template(models.QuestDaily))
	}
	for _, q := range s.catalog.Quests.Weekly {
		templates = append(templates, q.Template(models.QuestWeekly))
	}
	if err := s.Quests.UpsertTemplates(ctx, templates); err != nil {
		return storageErr("seed quest catalog", err)
	}
	s.seeded = true
	return nil
}

func (s *QuestService) templates(ctx context.Context, seeds []models.QuestSeed) ([]models.Quest, error) {
	s.mu.Lock()
	if !s.seeded {
		if err := s.seedLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	codes := make([]string, 0, len(seeds))
	for _, q := range seeds {
		codes = append(codes, q.Code)
	}
	byCode, err := s.Quests.TemplatesByCode(ctx, codes)
	if err != nil {
		return nil, storageErr("load quest templates", err)
	}
	out := make([]models.Quest, 0, len(codes))
	for _, code := range codes {
		tpl, ok := byCode[code]
		if !ok {
			return nil, notFoundErr("quest template %s", code)
		}
		out = append(out, tpl)
	}
	return out, nil
}

// GenerateDailyQuests assigns today's base quests, plus the bonus quest from
// level 5, skipping templates already started since midnight. It returns the
// day's templates.
func (s *QuestService) GenerateDailyQuests(ctx context.Context, userID string) ([]models.Quest, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}

	seeds := s.catalog.Quests.Daily
	lvl, err := s.Levels.GetLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lvl.Level >= BonusQuestMinLevel {
		seeds = append(append([]models.QuestSeed{}, seeds...), s.catalog.Quests.DailyBonus...)
	}

	templates, err := s.templates(ctx, seeds)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	today := startOfDay(now)
	if _, err := s.Quests.ExpireStale(ctx, userID, now); err != nil {
		return nil, storageErr("expire quests", err)
	}

	expires := today.AddDate(0, 0, 1)
	for _, tpl := range templates {
		exists, err := s.Quests.HasStartedSince(ctx, userID, tpl.ID, today)
		if err != nil {
			return nil, storageErr("check daily quest", err)
		}
		if exists {
			continue
		}
		if _, err := s.assign(ctx, userID, tpl, now, expires); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// GenerateWeeklyQuests assigns the weekly set, skipping templates already
// started since Monday 00:00 UTC whatever their status.
func (s *QuestService) GenerateWeeklyQuests(ctx context.Context, userID string) ([]models.Quest, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	templates, err := s.templates(ctx, s.catalog.Quests.Weekly)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	week := startOfWeek(now)
	if _, err := s.Quests.ExpireStale(ctx, userID, now); err != nil {
		return nil, storageErr("expire quests", err)
	}
	expires := now.AddDate(0, 0, 7)
	for _, tpl := range templates {
		exists, err := s.Quests.HasStartedSince(ctx, userID, tpl.ID, week)
		if err != nil {
			return nil, storageErr("check weekly quest", err)
		}
		if exists {
			continue
		}
		if _, err := s.assign(ctx, userID, tpl, now, expires); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// GenerateWeeklyForAll runs GenerateWeeklyQuests for every known user.
func (s *QuestService) GenerateWeeklyForAll(ctx context.Context) (int, error) {
	ids, err := s.Users.ListIDs(ctx)
	if err != nil {
		return 0, storageErr("list users", err)
	}
	done := 0
	var errs []error
	for _, id := range ids {
		if _, err := s.GenerateWeeklyQuests(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

func (s *QuestService) assign(ctx context.Context, userID string, tpl models.Quest, now, expires time.Time) (bool, error) {
	uq := &models.UserQuest{
		UserID:    userID,
		QuestID:   tpl.ID,
		Status:    models.QuestActive,
		Progress:  datatypes.NewJSONType(models.QuestProgress{}),
		StartedAt: now,
		ExpiresAt: &expires,
	}
	created, err := s.Quests.Assign(ctx, uq)
	if err != nil {
		return false, storageErr("assign quest "+tpl.Code, err)
	}
	if created {
		log.Printf("[Quest] assigned %s to %s", tpl.Code, userID)
	}
	return created, nil
}

// GetQuests expires stale instances, makes sure today's daily set exists and
// returns the active quests plus those completed today.
func (s *QuestService) GetQuests(ctx context.Context, userID string) ([]models.UserQuest, error) {
	if _, err := s.GenerateDailyQuests(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.Quests.ListForDisplay(ctx, userID, startOfDay(s.Now()))
	return out, storageErr("list quests", err)
}

// UpdateQuestProgress adds increment to the ACTIVE instance of questID.
// A quest with no ACTIVE instance is left untouched and reported as not
// completed.
func (s *QuestService) UpdateQuestProgress(ctx context.Context, userID, questID string, activityType models.ActivityType, increment int) (*ProgressResult, error) {
	if userID == "" || questID == "" {
		return nil, validationErr("user id and quest id are required")
	}
	if activityType == "" {
		return nil, validationErr("activity type is required")
	}
	if increment <= 0 {
		return nil, validationErr("increment must be positive, got %d", increment)
	}

	uq, err := s.Quests.Active(ctx, userID, questID)
	if errors.Is(err, repository.ErrNotFound) {
		latest, lerr := s.Quests.Latest(ctx, userID, questID)
		if lerr != nil {
			return nil, storageErr("load quest", lerr)
		}
		return resultFor(latest, false), nil
	}
	if err != nil {
		return nil, storageErr("load quest", err)
	}

	updated, completed, err := s.advance(ctx, uq, activityType, increment)
	if err != nil {
		return nil, err
	}
	if completed && s.OnCompleted != nil {
		s.OnCompleted(ctx, *updated)
	}
	return resultFor(updated, completed), nil
}

func resultFor(uq *models.UserQuest, completed bool) *ProgressResult {
	cur := uq.Count(uq.Quest.RequirementType)
	return &ProgressResult{
		UserQuestID: uq.ID,
		Progress:    cur,
		Required:    uq.Quest.RequirementCount,
		Percent:     PercentComplete(cur, uq.Quest.RequirementCount),
		IsCompleted: completed,
	}
}

// ProgressForActivity feeds one activity into every matching ACTIVE quest and
// returns the instances it completed.
func (s *QuestService) ProgressForActivity(ctx context.Context, userID string, activityType models.ActivityType, increment int) ([]models.UserQuest, error) {
	if increment <= 0 {
		increment = 1
	}
	active, err := s.Quests.ActiveForRequirement(ctx, userID, activityType, s.Now())
	if err != nil {
		return nil, storageErr("load active quests", err)
	}

	var (
		completed []models.UserQuest
		errs      []error
	)
	for i := range active {
		updated, done, err := s.advance(ctx, &active[i], activityType, increment)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if done {
			completed = append(completed, *updated)
		}
	}
	return completed, errors.Join(errs...)
}

// advance increments progress under the version check and completes the
// instance once the requirement is met. completed is true only for the call
// that performed the ACTIVE -> COMPLETED transition.
func (s *QuestService) advance(ctx context.Context, uq *models.UserQuest, activityType models.ActivityType, increment int) (*models.UserQuest, bool, error) {
	var (
		cur       = uq
		completed bool
		inactive  bool
	)
	err := retryOnConflict("advance quest", func() error {
		completed, inactive = false, false
		if cur.Status != models.QuestActive {
			inactive = true
			return nil
		}
		now := s.Now()
		if cur.ExpiresAt != nil && !now.Before(*cur.ExpiresAt) {
			if _, err := s.Quests.ExpireStale(ctx, cur.UserID, now); err != nil {
				return err
			}
			inactive = true
			return nil
		}

		progress := models.QuestProgress{}
		for k, v := range cur.Progress.Data() {
			progress[k] = v
		}
		progress[string(activityType)] += increment

		next := *cur
		next.Progress = datatypes.NewJSONType(progress)
		if progress[string(cur.Quest.RequirementType)] >= cur.Quest.RequirementCount {
			next.Status = models.QuestCompleted
			next.CompletedAt = &now
		}

		err := s.Quests.CompareAndSwap(ctx, &next, cur.Version)
		if errors.Is(err, repository.ErrConflict) {
			fresh, ferr := s.Quests.GetInstance(ctx, cur.ID)
			if ferr != nil {
				return ferr
			}
			cur = fresh
			return err
		}
		if err != nil {
			return err
		}
		cur = &next
		completed = next.Status == models.QuestCompleted
		return nil
	})
	if err != nil {
		return nil, false, storageErr("update quest progress", err)
	}
	if inactive {
		return cur, false, nil
	}
	if completed {
		s.complete(ctx, cur)
	}
	return cur, completed, nil
}

// complete pays out a quest's rewards. Every payout is keyed by the
// instance id.
func (s *QuestService) complete(ctx context.Context, uq *models.UserQuest) {
	q := uq.Quest
	log.Printf("🏆 [Quest] %s completed %s", uq.UserID, q.Code)

	if q.PointsReward > 0 {
		if _, _, err := s.Points.Credit(ctx, uq.UserID, q.PointsReward, "quest_"+q.Code, "quest:"+uq.ID); err != nil {
			log.Printf("[Quest] points for %s failed: %v", uq.ID, err)
		}
	}
	if q.XPReward > 0 {
		if _, err := s.Levels.AwardXPOnce(ctx, uq.UserID, q.XPReward, "quest-xp:"+uq.ID, "quest_"+q.Code); err != nil {
			log.Printf("[Quest] xp for %s failed: %v", uq.ID, err)
		}
	}
	if q.BadgeReward != nil && *q.BadgeReward != "" {
		if _, err := s.Badges.AwardBadge(ctx, uq.UserID, *q.BadgeReward, map[string]any{"questId": q.ID, "questCode": q.Code}); err != nil {
			log.Printf("[Quest] badge for %s failed: %v", uq.ID, err)
		}
	}

	notify(s.Notifier, events.TypeQuestCompleted, uq.UserID, map[string]any{
		"user_quest_id": uq.ID,
		"quest":         q.Code,
		"title":         q.Title,
		"points":        q.PointsReward,
		"xp":            q.XPReward,
	})
}

// FailQuest abandons an ACTIVE instance owned by the user.
func (s *QuestService) FailQuest(ctx context.Context, userID, userQuestID string) (*models.UserQuest, error) {
	var out *models.UserQuest
	err := retryOnConflict("fail quest", func() error {
		uq, err := s.Quests.GetInstance(ctx, userQuestID)
		if err != nil {
			return err
		}
		if uq.UserID != userID {
			return notFoundErr("quest %s", userQuestID)
		}
		if uq.Status != models.QuestActive {
			return invalidStateErr("quest %s is %s", userQuestID, uq.Status)
		}
		next := *uq
		next.Status = models.QuestFailed
		if err := s.Quests.CompareAndSwap(ctx, &next, uq.Version); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, storageErr("fail quest", err)
	}
	return out, nil
}

// ExpireStale is the cron sweep over every user's quests.
func (s *QuestService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.Quests.ExpireStale(ctx, "", s.Now())
	return n, storageErr("expire quests", err)
}
