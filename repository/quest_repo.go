package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestRepository struct {
	db *gorm.DB
}

func NewQuestRepository(db *gorm.DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// UpsertTemplates inserts or refreshes catalog templates by code.
func (r *QuestRepository) UpsertTemplates(ctx context.Context, templates []models.Quest) error {
	if len(templates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"description",
			"type",
			"category",
			"difficulty",
			"requirement_type",
			"requirement_count",
			"points_reward",
			"xp_reward",
			"badge_reward",
			"min_level",
		}),
	}).Create(&templates).Error
}

// TemplatesByCode loads templates keyed by code.
func (r *QuestRepository) TemplatesByCode(ctx context.Context, codes []string) (map[string]models.Quest, error) {
	var rows []models.Quest
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.Quest, len(rows))
	for _, q := range rows {
		out[q.Code] = q
	}
	return out, nil
}

// Assign creates an ACTIVE instance. created is false when the user already
// holds an ACTIVE instance of the template.
func (r *QuestRepository) Assign(ctx context.Context, uq *models.UserQuest) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(uq)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasStartedSince reports whether any instance of questID, in any status, was
// started at or after since.
func (r *QuestRepository) HasStartedSince(ctx context.Context, userID, questID string, since time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserQuest{}).
		Where("user_id = ? AND quest_id = ? AND started_at >= ?", userID, questID, since).
		Count(&n).Error
	return n > 0, err
}

// Active returns the ACTIVE instance of questID for the user.
func (r *QuestRepository) Active(ctx context.Context, userID, questID string) (*models.UserQuest, error) {
	var uq models.UserQuest
	err := r.db.WithContext(ctx).Preload("Quest").
		Where("user_id = ? AND quest_id = ? AND status = ?", userID, questID, models.QuestActive).
		First(&uq).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &uq, nil
}

// Latest returns the most recently started instance of questID in any status.
func (r *QuestRepository) Latest(ctx context.Context, userID, questID string) (*models.UserQuest, error) {
	var uq models.UserQuest
	err := r.db.WithContext(ctx).Preload("Quest").
		Where("user_id = ? AND quest_id = ?", userID, questID).
		Order("started_at DESC").
		First(&uq).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &uq, nil
}

func (r *QuestRepository) GetInstance(ctx context.Context, id string) (*models.UserQuest, error) {
	var uq models.UserQuest
	if err := r.db.WithContext(ctx).Preload("Quest").Where("id = ?", id).First(&uq).Error; err != nil {
		return nil, notFound(err)
	}
	return &uq, nil
}

// ActiveForRequirement returns unexpired ACTIVE instances whose template
// requires the given activity type.
func (r *QuestRepository) ActiveForRequirement(ctx context.Context, userID string, activityType models.ActivityType, now time.Time) ([]models.UserQuest, error) {
	var out []models.UserQuest
	err := r.db.WithContext(ctx).Preload("Quest").
		Joins("JOIN quests ON quests.id = user_quests.quest_id").
		Where("user_quests.user_id = ? AND user_quests.status = ?", userID, models.QuestActive).
		Where("user_quests.expires_at IS NULL OR user_quests.expires_at > ?", now).
		Where("quests.requirement_type = ?", activityType).
		Order("user_quests.started_at").
		Find(&out).Error
	return out, err
}

// CompareAndSwap writes progress and status if the version still matches.
// Terminal instances never match because status must still be ACTIVE.
func (r *QuestRepository) CompareAndSwap(ctx context.Context, uq *models.UserQuest, expected int64) error {
	res := r.db.WithContext(ctx).Model(&models.UserQuest{}).
		Where("id = ? AND version = ? AND status = ?", uq.ID, expected, models.QuestActive).
		Updates(map[string]any{
			"progress":     uq.Progress,
			"status":       uq.Status,
			"completed_at": uq.CompletedAt,
			"version":      expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	uq.Version = expected + 1
	return nil
}

// ExpireStale moves ACTIVE instances past their deadline to EXPIRED. An
// empty userID sweeps every user.
func (r *QuestRepository) ExpireStale(ctx context.Context, userID string, now time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.UserQuest{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.QuestActive, now)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Updates(map[string]any{
		"status":  models.QuestExpired,
		"version": gorm.Expr("version + 1"),
	})
	return res.RowsAffected, res.Error
}

// ListForDisplay returns ACTIVE instances plus those completed since the
// given time, oldest first.
func (r *QuestRepository) ListForDisplay(ctx context.Context, userID string, completedSince time.Time) ([]models.UserQuest, error) {
	var out []models.UserQuest
	err := r.db.WithContext(ctx).Preload("Quest").
		Where("user_id = ?", userID).
		Where("status = ? OR (status = ? AND completed_at >= ?)", models.QuestActive, models.QuestCompleted, completedSince).
		Order("started_at").
		Find(&out).Error
	return out, err
}

func (r *QuestRepository) CountCompleted(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserQuest{}).
		Where("user_id = ? AND status = ?", userID, models.QuestCompleted).
		Count(&n).Error
	return n, err
}
