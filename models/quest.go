package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestType string

const (
	QuestDaily       QuestType = "DAILY"
	QuestWeekly      QuestType = "WEEKLY"
	QuestMonthly     QuestType = "MONTHLY"
	QuestSpecial     QuestType = "SPECIAL"
	QuestAchievement QuestType = "ACHIEVEMENT"
)

type QuestStatus string

const (
	QuestActive    QuestStatus = "ACTIVE"
	QuestCompleted QuestStatus = "COMPLETED"
	QuestFailed    QuestStatus = "FAILED"
	QuestExpired   QuestStatus = "EXPIRED"
)

// Quest is a catalog template keyed by a stable Code.
type Quest struct {
	ID               string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code             string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Title            string       `gorm:"not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	Type             QuestType    `gorm:"type:varchar(16);index;not null" json:"type"`
	Category         string       `gorm:"type:varchar(32)" json:"category"`
	Difficulty       string       `gorm:"type:varchar(16)" json:"difficulty"`
	RequirementType  ActivityType `gorm:"type:varchar(64);index;not null" json:"requirement_type"`
	RequirementCount int          `gorm:"not null" json:"requirement_count"`
	PointsReward     int64        `json:"points_reward"`
	XPReward         int64        `json:"xp_reward"`
	BadgeReward      *string      `gorm:"type:varchar(64)" json:"badge_reward,omitempty"`
	MinLevel         int          `json:"min_level"`
	CreatedAt        time.Time    `json:"created_at"`
}

// QuestProgress counts matching activities per raw activity type.
type QuestProgress map[string]int

// UserQuest is a per-user instance of a Quest. At most one ACTIVE instance
// exists per (UserID, QuestID).
type UserQuest struct {
	ID          string                            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string                            `gorm:"type:varchar(64);index;uniqueIndex:idx_user_quest_active,where:status = 'ACTIVE';not null" json:"user_id"`
	QuestID     string                            `gorm:"type:varchar(36);index;uniqueIndex:idx_user_quest_active,where:status = 'ACTIVE';not null" json:"quest_id"`
	Quest       Quest                             `gorm:"foreignKey:QuestID" json:"quest"`
	Status      QuestStatus                       `gorm:"type:varchar(16);index;not null" json:"status"`
	Progress    datatypes.JSONType[QuestProgress] `json:"progress"`
	StartedAt   time.Time                         `gorm:"index;not null" json:"started_at"`
	CompletedAt *time.Time                        `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time                        `gorm:"index" json:"expires_at,omitempty"`
	Version     int64                             `gorm:"not null" json:"-"`
}

// Count returns the progress recorded for an activity type.
func (uq *UserQuest) Count(activityType ActivityType) int {
	return uq.Progress.Data()[string(activityType)]
}
