package models

import (
	"time"
)

type StreakType string

const (
	StreakLogin           StreakType = "LOGIN"
	StreakPayment         StreakType = "PAYMENT"
	StreakTaskCompletion  StreakType = "TASK_COMPLETION"
	StreakQuestCompletion StreakType = "QUEST_COMPLETION"
)

func (t StreakType) Valid() bool {
	switch t {
	case StreakLogin, StreakPayment, StreakTaskCompletion, StreakQuestCompletion:
		return true
	}
	return false
}

// Streak is unique per (UserID, StreakType). Version guards read-modify-write.
type Streak struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string     `gorm:"type:varchar(64);uniqueIndex:idx_streak_user_type;not null" json:"user_id"`
	StreakType       StreakType `gorm:"type:varchar(32);uniqueIndex:idx_streak_user_type;not null" json:"streak_type"`
	CurrentCount     int        `gorm:"not null" json:"current_count"`
	MaxCount         int        `gorm:"not null" json:"max_count"`
	LastActivityDate time.Time  `gorm:"index;not null" json:"last_activity_date"`
	Multiplier       float64    `gorm:"not null" json:"multiplier"`
	IsActive         bool       `gorm:"index;not null" json:"is_active"`
	Version          int64      `gorm:"not null" json:"-"`

	Timestamps
}
