package models

import (
	"math"
	"time"
)

// BaseXPPerLevel is the XP needed to leave level 1.
const BaseXPPerLevel = 100

// XPToNext returns the XP required to go from level to level+1:
// floor(100 * 1.5^(level-1)).
func XPToNext(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(BaseXPPerLevel * math.Pow(1.5, float64(level-1))))
}

// UserLevel tracks XP progression for each user (one row per user)
type UserLevel struct {
	UserID   string `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Level    int    `gorm:"not null" json:"level"`
	XP       int64  `gorm:"not null" json:"xp"`
	XPToNext int64  `gorm:"not null" json:"xp_to_next"`
	TotalXP  int64  `gorm:"not null" json:"total_xp"`
	Version  int64  `gorm:"not null" json:"-"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// NewUserLevel is the lazily created starting state.
func NewUserLevel(userID string) *UserLevel {
	return &UserLevel{
		UserID:   userID,
		Level:    1,
		XP:       0,
		XPToNext: XPToNext(1),
		TotalXP:  0,
	}
}

// XPGrant records an idempotent XP award.
type XPGrant struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Reason         string    `gorm:"type:varchar(128)" json:"reason"`
	IdempotencyKey string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}
