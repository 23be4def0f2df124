package models

import (
	"time"
)

type LeaderboardCategory string

const (
	LeaderboardPoints   LeaderboardCategory = "POINTS"
	LeaderboardLevel    LeaderboardCategory = "LEVEL"
	LeaderboardStreak   LeaderboardCategory = "STREAK"
	LeaderboardQuests   LeaderboardCategory = "QUESTS"
	LeaderboardSpending LeaderboardCategory = "SPENDING"
)

type Leaderboard struct {
	ID        string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code      string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name      string              `gorm:"not null" json:"name"`
	Category  LeaderboardCategory `gorm:"type:varchar(16);not null" json:"category"`
	CreatedAt time.Time           `json:"created_at"`
}

// LeaderboardEntry caches a user's score; Rank is filled by the rank batch.
type LeaderboardEntry struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LeaderboardID string    `gorm:"type:varchar(36);uniqueIndex:idx_board_user;not null" json:"leaderboard_id"`
	UserID        string    `gorm:"type:varchar(64);uniqueIndex:idx_board_user;not null" json:"user_id"`
	Score         float64   `gorm:"index;not null" json:"score"`
	Rank          int       `json:"rank"`
	UpdatedAt     time.Time `json:"updated_at"`
}
