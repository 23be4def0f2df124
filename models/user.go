package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tier is derived from RewardPoints and rewritten on every point credit.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// TierForPoints maps a point balance to its tier.
func TierForPoints(points int64) Tier {
	switch {
	case points >= 10000:
		return TierPlatinum
	case points >= 5000:
		return TierGold
	case points >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}

// User is the local gamification view of a wallet user. The ID is the
// external user id forwarded by the gateway (X-User-ID).
type User struct {
	ID           string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RewardPoints int64             `gorm:"not null;default:0" json:"reward_points"`
	Tier         Tier              `gorm:"type:varchar(16);not null;default:'Bronze'" json:"tier"`
	Preferences  datatypes.JSONMap `json:"preferences"`

	Timestamps
}

// PointTransaction is the audit row behind every RewardPoints change.
// IdempotencyKey makes credits exactly-once.
type PointTransaction struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Delta          int64     `gorm:"not null" json:"delta"`
	Reason         string    `gorm:"type:varchar(128)" json:"reason"`
	IdempotencyKey string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
