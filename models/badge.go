package models

import (
	"time"

	"gorm.io/datatypes"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
	RarityMythic    Rarity = "MYTHIC"
)

// Badge types awarded by the achievement rules and reward claims.
const (
	BadgeFirstPayment  = "FIRST_PAYMENT"
	BadgeQuestMaster   = "QUEST_MASTER"
	BadgeCollector     = "BADGE_COLLECTOR"
	BadgeNFTReward     = "NFT_REWARD"
	BadgeWeeklyWarrior = "WEEKLY_WARRIOR"
	BadgeTaskMaster    = "TASK_MASTER"
	BadgePaymentPro    = "PAYMENT_PRO"
	BadgeEarlyAdopter  = "EARLY_ADOPTER"
	BadgeDailyChampion = "DAILY_CHAMPION"
	BadgeBigSpender    = "BIG_SPENDER"
)

// BadgeRarities is the static rarity table. Unknown types are COMMON.
var BadgeRarities = map[string]Rarity{
	BadgeFirstPayment:  RarityCommon,
	BadgeQuestMaster:   RarityEpic,
	BadgeCollector:     RarityRare,
	BadgeNFTReward:     RarityRare,
	BadgeWeeklyWarrior: RarityRare,
	BadgeTaskMaster:    RarityEpic,
	BadgePaymentPro:    RarityRare,
	BadgeEarlyAdopter:  RarityLegendary,
	BadgeDailyChampion: RarityCommon,
	BadgeBigSpender:    RarityEpic,
}

// NFTBadge: catalog entry, unique per Code (the badge type)
type NFTBadge struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"` // e.g., "FIRST_PAYMENT", "LOGIN_STREAK_7"
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	Rarity      Rarity    `gorm:"type:varchar(16);not null" json:"rarity"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge: awarded instance, unique per (UserID, BadgeID)
type UserBadge struct {
	ID       string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID   string            `gorm:"type:varchar(64);uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID  string            `gorm:"type:varchar(36);uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge    NFTBadge          `gorm:"foreignKey:BadgeID" json:"badge"`
	Metadata datatypes.JSONMap `json:"metadata"` // e.g., {"earnedAt": "...", "count": 7}
	EarnedAt time.Time         `gorm:"not null" json:"earned_at"`
}
