package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RewardType is the kind of reward a recommendation grants when claimed
type RewardType string

const (
	RewardCashback        RewardType = "CASHBACK"
	RewardNFT             RewardType = "NFT"
	RewardBonusTokens     RewardType = "BONUS_TOKENS"
	RewardDiscount        RewardType = "DISCOUNT"
	RewardExclusiveAccess RewardType = "EXCLUSIVE_ACCESS"
)

// RecommendationStatus moves PENDING/VIEWED -> CLAIMED | EXPIRED only.
type RecommendationStatus string

const (
	RecommendationPending RecommendationStatus = "PENDING"
	RecommendationViewed  RecommendationStatus = "VIEWED"
	RecommendationClaimed RecommendationStatus = "CLAIMED"
	RecommendationExpired RecommendationStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed.
func (s RecommendationStatus) Terminal() bool {
	return s == RecommendationClaimed || s == RecommendationExpired
}

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "INCREASING"
	TrendDecreasing TrendDirection = "DECREASING"
	TrendStable     TrendDirection = "STABLE"
)

type RiskProfile string

const (
	RiskLow    RiskProfile = "LOW"
	RiskMedium RiskProfile = "MEDIUM"
	RiskHigh   RiskProfile = "HIGH"
)

// RewardRecommendation represents a generated, claimable reward suggestion
type RewardRecommendation struct {
	ID         string               `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string               `gorm:"type:varchar(64);index;not null" json:"user_id"`
	RewardType RewardType           `gorm:"type:varchar(32);not null" json:"reward_type"`
	Value      decimal.Decimal      `gorm:"type:decimal(20,8);not null" json:"value"`
	Confidence float64              `gorm:"not null" json:"confidence"`
	Reasoning  string               `gorm:"type:text" json:"reasoning"`
	Metadata   datatypes.JSONMap    `json:"metadata"`
	Status     RecommendationStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	ExpiresAt  *time.Time           `gorm:"index" json:"expires_at,omitempty"`
	ClaimedAt  *time.Time           `json:"claimed_at,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// SpendingPattern is a monthly per-category aggregate, upserted on analysis.
type SpendingPattern struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string          `gorm:"type:varchar(64);uniqueIndex:idx_spending_period;not null" json:"user_id"`
	Category       string          `gorm:"type:varchar(64);uniqueIndex:idx_spending_period;not null" json:"category"`
	PeriodStart    time.Time       `gorm:"uniqueIndex:idx_spending_period;not null" json:"period_start"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_amount"`
	Frequency      int             `gorm:"not null" json:"frequency"`
	AvgAmount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"avg_amount"`
	TrendDirection TrendDirection  `gorm:"type:varchar(16);not null" json:"trend_direction"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DiscountCode is issued once per claimed DISCOUNT recommendation.
type DiscountCode struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecommendationID string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"recommendation_id"`
	UserID           string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Code             string     `gorm:"type:varchar(96);uniqueIndex;not null" json:"code"`
	Category         string     `gorm:"type:varchar(64)" json:"category"`
	Percent          int        `gorm:"not null" json:"percent"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
