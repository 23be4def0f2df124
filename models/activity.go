package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityLogin           ActivityType = "LOGIN"
	ActivityPaymentSent     ActivityType = "PAYMENT_SENT"
	ActivityPaymentReceived ActivityType = "PAYMENT_RECEIVED"
	ActivityTaskCompleted   ActivityType = "TASK_COMPLETED"
	ActivityTaskCreated     ActivityType = "TASK_CREATED"
	ActivityQuestCompleted  ActivityType = "QUEST_COMPLETED"
	ActivityRewardClaimed   ActivityType = "REWARD_CLAIMED"
)

// UserActivity is an append-only event. Rows are never updated.
type UserActivity struct {
	ID           string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string              `gorm:"type:varchar(64);index:idx_activity_user_time;not null" json:"user_id"`
	ActivityType ActivityType        `gorm:"type:varchar(64);index;not null" json:"activity_type"`
	Metadata     datatypes.JSONMap   `json:"metadata"`
	Amount       decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"amount"`
	Category     *string             `gorm:"type:varchar(64)" json:"category,omitempty"`
	Timestamp    time.Time           `gorm:"column:occurred_at;index:idx_activity_user_time;not null" json:"timestamp"`
}
