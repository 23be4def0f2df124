// models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPayment    TransactionType = "PAYMENT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionCashback   TransactionType = "CASHBACK"
	TransactionReward     TransactionType = "REWARD"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Transaction mirrors ledger rows from the payments service, plus the
// cashback rows written by reward claims.
// Table name: transactions
type Transaction struct {
	ID             string            `gorm:"primaryKey;type:varchar(64);not null" json:"id"`
	UserID         string            `gorm:"type:varchar(64);not null;index:idx_tx_user_status" json:"user_id"`
	Type           TransactionType   `gorm:"type:varchar(16);not null;index:idx_tx_user_status" json:"type"`
	Status         TransactionStatus `gorm:"type:varchar(16);not null;index:idx_tx_user_status" json:"status"`
	Amount         decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency       string            `gorm:"type:varchar(16)" json:"currency"`
	Category       *string           `gorm:"type:varchar(64)" json:"category,omitempty"`
	IdempotencyKey *string           `gorm:"type:varchar(191);uniqueIndex" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null" json:"updated_at"`
}
