package repository

import (
	"context"
	"time"

	"vpay-gamification/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Record inserts a ledger row once per IdempotencyKey. created is false when
// the key already exists.
func (r *TransactionRepository) Record(ctx context.Context, t *models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpsertBatch mirrors rows pulled from the payments service, keyed by id.
func (r *TransactionRepository) UpsertBatch(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"type",
				"status",
				"amount",
				"currency",
				"category",
				"updated_at",
			}),
		},
	).Create(&txs).Error
}

func (r *TransactionRepository) CountCompleted(ctx context.Context, userID string, txType models.TransactionType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, txType, models.TransactionCompleted).
		Count(&n).Error
	return n, err
}

// ListCompletedSince returns completed rows of the given types, newest first.
func (r *TransactionRepository) ListCompletedSince(ctx context.Context, userID string, types []models.TransactionType, since time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND type IN ? AND created_at >= ?", userID, models.TransactionCompleted, types, since).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// SumCompletedSince totals completed rows of one type.
func (r *TransactionRepository) SumCompletedSince(ctx context.Context, userID string, txType models.TransactionType, since time.Time) (decimal.Decimal, error) {
	rows, err := r.ListCompletedSince(ctx, userID, []models.TransactionType{txType}, since)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	return total, nil
}
