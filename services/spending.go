package services

import (
	"context"
	"log"
	"sort"
	"time"

	"vpay-gamification/models"

	"github.com/shopspring/decimal"
)

// DefaultAnalysisWindowDays is used when a caller passes no window.
const DefaultAnalysisWindowDays = 30

const (
	topCategoryLimit   = 5
	uncategorized      = "other"
	ledgerReferenceKey = "transactionId"
)

var (
	trendUpFactor   = decimal.NewFromFloat(1.2)
	trendDownFactor = decimal.NewFromFloat(0.8)
)

// CategorySpend is one entry of SpendingAnalysis.TopCategories.
type CategorySpend struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

type SpendingAnalysis struct {
	UserID               string                `json:"user_id"`
	WindowDays           int                   `json:"window_days"`
	TotalSpent           decimal.Decimal       `json:"total_spent"`
	AvgTransactionAmount decimal.Decimal       `json:"avg_transaction_amount"`
	TransactionCount     int                   `json:"transaction_count"`
	TransactionFrequency float64               `json:"transaction_frequency"`
	TopCategories        []CategorySpend       `json:"top_categories"`
	SpendingTrend        models.TrendDirection `json:"spending_trend"`
	RiskProfile          models.RiskProfile    `json:"risk_profile"`
}

// spendEntry is one outflow from either the ledger or the activity log.
type spendEntry struct {
	amount   decimal.Decimal
	category string
	at       time.Time
}

// spendingEntries merges completed ledger outflows with categorized
// activities that do not point at a ledger row, newest first.
func (s *RecommendationService) spendingEntries(ctx context.Context, userID string, since time.Time) ([]spendEntry, error) {
	txs, err := s.Transactions.ListCompletedSince(ctx, userID,
		[]models.TransactionType{models.TransactionPayment, models.TransactionWithdrawal}, since)
	if err != nil {
		return nil, err
	}
	acts, err := s.Activities.ListCategorizedSince(ctx, userID, since,
		[]models.ActivityType{models.ActivityPaymentReceived, models.ActivityRewardClaimed})
	if err != nil {
		return nil, err
	}

	entries := make([]spendEntry, 0, len(txs)+len(acts))
	for _, t := range txs {
		cat := uncategorized
		if t.Category != nil && *t.Category != "" {
			cat = *t.Category
		}
		entries = append(entries, spendEntry{amount: t.Amount.Abs(), category: cat, at: t.CreatedAt})
	}
	for _, a := range acts {
		if _, linked := a.Metadata[ledgerReferenceKey]; linked {
			continue
		}
		if !a.Amount.Valid || a.Category == nil {
			continue
		}
		entries = append(entries, spendEntry{amount: a.Amount.Decimal.Abs(), category: *a.Category, at: a.Timestamp})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	return entries, nil
}

// spendingTrend compares the newer half of the entries with the older half.
func spendingTrend(entries []spendEntry) models.TrendDirection {
	if len(entries) < 2 {
		return models.TrendStable
	}
	mid := len(entries) / 2
	recent, older := decimal.Zero, decimal.Zero
	for i, e := range entries {
		if i < mid {
			recent = recent.Add(e.amount)
		} else {
			older = older.Add(e.amount)
		}
	}
	switch {
	case recent.GreaterThan(older.Mul(trendUpFactor)):
		return models.TrendIncreasing
	case recent.LessThan(older.Mul(trendDownFactor)):
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func riskProfile(avg decimal.Decimal, frequency float64) models.RiskProfile {
	switch {
	case avg.GreaterThan(decimal.NewFromInt(1000)) || frequency > 5:
		return models.RiskHigh
	case avg.GreaterThan(decimal.NewFromInt(100)) || frequency > 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// AnalyzeUserSpending summarizes the user's outflows over the last
// windowDays and refreshes the monthly SpendingPattern rows.
func (s *RecommendationService) AnalyzeUserSpending(ctx context.Context, userID string, windowDays int) (*SpendingAnalysis, error) {
	if userID == "" {
		return nil, validationErr("user id is required")
	}
	if windowDays <= 0 {
		windowDays = s.WindowDays()
	}

	now := s.Now()
	entries, err := s.spendingEntries(ctx, userID, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, storageErr("load spending", err)
	}

	out := &SpendingAnalysis{
		UserID:               userID,
		WindowDays:           windowDays,
		TotalSpent:           decimal.Zero,
		AvgTransactionAmount: decimal.Zero,
		TransactionCount:     len(entries),
		TransactionFrequency: float64(len(entries)) / float64(windowDays),
		TopCategories:        []CategorySpend{},
		SpendingTrend:        spendingTrend(entries),
	}

	byCategory := map[string]*CategorySpend{}
	for _, e := range entries {
		out.TotalSpent = out.TotalSpent.Add(e.amount)
		c, ok := byCategory[e.category]
		if !ok {
			c = &CategorySpend{Category: e.category, Amount: decimal.Zero}
			byCategory[e.category] = c
		}
		c.Amount = c.Amount.Add(e.amount)
		c.Count++
	}
	if len(entries) > 0 {
		out.AvgTransactionAmount = out.TotalSpent.Div(decimal.NewFromInt(int64(len(entries)))).Round(2)
	}
	out.RiskProfile = riskProfile(out.AvgTransactionAmount, out.TransactionFrequency)

	for _, c := range byCategory {
		out.TopCategories = append(out.TopCategories, *c)
	}
	sort.Slice(out.TopCategories, func(i, j int) bool {
		a, b := out.TopCategories[i], out.TopCategories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
	if len(out.TopCategories) > topCategoryLimit {
		out.TopCategories = out.TopCategories[:topCategoryLimit]
	}

	if err := s.Recommendations.UpsertPatterns(ctx, monthlyPatterns(userID, entries, out.SpendingTrend, now)); err != nil {
		log.Printf("[Spending] pattern upsert failed for %s: %v", userID, err)
	}
	return out, nil
}

// monthlyPatterns aggregates entries per (category, calendar month).
func monthlyPatterns(userID string, entries []spendEntry, trend models.TrendDirection, now time.Time) []models.SpendingPattern {
	type key struct {
		category string
		period   time.Time
	}
	agg := map[key]*models.SpendingPattern{}
	var order []key
	for _, e := range entries {
		at := e.at.UTC()
		k := key{e.category, time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)}
		p, ok := agg[k]
		if !ok {
			p = &models.SpendingPattern{
				UserID:         userID,
				Category:       k.category,
				PeriodStart:    k.period,
				TotalAmount:    decimal.Zero,
				TrendDirection: trend,
				UpdatedAt:      now,
			}
			agg[k] = p
			order = append(order, k)
		}
		p.TotalAmount = p.TotalAmount.Add(e.amount)
		p.Frequency++
	}

	out := make([]models.SpendingPattern, 0, len(order))
	for _, k := range order {
		p := agg[k]
		p.AvgAmount = p.TotalAmount.Div(decimal.NewFromInt(int64(p.Frequency))).Round(2)
		out = append(out, *p)
	}
	return out
}
