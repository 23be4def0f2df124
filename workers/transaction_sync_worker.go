package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"vpay-gamification/models"
)

// TransactionSink persists mirrored ledger rows.
type TransactionSink interface {
	UpsertBatch(ctx context.Context, txs []models.Transaction) error
}

// TransactionSyncClient pulls changed ledger rows from the payments service.
type TransactionSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Sink       TransactionSink
	// OnSynced runs once per user touched by a successful batch.
	OnSynced func(ctx context.Context, userID string)
}

func NewTransactionSyncClient(baseURL, token string, sink TransactionSink) *TransactionSyncClient {
	return &TransactionSyncClient{
		BaseURL: baseURL,
		Token:   token,
		Sink:    sink,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TransactionSyncClient) GetChangedTransactions(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/transactions", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sync service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return response.Transactions, nil
}

// SyncOnce mirrors every row changed since `since` and returns how many were
// upserted.
func (c *TransactionSyncClient) SyncOnce(ctx context.Context, since time.Time) (int, error) {
	txs, err := c.GetChangedTransactions(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}

	for i := range txs {
		// upstream keys live in their own namespace
		txs[i].IdempotencyKey = nil
		if txs[i].UpdatedAt.IsZero() {
			txs[i].UpdatedAt = txs[i].CreatedAt
		}
	}
	if err := c.Sink.UpsertBatch(ctx, txs); err != nil {
		return 0, fmt.Errorf("failed to upsert %d transaction(s): %w", len(txs), err)
	}

	if c.OnSynced != nil {
		seen := map[string]bool{}
		for _, t := range txs {
			if seen[t.UserID] {
				continue
			}
			seen[t.UserID] = true
			c.OnSynced(ctx, t.UserID)
		}
	}
	return len(txs), nil
}

// PollTransactions runs SyncOnce every pollInterval until ctx is done.
func PollTransactions(ctx context.Context, client *TransactionSyncClient, pollInterval time.Duration) {
	log.Println("[SYNC] Starting transaction polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[SYNC] Transaction polling stopped.")
			return
		case <-ticker.C:
			tickTime := time.Now().UTC()

			n, err := client.SyncOnce(ctx, lastSyncTime)
			if err != nil {
				// keep the window so the next tick retries it
				log.Printf("❌ [SYNC] %v", err)
				continue
			}

			lastSyncTime = tickTime
			if n > 0 {
				log.Printf("✅ [SYNC] Upserted %d transaction(s)", n)
			}
		}
	}
}
