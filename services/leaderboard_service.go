package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"vpay-gamification/models"
	"vpay-gamification/repository"
)

// SpendingBoardWindowDays is the look-back of the SPENDING board.
const SpendingBoardWindowDays = 30

// LeaderboardView is a board with its top entries.
type LeaderboardView struct {
	Board   models.Leaderboard        `json:"board"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

type LeaderboardService struct {
	Boards       LeaderboardStore
	Users        UserStore
	Levels       LevelStore
	Streaks      StreakStore
	Quests       QuestStore
	Transactions TransactionStore
	Now          Clock

	catalog *models.Catalog
}

func NewLeaderboardService(boards LeaderboardStore, users UserStore, levels LevelStore, streaks StreakStore, quests QuestStore, txs TransactionStore, catalog *models.Catalog) *LeaderboardService {
	return &LeaderboardService{
		Boards:       boards,
		Users:        users,
		Levels:       levels,
		Streaks:      streaks,
		Quests:       quests,
		Transactions: txs,
		Now:          systemClock,
		catalog:      catalog,
	}
}

// SeedBoards creates the catalog boards that do not exist yet.
func (s *LeaderboardService) SeedBoards(ctx context.Context) error {
	boards := make([]models.Leaderboard, 0, len(s.catalog.Leaderboards))
	for _, b := range s.catalog.Leaderboards {
		boards = append(boards, models.Leaderboard{Code: b.Code, Name: b.Name, Category: b.Category})
	}
	return storageErr("seed leaderboards", s.Boards.EnsureBoards(ctx, boards))
}

// score computes a user's value for one board category.
func (s *LeaderboardService) score(ctx context.Context, userID string, category models.LeaderboardCategory) (float64, error) {
	switch category {
	case models.LeaderboardPoints:
		u, err := s.Users.Ensure(ctx, userID)
		if err != nil {
			return 0, err
		}
		return float64(u.RewardPoints), nil
	case models.LeaderboardLevel:
		lvl, err := s.Levels.Get(ctx, userID)
		if err != nil {
			return 0, err
		}
		return float64(lvl.TotalXP), nil
	case models.LeaderboardStreak:
		n, err := s.Streaks.MaxActiveCount(ctx, userID)
		return float64(n), err
	case models.LeaderboardQuests:
		n, err := s.Quests.CountCompleted(ctx, userID)
		return float64(n), err
	case models.LeaderboardSpending:
		since := s.Now().AddDate(0, 0, -SpendingBoardWindowDays)
		sum, err := s.Transactions.SumCompletedSince(ctx, userID, models.TransactionPayment, since)
		if err != nil {
			return 0, err
		}
		f, _ := sum.Float64()
		return f, nil
	}
	return 0, fmt.Errorf("%w: unknown leaderboard category %q", ErrComputation, category)
}

// UpdateUserScores refreshes the user's cached score on every board. Ranks
// are settled later by RecomputeRanks.
func (s *LeaderboardService) UpdateUserScores(ctx context.Context, userID string) error {
	if userID == "" {
		return validationErr("user id is required")
	}
	boards, err := s.Boards.Boards(ctx)
	if err != nil {
		return storageErr("list leaderboards", err)
	}

	var errs []error
	for _, b := range boards {
		score, err := s.score(ctx, userID, b.Category)
		if err != nil {
			if b.Category == models.LeaderboardLevel && errors.Is(err, repository.ErrNotFound) {
				// no XP yet
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", b.Code, storageErr("score", err)))
			continue
		}
		if err := s.Boards.UpsertScore(ctx, b.ID, userID, score); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Code, storageErr("upsert score", err)))
		}
	}
	return errors.Join(errs...)
}

// RecomputeRanks renumbers every board 1..n by score.
func (s *LeaderboardService) RecomputeRanks(ctx context.Context) (int, error) {
	boards, err := s.Boards.Boards(ctx)
	if err != nil {
		return 0, storageErr("list leaderboards", err)
	}
	total := 0
	var errs []error
	for _, b := range boards {
		n, err := s.Boards.RecomputeRanks(ctx, b.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Code, storageErr("recompute ranks", err)))
			continue
		}
		total += n
	}
	if total > 0 {
		log.Printf("[Leaderboard] %d ranks moved across %d boards", total, len(boards))
	}
	return total, errors.Join(errs...)
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, code string, limit int) (*LeaderboardView, error) {
	if code == "" {
		return nil, validationErr("leaderboard code is required")
	}
	board, err := s.Boards.BoardByCode(ctx, code)
	if err != nil {
		return nil, storageErr("load leaderboard "+code, err)
	}
	entries, err := s.Boards.Entries(ctx, board.ID, limit)
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	return &LeaderboardView{Board: *board, Entries: entries}, nil
}

func (s *LeaderboardService) ListBoards(ctx context.Context) ([]models.Leaderboard, error) {
	out, err := s.Boards.Boards(ctx)
	return out, storageErr("list leaderboards", err)
}
