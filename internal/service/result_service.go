package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// ResultStore reads persisted play results.
type ResultStore interface {
	ListByPlayer(ctx context.Context, playerID uuid.UUID, page, perPage int) ([]model.PlayResult, int64, error)
	BestScores(ctx context.Context, gameID string, limit int) ([]model.BestScore, error)
}

// NicknameLookup resolves guest nicknames in bulk.
type NicknameLookup interface {
	Nicknames(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// WalletReader reads a player's accumulated totals.
type WalletReader interface {
	Get(ctx context.Context, playerID uuid.UUID) (model.Wallet, error)
}

// ResultService serves play history, wallets and leaderboards.
type ResultService struct {
	results   ResultStore
	games     GameSource
	nicknames NicknameLookup
	wallets   WalletReader
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, games GameSource, nicknames NicknameLookup, wallets WalletReader) *ResultService {
	return &ResultService{results: results, games: games, nicknames: nicknames, wallets: wallets}
}

// History returns a page of a player's completed sessions, newest first.
func (s *ResultService) History(ctx context.Context, playerID uuid.UUID, page, perPage int) ([]model.PlayResult, int64, error) {
	results, total, err := s.results.ListByPlayer(ctx, playerID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	return results, total, nil
}

// Wallet returns a player's coins and XP.
func (s *ResultService) Wallet(ctx context.Context, playerID uuid.UUID) (model.Wallet, error) {
	w, err := s.wallets.Get(ctx, playerID)
	if err != nil {
		return model.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// Leaderboard returns each player's best score for a game.
func (s *ResultService) Leaderboard(ctx context.Context, gameID string, limit int) ([]model.BestScore, error) {
	if _, ok := s.games.Get(gameID); !ok {
		return nil, ErrGameNotFound
	}

	rows, err := s.results.BestScores(ctx, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("best scores: %w", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.PlayerID
	}
	names, err := s.nicknames.Nicknames(ctx, ids)
	if err != nil {
		// Nicknames are cosmetic; expired guests just show without one.
		return rows, nil
	}
	for i := range rows {
		rows[i].Nickname = names[rows[i].PlayerID]
	}
	return rows, nil
}
