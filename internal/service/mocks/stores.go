package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stretchr/testify/mock"
)

// Mock WalletStore
type WalletStore struct {
	mock.Mock
}

func (m *WalletStore) Get(ctx context.Context, playerID uuid.UUID) (model.Wallet, error) {
	args := m.Called(ctx, playerID)
	return args.Get(0).(model.Wallet), args.Error(1)
}

func (m *WalletStore) Credit(ctx context.Context, playerID uuid.UUID, coins, xp int) (model.Wallet, error) {
	args := m.Called(ctx, playerID, coins, xp)
	return args.Get(0).(model.Wallet), args.Error(1)
}

// Mock ResultPublisher
type ResultPublisher struct {
	mock.Mock
}

func (m *ResultPublisher) Publish(ctx context.Context, result *model.PlayResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// Mock PlayerStore
type PlayerStore struct {
	mock.Mock
}

func (m *PlayerStore) Register(ctx context.Context, playerID uuid.UUID, nickname string, ttl time.Duration) error {
	args := m.Called(ctx, playerID, nickname, ttl)
	return args.Error(0)
}

func (m *PlayerStore) Exists(ctx context.Context, playerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, playerID)
	return args.Bool(0), args.Error(1)
}

func (m *PlayerStore) Nicknames(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, playerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

// Mock ResultStore
type ResultStore struct {
	mock.Mock
}

func (m *ResultStore) ListByPlayer(ctx context.Context, playerID uuid.UUID, page, perPage int) ([]model.PlayResult, int64, error) {
	args := m.Called(ctx, playerID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]model.PlayResult), args.Get(1).(int64), args.Error(2)
}

func (m *ResultStore) BestScores(ctx context.Context, gameID string, limit int) ([]model.BestScore, error) {
	args := m.Called(ctx, gameID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BestScore), args.Error(1)
}
