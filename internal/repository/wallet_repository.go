package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kidquest-backend/internal/config"
	"github.com/stemsi/kidquest-backend/internal/model"
)

const (
	walletFieldCoins = "coins"
	walletFieldXP    = "xp"
)

// WalletRepository keeps coin and XP totals in a Redis hash per player.
type WalletRepository struct {
	rdb *redis.Client
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(rdb *redis.Client) *WalletRepository {
	return &WalletRepository{rdb: rdb}
}

// Get returns the player's totals. A missing wallet is empty, not an error.
func (r *WalletRepository) Get(ctx context.Context, playerID uuid.UUID) (model.Wallet, error) {
	fields, err := r.rdb.HGetAll(ctx, config.CacheKey.PlayerWalletKey(playerID)).Result()
	if err != nil {
		return model.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}

	var w model.Wallet
	if v, ok := fields[walletFieldCoins]; ok {
		if w.Coins, err = strconv.Atoi(v); err != nil {
			return model.Wallet{}, fmt.Errorf("invalid coins in wallet: %w", err)
		}
	}
	if v, ok := fields[walletFieldXP]; ok {
		if w.XP, err = strconv.Atoi(v); err != nil {
			return model.Wallet{}, fmt.Errorf("invalid xp in wallet: %w", err)
		}
	}
	return w, nil
}

// Credit atomically adds coins and XP and returns the new totals.
func (r *WalletRepository) Credit(ctx context.Context, playerID uuid.UUID, coins, xp int) (model.Wallet, error) {
	key := config.CacheKey.PlayerWalletKey(playerID)

	var coinsCmd, xpCmd *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		coinsCmd = pipe.HIncrBy(ctx, key, walletFieldCoins, int64(coins))
		xpCmd = pipe.HIncrBy(ctx, key, walletFieldXP, int64(xp))
		return nil
	})
	if err != nil {
		return model.Wallet{}, fmt.Errorf("credit wallet: %w", err)
	}

	return model.Wallet{Coins: int(coinsCmd.Val()), XP: int(xpCmd.Val())}, nil
}
