package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PlayerWalletKey returns the hash key holding a player's coins and XP.
func (r *CacheKeyStruct) PlayerWalletKey(playerID uuid.UUID) string {
	return fmt.Sprintf("player:%s:wallet", playerID)
}

// PlayerNicknameKey returns the key holding a guest player's nickname.
func (r *CacheKeyStruct) PlayerNicknameKey(playerID uuid.UUID) string {
	return fmt.Sprintf("player:%s:nickname", playerID)
}

var CacheKey = NewCacheKeyStruct()
