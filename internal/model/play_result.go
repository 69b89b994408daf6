package model

import (
	"time"

	"github.com/google/uuid"
)

// PlayResult is the record of a completed play session.
type PlayResult struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	GameID      string    `json:"game_id"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Correct     int       `json:"correct"`
	Attempts    int       `json:"attempts"`
	Moves       int       `json:"moves,omitempty"`
	CoinsEarned int       `json:"coins_earned"`
	XPEarned    int       `json:"xp_earned"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// BestScore is a per-player leaderboard row for a game.
type BestScore struct {
	PlayerID   uuid.UUID `json:"player_id"`
	Nickname   string    `json:"nickname,omitempty"`
	Score      int       `json:"score"`
	FinishedAt time.Time `json:"finished_at"`
}

// Wallet holds a player's accumulated coins and XP.
type Wallet struct {
	Coins int `json:"coins"`
	XP    int `json:"xp"`
}

// GuestLoginRequest is the payload for creating a guest player.
type GuestLoginRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=32"`
}
