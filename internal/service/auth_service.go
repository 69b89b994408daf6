package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/kidquest-backend/internal/config"
)

// Claims extends JWT standard claims with the guest player identity.
type Claims struct {
	jwt.RegisteredClaims
	PlayerID uuid.UUID `json:"player_id"`
	Nickname string    `json:"nickname"`
}

// PlayerStore remembers which guest players were issued a token.
type PlayerStore interface {
	Register(ctx context.Context, playerID uuid.UUID, nickname string, ttl time.Duration) error
	Exists(ctx context.Context, playerID uuid.UUID) (bool, error)
}

// GuestToken is returned when a guest player is created.
type GuestToken struct {
	Token     string    `json:"token"`
	PlayerID  uuid.UUID `json:"player_id"`
	Nickname  string    `json:"nickname"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService issues and validates guest player tokens.
type AuthService struct {
	cfg     *config.Config
	players PlayerStore
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, players PlayerStore) *AuthService {
	return &AuthService{cfg: cfg, players: players, now: time.Now}
}

// CreateGuest registers a new guest player and signs a token for it.
func (s *AuthService) CreateGuest(ctx context.Context, nickname string) (*GuestToken, error) {
	nickname = strings.TrimSpace(nickname)
	playerID := uuid.New()
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   playerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PlayerID: playerID,
		Nickname: nickname,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// Same lifetime as the JWT.
	if err := s.players.Register(ctx, playerID, nickname, s.cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("register player: %w", err)
	}

	return &GuestToken{
		Token:     signed,
		PlayerID:  playerID,
		Nickname:  nickname,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
// Expired tokens yield an error wrapping jwt.ErrTokenExpired.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PlayerID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidatePlayer checks that the player is still registered.
func (s *AuthService) ValidatePlayer(ctx context.Context, playerID uuid.UUID) error {
	ok, err := s.players.Exists(ctx, playerID)
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if !ok {
		return ErrUnknownPlayer
	}
	return nil
}
