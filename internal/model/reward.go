package model

// Default reward values used when the shell does not pass navigation state.
const (
	DefaultCoinsPerLevel = 10
	DefaultTotalCoins    = 0
	DefaultTotalXP       = 0
)

// RewardConfig is the explicit reward configuration a session is built with.
type RewardConfig struct {
	CoinsPerLevel int `json:"coins_per_level"`
	TotalCoins    int `json:"total_coins"`
	TotalXP       int `json:"total_xp"`
}

// DefaultRewardConfig returns the documented defaults.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		CoinsPerLevel: DefaultCoinsPerLevel,
		TotalCoins:    DefaultTotalCoins,
		TotalXP:       DefaultTotalXP,
	}
}

// RewardConfigInput carries optional navigation parameters from the shell.
type RewardConfigInput struct {
	CoinsPerLevel *int `json:"coins_per_level" binding:"omitempty,min=0,max=1000"`
	TotalCoins    *int `json:"total_coins" binding:"omitempty,min=0"`
	TotalXP       *int `json:"total_xp" binding:"omitempty,min=0"`
}

// Resolve fills every missing field from base.
func (in RewardConfigInput) Resolve(base RewardConfig) RewardConfig {
	out := base
	if in.CoinsPerLevel != nil {
		out.CoinsPerLevel = *in.CoinsPerLevel
	}
	if in.TotalCoins != nil {
		out.TotalCoins = *in.TotalCoins
	}
	if in.TotalXP != nil {
		out.TotalXP = *in.TotalXP
	}
	return out
}

// XPPerPoint converts session score into experience points.
const XPPerPoint = 10

// Earned returns the coins and XP credited for a completed session.
func (c RewardConfig) Earned(score int) (coins, xp int) {
	return c.CoinsPerLevel, score * XPPerPoint
}
