package game

import (
	"time"

	"github.com/salzundsand/server/internal/config"
)

// ActionType enumerates the player actions the engine accepts.
type ActionType string

const (
	ActionCollectSalt   ActionType = "collect_salt"
	ActionCollectSand   ActionType = "collect_sand"
	ActionSellResources ActionType = "sell_resources"
)

// ActionData carries the optional sell amounts.
type ActionData struct {
	Salt *int64 `json:"salt,omitempty"`
	Sand *int64 `json:"sand,omitempty"`
}

// ActionRequest is the wire shape of a game action.
type ActionRequest struct {
	ActionType string      `json:"actionType" binding:"required"`
	Data       *ActionData `json:"data,omitempty"`
}

// Rules are the server-authoritative game constants. They come from
// configuration so deployments can tune prices and maxima without code
// changes.
type Rules struct {
	SaltPrice     int
	SandPrice     int
	CollectAmount int
	CollectExp    int
	SellExpFactor int
	LevelUpBonus  int
	InitialCoins  int64
	MaxLevel      int
	MaxCoins      int64
	MaxResources  int64

	cooldowns       map[ActionType]time.Duration
	defaultCooldown time.Duration
}

// RulesFromConfig builds the rule set from configuration.
func RulesFromConfig(cfg *config.GameConfig) Rules {
	return Rules{
		SaltPrice:     cfg.SaltPrice,
		SandPrice:     cfg.SandPrice,
		CollectAmount: cfg.CollectAmount,
		CollectExp:    cfg.CollectExp,
		SellExpFactor: cfg.SellExpFactor,
		LevelUpBonus:  cfg.LevelUpBonus,
		InitialCoins:  cfg.InitialCoins,
		MaxLevel:      cfg.MaxLevel,
		MaxCoins:      cfg.MaxCoins,
		MaxResources:  cfg.MaxResources,
		cooldowns: map[ActionType]time.Duration{
			ActionCollectSalt:   cfg.Cooldowns.CollectSalt,
			ActionCollectSand:   cfg.Cooldowns.CollectSand,
			ActionSellResources: cfg.Cooldowns.SellResources,
		},
		defaultCooldown: cfg.Cooldowns.Default,
	}
}

// DefaultRules returns the reference rule set: salt sells at 10, sand at 5,
// one resource and 5 experience per collect, 2s collect / 1s sell cooldowns.
func DefaultRules() Rules {
	return Rules{
		SaltPrice:     10,
		SandPrice:     5,
		CollectAmount: 1,
		CollectExp:    5,
		SellExpFactor: 2,
		LevelUpBonus:  50,
		InitialCoins:  100,
		MaxLevel:      1000,
		MaxCoins:      999999999,
		MaxResources:  999999,
		cooldowns: map[ActionType]time.Duration{
			ActionCollectSalt:   2 * time.Second,
			ActionCollectSand:   2 * time.Second,
			ActionSellResources: time.Second,
		},
		defaultCooldown: time.Second,
	}
}

// Cooldown returns the anti-spam threshold for an action type.
func (r Rules) Cooldown(action ActionType) time.Duration {
	if d, ok := r.cooldowns[action]; ok && d > 0 {
		return d
	}
	if r.defaultCooldown > 0 {
		return r.defaultCooldown
	}
	return time.Second
}
