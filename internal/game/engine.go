package game

import (
	"context"
	"math"
	"sync"
	"time"

	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine computes and persists player state transitions. It is the sole
// writer of PlayerState rows; everything else reads snapshots.
type Engine struct {
	db        *gorm.DB
	states    repository.PlayerStateRepository
	worlds    repository.WorldRepository
	audits    repository.AuditLogRepository
	cooldowns CooldownStore
	log       *zap.Logger

	// rules can be swapped at runtime by config reload.
	mu    sync.RWMutex
	rules Rules

	// now is overridable in tests.
	now func() time.Time
}

// UpdateRules replaces the rule set. Called on configuration reload;
// in-flight actions keep the rules they started with.
func (e *Engine) UpdateRules(rules Rules) {
	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()
}

func (e *Engine) currentRules() Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// NewEngine wires the engine with its dependencies. The cooldown store is
// an injected capability, not ambient state.
func NewEngine(
	db *gorm.DB,
	states repository.PlayerStateRepository,
	worlds repository.WorldRepository,
	audits repository.AuditLogRepository,
	cooldowns CooldownStore,
	rules Rules,
	log *zap.Logger,
) *Engine {
	return &Engine{
		db:        db,
		states:    states,
		worlds:    worlds,
		audits:    audits,
		cooldowns: cooldowns,
		rules:     rules,
		log:       log,
		now:       time.Now,
	}
}

// ActionContext identifies who acts where, plus request metadata for the
// audit trail.
type ActionContext struct {
	UserID    uint
	WorldID   uint
	IP        string
	RequestID string
}

// Execute runs one action end to end: validate, gate, load, compute, and
// conditionally persist. On any failure the player state is unchanged.
func (e *Engine) Execute(ctx context.Context, actx ActionContext, req *ActionRequest) (*models.PlayerState, error) {
	rules := e.currentRules()

	if err := Validate(req, rules); err != nil {
		return nil, err
	}

	action := ActionType(req.ActionType)

	allowed, err := e.cooldowns.Allow(ctx, actx.UserID, action, rules.Cooldown(action))
	if err != nil {
		// The gate is advisory; a broken shared store must not take the
		// game down with it.
		e.log.Warn("cooldown store unavailable, allowing action",
			zap.Uint("user_id", actx.UserID), zap.Error(err))
	} else if !allowed {
		return nil, apperrors.New(apperrors.ErrRateLimited)
	}

	now := e.now()

	world, err := e.worlds.FindByID(ctx, actx.WorldID)
	if err != nil {
		return nil, err
	}
	if !world.IsAvailable(now) {
		return nil, apperrors.New(apperrors.ErrWorldUnavailable)
	}

	state, err := e.states.FindByUserAndWorld(ctx, actx.UserID, actx.WorldID)
	if err != nil {
		return nil, err
	}
	snapshot := state.LastActionAt

	next, err := Apply(*state, *req, world.GameSpeed(), rules)
	if err != nil {
		return nil, err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.states.UpdateIfFresh(tx, &next, snapshot, now); err != nil {
			return err
		}

		entry := &models.AuditLog{
			UserID:     actx.UserID,
			ActionType: req.ActionType,
			Data: models.JSONMap{
				"world_id":   actx.WorldID,
				"ip":         actx.IP,
				"request_id": actx.RequestID,
			},
		}
		if req.Data != nil {
			if req.Data.Salt != nil {
				entry.Data["salt"] = *req.Data.Salt
			}
			if req.Data.Sand != nil {
				entry.Data["sand"] = *req.Data.Sand
			}
		}
		return e.audits.CreateTx(tx, entry)
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConcurrentModification) {
			e.log.Info("action lost optimistic-lock race",
				zap.Uint("user_id", actx.UserID),
				zap.Uint("world_id", actx.WorldID),
				zap.String("action", req.ActionType),
			)
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	return &next, nil
}

// Apply computes the successor state for an already validated action. Pure:
// operates on a copy and never touches storage.
func Apply(state models.PlayerState, req ActionRequest, gameSpeed float64, rules Rules) (models.PlayerState, error) {
	switch ActionType(req.ActionType) {
	case ActionCollectSalt:
		state.Salt += scaled(rules.CollectAmount, gameSpeed)
		state.Experience += int(scaled(rules.CollectExp, gameSpeed))

	case ActionCollectSand:
		state.Sand += scaled(rules.CollectAmount, gameSpeed)
		state.Experience += int(scaled(rules.CollectExp, gameSpeed))

	case ActionSellResources:
		var saltReq, sandReq *int64
		if req.Data != nil {
			saltReq, sandReq = req.Data.Salt, req.Data.Sand
		}
		saltSold := clampSellAmount(saltReq, state.Salt)
		sandSold := clampSellAmount(sandReq, state.Sand)

		if saltSold == 0 && sandSold == 0 {
			return state, apperrors.New(apperrors.ErrNoResourcesToSell)
		}

		state.Coins += saltSold*int64(rules.SaltPrice) + sandSold*int64(rules.SandPrice)
		state.Salt -= saltSold
		state.Sand -= sandSold
		state.Experience += int((saltSold + sandSold) * int64(rules.SellExpFactor))

	default:
		return state, apperrors.Newf(apperrors.ErrInvalidAction, "action %q", req.ActionType)
	}

	levelUp(&state, rules)
	clamp(&state, rules)

	return state, nil
}

// levelUp advances the level while the experience threshold is crossed.
// Surplus experience carries over, so one large sale can grant several
// levels; each level pays the bonus once.
func levelUp(state *models.PlayerState, rules Rules) {
	for state.Experience >= state.Level*100 && state.Level < rules.MaxLevel {
		state.Experience -= state.Level * 100
		state.Level++
		state.Coins += int64(rules.LevelUpBonus)
	}
}

// clamp forces every counter back into its declared range.
func clamp(state *models.PlayerState, rules Rules) {
	if state.Level > rules.MaxLevel {
		state.Level = rules.MaxLevel
	}
	if state.Level < 1 {
		state.Level = 1
	}
	if state.Experience < 0 {
		state.Experience = 0
	}
	if state.Coins > rules.MaxCoins {
		state.Coins = rules.MaxCoins
	}
	if state.Coins < 0 {
		state.Coins = 0
	}
	if state.Salt > rules.MaxResources {
		state.Salt = rules.MaxResources
	}
	if state.Salt < 0 {
		state.Salt = 0
	}
	if state.Sand > rules.MaxResources {
		state.Sand = rules.MaxResources
	}
	if state.Sand < 0 {
		state.Sand = 0
	}
}

// scaled applies the world speed multiplier, truncating fractional gains.
func scaled(base int, speed float64) int64 {
	return int64(math.Floor(float64(base) * speed))
}

// JoinWorld creates the player's state row for a world if it does not exist
// yet. Joining twice never resets progress.
func (e *Engine) JoinWorld(ctx context.Context, userID, worldID uint) (*models.PlayerState, error) {
	world, err := e.worlds.FindByID(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if !world.IsAvailable(e.now()) {
		return nil, apperrors.New(apperrors.ErrWorldUnavailable)
	}

	state := models.NewPlayerState(userID, worldID, e.currentRules().InitialCoins)
	if err := e.states.Upsert(ctx, state); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}

	return e.states.FindByUserAndWorld(ctx, userID, worldID)
}

// GetState loads the player's current state snapshot.
func (e *Engine) GetState(ctx context.Context, userID, worldID uint) (*models.PlayerState, error) {
	return e.states.FindByUserAndWorld(ctx, userID, worldID)
}
