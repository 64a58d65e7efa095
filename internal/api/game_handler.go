package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/salzundsand/server/internal/database"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/game"
	"github.com/salzundsand/server/internal/logger"
	"github.com/salzundsand/server/internal/middleware"
	"github.com/salzundsand/server/internal/repository"
)

// GameHandler exposes the player-facing game endpoints. Requests without an
// explicit world fall back to the default world.
type GameHandler struct {
	engine    *game.Engine
	worldRepo repository.WorldRepository
}

// NewGameHandler creates the game handler.
func NewGameHandler(engine *game.Engine, worldRepo repository.WorldRepository) *GameHandler {
	return &GameHandler{engine: engine, worldRepo: worldRepo}
}

// Data returns the caller's state in a world.
// @Summary Player state
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param world_id query int false "world, defaults to the default world"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/game/data [get]
func (h *GameHandler) Data(c *gin.Context) {
	worldID, err := h.resolveWorldID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.engine.GetState(c.Request.Context(), middleware.UserID(c), worldID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"game_data": state.Snapshot()})
}

// Action executes one game action.
// @Summary Execute a game action
// @Tags Game
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param world_id query int false "world, defaults to the default world"
// @Param request body game.ActionRequest true "action"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /api/v1/game/action [post]
func (h *GameHandler) Action(c *gin.Context) {
	worldID, err := h.resolveWorldID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req game.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	userID := middleware.UserID(c)
	actx := game.ActionContext{
		UserID:    userID,
		WorldID:   worldID,
		IP:        c.ClientIP(),
		RequestID: c.GetString(middleware.CtxRequestID),
	}

	state, err := h.engine.Execute(c.Request.Context(), actx, &req)
	logger.LogGameAction(userID, worldID, req.ActionType, err)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"game_data": state.Snapshot()})
}

// Join creates the caller's state in a world.
// @Summary Join a world
// @Tags Game
// @Produce json
// @Security BearerAuth
// @Param world_id query int false "world, defaults to the default world"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/game/join [post]
func (h *GameHandler) Join(c *gin.Context) {
	worldID, err := h.resolveWorldID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.engine.JoinWorld(c.Request.Context(), middleware.UserID(c), worldID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"game_data": state.Snapshot(), "world_id": worldID})
}

func (h *GameHandler) resolveWorldID(c *gin.Context) (uint, error) {
	raw := c.Query("world_id")
	if raw == "" {
		world, err := h.worldRepo.FindByName(c.Request.Context(), database.DefaultWorldName)
		if err != nil {
			return 0, err
		}
		return world.ID, nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "world_id must be a positive integer")
	}
	return uint(id), nil
}
