package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/middleware"
	"github.com/salzundsand/server/internal/service"
)

// WorldHandler exposes the public world listing and the admin CRUD.
type WorldHandler struct {
	worldService service.WorldService
}

// NewWorldHandler creates the world handler.
func NewWorldHandler(worldService service.WorldService) *WorldHandler {
	return &WorldHandler{worldService: worldService}
}

// List returns the worlds a player may join right now.
// @Summary Available worlds
// @Tags Worlds
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/worlds [get]
func (h *WorldHandler) List(c *gin.Context) {
	worlds, err := h.worldService.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"worlds": worlds})
}

// Get returns one world.
// @Summary World details
// @Tags Worlds
// @Produce json
// @Param id path int true "world id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/worlds/{id} [get]
func (h *WorldHandler) Get(c *gin.Context) {
	id, err := worldIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	world, err := h.worldService.GetWorld(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"world": world})
}

// ListAll returns every world including unavailable ones.
// @Summary All worlds
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/worlds [get]
func (h *WorldHandler) ListAll(c *gin.Context) {
	worlds, err := h.worldService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"worlds": worlds})
}

// Create creates a world.
// @Summary Create a world
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.WorldRequest true "world data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/admin/worlds [post]
func (h *WorldHandler) Create(c *gin.Context) {
	var req service.WorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	world, err := h.worldService.CreateWorld(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, gin.H{"world": world})
}

// Update patches a world.
// @Summary Update a world
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "world id"
// @Param request body service.WorldUpdateRequest true "fields to update"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/admin/worlds/{id} [put]
func (h *WorldHandler) Update(c *gin.Context) {
	id, err := worldIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.WorldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	world, err := h.worldService.UpdateWorld(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"world": world})
}

// Delete removes a world.
// @Summary Delete a world
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "world id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/v1/admin/worlds/{id} [delete]
func (h *WorldHandler) Delete(c *gin.Context) {
	id, err := worldIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.worldService.DeleteWorld(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": true})
}

func worldIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "id must be a positive integer")
	}
	return uint(id), nil
}
