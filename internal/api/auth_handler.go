package api

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/middleware"
	"github.com/salzundsand/server/internal/service"
)

// AuthHandler exposes the account endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account.
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "account data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	req.IP = c.ClientIP()

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, resp)
}

// Login authenticates by email and password.
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "credentials"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	req.IP = c.ClientIP()
	req.Device = c.GetHeader("User-Agent")

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}

// Logout invalidates the current session.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.CtxToken)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"logged_out": true})
}

// Refresh exchanges a refresh token for a new token pair.
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}

// Me returns the authenticated user's profile.
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		respondError(c, apperrors.New(apperrors.ErrAuthentication))
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, user)
}
