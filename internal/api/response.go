package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salzundsand/server/internal/config"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/middleware"
)

// SuccessResponse is the JSON envelope for successful calls.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Success:   true,
		Data:      data,
		RequestID: c.GetString(middleware.CtxRequestID),
		Timestamp: time.Now().Unix(),
	})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

func respondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

// respondError maps the error to its HTTP status. Causes are stripped from
// the envelope in production.
func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	if config.Get() != nil && config.Get().Server.IsProduction() {
		appErr = appErr.Sanitized()
	}

	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, c.GetString(middleware.CtxRequestID)))
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidInput, "malformed request body"))
}
