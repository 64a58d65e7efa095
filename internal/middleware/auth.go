package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/utils"
)

// Context keys set by the auth middleware.
const (
	CtxUserID    = "userID"
	CtxUsername  = "username"
	CtxRole      = "role"
	CtxSessionID = "sessionID"
	CtxToken     = "token"
)

// AuthMiddleware validates bearer tokens and populates the request context
// with the caller's identity.
type AuthMiddleware struct {
	jwtManager *utils.JWTManager
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(jwtManager *utils.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxSessionID, claims.SessionID)

		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in the list.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			return
		}

		hasRole := false
		for _, role := range roles {
			if claims.Role == role {
				hasRole = true
				break
			}
		}
		if !hasRole {
			abortWithError(c, apperrors.New(apperrors.ErrAuthorization, "insufficient permissions"))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxSessionID, claims.SessionID)

		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (*utils.JWTClaims, bool) {
	token := extractToken(c)
	if token == "" {
		abortWithError(c, apperrors.New(apperrors.ErrAuthentication, "missing bearer token"))
		return nil, false
	}
	c.Set(CtxToken, token)

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		if err == utils.ErrExpiredToken {
			abortWithError(c, apperrors.New(apperrors.ErrTokenExpired))
		} else {
			abortWithError(c, apperrors.New(apperrors.ErrTokenInvalid))
		}
		return nil, false
	}
	if claims.TokenType != "access" {
		abortWithError(c, apperrors.New(apperrors.ErrTokenInvalid, "not an access token"))
		return nil, false
	}

	return claims, true
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	requestID := c.GetString(CtxRequestID)
	c.AbortWithStatusJSON(err.HTTPStatus(), apperrors.NewErrorResponse(err, requestID))
}

// UserID reads the authenticated user's ID from the context.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(CtxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
