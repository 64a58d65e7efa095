package service

import (
	"context"
	"time"

	"github.com/salzundsand/server/internal/models"
)

// AuthService handles registration, login, and token lifecycle.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetCurrentUser(ctx context.Context, userID uint) (*models.User, error)
}

// WorldService manages game worlds. The list/get pair is public; the rest
// is admin only.
type WorldService interface {
	ListAvailable(ctx context.Context) ([]*models.World, error)
	GetWorld(ctx context.Context, id uint) (*models.World, error)

	ListAll(ctx context.Context) ([]*models.World, error)
	CreateWorld(ctx context.Context, adminID uint, req *WorldRequest) (*models.World, error)
	UpdateWorld(ctx context.Context, adminID uint, id uint, req *WorldUpdateRequest) (*models.World, error)
	DeleteWorld(ctx context.Context, adminID uint, id uint) error
}

// RegisterRequest carries a new account. Username and email are normalized
// to lower case before storage.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=100"`
	IP       string `json:"-"` // set by the handler
}

// LoginRequest authenticates by email.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,max=100"`
	IP       string `json:"-"`
	Device   string `json:"-"`
}

// AuthResponse is returned from register, login, and refresh.
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// WorldSettings is the validated subset of a world's settings document.
type WorldSettings struct {
	GameSpeed float64 `json:"game_speed"`
}

// WorldRequest creates a world.
type WorldRequest struct {
	Name        string         `json:"name" binding:"required,min=1,max=50"`
	Description string         `json:"description" binding:"max=500"`
	Status      string         `json:"status"`
	StartTime   *time.Time     `json:"start_time"`
	Settings    *WorldSettings `json:"settings"`
}

// WorldUpdateRequest patches a world; nil fields are left unchanged.
type WorldUpdateRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *string        `json:"status"`
	StartTime   *time.Time     `json:"start_time"`
	Settings    *WorldSettings `json:"settings"`
}
