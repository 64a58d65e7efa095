package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/salzundsand/server/internal/config"
	"github.com/salzundsand/server/internal/database"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"github.com/salzundsand/server/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const sessionLifetime = 30 * 24 * time.Hour

type authService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	authRepo     repository.UserAuthRepository
	sessionRepo  repository.UserSessionRepository
	stateRepo    repository.PlayerStateRepository
	worldRepo    repository.WorldRepository
	auditRepo    repository.AuditLogRepository
	jwtManager   *utils.JWTManager
	lockout      config.LockoutConfig
	accessExpiry time.Duration
	initialCoins int64
	log          *zap.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	stateRepo repository.PlayerStateRepository,
	worldRepo repository.WorldRepository,
	auditRepo repository.AuditLogRepository,
	jwtManager *utils.JWTManager,
	security config.SecurityConfig,
	initialCoins int64,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		authRepo:     authRepo,
		sessionRepo:  sessionRepo,
		stateRepo:    stateRepo,
		worldRepo:    worldRepo,
		auditRepo:    auditRepo,
		jwtManager:   jwtManager,
		lockout:      security.Lockout,
		accessExpiry: security.JWT.AccessExpiry,
		initialCoins: initialCoins,
		log:          log,
	}
}

// Register creates the account, its credentials, a session, and the player
// state in the default world, all in one transaction.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.FindByUsername(ctx, req.Username); existing != nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "username is taken")
	}
	if existing, _ := s.userRepo.FindByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "email is already in use")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "password hashing failed")
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	defaultWorld, err := s.worldRepo.FindByName(ctx, database.DefaultWorldName)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Username,
		Role:     "user",
		Status:   "active",
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).(repository.UserRepository).Create(ctx, user); err != nil {
			return err
		}

		auth := &models.UserAuth{
			UserID:   user.ID,
			Password: hashed,
		}
		if err := s.authRepo.WithTx(tx).(repository.UserAuthRepository).Create(ctx, auth); err != nil {
			return err
		}

		session := &models.UserSession{
			UserID:    user.ID,
			SessionID: sessionID,
			IP:        req.IP,
			ExpireAt:  time.Now().Add(sessionLifetime),
		}
		if err := s.sessionRepo.WithTx(tx).(repository.UserSessionRepository).Create(ctx, session); err != nil {
			return err
		}

		state := models.NewPlayerState(user.ID, defaultWorld.ID, s.initialCoins)
		if err := s.stateRepo.WithTx(tx).(repository.PlayerStateRepository).Create(ctx, state); err != nil {
			return err
		}

		return s.auditRepo.CreateTx(tx, &models.AuditLog{
			UserID:     user.ID,
			ActionType: models.AuditUserRegistered,
			Data:       models.JSONMap{"ip": req.IP, "world_id": defaultWorld.ID},
		})
	})
	if err != nil {
		s.log.Error("registration failed", zap.String("username", req.Username), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.log.Info("user registered",
		zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return s.issueTokens(user, sessionID)
}

// Login authenticates by email with failed-attempt lockout. The same error
// comes back for a wrong email and a wrong password.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, apperrors.New(apperrors.ErrAuthentication, "invalid email or password")
	}

	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrAuthorization, "account is disabled")
	}

	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("auth record missing", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, apperrors.New(apperrors.ErrAuthentication, "invalid email or password")
	}

	now := time.Now()
	if auth.IsLocked(now) {
		return nil, apperrors.New(apperrors.ErrAccountLocked)
	}

	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		var lockedUntil *time.Time
		if auth.LoginAttempts+1 >= s.lockout.MaxAttempts {
			t := now.Add(s.lockout.Duration)
			lockedUntil = &t
		}
		if rerr := s.authRepo.RecordFailedAttempt(ctx, user.ID, lockedUntil); rerr != nil {
			s.log.Error("failed to record login attempt", zap.Uint("user_id", user.ID), zap.Error(rerr))
		}
		s.log.Warn("login failed", zap.Uint("user_id", user.ID), zap.String("ip", req.IP))
		return nil, apperrors.New(apperrors.ErrAuthentication, "invalid email or password")
	}

	if err := s.authRepo.ClearFailedAttempts(ctx, user.ID); err != nil {
		s.log.Error("failed to clear login attempts", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown)
	}

	session := &models.UserSession{
		UserID:    user.ID,
		SessionID: sessionID,
		IP:        req.IP,
		UserAgent: req.Device,
		ExpireAt:  now.Add(sessionLifetime),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP); err != nil {
		s.log.Error("failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		UserID:     user.ID,
		ActionType: models.AuditUserLogin,
		Data:       models.JSONMap{"ip": req.IP},
	}); err != nil {
		s.log.Error("failed to write login audit entry", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	s.log.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("ip", req.IP))

	return s.issueTokens(user, sessionID)
}

// Logout invalidates the token's session.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return apperrors.New(apperrors.ErrTokenInvalid)
	}

	if err := s.sessionRepo.DeleteBySessionID(ctx, claims.SessionID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageUnavailable)
	}

	s.log.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// RefreshToken exchanges a valid refresh token for a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}
	if claims.TokenType != "refresh" {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "not a refresh token")
	}

	session, err := s.sessionRepo.FindBySessionID(ctx, claims.SessionID)
	if err != nil || session == nil {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "session not found")
	}
	if session.ExpireAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.ErrTokenExpired)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, apperrors.New(apperrors.ErrAuthorization, "account is disabled")
	}

	return s.issueTokens(user, claims.SessionID)
}

// GetCurrentUser loads the authenticated user's profile.
func (s *authService) GetCurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *authService) issueTokens(user *models.User, sessionID string) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "token generation failed")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "token generation failed")
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func validateRegisterRequest(req *RegisterRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return apperrors.New(apperrors.ErrInvalidInput, "username must be 3 to 20 characters")
	}
	if !usernamePattern.MatchString(req.Username) {
		return apperrors.New(apperrors.ErrInvalidInput, "username may only contain letters, digits and underscores")
	}
	return validatePasswordStrength(req.Password)
}

// validatePasswordStrength requires at least 8 characters with a lower-case
// letter, an upper-case letter, a digit, and one of @$!%*?&.
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 100 {
		return apperrors.New(apperrors.ErrInvalidInput, "password must be 8 to 100 characters")
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return apperrors.New(apperrors.ErrInvalidInput,
			"password needs a lower-case letter, an upper-case letter, a digit, and a special character")
	}
	return nil
}
