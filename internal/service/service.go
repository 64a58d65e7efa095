package service

import (
	"github.com/salzundsand/server/internal/config"
	"github.com/salzundsand/server/internal/game"
	"github.com/salzundsand/server/internal/repository"
	"github.com/salzundsand/server/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bundles the application services behind their interfaces.
type Services struct {
	Auth   AuthService
	World  WorldService
	Engine *game.Engine
}

// NewServices wires repositories, the rule set, and the cooldown store into
// the service layer.
func NewServices(db *gorm.DB, cfg *config.Config, cooldowns game.CooldownStore, log *zap.Logger) *Services {
	userRepo := repository.NewUserRepository(db)
	authRepo := repository.NewUserAuthRepository(db)
	sessionRepo := repository.NewUserSessionRepository(db)
	worldRepo := repository.NewWorldRepository(db)
	stateRepo := repository.NewPlayerStateRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	jwtManager := utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.AccessExpiry,
		cfg.Security.JWT.RefreshExpiry,
	)

	rules := game.RulesFromConfig(&cfg.Game)

	engine := game.NewEngine(db, stateRepo, worldRepo, auditRepo, cooldowns, rules, log)

	authService := NewAuthService(
		db,
		userRepo,
		authRepo,
		sessionRepo,
		stateRepo,
		worldRepo,
		auditRepo,
		jwtManager,
		cfg.Security,
		cfg.Game.InitialCoins,
		log,
	)

	worldService := NewWorldService(worldRepo, auditRepo, log)

	return &Services{
		Auth:   authService,
		World:  worldService,
		Engine: engine,
	}
}

// JWTManagerFromConfig builds the token manager the middleware validates
// with. It must share the secret with the auth service.
func JWTManagerFromConfig(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.AccessExpiry,
		cfg.Security.JWT.RefreshExpiry,
	)
}
