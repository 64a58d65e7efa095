package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/salzundsand/server/internal/api"
	"github.com/salzundsand/server/internal/config"
	"github.com/salzundsand/server/internal/database"
	"github.com/salzundsand/server/internal/game"
	"github.com/salzundsand/server/internal/logger"
	"github.com/salzundsand/server/internal/service"
	"go.uber.org/zap"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to the configuration file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("salzundsand server %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	logger.Info("starting server",
		zap.String("version", Version),
		zap.String("mode", cfg.Server.Mode),
	)

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("database initialization failed", zap.Error(err))
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	}

	cooldowns, closeCooldowns, err := newCooldownStore(cfg)
	if err != nil {
		logger.Fatal("cooldown store initialization failed", zap.Error(err))
	}
	defer closeCooldowns()

	db := database.GetDB()
	services := service.NewServices(db, cfg, cooldowns, logger.GetLogger())
	router := api.NewRouter(db, cfg, services, logger.GetLogger())

	config.Watch(func(newCfg *config.Config) {
		logger.Info("configuration reloaded, applying game rules")
		services.Engine.UpdateRules(game.RulesFromConfig(&newCfg.Game))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown was not clean", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newCooldownStore picks redis when configured, the in-process map
// otherwise. The returned closer is a no-op for the in-process store.
func newCooldownStore(cfg *config.Config) (game.CooldownStore, func(), error) {
	if cfg.Security.Redis.Enabled {
		store, err := game.NewRedisCooldownStore(cfg.Security.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis cooldown store")
		return store, func() { _ = store.Close() }, nil
	}

	return game.NewMemoryCooldownStore(), func() {}, nil
}
