package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // development, production
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
// Error details are hidden from clients in production.
func (c *ServerConfig) IsProduction() bool {
	return c.Mode == "production"
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, mysql, postgres
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// GameConfig holds the server-authoritative game rules. All values have
// documented defaults so a bare deployment behaves like the reference game.
type GameConfig struct {
	SaltPrice     int            `mapstructure:"salt_price"`
	SandPrice     int            `mapstructure:"sand_price"`
	CollectAmount int            `mapstructure:"collect_amount"`
	CollectExp    int            `mapstructure:"collect_exp"`
	SellExpFactor int            `mapstructure:"sell_exp_factor"`
	LevelUpBonus  int            `mapstructure:"level_up_bonus"`
	InitialCoins  int64          `mapstructure:"initial_coins"`
	MaxLevel      int            `mapstructure:"max_level"`
	MaxCoins      int64          `mapstructure:"max_coins"`
	MaxResources  int64          `mapstructure:"max_resources"`
	Cooldowns     CooldownConfig `mapstructure:"cooldowns"`
}

// CooldownConfig holds per-action anti-spam thresholds.
type CooldownConfig struct {
	CollectSalt   time.Duration `mapstructure:"collect_salt"`
	CollectSand   time.Duration `mapstructure:"collect_sand"`
	SellResources time.Duration `mapstructure:"sell_resources"`
	Default       time.Duration `mapstructure:"default"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"` // json, console
	Output string        `mapstructure:"output"` // stdout, file, both
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig holds log rotation settings.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig holds auth and rate-limit settings.
type SecurityConfig struct {
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Lockout   LockoutConfig   `mapstructure:"lockout"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
}

// RateLimitConfig holds per-IP request limits. Window semantics follow the
// fixed-window model: at most Max requests per Window per client IP.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Window    time.Duration `mapstructure:"window"`
	Max       int           `mapstructure:"max"`
	StrictMax int           `mapstructure:"strict_max"` // sensitive endpoints
	LoginMax  int           `mapstructure:"login_max"`
}

// LockoutConfig holds account lockout settings for failed logins.
type LockoutConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Duration    time.Duration `mapstructure:"duration"`
}

// RedisConfig holds the optional shared cooldown store. When Enabled is
// false the engine falls back to the in-process cooldown map, which is only
// correct for single-instance deployments.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init loads configuration from file and environment.
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		v.SetEnvPrefix("SALZ")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			// Missing file is fine, defaults apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				err = nil
			} else {
				return
			}
		}

		cfg = &Config{}
		err = v.Unmarshal(cfg)
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/salzundsand.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// Game rules match the original deployment; tunable per instance.
	v.SetDefault("game.salt_price", 10)
	v.SetDefault("game.sand_price", 5)
	v.SetDefault("game.collect_amount", 1)
	v.SetDefault("game.collect_exp", 5)
	v.SetDefault("game.sell_exp_factor", 2)
	v.SetDefault("game.level_up_bonus", 50)
	v.SetDefault("game.initial_coins", 100)
	v.SetDefault("game.max_level", 1000)
	v.SetDefault("game.max_coins", 999999999)
	v.SetDefault("game.max_resources", 999999)
	v.SetDefault("game.cooldowns.collect_salt", "2s")
	v.SetDefault("game.cooldowns.collect_sand", "2s")
	v.SetDefault("game.cooldowns.sell_resources", "1s")
	v.SetDefault("game.cooldowns.default", "1s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "salzundsand.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("security.jwt.secret", "change-me-in-production")
	v.SetDefault("security.jwt.access_expiry", "24h")
	v.SetDefault("security.jwt.refresh_expiry", "168h")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.window", "15m")
	v.SetDefault("security.rate_limit.max", 100)
	v.SetDefault("security.rate_limit.strict_max", 10)
	v.SetDefault("security.rate_limit.login_max", 5)
	v.SetDefault("security.lockout.max_attempts", 5)
	v.SetDefault("security.lockout.duration", "15m")
	v.SetDefault("security.redis.enabled", false)
	v.SetDefault("security.redis.url", "redis://localhost:6379/0")
}

// Get returns the loaded configuration.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch reloads the configuration when the file changes.
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("config reload failed: %v\n", err)
			return
		}

		cfg = newCfg
		if callback != nil {
			callback(cfg)
		}
	})
}

// GetDuration reads a duration key directly from viper.
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet reports whether a key was explicitly configured.
func IsSet(key string) bool {
	return v.IsSet(key)
}
