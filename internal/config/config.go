// Package config loads server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cards    CardsConfig    `mapstructure:"cards"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig configures the room presence store. Leave Address empty to
// run without Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CardsConfig points at the card catalog. When CatalogFile is set the
// server runs off the static file instead of the database.
type CardsConfig struct {
	CatalogFile string `mapstructure:"catalog_file"`
}

// GameConfig overrides the default match constants.
type GameConfig struct {
	BoardWidth  int `mapstructure:"board_width"`
	BoardHeight int `mapstructure:"board_height"`
	StartingHP  int `mapstructure:"starting_hp"`
	ManaCap     int `mapstructure:"mana_cap"`
	ManaPerTurn int `mapstructure:"mana_per_turn"`
	OpeningHand int `mapstructure:"opening_hand"`
	HandLimit   int `mapstructure:"hand_limit"`
	LogWindow   int `mapstructure:"log_window"`
	// ReplayDir enables match recording when set. Finished matches are
	// written there as command logs.
	ReplayDir string `mapstructure:"replay_dir"`
}

// Load reads configuration from the given file path. Values can be
// overridden through GRIDSPELL_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.board_width", 3)
	v.SetDefault("game.board_height", 5)
	v.SetDefault("game.starting_hp", 10)
	v.SetDefault("game.mana_cap", 10)
	v.SetDefault("game.mana_per_turn", 1)
	v.SetDefault("game.opening_hand", 4)
	v.SetDefault("game.hand_limit", 7)
	v.SetDefault("game.log_window", 50)
	v.SetDefault("game.replay_dir", "")

	v.SetEnvPrefix("GRIDSPELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return &cfg, nil
}
