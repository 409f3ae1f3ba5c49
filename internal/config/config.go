package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the websocket listener and session handling.
type ServerConfig struct {
	ListenAddr  string        `mapstructure:"listen_addr"`
	LeasePeriod time.Duration `mapstructure:"lease_period"`
}

// DatabaseConfig configures the postgres connection pool.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// GameConfig configures match defaults.
type GameConfig struct {
	MinPlayers int `mapstructure:"min_players"`
	MaxPlayers int `mapstructure:"max_players"`
}

// Load reads the configuration file at path, applying defaults for anything
// unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.lease_period", "5m")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 4)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr is required")
	}
	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("config: game.min_players must be at least 2")
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("config: game.max_players below game.min_players")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
