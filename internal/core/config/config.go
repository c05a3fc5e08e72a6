package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Timeline TimelineConfig `koanf:"timeline"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	// Driver selects the EventLog implementation: "memory" or "postgres".
	Driver       string `koanf:"driver"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// TimelineConfig holds the fan-out and materialization tunables.
type TimelineConfig struct {
	CelebrityThreshold int `koanf:"celebrity_threshold"`
	MaxTimelineLength  int `koanf:"max_timeline_length"`
	FeedCacheCapacity  int `koanf:"feed_cache_capacity"`
	FanoutConcurrency  int `koanf:"fanout_concurrency"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required when database.driver is postgres")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q (must be memory or postgres)", c.Database.Driver)
	}

	if c.Timeline.CelebrityThreshold <= 0 {
		return fmt.Errorf("timeline.celebrity_threshold must be > 0")
	}
	if c.Timeline.MaxTimelineLength <= 0 {
		return fmt.Errorf("timeline.max_timeline_length must be > 0")
	}
	if c.Timeline.FeedCacheCapacity <= 0 {
		return fmt.Errorf("timeline.feed_cache_capacity must be > 0")
	}
	if c.Timeline.FanoutConcurrency <= 0 {
		return fmt.Errorf("timeline.fanout_concurrency must be > 0")
	}

	return nil
}

// Load parses config from an optional YAML file, layered under
// defaults and under TIMELINE_-prefixed environment variables, then
// validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                  8080,
		"server.host":                  "0.0.0.0",
		"server.mode":                  "release",
		"database.driver":              "memory",
		"database.dsn":                 "",
		"database.max_open_conns":      25,
		"database.max_idle_conns":      25,
		"database.auto_migrate":        true,
		"timeline.celebrity_threshold": 1000,
		"timeline.max_timeline_length": 800,
		"timeline.feed_cache_capacity": 10000,
		"timeline.fanout_concurrency":  32,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("TIMELINE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TIMELINE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
