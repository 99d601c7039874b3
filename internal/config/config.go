// Package config loads the service configuration from config.toml, an
// optional config.<ASSENT_ENV>.toml overlay, and ASSENT_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/assent/pkg/database"
	"github.com/JaimeStill/assent/pkg/storage"
	"github.com/JaimeStill/assent/pkg/throttle"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAssentEnv             = "ASSENT_ENV"
	EnvAssentShutdownTimeout = "ASSENT_SHUTDOWN_TIMEOUT"
	EnvAssentVersion         = "ASSENT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ASSENT_DB_HOST",
	Port:            "ASSENT_DB_PORT",
	Name:            "ASSENT_DB_NAME",
	User:            "ASSENT_DB_USER",
	Password:        "ASSENT_DB_PASSWORD",
	SSLMode:         "ASSENT_DB_SSL_MODE",
	MaxOpenConns:    "ASSENT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ASSENT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ASSENT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ASSENT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ASSENT_STORAGE_CONTAINER_NAME",
	ConnectionString: "ASSENT_STORAGE_CONNECTION_STRING",
}

var throttleEnv = &throttle.Env{
	SweepInterval:   "ASSENT_THROTTLE_SWEEP_INTERVAL",
	ReasoningMax:    "ASSENT_THROTTLE_REASONING_MAX_REQUESTS",
	ReasoningWindow: "ASSENT_THROTTLE_REASONING_WINDOW",
	APIMax:          "ASSENT_THROTTLE_API_MAX_REQUESTS",
	APIWindow:       "ASSENT_THROTTLE_API_WINDOW",
	AuthMax:         "ASSENT_THROTTLE_AUTH_MAX_REQUESTS",
	AuthWindow:      "ASSENT_THROTTLE_AUTH_WINDOW",
}

// Config is the root configuration for the assent service.
//
// Agent is decoded from the [agent] table through its JSON field names so
// go-agents keys such as base_url match without toml tags.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Engine          EngineConfig         `toml:"engine"`
	Throttle        throttle.Config      `toml:"throttle"`
	Agent           gaconfig.AgentConfig `toml:"-"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the ASSENT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAssentEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. Without a config.toml, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Parse decodes a TOML document into a Config without finalizing it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var raw struct {
		Agent map[string]any `toml:"agent"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse agent: %w", err)
	}
	if raw.Agent != nil {
		b, err := json.Marshal(raw.Agent)
		if err != nil {
			return nil, fmt.Errorf("encode agent: %w", err)
		}
		if err := json.Unmarshal(b, &cfg.Agent); err != nil {
			return nil, fmt.Errorf("decode agent: %w", err)
		}
	}

	return &cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Throttle.Merge(&overlay.Throttle)
	c.Agent.Merge(&overlay.Agent)
}

// Finalize applies defaults, environment variable overrides, and validation
// to the root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Throttle.Finalize(throttleEnv); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if c.Server.WriteTimeoutDuration() <= c.Engine.BackendTimeoutDuration() {
		return fmt.Errorf("server write_timeout %s must exceed engine backend_timeout %s",
			c.Server.WriteTimeout, c.Engine.BackendTimeout)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAssentShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAssentVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func overlayPath() string {
	if env := os.Getenv(EnvAssentEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
