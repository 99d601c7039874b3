package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/assent/pkg/formatting"
)

const (
	EnvEngineBackendTimeout   = "ASSENT_ENGINE_BACKEND_TIMEOUT"
	EnvEnginePolicyCharBudget = "ASSENT_ENGINE_POLICY_CHAR_BUDGET"
	EnvEngineTemperature      = "ASSENT_ENGINE_TEMPERATURE"
	EnvEngineStructuredMode   = "ASSENT_ENGINE_STRUCTURED_MODE"
	EnvEngineIdentityHeader   = "ASSENT_ENGINE_IDENTITY_HEADER"
	EnvEngineMaxRequestSize   = "ASSENT_ENGINE_MAX_REQUEST_SIZE"
)

// EngineConfig tunes the verification engine and its reasoning calls.
// Temperature and StructuredMode are pointers so an explicit zero or false
// survives defaults and merges.
type EngineConfig struct {
	BackendTimeout   string   `toml:"backend_timeout"`
	PolicyCharBudget int      `toml:"policy_char_budget"`
	Temperature      *float64 `toml:"temperature"`
	StructuredMode   *bool    `toml:"structured_mode"`
	IdentityHeader   string   `toml:"identity_header"`
	MaxRequestSize   string   `toml:"max_request_size"`
}

// BackendTimeoutDuration returns BackendTimeout as a time.Duration.
func (c *EngineConfig) BackendTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BackendTimeout)
	return d
}

// TemperatureValue returns the configured sampling temperature.
func (c *EngineConfig) TemperatureValue() float64 {
	if c.Temperature == nil {
		return 0
	}
	return *c.Temperature
}

// Structured reports whether the backend is asked for a JSON object response.
func (c *EngineConfig) Structured() bool {
	return c.StructuredMode != nil && *c.StructuredMode
}

// MaxRequestSizeBytes returns MaxRequestSize in bytes.
func (c *EngineConfig) MaxRequestSizeBytes() int64 {
	size, err := formatting.ParseSize(c.MaxRequestSize)
	if err != nil {
		return 1 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites set fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.BackendTimeout != "" {
		c.BackendTimeout = overlay.BackendTimeout
	}
	if overlay.PolicyCharBudget != 0 {
		c.PolicyCharBudget = overlay.PolicyCharBudget
	}
	if overlay.Temperature != nil {
		c.Temperature = overlay.Temperature
	}
	if overlay.StructuredMode != nil {
		c.StructuredMode = overlay.StructuredMode
	}
	if overlay.IdentityHeader != "" {
		c.IdentityHeader = overlay.IdentityHeader
	}
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.BackendTimeout == "" {
		c.BackendTimeout = "30s"
	}
	if c.PolicyCharBudget == 0 {
		c.PolicyCharBudget = 15000
	}
	if c.Temperature == nil {
		t := 0.1
		c.Temperature = &t
	}
	if c.StructuredMode == nil {
		on := true
		c.StructuredMode = &on
	}
	if c.IdentityHeader == "" {
		c.IdentityHeader = "X-Client-ID"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "1MB"
	}
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineBackendTimeout); v != "" {
		c.BackendTimeout = v
	}
	if v := os.Getenv(EnvEnginePolicyCharBudget); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PolicyCharBudget = n
		}
	}
	if v := os.Getenv(EnvEngineTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = &t
		}
	}
	if v := os.Getenv(EnvEngineStructuredMode); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StructuredMode = &b
		}
	}
	if v := os.Getenv(EnvEngineIdentityHeader); v != "" {
		c.IdentityHeader = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvEngineMaxRequestSize); v != "" {
		c.MaxRequestSize = v
	}
}

func (c *EngineConfig) validate() error {
	d, err := time.ParseDuration(c.BackendTimeout)
	if err != nil {
		return fmt.Errorf("invalid backend_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("backend_timeout must be positive: %s", c.BackendTimeout)
	}
	if c.PolicyCharBudget < 1 {
		return fmt.Errorf("policy_char_budget must be positive: %d", c.PolicyCharBudget)
	}
	if t := *c.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("temperature out of range: %g", t)
	}
	size, err := formatting.ParseSize(c.MaxRequestSize)
	if err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	if size < 1 {
		return fmt.Errorf("max_request_size must be positive: %s", c.MaxRequestSize)
	}
	return nil
}
