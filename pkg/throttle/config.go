package throttle

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Preset is the configuration form of a Limit.
type Preset struct {
	KeyPrefix   string `toml:"key_prefix"`
	Window      string `toml:"window"`
	MaxRequests int    `toml:"max_requests"`
}

// Limit converts the preset to its runtime form.
func (p *Preset) Limit() Limit {
	d, _ := time.ParseDuration(p.Window)
	return Limit{
		Prefix:      p.KeyPrefix,
		Window:      d,
		MaxRequests: p.MaxRequests,
	}
}

func (p *Preset) merge(overlay *Preset) {
	if overlay.KeyPrefix != "" {
		p.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.Window != "" {
		p.Window = overlay.Window
	}
	if overlay.MaxRequests != 0 {
		p.MaxRequests = overlay.MaxRequests
	}
}

func (p *Preset) defaults(prefix, window string, max int) {
	if p.KeyPrefix == "" {
		p.KeyPrefix = prefix
	}
	if p.Window == "" {
		p.Window = window
	}
	if p.MaxRequests == 0 {
		p.MaxRequests = max
	}
}

func (p *Preset) validate() error {
	if p.KeyPrefix == "" {
		return fmt.Errorf("key_prefix required")
	}
	d, err := time.ParseDuration(p.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("window must be positive: %s", p.Window)
	}
	if p.MaxRequests < 1 {
		return fmt.Errorf("max_requests must be positive: %d", p.MaxRequests)
	}
	return nil
}

// Config holds the sweep interval and the named throttle presets.
// Reasoning guards calls into the reasoning backend, API guards generic
// API traffic, and Auth is reserved for authentication traffic.
type Config struct {
	SweepInterval string `toml:"sweep_interval"`
	Reasoning     Preset `toml:"reasoning"`
	API           Preset `toml:"api"`
	Auth          Preset `toml:"auth"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	SweepInterval   string
	ReasoningMax    string
	ReasoningWindow string
	APIMax          string
	APIWindow       string
	AuthMax         string
	AuthWindow      string
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	c.Reasoning.merge(&overlay.Reasoning)
	c.API.merge(&overlay.API)
	c.Auth.merge(&overlay.Auth)
}

func (c *Config) loadDefaults() {
	if c.SweepInterval == "" {
		c.SweepInterval = "1m"
	}
	c.Reasoning.defaults("reasoning", "60s", 10)
	c.API.defaults("api", "60s", 100)
	c.Auth.defaults("auth", "15m", 5)
}

func (c *Config) loadEnv(env *Env) {
	setString := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}
	setInt := func(name string, target *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	setString(env.SweepInterval, &c.SweepInterval)
	setInt(env.ReasoningMax, &c.Reasoning.MaxRequests)
	setString(env.ReasoningWindow, &c.Reasoning.Window)
	setInt(env.APIMax, &c.API.MaxRequests)
	setString(env.APIWindow, &c.API.Window)
	setInt(env.AuthMax, &c.Auth.MaxRequests)
	setString(env.AuthWindow, &c.Auth.Window)
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("sweep_interval must be positive: %s", c.SweepInterval)
	}

	presets := []struct {
		name   string
		preset *Preset
	}{
		{"reasoning", &c.Reasoning},
		{"api", &c.API},
		{"auth", &c.Auth},
	}

	seen := make(map[string]string, len(presets))
	for _, p := range presets {
		if err := p.preset.validate(); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if other, ok := seen[p.preset.KeyPrefix]; ok {
			return fmt.Errorf("%s and %s share key_prefix %q", other, p.name, p.preset.KeyPrefix)
		}
		seen[p.preset.KeyPrefix] = p.name
	}
	return nil
}
