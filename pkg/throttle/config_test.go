package throttle_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/assent/pkg/throttle"
)

func TestConfigDefaults(t *testing.T) {
	var cfg throttle.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	tests := []struct {
		name   string
		preset throttle.Preset
		limit  throttle.Limit
	}{
		{"reasoning", cfg.Reasoning, throttle.Limit{Prefix: "reasoning", Window: time.Minute, MaxRequests: 10}},
		{"api", cfg.API, throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 100}},
		{"auth", cfg.Auth, throttle.Limit{Prefix: "auth", Window: 15 * time.Minute, MaxRequests: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.preset.Limit(); got != tt.limit {
				t.Errorf("Limit = %+v, want %+v", got, tt.limit)
			}
		})
	}

	if cfg.SweepIntervalDuration() != time.Minute {
		t.Errorf("SweepIntervalDuration = %v, want 1m", cfg.SweepIntervalDuration())
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	env := &throttle.Env{
		SweepInterval:   "TEST_THROTTLE_SWEEP",
		ReasoningMax:    "TEST_THROTTLE_REASONING_MAX",
		ReasoningWindow: "TEST_THROTTLE_REASONING_WINDOW",
	}

	t.Setenv("TEST_THROTTLE_SWEEP", "30s")
	t.Setenv("TEST_THROTTLE_REASONING_MAX", "3")
	t.Setenv("TEST_THROTTLE_REASONING_WINDOW", "10s")

	var cfg throttle.Config
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	if cfg.SweepInterval != "30s" {
		t.Errorf("SweepInterval = %q, want 30s", cfg.SweepInterval)
	}
	if cfg.Reasoning.MaxRequests != 3 {
		t.Errorf("Reasoning.MaxRequests = %d, want 3", cfg.Reasoning.MaxRequests)
	}
	if cfg.Reasoning.Window != "10s" {
		t.Errorf("Reasoning.Window = %q, want 10s", cfg.Reasoning.Window)
	}
}

func TestConfigMerge(t *testing.T) {
	base := throttle.Config{
		SweepInterval: "1m",
		API:           throttle.Preset{KeyPrefix: "api", Window: "60s", MaxRequests: 100},
	}
	overlay := throttle.Config{
		API: throttle.Preset{MaxRequests: 500},
	}

	base.Merge(&overlay)

	if base.API.MaxRequests != 500 {
		t.Errorf("API.MaxRequests = %d, want 500", base.API.MaxRequests)
	}
	if base.API.Window != "60s" {
		t.Errorf("API.Window = %q, want 60s preserved", base.API.Window)
	}
	if base.SweepInterval != "1m" {
		t.Errorf("SweepInterval = %q, want 1m preserved", base.SweepInterval)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     throttle.Config
		wantErr string
	}{
		{
			name:    "shared prefix",
			cfg:     throttle.Config{API: throttle.Preset{KeyPrefix: "reasoning"}},
			wantErr: "share key_prefix",
		},
		{
			name:    "invalid window",
			cfg:     throttle.Config{Reasoning: throttle.Preset{Window: "soon"}},
			wantErr: "invalid window",
		},
		{
			name:    "negative max",
			cfg:     throttle.Config{Auth: throttle.Preset{MaxRequests: -1}},
			wantErr: "max_requests must be positive",
		},
		{
			name:    "invalid sweep interval",
			cfg:     throttle.Config{SweepInterval: "often"},
			wantErr: "invalid sweep_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
