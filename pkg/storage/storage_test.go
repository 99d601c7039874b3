package storage_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/assent/pkg/storage"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: "UseDevelopmentStorage=true"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if cfg.ContainerName != "policies" {
			t.Errorf("container_name = %s, want policies", cfg.ContainerName)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_CONTAINER", "sources")
		t.Setenv("TEST_CONN", "override")

		var cfg storage.Config
		if err := cfg.Finalize(&storage.Env{ContainerName: "TEST_CONTAINER", ConnectionString: "TEST_CONN"}); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if cfg.ContainerName != "sources" || cfg.ConnectionString != "override" {
			t.Errorf("config = %+v", cfg)
		}
	})

	t.Run("missing connection string", func(t *testing.T) {
		var cfg storage.Config
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "connection_string required") {
			t.Errorf("error = %v, want connection_string required", err)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"acme/prostate-biopsy.pdf", false},
		{"policy..v2.pdf", false},
		{"", true},
		{"   ", true},
		{"../secrets", true},
		{"acme/../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := storage.ValidateKey(tt.key)
			if tt.wantErr && !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", tt.key, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
