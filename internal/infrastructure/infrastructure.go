// Package infrastructure assembles the systems every domain module depends on:
// lifecycle coordination, logging, the database pool and blob storage, with
// one metrics registry shared by the pool stats and the throttle guard.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/pkg/database"
	"github.com/JaimeStill/assent/pkg/lifecycle"
	"github.com/JaimeStill/assent/pkg/storage"
	"github.com/JaimeStill/assent/pkg/throttle"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *prometheus.Registry
	Throttle  *throttle.Guard
}

// New creates an Infrastructure from the application configuration.
// Systems are initialized but not started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	reg := NewRegistry()
	reg.MustRegister(collectors.NewDBStatsCollector(db.Connection(), cfg.Database.Name))

	guard := throttle.New(
		cfg.Throttle.SweepIntervalDuration(),
		logger,
		throttle.WithMetrics(throttle.NewMetrics(reg)),
	)

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   reg,
		Throttle:  guard,
	}, nil
}

// NewRegistry creates a metrics registry carrying the Go runtime and
// process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Start registers every infrastructure system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Throttle.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("throttle start failed: %w", err)
	}
	return nil
}
