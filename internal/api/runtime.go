package api

import (
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/internal/infrastructure"
	"github.com/JaimeStill/assent/pkg/pagination"
	"github.com/JaimeStill/assent/pkg/throttle"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Agent          gaconfig.AgentConfig
	Engine         config.EngineConfig
	ReasoningLimit throttle.Limit
	APILimit       throttle.Limit
	Pagination     pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metrics:   infra.Metrics,
			Throttle:  infra.Throttle,
		},
		Agent:          cfg.Agent,
		Engine:         cfg.Engine,
		ReasoningLimit: cfg.Throttle.Reasoning.Limit(),
		APILimit:       cfg.Throttle.API.Limit(),
		Pagination:     cfg.API.Pagination,
	}
}
