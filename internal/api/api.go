// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/internal/infrastructure"
	"github.com/JaimeStill/assent/pkg/middleware"
	"github.com/JaimeStill/assent/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every request is counted against the api throttle preset per caller
// identity before reaching a handler.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Throttle(
		runtime.Throttle,
		runtime.APILimit,
		cfg.Engine.IdentityHeader,
		runtime.Logger,
	))

	return m, nil
}
