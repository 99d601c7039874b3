package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/internal/verification"
	"github.com/JaimeStill/assent/pkg/openapi"
	"github.com/JaimeStill/assent/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	verifyHandler := verification.NewHandler(
		domain.Verification,
		runtime.Logger,
		cfg.Engine.MaxRequestSizeBytes(),
	)

	routes.Register(
		mux,
		domain.Policies.Handler().Routes(),
		domain.Directives.Handler().Routes(),
		verifyHandler.Routes(),
	)

	specBytes, err := openapi.MarshalJSON(buildSpec(cfg))
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))
	return nil
}
