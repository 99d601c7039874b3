package verification

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/pkg/handlers"
	"github.com/JaimeStill/assent/pkg/routes"
)

// Handler exposes verification over HTTP.
type Handler struct {
	verifier Verifier
	logger   *slog.Logger
	maxBytes int64
}

// NewHandler creates a Handler. Request bodies larger than maxBytes are rejected.
func NewHandler(verifier Verifier, logger *slog.Logger, maxBytes int64) *Handler {
	return &Handler{
		verifier: verifier,
		logger:   logger.With("handler", "verification"),
		maxBytes: maxBytes,
	}
}

// Routes returns the route group definition for verification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/verify",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Verify},
		},
	}
}

// Verify decodes a clinical request and responds with its Decision.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	var req evaluation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	decision, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		var limited *RateLimitedError
		if errors.As(err, &limited) {
			handlers.SetRetryAfter(w, limited.RetryAfterSeconds())
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, decision)
}
