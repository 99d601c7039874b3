package verification

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/internal/reasoning"
	"github.com/JaimeStill/assent/pkg/throttle"
)

// Errors a verification may surface to its caller. Per-rule failures and
// unusable backend responses never appear here; they are absorbed into the
// decision.
var (
	ErrPolicyNotFound     = policies.ErrNotFound
	ErrRateLimited        = throttle.ErrLimited
	ErrBackendTimeout     = reasoning.ErrBackendTimeout
	ErrBackendUnavailable = reasoning.ErrBackendUnavailable
	ErrInvalidRequest     = errors.New("verification requires a code and a note or facts")
)

// RateLimitedError carries the delay after which a throttled caller may retry.
type RateLimitedError = reasoning.RateLimitedError

// MapHTTPStatus maps verification errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrPolicyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
