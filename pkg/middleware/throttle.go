package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/assent/pkg/handlers"
	"github.com/JaimeStill/assent/pkg/throttle"
)

// Checker counts one request against a limit.
type Checker interface {
	Check(limit throttle.Limit, identifier string) throttle.Result
}

// Identify resolves the caller identity from header, falling back to the
// remote address host. Forwarding headers are not consulted.
func Identify(r *http.Request, header string) string {
	if header != "" {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return id
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return throttle.Anonymous
}

// Throttle counts every request against limit per caller, stores the
// identity on the request context, and sets X-RateLimit-* headers.
// Denied requests receive 429 with Retry-After.
func Throttle(guard Checker, limit throttle.Limit, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Identify(r, header)
			result := guard.Check(limit, id)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(result.ResetIn).Unix(), 10))

			if !result.Allowed {
				handlers.SetRetryAfter(w, result.RetryAfterSeconds())
				handlers.RespondError(w, logger, http.StatusTooManyRequests, throttle.ErrLimited)
				return
			}

			next.ServeHTTP(w, r.WithContext(throttle.WithIdentity(r.Context(), id)))
		})
	}
}
