package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/assent/pkg/middleware"
	"github.com/JaimeStill/assent/pkg/throttle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://allowed.com"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"disabled", &middleware.CORSConfig{}, "GET", "http://allowed.com", "", http.StatusOK},
		{"allowed origin", cfg, "GET", "http://allowed.com", "http://allowed.com", http.StatusOK},
		{"disallowed origin", cfg, "GET", "http://evil.com", "", http.StatusOK},
		{"preflight", cfg, "OPTIONS", "http://allowed.com", "http://allowed.com", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)

			middleware.CORS(tt.cfg)(okHandler()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	t.Run("exposes throttle headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "http://allowed.com")

		middleware.CORS(cfg)(okHandler()).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Retry-After") {
			t.Errorf("Expose-Headers = %q, want Retry-After listed", got)
		}
	})
}

func TestCORSEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, ,http://b.com")

	var cfg middleware.CORSConfig
	if err := cfg.Finalize(&middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED", Origins: "TEST_CORS_ORIGINS"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b.com" {
		t.Errorf("Origins = %v, want [http://a.com http://b.com]", cfg.Origins)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/policies?page=2", nil))

	out := buf.String()
	for _, want := range []string{"method=GET", "uri=\"/api/policies?page=2\"", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		forward string
		remote  string
		want    string
	}{
		{"header wins", "clinic-7", "10.0.0.1", "192.0.2.1:5000", "clinic-7"},
		{"forwarded header ignored", "", "10.0.0.1, 10.0.0.2", "192.0.2.1:5000", "192.0.2.1"},
		{"remote host", "", "", "192.0.2.1:5000", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
		{"nothing", "", "", "", throttle.Anonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.header != "" {
				req.Header.Set("X-Client-ID", tt.header)
			}
			if tt.forward != "" {
				req.Header.Set("X-Forwarded-For", tt.forward)
			}

			if got := middleware.Identify(req, "X-Client-ID"); got != tt.want {
				t.Errorf("Identify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	guard := throttle.New(time.Minute, discardLogger())
	limit := throttle.Limit{Prefix: "api", Window: time.Minute, MaxRequests: 2}

	var seen string
	handler := middleware.Throttle(guard, limit, "X-Client-ID", discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = throttle.Identity(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	send := func(client string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/policies", nil)
		req.Header.Set("X-Client-ID", client)
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send("clinic-1")
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}
	if seen != "clinic-1" {
		t.Errorf("identity in context = %q, want clinic-1", seen)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("X-RateLimit-Remaining = %s, want 1", got)
	}
	if got := first.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %s, want 2", got)
	}

	send("clinic-1")
	denied := send("clinic-1")
	if denied.Code != http.StatusTooManyRequests {
		t.Fatalf("third status = %d, want 429", denied.Code)
	}
	if denied.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing on denied request")
	}

	if other := send("clinic-2"); other.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", other.Code)
	}
}
