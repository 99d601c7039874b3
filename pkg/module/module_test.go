package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/assent/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for prefix %q", prefix)
				}
			}()
			module.New(prefix, http.NewServeMux())
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	mux := http.NewServeMux()

	var received string
	mux.HandleFunc("GET /policies", func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	})

	api := module.New("/api", mux)

	var headerSet bool
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerSet = true
			next.ServeHTTP(w, r)
		})
	})

	router := module.NewRouter()
	router.Mount(api)
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPath   string
		wantMW     bool
	}{
		{"module route", "/api/policies", http.StatusOK, "/policies", true},
		{"trailing slash trimmed", "/api/policies/", http.StatusOK, "/policies", true},
		{"module root", "/api", http.StatusAccepted, "/", true},
		{"native fallback", "/healthz", http.StatusNoContent, "", false},
		{"similar prefix is not module", "/apix", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			received, headerSet = "", false

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if received != tt.wantPath {
				t.Errorf("inner path = %q, want %q", received, tt.wantPath)
			}
			if headerSet != tt.wantMW {
				t.Errorf("module middleware ran = %v, want %v", headerSet, tt.wantMW)
			}
		})
	}
}
