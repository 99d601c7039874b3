package policies_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/pkg/pagination"
	"github.com/JaimeStill/assent/pkg/routes"
	"github.com/JaimeStill/assent/pkg/storage"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters policies.Filters) (*pagination.PageResult[policies.Policy], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*policies.Policy, error)
	findByCodeFn func(ctx context.Context, code string) (*policies.Policy, error)
	sectionsFn   func(ctx context.Context, id uuid.UUID) ([]policies.Section, error)
	rulesFn      func(ctx context.Context, id uuid.UUID) ([]policies.Rule, error)
	sourceFn     func(ctx context.Context, id uuid.UUID) (*storage.Blob, error)
}

func (m *mockSystem) Handler() *policies.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters policies.Filters) (*pagination.PageResult[policies.Policy], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*policies.Policy, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) FindByCode(ctx context.Context, code string) (*policies.Policy, error) {
	return m.findByCodeFn(ctx, code)
}

func (m *mockSystem) Sections(ctx context.Context, id uuid.UUID) ([]policies.Section, error) {
	return m.sectionsFn(ctx, id)
}

func (m *mockSystem) Rules(ctx context.Context, id uuid.UUID) ([]policies.Rule, error) {
	return m.rulesFn(ctx, id)
}

func (m *mockSystem) Source(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	return m.sourceFn(ctx, id)
}

func newTestHandler(sys policies.System) *policies.Handler {
	return policies.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

var policyID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

func samplePolicy() policies.Policy {
	return policies.Policy{
		ID:           policyID,
		Payer:        "Acme Health",
		Title:        "Prostate Biopsy",
		Codes:        []string{"55700", "55706"},
		SourceRef:    "acme/prostate-biopsy.pdf",
		Status:       policies.StatusActive,
		LastSyncedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	var gotFilters policies.Filters
	var gotPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters policies.Filters) (*pagination.PageResult[policies.Policy], error) {
			gotPage, gotFilters = page, filters
			result := pagination.NewPageResult([]policies.Policy{samplePolicy()}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(sys)

	t.Run("applies query filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/policies?code=55700&status=active&page_size=5", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotFilters.Code == nil || *gotFilters.Code != "55700" {
			t.Errorf("code filter = %v, want 55700", gotFilters.Code)
		}
		if gotFilters.Status == nil || *gotFilters.Status != policies.StatusActive {
			t.Errorf("status filter = %v, want active", gotFilters.Status)
		}
		if gotPage.PageSize != 5 {
			t.Errorf("page size = %d, want 5", gotPage.PageSize)
		}

		var result pagination.PageResult[policies.Policy]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(result.Data) != 1 || result.Data[0].Title != "Prostate Biopsy" {
			t.Errorf("data = %+v", result.Data)
		}
	})

	t.Run("search body", func(t *testing.T) {
		body := bytes.NewBufferString(`{"page":2,"page_size":500,"payer":"acme"}`)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/policies/search", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 100 {
			t.Errorf("page = %d/%d, want 2/100", gotPage.Page, gotPage.PageSize)
		}
		if gotFilters.Payer == nil || *gotFilters.Payer != "acme" {
			t.Errorf("payer filter = %v, want acme", gotFilters.Payer)
		}
	})

	t.Run("invalid search body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/policies/search", strings.NewReader("{")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*policies.Policy, error) {
			if id != policyID {
				return nil, policies.ErrNotFound
			}
			p := samplePolicy()
			return &p, nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/policies/" + policyID.String(), http.StatusOK},
		{"not found", "/policies/" + uuid.New().String(), http.StatusNotFound},
		{"invalid id", "/policies/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerSectionsAndRules(t *testing.T) {
	sectionID := uuid.New()
	sys := &mockSystem{
		sectionsFn: func(_ context.Context, _ uuid.UUID) ([]policies.Section, error) {
			return []policies.Section{{ID: sectionID, PolicyID: policyID, Title: "Indications", DisplayOrder: 1}}, nil
		},
		rulesFn: func(_ context.Context, _ uuid.UUID) ([]policies.Rule, error) {
			return nil, errors.New("connection reset")
		},
	}
	mux := setupMux(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/policies/"+policyID.String()+"/sections", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sections status = %d, want 200", rec.Code)
	}

	var sections []policies.Section
	if err := json.NewDecoder(rec.Body).Decode(&sections); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sections) != 1 || sections[0].ID != sectionID {
		t.Errorf("sections = %+v", sections)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/policies/"+policyID.String()+"/rules", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("rules status = %d, want 500", rec.Code)
	}
}

func TestHandlerSource(t *testing.T) {
	sys := &mockSystem{
		sourceFn: func(_ context.Context, id uuid.UUID) (*storage.Blob, error) {
			if id != policyID {
				return nil, policies.ErrNoSource
			}
			return &storage.Blob{
				Body:          io.NopCloser(strings.NewReader("%PDF-1.7")),
				ContentType:   "application/pdf",
				ContentLength: 8,
			}, nil
		},
	}
	mux := setupMux(sys)

	t.Run("streams blob", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/policies/"+policyID.String()+"/source", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("content-type = %s", ct)
		}
		if rec.Body.String() != "%PDF-1.7" {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("no source", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/policies/"+uuid.New().String()+"/source", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
