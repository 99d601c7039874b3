// Package verification decides whether a clinical request satisfies the
// payer policy for its procedure code.
//
// A verification resolves the policy, evaluates its structured rules, sends
// the policy text no rule covers to the reasoning backend, and merges both
// result sets into a Decision. The steps run as a state graph.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/internal/reasoning"
	"github.com/JaimeStill/assent/internal/rules"
)

// PolicyStore is the read-only policy lookup the engine depends on.
// policies.System satisfies it.
type PolicyStore interface {
	FindByCode(ctx context.Context, code string) (*policies.Policy, error)
	Sections(ctx context.Context, policyID uuid.UUID) ([]policies.Section, error)
	Rules(ctx context.Context, policyID uuid.UUID) ([]policies.Rule, error)
}

// Reasoner evaluates free-text policy sections. *reasoning.Evaluator satisfies it.
type Reasoner interface {
	Evaluate(ctx context.Context, in reasoning.Input) (*reasoning.Outcome, error)
}

// Verifier produces a Decision for a request.
type Verifier interface {
	Verify(ctx context.Context, req evaluation.Request) (*evaluation.Decision, error)
}

// Engine is the policy compliance decision engine. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	store    PolicyStore
	rules    *rules.Evaluator
	reasoner Reasoner
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records decisions and latency on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine.
func New(
	store PolicyStore,
	evaluator *rules.Evaluator,
	reasoner Reasoner,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:    store,
		rules:    evaluator,
		reasoner: reasoner,
		logger:   logger.With("system", "verification"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify decides req against the active policy for req.Code.
//
// It fails with ErrPolicyNotFound when no policy matches, *RateLimitedError
// when the reasoning call is throttled, and ErrBackendTimeout or
// ErrBackendUnavailable when the backend fails for a policy with no
// structured rules. A backend failure alongside structured results is
// recovered as a missing-information result.
func (e *Engine) Verify(ctx context.Context, req evaluation.Request) (*evaluation.Decision, error) {
	start := time.Now()

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" || (strings.TrimSpace(req.Note) == "" && len(req.Facts) == 0) {
		return nil, ErrInvalidRequest
	}

	decision, err := e.run(ctx, req)
	e.metrics.observe(start, decision)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "verification complete",
		"code", req.Code,
		"policy", decision.PolicyID,
		"status", decision.OverallStatus,
		"results", len(decision.Results),
		"duration", time.Since(start),
	)
	return decision, nil
}

func (e *Engine) run(ctx context.Context, req evaluation.Request) (*evaluation.Decision, error) {
	r := &run{engine: e}

	graph, err := r.graph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	final, err := graph.Execute(ctx, r.initial(req))
	if err != nil {
		if r.failure != nil {
			return nil, r.failure
		}
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	decision, err := get[evaluation.Decision](final, keyDecision)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
