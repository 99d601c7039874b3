package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/assent/internal/directives"
	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/pkg/throttle"
)

// Guard admits or denies a call for an identifier under a limit.
type Guard interface {
	Check(limit throttle.Limit, identifier string) throttle.Result
}

// Directives resolves the auditor instructions and output specification
// for an audit scope. directives.System satisfies it.
type Directives interface {
	Instructions(ctx context.Context, scope directives.Scope) (string, error)
	Spec(ctx context.Context, scope directives.Scope) (string, error)
}

// Options tune backend calls.
type Options struct {
	Timeout     time.Duration
	CharBudget  int
	Temperature float64
	Structured  bool
}

// Input is one free-text evaluation: the sections to audit and the request
// to audit them against.
type Input struct {
	Request  evaluation.Request
	Policy   *policies.Policy
	Sections []policies.Section
	Scope    directives.Scope
}

// Outcome is the result of one free-text evaluation. MissingInfo carries the
// backend's own descriptors of undocumented criteria.
type Outcome struct {
	Results     []evaluation.Result
	MissingInfo []string
}

// Evaluator runs free-text evaluations against a Backend.
type Evaluator struct {
	backend    Backend
	guard      Guard
	limit      throttle.Limit
	directives Directives
	opts       Options
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMetrics records call outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// New creates an Evaluator. Every backend call is first checked against
// limit on guard using the caller identity carried by the context.
func New(
	backend Backend,
	guard Guard,
	limit throttle.Limit,
	dirs Directives,
	opts Options,
	logger *slog.Logger,
	options ...Option,
) *Evaluator {
	e := &Evaluator{
		backend:    backend,
		guard:      guard,
		limit:      limit,
		directives: dirs,
		opts:       opts,
		logger:     logger.With("system", "reasoning"),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Evaluate audits in.Sections against the request.
//
// A throttled call fails fast with *RateLimitedError without reaching the
// backend. Backend failures return ErrBackendTimeout or ErrBackendUnavailable.
// A response that cannot be parsed is not an error: it yields the single
// ParseFailure result.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) (*Outcome, error) {
	identity := throttle.Identity(ctx)
	if r := e.guard.Check(e.limit, identity); !r.Allowed {
		e.metrics.record(OutcomeThrottled)
		e.logger.Warn("reasoning call throttled",
			"identity", identity,
			"policy", in.Policy.ID,
			"retry_after", r.RetryAfterSeconds(),
		)
		return nil, &RateLimitedError{RetryAfter: r.RetryAfter}
	}

	directive := e.directive(ctx, in.Scope)

	text, truncated := Truncate(PolicyText(in.Sections), e.opts.CharBudget)
	if truncated {
		e.logger.Info("policy text truncated", "policy", in.Policy.ID, "budget", e.opts.CharBudget)
	}
	prompt := ComposePrompt(in.Policy, text, in.Request)

	raw, err := e.generate(ctx, directive, prompt)
	if err != nil {
		e.logger.Warn("reasoning backend failed", "policy", in.Policy.ID, "error", err)
		return nil, err
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		e.metrics.record(OutcomeParseError)
		e.logger.Warn("reasoning response unusable", "policy", in.Policy.ID, "error", err)
		return &Outcome{Results: []evaluation.Result{ParseFailure()}}, nil
	}

	e.metrics.record(OutcomeOK)
	e.logger.Info("reasoning call complete",
		"policy", in.Policy.ID,
		"scope", in.Scope,
		"criteria", len(resp.Analysis),
	)

	return &Outcome{
		Results:     resp.Results(in.Sections),
		MissingInfo: resp.MissingInfo,
	}, nil
}

// directive falls back to the built-in instructions when the store fails.
func (e *Evaluator) directive(ctx context.Context, scope directives.Scope) string {
	instructions, err := e.directives.Instructions(ctx, scope)
	if err != nil {
		e.logger.Warn("directive lookup failed, using default", "scope", scope, "error", err)
		instructions, _ = directives.Instructions(scope)
	}

	spec, err := e.directives.Spec(ctx, scope)
	if err != nil {
		spec, _ = directives.Spec(scope)
	}

	return ComposeDirective(instructions, spec)
}

func (e *Evaluator) generate(ctx context.Context, directive, prompt string) (string, error) {
	callCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	raw, err := e.backend.Generate(callCtx, directive, prompt, e.opts.Temperature, e.opts.Structured)
	if err == nil {
		return raw, nil
	}

	switch {
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		e.metrics.record(OutcomeTimeout)
		return "", fmt.Errorf("%w after %s", ErrBackendTimeout, e.opts.Timeout)
	default:
		e.metrics.record(OutcomeUnavailable)
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}
