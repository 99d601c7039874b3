package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/assent/internal/directives"
	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/internal/reasoning"
	"github.com/JaimeStill/assent/internal/rules"
)

// State keys shared by the verification nodes.
const (
	keyRequest    = "request"
	keyPolicy     = "policy"
	keySections   = "sections"
	keyRules      = "rules"
	keyStructured = "structured"
	keyUncovered  = "uncovered"
	keyReasoned   = "reasoned"
	keyNotes      = "notes"
	keyDecision   = "decision"
)

// BackendFailureCategory labels the result recorded when the reasoning
// backend fails but structured results are still returned.
const BackendFailureCategory = "_backend_error"

// run is one verification. failure keeps the typed error a node returned,
// since the graph may wrap node errors.
type run struct {
	engine  *Engine
	failure error
}

func (r *run) initial(req evaluation.Request) state.State {
	return state.New(nil).Set(keyRequest, req)
}

// graph wires resolve → structured → reason? → merge. reason runs only when
// some section is left uncovered by structured rules.
func (r *run) graph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("assent-verify")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"resolve", r.node(r.resolve)},
		{"structured", r.node(r.structured)},
		{"reason", r.node(r.reason)},
		{"merge", r.node(r.merge)},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	if err := graph.AddEdge("resolve", "structured", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("structured", "reason", needsReasoning); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("structured", "merge", state.Not(needsReasoning)); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("reason", "merge", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("resolve"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("merge"); err != nil {
		return nil, err
	}
	return graph, nil
}

func (r *run) node(fn func(ctx context.Context, s state.State) (state.State, error)) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		next, err := fn(ctx, s)
		if err != nil {
			r.failure = err
			return s, err
		}
		return next, nil
	})
}

// resolve finds the policy and loads its sections and rules concurrently.
func (r *run) resolve(ctx context.Context, s state.State) (state.State, error) {
	req, err := get[evaluation.Request](s, keyRequest)
	if err != nil {
		return s, err
	}

	store := r.engine.store
	policy, err := store.FindByCode(ctx, req.Code)
	if err != nil {
		return s, err
	}

	var (
		sections []policies.Section
		ruleSet  []policies.Rule
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sections, err = store.Sections(gctx, policy.ID)
		return err
	})
	g.Go(func() error {
		var err error
		ruleSet, err = store.Rules(gctx, policy.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return s, fmt.Errorf("load policy %s: %w", policy.ID, err)
	}

	r.engine.logger.DebugContext(ctx, "policy resolved",
		"code", req.Code,
		"policy", policy.ID,
		"sections", len(sections),
		"rules", len(ruleSet),
	)

	s = s.Set(keyPolicy, *policy)
	s = s.Set(keySections, sections)
	s = s.Set(keyRules, ruleSet)
	return s, nil
}

// structured evaluates the rules and records the sections they leave uncovered.
func (r *run) structured(ctx context.Context, s state.State) (state.State, error) {
	req, err := get[evaluation.Request](s, keyRequest)
	if err != nil {
		return s, err
	}
	sections, err := get[[]policies.Section](s, keySections)
	if err != nil {
		return s, err
	}
	ruleSet, err := get[[]policies.Rule](s, keyRules)
	if err != nil {
		return s, err
	}

	order := make(map[uuid.UUID]int, len(sections))
	for _, sec := range sections {
		order[sec.ID] = sec.DisplayOrder
	}

	results := r.engine.rules.Evaluate(req, ruleSet, order)

	covered := rules.Covered(ruleSet)
	uncovered := make([]policies.Section, 0, len(sections))
	for _, sec := range sections {
		if !covered[sec.ID] {
			uncovered = append(uncovered, sec)
		}
	}

	s = s.Set(keyStructured, results)
	s = s.Set(keyUncovered, uncovered)
	return s, nil
}

// reason sends uncovered sections to the reasoning backend. Backend
// failures are recovered when structured rules produced results.
func (r *run) reason(ctx context.Context, s state.State) (state.State, error) {
	req, err := get[evaluation.Request](s, keyRequest)
	if err != nil {
		return s, err
	}
	policy, err := get[policies.Policy](s, keyPolicy)
	if err != nil {
		return s, err
	}
	uncovered, err := get[[]policies.Section](s, keyUncovered)
	if err != nil {
		return s, err
	}
	structured, err := get[[]evaluation.Result](s, keyStructured)
	if err != nil {
		return s, err
	}

	scope := directives.ScopeResidual
	if len(structured) == 0 {
		scope = directives.ScopeFull
	}

	out, err := r.engine.reasoner.Evaluate(ctx, reasoning.Input{
		Request:  req,
		Policy:   &policy,
		Sections: uncovered,
		Scope:    scope,
	})
	if err != nil {
		if len(structured) == 0 || !recoverable(err) {
			return s, err
		}
		r.engine.logger.WarnContext(ctx, "free-text evaluation failed, returning structured results",
			"policy", policy.ID,
			"error", err,
		)
		s = s.Set(keyReasoned, []evaluation.Result{backendFailure(err)})
		return s, nil
	}

	reasoned := out.Results
	if len(reasoned) == 0 {
		r.engine.logger.WarnContext(ctx, "free-text evaluation judged no criteria", "policy", policy.ID)
		reasoned = []evaluation.Result{reasoning.ParseFailure()}
	}

	s = s.Set(keyReasoned, reasoned)
	s = s.Set(keyNotes, out.MissingInfo)
	return s, nil
}

func (r *run) merge(_ context.Context, s state.State) (state.State, error) {
	policy, err := get[policies.Policy](s, keyPolicy)
	if err != nil {
		return s, err
	}
	structured, err := get[[]evaluation.Result](s, keyStructured)
	if err != nil {
		return s, err
	}
	reasoned, _ := get[[]evaluation.Result](s, keyReasoned)
	notes, _ := get[[]string](s, keyNotes)

	decision := evaluation.Merge(structured, reasoned, notes)
	decision.PolicyID = policy.ID
	decision.PolicyTitle = policy.Title

	return s.Set(keyDecision, decision), nil
}

func needsReasoning(s state.State) bool {
	uncovered, err := get[[]policies.Section](s, keyUncovered)
	return err == nil && len(uncovered) > 0
}

func recoverable(err error) bool {
	return errors.Is(err, ErrBackendTimeout) || errors.Is(err, ErrBackendUnavailable)
}

func backendFailure(err error) evaluation.Result {
	detail := "free-text policy criteria could not be assessed: reasoning backend unavailable"
	if errors.Is(err, ErrBackendTimeout) {
		detail = "free-text policy criteria could not be assessed: reasoning backend timed out"
	}
	return evaluation.NotFound(BackendFailureCategory, evaluation.OriginReasoned, evaluation.UnsectionedOrder, detail)
}

func get[T any](s state.State, key string) (T, error) {
	var zero T
	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}
	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%s has unexpected type %T", key, val)
	}
	return v, nil
}
