// Package rules evaluates structured policy rules against a clinical request
// without calling the reasoning backend.
//
// A rule's fact is resolved from the request's supplied facts by category or
// alias, falling back to a pattern search of the note. An unresolvable fact
// is absent evidence, never an error; a resolved fact that fails the check is
// a hard fail whose evidence is the fact itself.
package rules

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
)

// Evaluator runs structured rules. It holds no per-request state and is safe
// for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// New creates an Evaluator.
func New(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger.With("system", "rules")}
}

// Evaluate produces one result per rule in input order. order maps section
// ids to display order; rules without a known section sort last.
func (e *Evaluator) Evaluate(req evaluation.Request, rules []policies.Rule, order map[uuid.UUID]int) []evaluation.Result {
	results := make([]evaluation.Result, 0, len(rules))
	for _, rule := range rules {
		results = append(results, e.evaluate(req, rule, sectionOrder(rule, order)))
	}
	return results
}

func (e *Evaluator) evaluate(req evaluation.Request, rule policies.Rule, order int) (result evaluation.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule evaluation panicked", "rule", rule.ID, "category", rule.Category, "panic", r)
			result = evaluation.NotFound(rule.Category, evaluation.OriginStructured, order, unevaluable(rule))
		}
	}()

	pred, err := Compile(rule.Operator, rule.Value)
	if err != nil {
		e.logger.Warn("skipping malformed rule",
			"rule", rule.ID,
			"policy", rule.PolicyID,
			"category", rule.Category,
			"error", err,
		)
		return evaluation.NotFound(rule.Category, evaluation.OriginStructured, order, unevaluable(rule))
	}

	met, evidence := pred.evaluate(newFacts(req, rule.Category, rule.Aliases))

	result = evaluation.Result{
		Category:     rule.Category,
		Met:          met,
		Evidence:     evidence,
		Origin:       evaluation.OriginStructured,
		SectionOrder: order,
	}
	if !met {
		result.Detail = describe(rule)
	}
	return result
}

// Covered returns the ids of sections referenced by at least one rule.
func Covered(rules []policies.Rule) map[uuid.UUID]bool {
	covered := make(map[uuid.UUID]bool, len(rules))
	for _, r := range rules {
		if r.SectionID != nil {
			covered[*r.SectionID] = true
		}
	}
	return covered
}

func sectionOrder(rule policies.Rule, order map[uuid.UUID]int) int {
	if rule.SectionID != nil {
		if o, ok := order[*rule.SectionID]; ok {
			return o
		}
	}
	return evaluation.UnsectionedOrder
}

func describe(rule policies.Rule) string {
	if rule.FailureMessage != "" {
		return rule.FailureMessage
	}
	return rule.Category
}

func unevaluable(rule policies.Rule) string {
	return fmt.Sprintf("%s (rule could not be evaluated)", describe(rule))
}
