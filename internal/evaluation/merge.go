package evaluation

import (
	"cmp"
	"slices"
	"strings"
)

// NoCriteria is reported when a policy yields nothing to evaluate.
const NoCriteria = "policy has no evaluable criteria"

// Merge combines structured and reasoned results into one Decision.
//
// Results are deduplicated by category. Structured results take precedence
// over reasoned ones; within one group the most severe result for a category
// is kept (hard fail, then absent, then met), so a repeated criterion can
// never mask a failure. Results are stably ordered by section display order,
// so structured results precede reasoned results that reference the same
// section. Every unresolved result contributes its descriptor to MissingInfo,
// followed by notes, with duplicates removed. Notes are dropped from an
// approved decision since nothing is left unresolved. PolicyID and
// PolicyTitle are left for the caller to fill.
func Merge(structured, reasoned []Result, notes []string) Decision {
	combined := make([]Result, 0, len(structured)+len(reasoned))
	type slot struct {
		index int
		group int
	}
	seen := make(map[string]slot, cap(combined))

	for group, results := range [][]Result{structured, reasoned} {
		for _, r := range results {
			if r.Absent() {
				r.Evidence = EvidenceNotFound
			}

			key := normalize(r.Category)
			prev, ok := seen[key]
			if !ok {
				seen[key] = slot{index: len(combined), group: group}
				combined = append(combined, r)
				continue
			}
			if prev.group == group && severity(r) > severity(combined[prev.index]) {
				combined[prev.index] = r
			}
		}
	}

	slices.SortStableFunc(combined, func(a, b Result) int {
		return cmp.Compare(a.SectionOrder, b.SectionOrder)
	})

	status := Overall(combined)

	var missing []string
	for _, r := range combined {
		if r.Absent() {
			missing = append(missing, r.Describe())
		}
	}
	if status != StatusApproved {
		missing = append(missing, notes...)
	}

	if len(combined) == 0 {
		missing = append(missing, NoCriteria)
	}

	return Decision{
		OverallStatus: status,
		Results:       combined,
		MissingInfo:   dedupe(missing),
	}
}

// Overall derives the decision status: any hard fail denies, otherwise any
// unresolved criterion (or no criteria at all) requires more information,
// otherwise the request is approved.
func Overall(results []Result) Status {
	if len(results) == 0 {
		return StatusMissingInfo
	}
	if slices.ContainsFunc(results, Result.HardFail) {
		return StatusDenied
	}
	if slices.ContainsFunc(results, func(r Result) bool { return !r.Met }) {
		return StatusMissingInfo
	}
	return StatusApproved
}

func severity(r Result) int {
	switch {
	case r.HardFail():
		return 2
	case r.Absent():
		return 1
	}
	return 0
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
