package reasoning

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
)

// TruncationMarker is appended to policy text cut at the character budget.
const TruncationMarker = "\n\n[policy text truncated]"

// PolicyText joins sections in display order as titled blocks.
func PolicyText(sections []policies.Section) string {
	ordered := slices.Clone(sections)
	slices.SortStableFunc(ordered, func(a, b policies.Section) int {
		return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
	})

	var sb strings.Builder
	for i, s := range ordered {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if s.Title != "" {
			fmt.Fprintf(&sb, "### %s\n", s.Title)
		}
		sb.WriteString(strings.TrimSpace(s.Content))
	}
	return sb.String()
}

// Truncate keeps the first budget runes of text and appends TruncationMarker
// when anything was cut. A budget of zero or less disables truncation.
func Truncate(text string, budget int) (string, bool) {
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return text, false
	}

	cut := 0
	for i := range text {
		if budget == 0 {
			cut = i
			break
		}
		budget--
	}
	return text[:cut] + TruncationMarker, true
}

// ComposePrompt renders the user prompt for one evaluation.
func ComposePrompt(policy *policies.Policy, policyText string, req evaluation.Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Policy: %s\n", policy.Title)
	if policy.Payer != "" {
		fmt.Fprintf(&sb, "Payer: %s\n", policy.Payer)
	}
	if req.Code != "" {
		fmt.Fprintf(&sb, "Procedure code: %s\n", req.Code)
	}

	sb.WriteString("\nPolicy text:\n")
	sb.WriteString(policyText)

	if len(req.Facts) > 0 {
		sb.WriteString("\n\nSupplied facts:\n")
		for _, k := range slices.Sorted(maps.Keys(req.Facts)) {
			fmt.Fprintf(&sb, "- %s: %s\n", k, req.Facts[k])
		}
	}

	sb.WriteString("\n\nClinical note:\n")
	sb.WriteString(strings.TrimSpace(req.Note))

	return sb.String()
}

// ComposeDirective joins instructions and the output specification.
func ComposeDirective(instructions, spec string) string {
	return strings.TrimSpace(instructions) + "\n\n" + strings.TrimSpace(spec)
}
