package directives

const outputSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_status": "<APPROVED|DENIED|MISSING_INFO>",
  "analysis": [
    {"category": "<criterion>", "met": true, "evidence": "<quoted note text>"}
  ],
  "missing_info": ["<what the note would need to document>"]
}

Field constraints:
- analysis: One entry per distinct policy criterion. category is a short
  label for the criterion, using the policy's own wording where possible.
  met is true only when the note documents the criterion is satisfied.
  evidence quotes the note text that supports the judgment, or is the
  exact string "not found" when the note does not address the criterion.
- missing_info: Short descriptions of documentation that would be needed
  to resolve each criterion whose evidence is "not found". Empty array
  when nothing is missing.
- overall_status: Your summary judgment. It is advisory only.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never invent evidence; quote the note or use "not found"
- Do not evaluate criteria that are absent from the supplied policy text`

// Spec returns the output specification for scope. Specifications are not
// overridable; they define the shape the response parser expects.
func Spec(scope Scope) (string, error) {
	if _, ok := instructions[scope]; !ok {
		return "", ErrInvalidScope
	}
	return outputSpec, nil
}
