// Package reasoning evaluates policy criteria that have no structured rule by
// delegating judgment to a text-generation backend.
//
// The backend is opaque: it receives a system directive and a prompt and
// returns text. Responses pass through formatting.Extract and explicit key
// validation; an unusable response becomes a single synthetic result rather
// than an error.
package reasoning

import "context"

// Backend generates text from a system directive and a user prompt.
// Structured asks the backend to constrain its output to JSON when it can.
type Backend interface {
	Generate(ctx context.Context, directive, prompt string, temperature float64, structured bool) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, directive, prompt string, temperature float64, structured bool) (string, error)

// Generate calls f.
func (f BackendFunc) Generate(ctx context.Context, directive, prompt string, temperature float64, structured bool) (string, error) {
	return f(ctx, directive, prompt, temperature, structured)
}
