package throttle

import "context"

type identityKey struct{}

// Anonymous is the identity used when a request carries none.
const Anonymous = "anonymous"

// WithIdentity returns a context carrying the caller identity used as the
// throttle key for downstream checks.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Identity returns the caller identity stored in ctx, or Anonymous.
func Identity(ctx context.Context) string {
	if v, ok := ctx.Value(identityKey{}).(string); ok && v != "" {
		return v
	}
	return Anonymous
}
