package reasoning

import (
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/assent/pkg/throttle"
)

// Backend failure errors. Both are recoverable by the caller when other
// evaluation results exist.
var (
	ErrBackendTimeout     = errors.New("reasoning backend timed out")
	ErrBackendUnavailable = errors.New("reasoning backend unavailable")
)

// RateLimitedError reports that the throttle guard denied a backend call.
// It unwraps to throttle.ErrLimited.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %s", throttle.ErrLimited, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return throttle.ErrLimited
}

// RetryAfterSeconds returns RetryAfter rounded up, never less than one.
func (e *RateLimitedError) RetryAfterSeconds() int {
	s := int((e.RetryAfter + time.Second - 1) / time.Second)
	return max(s, 1)
}
