package throttle

import "errors"

// ErrLimited indicates a caller exceeded its request allowance for the current window.
var ErrLimited = errors.New("rate limit exceeded")
