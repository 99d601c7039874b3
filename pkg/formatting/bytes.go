package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidSize indicates a size string that cannot be read as a byte count.
var ErrInvalidSize = errors.New("invalid size")

// sizeUnits are base-1024 suffixes, longest first so "KB" is tried before "B".
var sizeUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize reads a request body limit such as "1MB", "512 KB" or "4096".
// Units are case-insensitive; a bare number is a count of bytes. Fractions
// are allowed with a unit ("1.5MB") and rounded down to whole bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSize)
	}

	number, scale := s, int64(1)
	for _, u := range sizeUnits {
		if n, ok := strings.CutSuffix(s, u.suffix); ok {
			number, scale = strings.TrimSpace(n), u.scale
			break
		}
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	size := value * float64(scale)
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(size), nil
}
