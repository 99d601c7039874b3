package formatting_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/assent/pkg/formatting"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"bare number", "4096", 4096},
		{"bytes", "64B", 64},
		{"kilobytes with space", "512 KB", 512 << 10},
		{"megabyte default", "1MB", 1 << 20},
		{"lowercase", "2mb", 2 << 20},
		{"fraction", "1.5MB", 3 << 19},
		{"gigabyte", "1GB", 1 << 30},
		{"zero", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.ParseSize(tt.input)
			if err != nil {
				t.Fatalf("ParseSize(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "huge", "MB", "-5MB", "10TB", "1e400"} {
		t.Run(input, func(t *testing.T) {
			if _, err := formatting.ParseSize(input); !errors.Is(err, formatting.ErrInvalidSize) {
				t.Errorf("ParseSize(%q) error = %v, want ErrInvalidSize", input, err)
			}
		})
	}
}
