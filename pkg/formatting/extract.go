package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrExtractionFailed is returned when no strategy recovers a well-formed
// JSON value from the content.
var ErrExtractionFailed = errors.New("failed to extract structured result")

const previewLength = 120

var fencePattern = regexp.MustCompile("(?is)```json[ \\t]*\\n?(.*?)\\n?```")

// Strategy proposes a candidate JSON payload from raw text.
// Candidate reports false when the strategy does not apply to the text.
type Strategy struct {
	Name      string
	Candidate func(text string) (string, bool)
}

// Strategy names, in the order they are attempted.
const (
	StrategyDirect = "direct"
	StrategyFence  = "fence"
	StrategyBraces = "braces"
)

// Strategies is the ordered fallback chain applied by Extract and Parse.
// The first strategy whose candidate is valid JSON wins.
var Strategies = []Strategy{
	{Name: StrategyDirect, Candidate: directCandidate},
	{Name: StrategyFence, Candidate: fenceCandidate},
	{Name: StrategyBraces, Candidate: braceCandidate},
}

// Extraction is a successfully recovered payload. Value is compacted so that
// extracting from Value again yields the same bytes.
type Extraction struct {
	Value    json.RawMessage
	Strategy string
}

// Extract recovers the first well-formed JSON value from content by applying
// Strategies in order. It never returns a partial value: if every strategy
// fails the result is ErrExtractionFailed.
func Extract(content string) (Extraction, error) {
	for _, s := range Strategies {
		candidate, ok := s.Candidate(content)
		if !ok {
			continue
		}

		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(candidate)); err != nil {
			continue
		}

		return Extraction{
			Value:    json.RawMessage(buf.Bytes()),
			Strategy: s.Name,
		}, nil
	}

	return Extraction{}, fmt.Errorf("%w: %s", ErrExtractionFailed, preview(content))
}

// Parse unmarshals content into T, walking Strategies in order until a
// candidate decodes into T. Returns ErrExtractionFailed if none does.
func Parse[T any](content string) (T, error) {
	for _, s := range Strategies {
		candidate, ok := s.Candidate(content)
		if !ok {
			continue
		}

		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("%w: %s", ErrExtractionFailed, preview(content))
}

func directCandidate(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}

func fenceCandidate(text string) (string, bool) {
	matches := fencePattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(matches[1]), true
}

func braceCandidate(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func preview(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= previewLength {
		return string(runes)
	}
	return string(runes[:previewLength]) + "..."
}
