// Package formatting recovers structured payloads from generated text and
// provides human-readable byte size formatting and parsing.
package formatting
