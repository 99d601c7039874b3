package policies

import (
	"errors"
	"net/http"
)

// Domain errors for policy operations.
var (
	ErrNotFound = errors.New("policy not found")
	ErrNoSource = errors.New("policy has no source document")
)

// MapHTTPStatus maps policy domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoSource) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
