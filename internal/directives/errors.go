package directives

import (
	"errors"
	"net/http"
)

// Domain errors for directive operations.
var (
	ErrNotFound     = errors.New("directive not found")
	ErrDuplicate    = errors.New("directive name already exists")
	ErrInvalidScope = errors.New("scope must be full or residual")
	ErrInvalid      = errors.New("directive requires a name and instructions")
)

// MapHTTPStatus maps directive domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidScope), errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
