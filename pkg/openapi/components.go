package openapi

import (
	"maps"
	"net/http"
)

// errorResponses are the shared error responses every spec carries, keyed by
// component name.
var errorResponses = map[string]struct {
	status      int
	description string
}{
	"BadRequest":      {http.StatusBadRequest, "Invalid request"},
	"NotFound":        {http.StatusNotFound, "Resource not found"},
	"Conflict":        {http.StatusConflict, "Resource conflict"},
	"PayloadTooLarge": {http.StatusRequestEntityTooLarge, "Request body exceeds the configured limit"},
	"TooManyRequests": {http.StatusTooManyRequests, "Caller exceeded its request budget; see Retry-After"},
	"BadGateway":      {http.StatusBadGateway, "Reasoning backend unavailable or returned an error"},
	"GatewayTimeout":  {http.StatusGatewayTimeout, "Reasoning backend did not answer in time"},
}

// ErrorStatus returns the HTTP status documented for a shared error response.
func ErrorStatus(name string) (int, bool) {
	r, ok := errorResponses[name]
	return r.status, ok
}

// NewComponents creates Components with the page request schema and the
// shared error responses.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: title,-last_synced_at"},
				},
			},
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
				Required: []string{"error"},
			},
		},
		Responses: make(map[string]*Response, len(errorResponses)),
	}

	for name, r := range errorResponses {
		c.Responses[name] = ResponseJSON(r.description, "Error")
	}
	return c
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}
