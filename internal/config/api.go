package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/assent/pkg/middleware"
	"github.com/JaimeStill/assent/pkg/openapi"
	"github.com/JaimeStill/assent/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ASSENT_CORS_ENABLED",
	Origins:          "ASSENT_CORS_ORIGINS",
	AllowedMethods:   "ASSENT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ASSENT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ASSENT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ASSENT_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "ASSENT_OPENAPI_TITLE",
	Description: "ASSENT_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "ASSENT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ASSENT_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
	OpenAPI    openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if v := os.Getenv("ASSENT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}
