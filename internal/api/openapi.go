package api

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/assent/internal/config"
	"github.com/JaimeStill/assent/pkg/openapi"
)

var uuidSchema = &openapi.Schema{Type: "string", Format: "uuid"}

var schemas = map[string]*openapi.Schema{
	"VerifyRequest": {
		Type:     "object",
		Required: []string{"code"},
		Properties: map[string]*openapi.Schema{
			"code":  {Type: "string", Description: "Procedure code", Example: "55700"},
			"note":  {Type: "string", Description: "Clinical note text"},
			"facts": {Type: "object", Description: "Pre-extracted facts keyed by criterion category"},
		},
	},
	"Result": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"category":      {Type: "string"},
			"met":           {Type: "boolean"},
			"evidence":      {Type: "string", Description: "Supporting evidence, or \"not found\""},
			"origin":        openapi.StringEnum("structured", "reasoned"),
			"section_order": {Type: "integer"},
			"detail":        {Type: "string"},
		},
	},
	"Decision": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"overall_status": openapi.StringEnum("APPROVED", "DENIED", "MISSING_INFO"),
			"results":        {Type: "array", Items: openapi.SchemaRef("Result")},
			"missing_info":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"policy_id":      uuidSchema,
			"policy_title":   {Type: "string"},
		},
	},
	"Policy": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":             uuidSchema,
			"payer":          {Type: "string"},
			"title":          {Type: "string"},
			"codes":          {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"source_ref":     {Type: "string"},
			"status":         openapi.StringEnum("draft", "active", "retired"),
			"last_synced_at": {Type: "string", Format: "date-time"},
		},
	},
	"Directive": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":           uuidSchema,
			"name":         {Type: "string"},
			"scope":        openapi.StringEnum("full", "residual"),
			"instructions": {Type: "string"},
			"description":  {Type: "string"},
			"active":       {Type: "boolean"},
		},
	},
	"DirectiveCommand": {
		Type:     "object",
		Required: []string{"name", "scope", "instructions"},
		Properties: map[string]*openapi.Schema{
			"name":         {Type: "string"},
			"scope":        openapi.StringEnum("full", "residual"),
			"instructions": {Type: "string"},
			"description":  {Type: "string"},
		},
	},
}

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(schemas)

	spec.AddOperation(http.MethodPost, "/verify", &openapi.Operation{
		Summary:     "Verify a request against its policy",
		Tags:        []string{"verification"},
		RequestBody: openapi.RequestBodyJSON("VerifyRequest", true),
		Responses: responses(
			openapi.ResponseJSON("Compliance decision", "Decision"),
			"BadRequest", "NotFound", "PayloadTooLarge", "TooManyRequests", "BadGateway", "GatewayTimeout",
		),
	})

	id := openapi.PathParam("id", "Resource ID", nil)
	scope := openapi.PathParam("scope", "Audit scope", openapi.StringEnum("full", "residual"))

	read := []struct {
		path, summary, schema string
		params                []*openapi.Parameter
	}{
		{"/policies", "List policies", "", []*openapi.Parameter{
			openapi.QueryFilter("payer", "Payer filter"),
			openapi.QueryFilter("status", "Lifecycle status"),
			openapi.QueryFilter("code", "Procedure code"),
			openapi.QueryFilter("search", "Title or payer search"),
		}},
		{"/policies/{id}", "Find a policy", "Policy", []*openapi.Parameter{id}},
		{"/policies/{id}/sections", "List current policy sections", "", []*openapi.Parameter{id}},
		{"/policies/{id}/rules", "List structured policy rules", "", []*openapi.Parameter{id}},
		{"/directives", "List directives", "", nil},
		{"/directives/scopes", "List audit scopes", "", nil},
		{"/directives/{id}", "Find a directive", "Directive", []*openapi.Parameter{id}},
		{"/directives/{scope}/instructions", "Effective instructions for a scope", "", []*openapi.Parameter{scope}},
		{"/directives/{scope}/spec", "Output specification for a scope", "", []*openapi.Parameter{scope}},
	}
	for _, r := range read {
		ok := &openapi.Response{Description: "OK"}
		if r.schema != "" {
			ok = openapi.ResponseJSON("OK", r.schema)
		}
		spec.AddOperation(http.MethodGet, r.path, &openapi.Operation{
			Summary:    r.summary,
			Tags:       []string{tag(r.path)},
			Parameters: r.params,
			Responses:  responses(ok, "NotFound"),
		})
	}

	spec.AddOperation(http.MethodGet, "/policies/{id}/source", &openapi.Operation{
		Summary:    "Download the policy source document",
		Tags:       []string{"policies"},
		Parameters: []*openapi.Parameter{id},
		Responses:  responses(&openapi.Response{Description: "Source document stream"}, "NotFound"),
	})

	for _, path := range []string{"/policies/search", "/directives/search"} {
		spec.AddOperation(http.MethodPost, path, &openapi.Operation{
			Summary:     "Search with pagination and filters",
			Tags:        []string{tag(path)},
			RequestBody: openapi.RequestBodyJSON("PageRequest", false),
			Responses:   responses(&openapi.Response{Description: "OK"}, "BadRequest"),
		})
	}

	directive := openapi.ResponseJSON("Directive", "Directive")
	spec.AddOperation(http.MethodPost, "/directives", &openapi.Operation{
		Summary:     "Create a directive override",
		Tags:        []string{"directives"},
		RequestBody: openapi.RequestBodyJSON("DirectiveCommand", true),
		Responses:   responses(directive, "BadRequest", "Conflict"),
	})
	spec.AddOperation(http.MethodPut, "/directives/{id}", &openapi.Operation{
		Summary:     "Update a directive override",
		Tags:        []string{"directives"},
		Parameters:  []*openapi.Parameter{id},
		RequestBody: openapi.RequestBodyJSON("DirectiveCommand", true),
		Responses:   responses(directive, "BadRequest", "NotFound", "Conflict"),
	})
	spec.AddOperation(http.MethodDelete, "/directives/{id}", &openapi.Operation{
		Summary:    "Delete a directive override",
		Tags:       []string{"directives"},
		Parameters: []*openapi.Parameter{id},
		Responses:  responses(&openapi.Response{Description: "Deleted"}, "NotFound"),
	})
	for _, action := range []string{"activate", "deactivate"} {
		spec.AddOperation(http.MethodPost, "/directives/{id}/"+action, &openapi.Operation{
			Summary:    "Toggle whether a directive override is active",
			Tags:       []string{"directives"},
			Parameters: []*openapi.Parameter{id},
			Responses:  responses(directive, "NotFound"),
		})
	}

	return spec
}

// responses maps ok to 200 and each named shared error to its status.
func responses(ok *openapi.Response, errs ...string) map[int]*openapi.Response {
	out := map[int]*openapi.Response{http.StatusOK: ok}
	for _, name := range errs {
		if status, found := openapi.ErrorStatus(name); found {
			out[status] = openapi.ResponseRef(name)
		}
	}
	return out
}

func tag(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}
