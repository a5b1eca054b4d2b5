package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var rawSpec []byte

// Contract is the parsed OpenAPI document served at /openapi.yaml.
type Contract struct {
	Doc    *openapi3.T
	router routers.Router
}

// LoadContract parses and validates the embedded OpenAPI document.
func LoadContract(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}
	return &Contract{Doc: doc, router: router}, nil
}

// Version returns the API version declared by the document.
func (c *Contract) Version() string {
	if c == nil || c.Doc == nil || c.Doc.Info == nil {
		return "unknown"
	}
	return c.Doc.Info.Version
}

// Raw returns the document as embedded.
func (c *Contract) Raw() []byte {
	return rawSpec
}

// Validate rejects requests whose parameters or body do not match the document.
// Routes the document does not describe pass through.
func (c *Contract) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, params, err := c.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options:    &openapi3filter.Options{MultiError: false},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
