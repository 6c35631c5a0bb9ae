// Package spec serves the OpenAPI document of the HTTP API.
package spec

import (
	_ "embed"
	"net/http"
	"strconv"
)

//go:embed openapi.yaml
var openapi []byte

// Document returns the embedded OpenAPI document.
func Document() []byte {
	return openapi
}

// OpenAPIHandler serves the embedded document for the Swagger UI at /docs.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Length", strconv.Itoa(len(openapi)))
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(openapi)
		}
	}
}
