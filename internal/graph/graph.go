// Package graph serves the tracker GraphQL schema.
package graph

import (
	_ "embed"
	"fmt"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/joescharf/tracker/internal/tracker"
)

//go:embed schema.graphql
var schemaSDL string

// maxParallelism bounds concurrent field resolution per request.
const maxParallelism = 8

// NewSchema parses the schema and binds it to a service.
func NewSchema(svc *tracker.Service) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(schemaSDL, &Resolver{svc: svc}, graphql.MaxParallelism(maxParallelism))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// NewHandler returns an http.Handler accepting POST {query, variables,
// operationName}.
func NewHandler(svc *tracker.Service) (http.Handler, error) {
	schema, err := NewSchema(svc)
	if err != nil {
		return nil, err
	}
	return &relay.Handler{Schema: schema}, nil
}
