// Package catalog describes the remote catalog lookup the presentation layer depends on.
//
// The catalog is consumed through a single bulk operation, GetEntitiesByRefs, which is
// charged per call and per returned field. Implementations must return exactly one item
// per requested reference, positionally aligned with the request, using nil for
// references that could not be found.
package catalog

import (
	"context"
)

// Request is a bulk lookup of entities by reference.
type Request struct {
	// EntityRefs are the references to look up.
	EntityRefs []string `json:"entityRefs"`
	// Fields restricts the returned entity data to the given dotted paths
	// (e.g. "metadata.title"). Empty means all fields.
	Fields []string `json:"fields,omitempty"`
}

// Response carries one item per requested reference, nil where not found.
type Response struct {
	Items []*Entity `json:"items"`
}

// Client is the bulk lookup collaborator.
type Client interface {
	GetEntitiesByRefs(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// GetEntitiesByRefs calls f.
func (f ClientFunc) GetEntitiesByRefs(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
