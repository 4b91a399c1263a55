// Package scope carries the viewer context (owning-entity scope and active
// lane) through request contexts. Every datastore query the engine issues
// is filtered by the viewer's entity scope.
package scope

import (
	"context"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
)

// ctxKey is an unexported type used as the context key for Viewer.
type ctxKey struct{}

// Viewer identifies who a request is resolved for.
type Viewer struct {
	// EntityID is the owning-entity scope. Mandatory for every query.
	EntityID string
	// Lane is the viewer's active isolation lane.
	Lane lane.Lane
	// Actor is the acting user principal, recorded in audit events.
	Actor string
}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// ViewerFromContext retrieves the viewer from the context. Returns the
// zero value and false if none is set.
func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(ctxKey{}).(Viewer)
	return v, ok
}

// EntityFromContext is a convenience that returns the entity scope, or ""
// if no viewer is set.
func EntityFromContext(ctx context.Context) string {
	v, ok := ViewerFromContext(ctx)
	if !ok {
		return ""
	}
	return v.EntityID
}
