// Package correlation threads one logical request's id across the gateway,
// the authorizer, the upstream client, and every log line they emit.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header used to propagate correlation ids.
const Header = "X-Correlation-Id"

type ctxKey struct{}

// New returns a freshly generated correlation id for requests that did not
// supply one.
func New() string {
	return uuid.NewString()
}

// WithContext returns a context carrying the given correlation id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation id stored in ctx, or "" if absent.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
