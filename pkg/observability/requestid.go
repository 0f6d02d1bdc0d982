package observability

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP header that carries the request id.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// NewRequestID returns a fresh random request id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores id in ctx. An empty id leaves ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}

	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

// ValidRequestID reports whether id is a well-formed UUID and thus safe to
// echo back from an untrusted header.
func ValidRequestID(id string) bool {
	return uuid.Validate(id) == nil
}
