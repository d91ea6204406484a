package logger

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader is the header used to propagate request IDs between
// the console client and the API.
const RequestIDHeader = "X-Request-ID"

// NewRequestID returns a fresh random request ID.
func NewRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores id in ctx, generating one when id is empty.
func ContextWithRequestID(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, RequestIDKey, id), id
}
