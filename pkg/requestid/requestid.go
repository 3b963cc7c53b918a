package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"

	// Header carries the request id between the CLI, the gateway and the api.
	Header = "x-request-id"
)

func Generate() string {
	return uuid.New().String()
}

func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext returns an empty string when no request id is set.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}

// Inject copies the request id from ctx onto an outgoing request, minting one if absent.
func Inject(ctx context.Context, req *http.Request) {
	id := FromContext(ctx)
	if id == "" {
		id = Generate()
	}
	req.Header.Set(Header, id)
}
