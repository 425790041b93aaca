package client

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RequestIDHeader carries the run ID on every outgoing request.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const (
	runKey ctxKey = iota + 1
)

// RunValues are shared by every request issued during a single fetch.
type RunValues struct {
	RunID   string
	Started time.Time
}

// WithRunValues stores v in ctx.
func WithRunValues(ctx context.Context, v *RunValues) context.Context {
	return context.WithValue(ctx, runKey, v)
}

// GetRunValues retrieves the RunValues from the given context.
func GetRunValues(ctx context.Context) *RunValues {
	v, ok := ctx.Value(runKey).(*RunValues)
	if !ok {
		return &RunValues{
			RunID:   uuid.Nil.String(),
			Started: time.Now(),
		}
	}

	return v
}

// GetRunID retrieves the run ID from ctx.
// We return an empty uuid if not set.
func GetRunID(ctx context.Context) string {
	v, ok := ctx.Value(runKey).(*RunValues)
	if !ok {
		return uuid.Nil.String()
	}

	return v.RunID
}

// runHeaders is an http.RoundTripper that copies the run ID and the
// active trace context into the outgoing request headers.
type runHeaders struct {
	base http.RoundTripper
}

func (rt runHeaders) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	cpy := r.Clone(ctx)

	if id := GetRunID(ctx); id != uuid.Nil.String() && cpy.Header.Get(RequestIDHeader) == "" {
		cpy.Header.Set(RequestIDHeader, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(cpy.Header))

	return rt.base.RoundTrip(cpy)
}
