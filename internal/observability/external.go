package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	obs "github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Kind classifies the dependency behind an ExternalCall.
type Kind string

const (
	KindAI   Kind = "ai"
	KindHTTP Kind = "http"
)

// Call outcome labels.
const (
	StatusSuccess = "success"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

// ExternalCall wraps requests to one external service with a span, a
// deadline, Prometheus metrics and a debug log line.
type ExternalCall struct {
	Kind    Kind
	Service string
	Timeout time.Duration

	tracer trace.Tracer
}

// NewExternalCall builds a wrapper. A zero timeout leaves the caller's deadline in place.
func NewExternalCall(kind Kind, service string, timeout time.Duration) *ExternalCall {
	return &ExternalCall{
		Kind:    kind,
		Service: service,
		Timeout: timeout,
		tracer:  otel.Tracer("external." + service),
	}
}

// Do runs fn under the wrapper and returns its error unchanged.
func (c *ExternalCall) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("%s.%s", c.Service, operation))
	defer span.End()
	span.SetAttributes(
		attribute.String("peer.service", c.Service),
		attribute.String("connection.kind", string(c.Kind)),
		attribute.String("operation.name", operation),
	)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	dur := time.Since(start)

	status := Status(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Float64("duration.seconds", dur.Seconds()))

	switch c.Kind {
	case KindAI:
		obs.ObserveAIRequest(c.Service, operation, status, dur)
	default:
		obs.ObserveExternalRequest(c.Service, operation, status, dur)
	}

	LoggerFromContext(ctx).Debug("external call",
		"service", c.Service,
		"operation", operation,
		"status", status,
		"duration_ms", dur.Milliseconds())
	return err
}

// Status labels the outcome of a call made under ctx.
func Status(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.DeadlineExceeded), ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}
