package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
)

// tracerName is the instrumentation scope name for courier tracing.
const tracerName = "github.com/xraph/courier"

// Compile-time interface checks.
var (
	_ ext.Extension         = (*TracingExtension)(nil)
	_ ext.RequestRegistered = (*TracingExtension)(nil)
	_ ext.RequestCompleted  = (*TracingExtension)(nil)
	_ ext.RequestFailed     = (*TracingExtension)(nil)
	_ ext.RequestCancelled  = (*TracingExtension)(nil)
	_ ext.RequestDetached   = (*TracingExtension)(nil)
)

// TracingExtension opens an OpenTelemetry span when a request is
// registered and ends it on the request's terminal transition. With no
// TracerProvider configured globally, the noop tracer makes it a
// pass-through.
//
// Span attributes: courier.request.id and courier.route. Failed requests
// set span status to codes.Error with the RPC error type.
type TracingExtension struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[ext.Request]trace.Span
}

// NewTracingExtension creates a TracingExtension using the global OTel
// TracerProvider.
func NewTracingExtension() *TracingExtension {
	return NewTracingExtensionWithTracer(otel.Tracer(tracerName))
}

// NewTracingExtensionWithTracer creates a TracingExtension with the given
// tracer. This variant allows injecting a specific TracerProvider for
// testing.
func NewTracingExtensionWithTracer(tracer trace.Tracer) *TracingExtension {
	return &TracingExtension{
		tracer: tracer,
		spans:  make(map[ext.Request]trace.Span),
	}
}

// Name implements ext.Extension.
func (t *TracingExtension) Name() string { return "observability-tracing" }

// OnRequestRegistered implements ext.RequestRegistered.
func (t *TracingExtension) OnRequestRegistered(req ext.Request) error {
	_, span := t.tracer.Start(context.Background(), "courier.request",
		trace.WithAttributes(
			attribute.String("courier.request.id", req.ID.String()),
			attribute.Int("courier.route", int(req.Route)),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	t.mu.Lock()
	t.spans[req] = span
	t.mu.Unlock()
	return nil
}

// OnRequestCompleted implements ext.RequestCompleted.
func (t *TracingExtension) OnRequestCompleted(req ext.Request, size int, _ time.Duration) error {
	if span, ok := t.takeSpan(req); ok {
		span.SetAttributes(attribute.Int("courier.response.size", size))
		span.SetStatus(codes.Ok, "")
		span.End()
	}
	return nil
}

// OnRequestFailed implements ext.RequestFailed.
func (t *TracingExtension) OnRequestFailed(req ext.Request, rpcErr *engine.Error, _ time.Duration) error {
	if span, ok := t.takeSpan(req); ok {
		span.RecordError(rpcErr)
		span.SetStatus(codes.Error, rpcErr.Type)
		span.End()
	}
	return nil
}

// OnRequestCancelled implements ext.RequestCancelled.
func (t *TracingExtension) OnRequestCancelled(req ext.Request) error {
	t.endUnset(req, "cancelled")
	return nil
}

// OnRequestDetached implements ext.RequestDetached.
func (t *TracingExtension) OnRequestDetached(req ext.Request) error {
	t.endUnset(req, "detached")
	return nil
}

func (t *TracingExtension) endUnset(req ext.Request, outcome string) {
	if span, ok := t.takeSpan(req); ok {
		span.SetAttributes(attribute.String("courier.outcome", outcome))
		span.End()
	}
}

func (t *TracingExtension) takeSpan(req ext.Request) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.spans[req]
	if ok {
		delete(t.spans, req)
	}
	return span, ok
}
