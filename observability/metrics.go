package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/courier/engine"
	"github.com/xraph/courier/ext"
)

// meterName is the instrumentation scope name for courier metrics.
const meterName = "github.com/xraph/courier"

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.RequestRegistered = (*MetricsExtension)(nil)
	_ ext.RequestCompleted  = (*MetricsExtension)(nil)
	_ ext.RequestFailed     = (*MetricsExtension)(nil)
	_ ext.RequestCancelled  = (*MetricsExtension)(nil)
	_ ext.RequestDetached   = (*MetricsExtension)(nil)
)

// MetricsExtension records request lifecycle metrics.
//
// Instruments:
//   - courier.request.duration (Float64Histogram): registration-to-
//     resolution time in seconds, with attributes: route, status
//     ("ok" or "error")
//   - courier.request.registered (Int64Counter): total registrations,
//     with attribute: route
//   - courier.request.resolutions (Int64Counter): total terminal
//     transitions, with attributes: route, status ("ok", "error",
//     "cancelled" or "detached")
type MetricsExtension struct {
	duration    metric.Float64Histogram
	registered  metric.Int64Counter
	resolutions metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured, the instruments are noops
// and the extension becomes a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the given
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Create instruments once at construction. On error the OTel API
	// returns noop instruments, so the extension degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"courier.request.duration",
		metric.WithDescription("Time from registration to resolution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	registered, rErr := meter.Int64Counter(
		"courier.request.registered",
		metric.WithDescription("Total number of registered requests"),
		metric.WithUnit("{request}"),
	)
	_ = rErr // noop fallback guaranteed by OTel API contract

	resolutions, tErr := meter.Int64Counter(
		"courier.request.resolutions",
		metric.WithDescription("Total number of terminal request transitions"),
		metric.WithUnit("{request}"),
	)
	_ = tErr // noop fallback guaranteed by OTel API contract

	return &MetricsExtension{
		duration:    duration,
		registered:  registered,
		resolutions: resolutions,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnRequestRegistered implements ext.RequestRegistered.
func (m *MetricsExtension) OnRequestRegistered(req ext.Request) error {
	m.registered.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int("route", int(req.Route)),
	))
	return nil
}

// OnRequestCompleted implements ext.RequestCompleted.
func (m *MetricsExtension) OnRequestCompleted(req ext.Request, _ int, elapsed time.Duration) error {
	m.resolve(req, "ok", elapsed)
	return nil
}

// OnRequestFailed implements ext.RequestFailed.
func (m *MetricsExtension) OnRequestFailed(req ext.Request, _ *engine.Error, elapsed time.Duration) error {
	m.resolve(req, "error", elapsed)
	return nil
}

// OnRequestCancelled implements ext.RequestCancelled.
func (m *MetricsExtension) OnRequestCancelled(req ext.Request) error {
	m.count(req, "cancelled")
	return nil
}

// OnRequestDetached implements ext.RequestDetached.
func (m *MetricsExtension) OnRequestDetached(req ext.Request) error {
	m.count(req, "detached")
	return nil
}

func (m *MetricsExtension) resolve(req ext.Request, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Int("route", int(req.Route)),
		attribute.String("status", status),
	)
	m.duration.Record(context.Background(), elapsed.Seconds(), attrs)
	m.resolutions.Add(context.Background(), 1, attrs)
}

func (m *MetricsExtension) count(req ext.Request, status string) {
	m.resolutions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int("route", int(req.Route)),
		attribute.String("status", status),
	))
}
