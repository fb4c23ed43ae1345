// Package observability provides OpenTelemetry-based metrics and tracing
// extensions for courier. MetricsExtension records request counters and a
// resolution-latency histogram; TracingExtension opens one span per
// in-flight request and ends it on the terminal transition.
//
// Register them on a sender with courier.WithExtension.
package observability
