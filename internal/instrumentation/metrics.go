package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod   = "method"
	attrEndpoint = "endpoint"
	attrStatus   = "status"
	attrResult   = "result"
)

// Metrics provides methods for recording observability metrics.
// A zero-value Metrics records nothing, so callers never need nil checks.
type Metrics struct {
	providerOpsTotal   metric.Int64Counter
	providerOpDuration metric.Float64Histogram
	tokenRefreshTotal  metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.providerOpsTotal, err = meter.Int64Counter(
		"provider_api_operations_total",
		metric.WithDescription("Total number of provider API calls"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider_api_operations_total counter: %w", err)
	}

	m.providerOpDuration, err = meter.Float64Histogram(
		"provider_api_operation_duration_seconds",
		metric.WithDescription("Provider API call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider_api_operation_duration_seconds histogram: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"token_refresh_total",
		metric.WithDescription("Total number of access token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_refresh_total counter: %w", err)
	}

	return m, nil
}

// RecordProviderOperation records a provider API call with method, endpoint
// family, HTTP status, and duration. Endpoint should already be reduced to a
// low-cardinality family such as "/me/events", never a concrete resource URL.
func (m *Metrics) RecordProviderOperation(ctx context.Context, method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil || m.providerOpsTotal == nil || m.providerOpDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrEndpoint, endpoint),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.providerOpsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.providerOpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTokenRefresh records an access token refresh attempt.
// Result should be one of: "success", "failure", "interactive"
// (silent refresh recovered through an interactive acquisition).
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return // Instrumentation not initialized
	}

	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
