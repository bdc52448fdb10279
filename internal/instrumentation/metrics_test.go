package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetricsWithNoopMeter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	// Recording against noop instruments must not panic.
	ctx := context.Background()
	m.RecordProviderOperation(ctx, "GET", "/me/events", 200, 50*time.Millisecond)
	m.RecordTokenRefresh(ctx, "success")
}

func TestZeroValueMetricsIsNoop(t *testing.T) {
	var m Metrics

	ctx := context.Background()
	m.RecordProviderOperation(ctx, "POST", "/me/events", 500, time.Second)
	m.RecordTokenRefresh(ctx, "failure")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	ctx := context.Background()
	m.RecordProviderOperation(ctx, "DELETE", "/me/events", 404, time.Millisecond)
	m.RecordTokenRefresh(ctx, "failure")
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled provider: %v", err)
	}
	if p.Metrics() == nil {
		t.Fatal("expected non-nil metrics recorder from disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider failed: %v", err)
	}
}
