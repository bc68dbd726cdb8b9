package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Metrics counts session lifecycle activity through an OTel meter.
type Metrics struct {
	created    otelmetric.Int64Counter
	terminated otelmetric.Int64Counter
	anomalies  otelmetric.Int64Counter
	swept      otelmetric.Int64Counter
}

// NewMetrics registers the lifecycle counters on the given provider.
func NewMetrics(provider *metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("sessionguard")
	created, err := meter.Int64Counter("sessions_created_total",
		otelmetric.WithDescription("Sessions opened"))
	if err != nil {
		return nil, err
	}
	terminated, err := meter.Int64Counter("sessions_terminated_total",
		otelmetric.WithDescription("Sessions ended, by reason"))
	if err != nil {
		return nil, err
	}
	anomalies, err := meter.Int64Counter("anomalies_detected_total",
		otelmetric.WithDescription("Anomaly tags observed, by tag"))
	if err != nil {
		return nil, err
	}
	swept, err := meter.Int64Counter("sessions_swept_total",
		otelmetric.WithDescription("Expired sessions deactivated by the sweeper"))
	if err != nil {
		return nil, err
	}
	return &Metrics{created: created, terminated: terminated, anomalies: anomalies, swept: swept}, nil
}

func (m *Metrics) SessionCreated(ctx context.Context) {
	m.created.Add(ctx, 1)
}

func (m *Metrics) SessionTerminated(ctx context.Context, reason string) {
	m.terminated.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) AnomalyDetected(ctx context.Context, tag string) {
	m.anomalies.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("tag", tag)))
}

func (m *Metrics) SessionsSwept(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	m.swept.Add(ctx, count)
}
