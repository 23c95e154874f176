package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	workflowCounter  otelmetric.Int64Counter
	workflowDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	workflowCounter, _ := meter.Int64Counter(
		"workflows.executed",
		otelmetric.WithDescription("Number of workflow executions reaching a terminal state"),
	)

	workflowDuration, _ := meter.Float64Histogram(
		"workflows.duration",
		otelmetric.WithDescription("Workflow execution duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		workflowCounter:  workflowCounter,
		workflowDuration: workflowDuration,
	}
}

// RecordWorkflow records a terminal workflow state (completed or failed).
func (o *Observability) RecordWorkflow(ctx context.Context, workflowType, status string) {
	if o.workflowCounter != nil {
		o.workflowCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("type", workflowType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordWorkflowDuration(ctx context.Context, workflowType string, duration time.Duration) {
	if o.workflowDuration != nil {
		o.workflowDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("type", workflowType),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
