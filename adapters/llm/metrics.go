package llm

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	capabilityDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interview",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Duration of reasoning model requests",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider", "operation"})

	capabilityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Subsystem: "llm",
		Name:      "request_failures_total",
		Help:      "Number of failed reasoning model requests",
	}, []string{"provider", "operation"})
)

// instrument starts a span for one capability call and returns a function
// that records its outcome. The returned function must be called exactly once.
func instrument(ctx context.Context, tracer trace.Tracer, provider, operation, model string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, provider+"."+operation, trace.WithAttributes(
		attribute.String("model", model),
	))
	start := time.Now()

	return ctx, func(err error) {
		capabilityDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
		if err != nil {
			capabilityFailures.WithLabelValues(provider, operation).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
