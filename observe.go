package mango

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Built-in observability middleware. The library itself never logs;
// callers opt in by registering these with Use or UseFor.

// LoggingMiddleware returns middleware that logs every operation through
// the given zap logger: debug on success, error on failure, both with
// operation, collection, model, and duration fields.
func LoggingMiddleware(logger *zap.Logger) MiddlewareFunc {
	return func(ctx context.Context, op *OpInfo, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		duration := time.Since(start)

		if err != nil {
			logger.Error("operation failed",
				zap.String("op", string(op.Operation)),
				zap.String("collection", op.Collection),
				zap.String("model", op.ModelName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			return err
		}

		logger.Debug("operation completed",
			zap.String("op", string(op.Operation)),
			zap.String("collection", op.Collection),
			zap.String("model", op.ModelName),
			zap.Duration("duration", duration),
		)
		return nil
	}
}

// Metrics holds the prometheus collectors populated by MetricsMiddleware.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with the given
// registerer (pass prometheus.DefaultRegisterer for the default registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mango_operations_total",
				Help: "Total ODM operations by type and collection.",
			},
			[]string{"op", "collection"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mango_operation_duration_seconds",
				Help:    "ODM operation latency by type and collection.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "collection"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mango_operation_errors_total",
				Help: "Failed ODM operations by type and collection.",
			},
			[]string{"op", "collection"},
		),
	}
	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.ErrorsTotal)
	return m
}

// MetricsMiddleware returns middleware that records operation counts,
// latencies, and failures into the given Metrics.
func MetricsMiddleware(m *Metrics) MiddlewareFunc {
	return func(ctx context.Context, op *OpInfo, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)

		labels := prometheus.Labels{"op": string(op.Operation), "collection": op.Collection}
		m.OperationsTotal.With(labels).Inc()
		m.OperationDuration.With(labels).Observe(time.Since(start).Seconds())
		if err != nil {
			m.ErrorsTotal.With(labels).Inc()
		}
		return err
	}
}
