package rubix

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// MetricsCollector provides Prometheus metrics for the call lifecycle and
// the reliability middleware. It is safe for concurrent use; a nil
// collector ignores every call.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec

	throttleWait *prometheus.HistogramVec

	errorsTotal *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)
	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubix_requests_total",
				Help: "Total number of inference calls made",
			},
			[]string{"operation", "status_code", "endpoint"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubix_request_duration_seconds",
				Help:    "Duration of inference calls in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status_code", "endpoint"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rubix_requests_in_flight",
				Help: "Number of inference calls currently in flight",
			},
			[]string{"operation", "endpoint"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubix_retries_total",
				Help: "Total number of retries scheduled after an overload response",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rubix_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		throttleWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubix_throttle_wait_seconds",
				Help:    "Time spent waiting for the client side rate limiter",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubix_errors_total",
				Help: "Total number of failed inference calls by error type",
			},
			[]string{"type", "operation", "endpoint"},
		),
		registry: registry,
	}
}

// RecordRequest records call count and duration.
func (mc *MetricsCollector) RecordRequest(operation, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(operation, statusCodeStr, endpoint).Inc()
	mc.requestDuration.WithLabelValues(operation, statusCodeStr, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(operation, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(operation, endpoint).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(operation, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(operation, endpoint).Dec()
}

// RecordRetry increments the retry counter for the status that caused it.
func (mc *MetricsCollector) RecordRetry(method, endpoint string, statusCode int) {
	if mc == nil {
		return
	}

	mc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordCircuitBreakerState sets gauge to breaker state.
func (mc *MetricsCollector) RecordCircuitBreakerState(name string, state gobreaker.State) {
	if mc == nil {
		return
	}

	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateOpen:
		stateValue = 1
	case gobreaker.StateHalfOpen:
		stateValue = 2
	}

	mc.circuitBreakerState.WithLabelValues(name).Set(stateValue)
}

// RecordThrottleWait observes how long a request waited for a token.
func (mc *MetricsCollector) RecordThrottleWait(endpoint string, wait time.Duration) {
	if mc == nil {
		return
	}

	mc.throttleWait.WithLabelValues(endpoint).Observe(wait.Seconds())
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, operation, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, operation, endpoint).Inc()
}

// GetRegistry exposes the underlying prometheus registry, or nil when the
// collector was built on a Registerer that is not a *prometheus.Registry.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	r, _ := mc.registry.(*prometheus.Registry)
	return r
}
