package rubix

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that open the breaker
	HalfOpenRequests uint32        // probes allowed while half-open
	RecoveryTimeout  time.Duration // time spent open before probing
	Interval         time.Duration // closed-state counter reset period, 0 never resets
}

// DefaultCircuitBreakerConfig mirrors the defaults the client uses when a
// field is left zero.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "rubix",
		FailureThreshold: 5,
		HalfOpenRequests: 1,
		RecoveryTimeout:  60 * time.Second,
	}
}

// errServerFailure marks a 5xx response as a breaker failure while the
// response itself still reaches the caller.
var errServerFailure = errors.New("rubix: server failure")

// CircuitBreaker fails fast while the inference server keeps failing.
// Transport errors and 5xx responses count as failures; 429 and other
// statuses count as successes since the server is answering.
type CircuitBreaker struct {
	cb      *gobreaker.CircuitBreaker
	logger  Logger
	metrics *MetricsCollector
}

// NewCircuitBreaker builds the middleware. Zero fields fall back to
// DefaultCircuitBreakerConfig. logger and metrics may be nil.
func NewCircuitBreaker(config CircuitBreakerConfig, logger Logger, metrics *MetricsCollector) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.HalfOpenRequests == 0 {
		config.HalfOpenRequests = defaults.HalfOpenRequests
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = defaults.RecoveryTimeout
	}
	if logger == nil {
		logger = noopLogger{}
	}

	b := &CircuitBreaker{logger: logger, metrics: metrics}
	threshold := config.FailureThreshold
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenRequests,
		Interval:    config.Interval,
		Timeout:     config.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			b.metrics.RecordCircuitBreakerState(name, to)
		},
	})
	metrics.RecordCircuitBreakerState(config.Name, gobreaker.StateClosed)
	return b
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name used in logs and metrics.
func (b *CircuitBreaker) Name() string {
	return b.cb.Name()
}

// Wrap implements Middleware.
func (b *CircuitBreaker) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		result, err := b.cb.Execute(func() (interface{}, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return resp, errServerFailure
			}
			return resp, nil
		})

		switch {
		case err == nil:
			return result.(*http.Response), nil
		case errors.Is(err, errServerFailure):
			return result.(*http.Response), nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			ce := &ClientError{
				Type:    ErrorTypeCircuitOpen,
				Message: fmt.Sprintf("circuit breaker %q is %s", b.cb.Name(), b.cb.State()),
				Cause:   fmt.Errorf("%w: %v", ErrCircuitOpen, err),
			}
			stampRequest(ce, req)
			return nil, ce
		default:
			return nil, err
		}
	})
}
