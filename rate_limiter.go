package rubix

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a client side rate limiter. Requests wait for a token from a
// token bucket; a request whose context ends first fails with a
// RateLimitError instead of being sent.
type Throttle struct {
	limiter *rate.Limiter
	metrics *MetricsCollector
}

// NewThrottle allows perSecond requests per second with bursts of up to
// burst requests.
func NewThrottle(perSecond float64, burst int, metrics *MetricsCollector) (*Throttle, error) {
	if perSecond <= 0 {
		return nil, configurationError("throttle rate must be positive", nil)
	}
	if burst < 1 {
		return nil, configurationError("throttle burst must be at least 1", nil)
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		metrics: metrics,
	}, nil
}

// NewThrottleEvery allows one request per interval.
func NewThrottleEvery(interval time.Duration, burst int, metrics *MetricsCollector) (*Throttle, error) {
	if interval <= 0 {
		return nil, configurationError("throttle interval must be positive", nil)
	}
	return NewThrottle(float64(rate.Every(interval)), burst, metrics)
}

// Limit returns the configured requests per second.
func (t *Throttle) Limit() float64 {
	return float64(t.limiter.Limit())
}

// Burst returns the bucket size.
func (t *Throttle) Burst() int {
	return t.limiter.Burst()
}

// Wrap implements Middleware.
func (t *Throttle) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		endpoint := getEndpointFromRequest(req)
		start := time.Now()
		if err := t.limiter.Wait(req.Context()); err != nil {
			ce := &ClientError{
				Type:    ErrorTypeRateLimit,
				Message: "rate limit wait aborted",
				Cause:   fmt.Errorf("%w: %v", ErrRateLimited, err),
			}
			stampRequest(ce, req)
			return nil, ce
		}
		t.metrics.RecordThrottleWait(endpoint, time.Since(start))
		return next.RoundTrip(req)
	})
}
