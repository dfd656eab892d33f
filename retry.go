package rubix

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/RubixML/Client/internal/backoff"
)

var errBodyNotReplayable = errors.New("rubix: request body has no GetBody")

// RetryableStatus reports whether the server signalled a transient overload
// that is worth waiting out.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// BackoffAndRetry re-sends a request that was answered with 429 or 503,
// doubling the wait between attempts. All retry state lives in the call, so
// one instance can serve any number of concurrent requests.
type BackoffAndRetry struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       Logger
	metrics      *MetricsCollector
	sleep        func(ctx context.Context, d time.Duration) error
}

// RetryOption configures a BackoffAndRetry.
type RetryOption func(*BackoffAndRetry)

// RetryWithLogger logs every scheduled retry.
func RetryWithLogger(logger Logger) RetryOption {
	return func(b *BackoffAndRetry) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// RetryWithMetrics counts scheduled retries in rubix_retries_total.
func RetryWithMetrics(metrics *MetricsCollector) RetryOption {
	return func(b *BackoffAndRetry) {
		b.metrics = metrics
	}
}

// RetryWithMaxDelay caps a single wait. Zero leaves the delay uncapped.
func RetryWithMaxDelay(d time.Duration) RetryOption {
	return func(b *BackoffAndRetry) {
		b.maxDelay = d
	}
}

// NewBackoffAndRetry creates the middleware. maxRetries is the number of
// re-sends after the first attempt; zero disables retrying.
func NewBackoffAndRetry(maxRetries int, initialDelay time.Duration, opts ...RetryOption) (*BackoffAndRetry, error) {
	if maxRetries < 0 {
		return nil, configurationError("max retries must not be negative", nil)
	}
	if initialDelay < 0 {
		return nil, configurationError("initial delay must not be negative", nil)
	}

	b := &BackoffAndRetry{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		logger:       noopLogger{},
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxDelay < 0 {
		return nil, configurationError("max delay must not be negative", nil)
	}
	return b, nil
}

// MaxRetries returns the configured retry limit.
func (b *BackoffAndRetry) MaxRetries() int {
	return b.maxRetries
}

// InitialDelay returns the wait before the first retry.
func (b *BackoffAndRetry) InitialDelay() time.Duration {
	return b.initialDelay
}

// Wrap implements Middleware.
func (b *BackoffAndRetry) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return b.roundTrip(req, next)
	})
}

func (b *BackoffAndRetry) roundTrip(req *http.Request, next RoundTripper) (*http.Response, error) {
	ctx := req.Context()
	schedule := backoff.NewSchedule(b.initialDelay, backoff.DefaultMultiplier, b.maxDelay)
	endpoint := getEndpointFromRequest(req)

	attemptReq := req
	for triesLeft := b.maxRetries; ; triesLeft-- {
		resp, err := next.RoundTrip(attemptReq)
		if err != nil || triesLeft <= 0 || !RetryableStatus(resp.StatusCode) {
			return resp, err
		}

		retryReq, rerr := rewind(req)
		if rerr != nil {
			b.logger.Warn("Request body cannot be replayed, not retrying", "endpoint", endpoint, "error", rerr.Error())
			return resp, nil
		}

		delay := schedule.Next()
		b.logger.Info("Scheduling retry",
			"attempt", schedule.Attempt(),
			"maxRetries", b.maxRetries,
			"statusCode", resp.StatusCode,
			"backoff", delay,
			"endpoint", endpoint,
		)
		b.metrics.RecordRetry(req.Method, endpoint, resp.StatusCode)
		discard(resp)

		if err := b.sleep(ctx, delay); err != nil {
			return nil, transportError(req, "retry wait aborted", err)
		}
		attemptReq = retryReq
	}
}

// rewind returns a copy of req with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
