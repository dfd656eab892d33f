package rubix

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func okHandler(calls *int) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		*calls++
		return &http.Response{StatusCode: http.StatusOK, Request: req}, nil
	})
}

func TestNewThrottleValidation(t *testing.T) {
	if _, err := NewThrottle(0, 1, nil); !IsConfigurationError(err) {
		t.Errorf(expectedConfigErrMsg, err)
	}
	if _, err := NewThrottle(10, 0, nil); !IsConfigurationError(err) {
		t.Errorf(expectedConfigErrMsg, err)
	}
	if _, err := NewThrottleEvery(0, 1, nil); !IsConfigurationError(err) {
		t.Errorf(expectedConfigErrMsg, err)
	}

	throttle, err := NewThrottleEvery(100*time.Millisecond, 3, nil)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewThrottleEvery()", err)
	}
	if throttle.Limit() != 10 || throttle.Burst() != 3 {
		t.Errorf("Expected 10 rps with burst 3, got %v / %d", throttle.Limit(), throttle.Burst())
	}
}

func TestThrottleAllowsBurst(t *testing.T) {
	throttle, err := NewThrottle(1, 3, nil)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewThrottle()", err)
	}
	calls := 0
	handler := throttle.Wrap(okHandler(&calls))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := handler.RoundTrip(breakerRequest()); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Burst should not wait, took %v", elapsed)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestThrottleWaits(t *testing.T) {
	throttle, err := NewThrottleEvery(50*time.Millisecond, 1, nil)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewThrottleEvery()", err)
	}
	calls := 0
	handler := throttle.Wrap(okHandler(&calls))

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := handler.RoundTrip(breakerRequest()); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Second request should wait for a token, took %v", elapsed)
	}
}

func TestThrottleContextDeadline(t *testing.T) {
	throttle, err := NewThrottleEvery(time.Hour, 1, nil)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewThrottleEvery()", err)
	}
	calls := 0
	handler := throttle.Wrap(okHandler(&calls))

	if _, err := handler.RoundTrip(breakerRequest()); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "http://localhost:8000/model/predictions", nil).WithContext(ctx)

	_, err = handler.RoundTrip(req)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if ce, ok := AsClientError(err); !ok || ce.Type != ErrorTypeRateLimit {
		t.Errorf("Expected RateLimitError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Throttled request must not be sent, got %d calls", calls)
	}
}

func TestThrottleRecordsWait(t *testing.T) {
	metrics := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	throttle, err := NewThrottle(100, 1, metrics)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewThrottle()", err)
	}
	calls := 0
	if _, err := throttle.Wrap(okHandler(&calls)).RoundTrip(breakerRequest()); err != nil {
		t.Fatalf(expectedNoErrorMsg, "RoundTrip()", err)
	}

	if got := testutil.CollectAndCount(metrics.throttleWait); got != 1 {
		t.Errorf("Expected one throttle wait series, got %d", got)
	}
}
