package rubix

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// These are light smoke tests ensuring exported logger APIs do not panic and remain callable.
func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestSlogLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.Info("Scheduling retry", "attempt", 2)

	out := buf.String()
	if !strings.Contains(out, "Scheduling retry") || !strings.Contains(out, "attempt=2") {
		t.Errorf("Unexpected log output: %q", out)
	}
	if logger.Slog() == nil {
		t.Error("Slog() returned nil")
	}
}

func TestNewSlogLoggerNilUsesDefault(t *testing.T) {
	if NewSlogLogger(nil).Slog() != slog.Default() {
		t.Error("Expected slog.Default() for a nil logger")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	ok := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTeapot}, nil
	})
	req := httptest.NewRequest(http.MethodPost, "http://example.com/model/predictions", nil)
	if _, err := Logging(logger).Wrap(ok).RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "statusCode=418") {
		t.Errorf("Expected completed log line, got %q", buf.String())
	}

	buf.Reset()
	failing := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	if _, err := Logging(logger).Wrap(failing).RoundTrip(req); err == nil {
		t.Fatal("Expected error to propagate")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("Expected warn log line, got %q", buf.String())
	}
}

func TestLoggingMiddlewareNilLogger(t *testing.T) {
	ok := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	req := httptest.NewRequest(http.MethodPost, "http://example.com", nil)
	if _, err := Logging(nil).Wrap(ok).RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip() returned error: %v", err)
	}
}
