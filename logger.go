package rubix

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Logger is the structured logging sink used by the client and its
// middleware. Key/value pairs follow the slog convention.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// NewSimpleLogger logs logfmt lines to stderr at debug level.
func NewSimpleLogger() *SlogLogger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h).With("component", "rubix"))
}

func (s *SlogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *SlogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *SlogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *SlogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

// Slog exposes the wrapped logger.
func (s *SlogLogger) Slog() *slog.Logger {
	return s.l
}

// Logging returns a middleware that logs every attempt passing through it.
// Placed inside a retry middleware it sees each retry separately.
func Logging(logger Logger) Middleware {
	if logger == nil {
		logger = noopLogger{}
	}
	return InterceptorFunc(func(req *http.Request, next RoundTripper) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		duration := time.Since(start)

		if err != nil {
			if req.Context().Err() == context.Canceled {
				logger.Debug("Request canceled", "method", req.Method, "url", req.URL.String(), "duration", duration)
			} else {
				logger.Warn("Request failed", "method", req.Method, "url", req.URL.String(), "duration", duration, "error", err.Error())
			}
			return resp, err
		}

		logger.Debug("Request completed", "method", req.Method, "url", req.URL.String(), "statusCode", resp.StatusCode, "duration", duration)
		return resp, nil
	})
}
