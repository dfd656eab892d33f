package rubix

import (
	"net/http"
	"time"
)

// WithSecure selects https instead of http.
func WithSecure(secure bool) Option {
	return func(c *Client) {
		c.secure = secure
	}
}

// WithTimeout bounds each attempt sent to the server. Retries and their
// delays are not covered, so bound the whole call with the context. Zero
// disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		c.timeoutSet = true
	}
}

// WithVerifyCertificate toggles TLS certificate verification. It only has
// an effect on a secure client built without WithHTTPClient.
func WithVerifyCertificate(verify bool) Option {
	return func(c *Client) {
		c.verifyCertificate = verify
	}
}

// WithMiddleware appends middleware to the chain. Each middleware wraps the
// ones supplied before it, so the last one sees the request first.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithHTTPClient sends requests through client instead of a client the
// package builds itself. WithTimeout, when also given, overrides the
// client's own Timeout on a copy.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		c.customHTTPClient = true
	}
}

// WithLogger sets the logger used for call lifecycle events.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithScoresPath overrides the route of the score operation.
func WithScoresPath(path string) Option {
	return func(c *Client) {
		c.scoresPath = path
	}
}
