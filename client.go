package rubix

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to a single inference server. It is safe for concurrent use;
// the middleware chain and the connection pool are built once in New and
// never change afterwards.
type Client struct {
	host              string
	port              int
	secure            bool
	verifyCertificate bool
	timeout           time.Duration
	timeoutSet        bool
	scoresPath        string
	middleware        []Middleware
	httpClient        *http.Client
	customHTTPClient  bool
	logger            Logger
	metrics           *MetricsCollector

	baseURL string
	handler RoundTripper
}

// New constructs a client for the server at host:port. Configuration is
// validated eagerly; an invalid host, port, timeout or middleware fails here
// with a ConfigurationError before any network activity.
func New(host string, port int, opts ...Option) (*Client, error) {
	c := newClient(host, port)
	for _, opt := range opts {
		opt(c)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(host string, port int) *Client {
	return &Client{
		host:              host,
		port:              port,
		verifyCertificate: true,
		scoresPath:        ScoresPath,
		logger:            noopLogger{},
	}
}

func (c *Client) init() error {
	if err := c.ValidateConfiguration(); err != nil {
		return err
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}

	if c.customHTTPClient {
		if c.timeoutSet {
			hc := *c.httpClient
			hc.Timeout = c.timeout
			c.httpClient = &hc
		}
	} else {
		transport, err := newTransport(c.secure, c.verifyCertificate)
		if err != nil {
			return err
		}
		c.httpClient = &http.Client{Transport: transport, Timeout: c.timeout}
	}

	handler, err := buildChain(transportTerminal(c.httpClient), c.middleware)
	if err != nil {
		return err
	}
	c.handler = handler

	scheme := "http"
	if c.secure {
		scheme = "https"
	}
	c.baseURL = scheme + "://" + net.JoinHostPort(c.host, strconv.Itoa(c.port))
	return nil
}

// ValidateConfiguration reports every configuration problem in one error.
func (c *Client) ValidateConfiguration() error {
	var errs []string

	if strings.TrimSpace(c.host) == "" {
		errs = append(errs, "host must not be empty")
	}
	if c.port < 0 || c.port > 65535 {
		errs = append(errs, "port must be between 0 and 65535, "+strconv.Itoa(c.port)+" given")
	}
	if c.timeout < 0 {
		errs = append(errs, "timeout must be greater than or equal to 0")
	}
	if c.customHTTPClient && c.httpClient == nil {
		errs = append(errs, "http client must not be nil")
	}
	if !strings.HasPrefix(c.scoresPath, "/") {
		errs = append(errs, "scores path must start with /")
	}
	for i, m := range c.middleware {
		if isNilMiddleware(m) {
			errs = append(errs, "middleware at position "+strconv.Itoa(i)+" is nil")
		}
	}

	if len(errs) > 0 {
		return configurationError(strings.Join(errs, "; "), nil)
	}
	return nil
}

// BaseURL returns the scheme, host and port every route is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict returns the predictions of the model for the samples in ds.
func (c *Client) Predict(ctx context.Context, ds Dataset) ([]any, error) {
	return c.PredictAsync(ctx, ds).Wait()
}

// PredictAsync is the non-blocking form of Predict.
func (c *Client) PredictAsync(ctx context.Context, ds Dataset) *Promise[[]any] {
	return call[[]any](ctx, c, opPredict, ds)
}

// Proba returns a class probability distribution per sample.
func (c *Client) Proba(ctx context.Context, ds Dataset) ([]Distribution, error) {
	return c.ProbaAsync(ctx, ds).Wait()
}

// ProbaAsync is the non-blocking form of Proba.
func (c *Client) ProbaAsync(ctx context.Context, ds Dataset) *Promise[[]Distribution] {
	return call[[]Distribution](ctx, c, opProba, ds)
}

// Score returns an anomaly score per sample.
func (c *Client) Score(ctx context.Context, ds Dataset) ([]float64, error) {
	return c.ScoreAsync(ctx, ds).Wait()
}

// ScoreAsync is the non-blocking form of Score.
func (c *Client) ScoreAsync(ctx context.Context, ds Dataset) *Promise[[]float64] {
	op := opScore
	op.path = c.scoresPath
	return call[[]float64](ctx, c, op, ds)
}

// call issues op on its own goroutine and resolves the promise with the
// decoded result field.
func call[T any](ctx context.Context, c *Client, op operation, ds Dataset) *Promise[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := NewQueryRequest(ds)
	if err != nil {
		return Rejected[T](&ClientError{
			Type:      ErrorTypeEncode,
			Message:   "invalid dataset",
			Cause:     err,
			Timestamp: time.Now(),
		})
	}
	req, err := newJSONRequest(ctx, c.baseURL+op.path, body)
	if err != nil {
		return Rejected[T](err)
	}

	return Go(func() (T, error) {
		return send[T](c, op, req)
	})
}

func send[T any](c *Client, op operation, req *http.Request) (T, error) {
	var zero T
	start := time.Now()
	endpoint := getEndpointFromRequest(req)

	c.logger.Debug("Starting request", "operation", op.name, "method", req.Method, "url", req.URL.String(), "bytes", req.ContentLength)
	c.metrics.RecordRequestStart(op.name, endpoint)
	defer c.metrics.RecordRequestEnd(op.name, endpoint)

	resp, err := c.handler.RoundTrip(req)
	if err != nil {
		err = transportError(req, "request failed", err)
		c.fail(op, endpoint, 0, start, err)
		return zero, err
	}
	if resp == nil {
		ce := &ClientError{Type: ErrorTypeProtocol, Message: "middleware returned no response", Cause: ErrNoResponse}
		stampRequest(ce, req)
		c.fail(op, endpoint, 0, start, ce)
		return zero, ce
	}
	statusCode := resp.StatusCode

	data, err := unwrapResponse(resp)
	if err != nil {
		c.fail(op, endpoint, statusCode, start, err)
		return zero, err
	}
	value, err := extractField[T](data, op.field)
	if err != nil {
		if ce, ok := AsClientError(err); ok {
			stampRequest(ce, req)
		}
		c.fail(op, endpoint, statusCode, start, err)
		return zero, err
	}

	duration := time.Since(start)
	c.metrics.RecordRequest(op.name, endpoint, statusCode, duration)
	c.logger.Debug("Request completed", "operation", op.name, "statusCode", statusCode, "duration", duration)
	return value, nil
}

func (c *Client) fail(op operation, endpoint string, statusCode int, start time.Time, err error) {
	duration := time.Since(start)
	errorType := "Unknown"
	var ce *ClientError
	if errors.As(err, &ce) {
		errorType = ce.Type
		if ce.Duration == 0 {
			ce.Duration = duration
		}
	}

	c.metrics.RecordRequest(op.name, endpoint, statusCode, duration)
	c.metrics.RecordError(errorType, op.name, endpoint)

	if errors.Is(err, context.Canceled) {
		c.logger.Debug("Request canceled", "operation", op.name, "duration", duration)
		return
	}
	c.logger.Warn("Request failed", "operation", op.name, "errorType", errorType, "statusCode", statusCode, "duration", duration, "error", err.Error())
}
