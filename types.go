package rubix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// RoundTripper sends a single request and returns its response. It is the
// handler type every middleware wraps.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware decorates the next handler in the chain. A middleware may
// rewrite the outgoing request, inspect the incoming response, short-circuit
// without delegating, or invoke next more than once.
type Middleware interface {
	Wrap(next RoundTripper) RoundTripper
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(next RoundTripper) RoundTripper

// Wrap implements Middleware.
func (f MiddlewareFunc) Wrap(next RoundTripper) RoundTripper {
	return f(next)
}

// InterceptorFunc is a single-call interceptor: it receives the request and
// the next handler and decides how to delegate.
type InterceptorFunc func(req *http.Request, next RoundTripper) (*http.Response, error)

// Wrap implements Middleware.
func (f InterceptorFunc) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return f(req, next)
	})
}

// Option represents a configuration option
type Option func(*Client)

// Dataset is anything that can hand over its samples as rows of scalars.
type Dataset interface {
	Samples() [][]any
}

// Unlabeled is the simplest Dataset: a table of samples without labels.
type Unlabeled [][]any

// Samples implements Dataset.
func (u Unlabeled) Samples() [][]any {
	return u
}

// Distribution maps a class label to its estimated probability.
type Distribution map[string]float64

// UnmarshalJSON accepts either an object keyed by class label or a plain
// array of probabilities, in which case the column offset becomes the key.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var column []float64
		if err := json.Unmarshal(trimmed, &column); err != nil {
			return err
		}
		out := make(Distribution, len(column))
		for i, p := range column {
			out[strconv.Itoa(i)] = p
		}
		*d = out
		return nil
	}

	var labeled map[string]float64
	if err := json.Unmarshal(trimmed, &labeled); err != nil {
		return fmt.Errorf("distribution: %w", err)
	}
	*d = labeled
	return nil
}

// Argmax returns the most probable class label. Ties resolve to the
// lexically smallest label so the result is deterministic.
func (d Distribution) Argmax() (string, float64) {
	best, bestP := "", -1.0
	for label, p := range d {
		if p > bestP || (p == bestP && label < best) {
			best, bestP = label, p
		}
	}
	return best, bestP
}
