package rubix

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"
)

// buildChain folds middleware around terminal from left to right, so the
// last element of middleware ends up outermost and sees the request first.
func buildChain(terminal RoundTripper, middleware []Middleware) (RoundTripper, error) {
	current := terminal
	for i, m := range middleware {
		if isNilMiddleware(m) {
			return nil, configurationError(fmt.Sprintf("middleware at position %d is nil", i), nil)
		}
		current = m.Wrap(current)
		if current == nil {
			return nil, configurationError(fmt.Sprintf("middleware at position %d returned a nil handler", i), nil)
		}
	}
	return current, nil
}

// isNilMiddleware reports m as nil when the interface itself is nil or holds
// a nil pointer, func, map, slice, chan or interface value.
func isNilMiddleware(m Middleware) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Chain composes middleware into a single Middleware with the same ordering
// rules as WithMiddleware.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(next RoundTripper) RoundTripper {
		rt, err := buildChain(next, middleware)
		if err != nil {
			return RoundTripperFunc(func(*http.Request) (*http.Response, error) {
				return nil, err
			})
		}
		return rt
	})
}

// transportTerminal adapts an *http.Client to the innermost handler and
// rewraps its errors as transport errors.
func transportTerminal(client *http.Client) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, transportError(req, "request failed", err)
		}
		return resp, nil
	})
}

// transportError wraps err as a TransportError. A *ClientError raised by a
// middleware passes through unchanged.
func transportError(req *http.Request, message string, err error) error {
	if ce, ok := AsClientError(err); ok {
		return ce
	}
	ce := &ClientError{
		Type:    ErrorTypeTransport,
		Message: message,
		Cause:   err,
	}
	stampRequest(ce, req)
	return ce
}

func stampRequest(ce *ClientError, req *http.Request) {
	if ce.Timestamp.IsZero() {
		ce.Timestamp = time.Now()
	}
	if req == nil {
		return
	}
	if ce.Method == "" {
		ce.Method = req.Method
	}
	if req.URL != nil {
		if ce.URL == "" {
			ce.URL = req.URL.String()
		}
		if ce.Endpoint == "" {
			ce.Endpoint = getEndpointFromRequest(req)
		}
	}
}

func getEndpointFromRequest(req *http.Request) string {
	if req == nil || req.URL == nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(req.URL.Host)

	if path := req.URL.Path; path != "" && path != "/" {
		builder.WriteString(path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
