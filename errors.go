package rubix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error type identifiers carried by ClientError.Type.
const (
	ErrorTypeConfiguration = "ConfigurationError"
	ErrorTypeProtocol      = "ProtocolError"
	ErrorTypeDecode        = "DecodeError"
	ErrorTypeEncode        = "EncodeError"
	ErrorTypeTransport     = "TransportError"
	ErrorTypeServer        = "ServerError"
	ErrorTypeCircuitOpen   = "CircuitOpenError"
	ErrorTypeRateLimit     = "RateLimitError"
)

// Sentinel errors for common failure scenarios
var (
	// ErrUnacceptableContentType is returned when a response is not declared as application/json.
	ErrUnacceptableContentType = errors.New("rubix: unacceptable content type")

	// ErrMissingDataPayload is returned when the response envelope has no data key.
	ErrMissingDataPayload = errors.New("rubix: data payload missing")

	// ErrMissingField is returned when the data payload lacks the operation's result field.
	ErrMissingField = errors.New("rubix: result field missing")

	// ErrResponseTooLarge is returned when a response body exceeds the read limit.
	ErrResponseTooLarge = errors.New("rubix: response body too large")

	// ErrNoResponse is returned when a middleware returns neither a response nor an error.
	ErrNoResponse = errors.New("rubix: no response")

	// ErrCircuitOpen is returned when the circuit breaker rejects a request.
	ErrCircuitOpen = errors.New("rubix: circuit open")

	// ErrRateLimited is returned when the client side throttle gives up waiting.
	ErrRateLimited = errors.New("rubix: rate limited")
)

// ClientError is the single error kind returned by every client operation.
// Type classifies the failure; Cause preserves the original error chain.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	Method     string
	URL        string
	Endpoint   string
	StatusCode int
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.Endpoint != "" {
		info += fmt.Sprintf("Endpoint: %s\n", e.Endpoint)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func configurationError(message string, cause error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeConfiguration,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// AsClientError reports whether err carries a *ClientError.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsConfigurationError reports whether err was raised while constructing a
// client or middleware.
func IsConfigurationError(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeConfiguration})
}

// IsProtocolError reports whether the server answered with a response that
// violates the JSON contract.
func IsProtocolError(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeProtocol})
}

// IsTransportError reports whether the request never produced a response.
func IsTransportError(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeTransport})
}

// IsTransient determines if an error represents a failure that might succeed
// when the call is issued again: transport failures, an open circuit, client
// side throttling and overload or 5xx server statuses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return true
	}

	clientErr, ok := AsClientError(err)
	if !ok {
		return false
	}
	switch clientErr.Type {
	case ErrorTypeTransport, ErrorTypeCircuitOpen, ErrorTypeRateLimit:
		return true
	case ErrorTypeServer:
		return clientErr.StatusCode == http.StatusTooManyRequests || clientErr.StatusCode >= 500
	default:
		return false
	}
}
