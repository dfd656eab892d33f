package rubix

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// acceptedContentTypes lists the Content-Type values a response may declare.
// Matching is exact; parameters such as charset are not stripped.
var acceptedContentTypes = map[string]bool{
	mimeJSON: true,
}

const (
	// maxResponseBytes caps the body read from a single response.
	maxResponseBytes = 32 << 20
	// maxDrainBytes caps what is read from a body that is thrown away.
	maxDrainBytes = 64 << 10
)

// errorEnvelope is the body the server sends alongside a non-2xx status.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// unwrapResponse runs the response pipeline: content type validation, body
// decode, status check and payload unwrap. It returns the members of the
// data payload. The response body is always consumed and closed.
func unwrapResponse(resp *http.Response) (map[string]json.RawMessage, error) {
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get(headerContentType)
	if !acceptedContentTypes[contentType] {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		return nil, responseError(resp, ErrorTypeProtocol, "unacceptable content type",
			fmt.Errorf("%w: %q", ErrUnacceptableContentType, contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, responseError(resp, ErrorTypeTransport, "failed to read response body", err)
	}
	if len(body) > maxResponseBytes {
		return nil, responseError(resp, ErrorTypeProtocol, "response body too large", ErrResponseTooLarge)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, responseError(resp, ErrorTypeDecode, "malformed JSON response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ce := responseError(resp, ErrorTypeServer, serverMessage(body, resp.StatusCode), nil)
		ce.StatusCode = resp.StatusCode
		return nil, ce
	}

	raw, ok := envelope["data"]
	if !ok {
		return nil, responseError(resp, ErrorTypeProtocol, "data payload missing", ErrMissingDataPayload)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, responseError(resp, ErrorTypeDecode, "data payload is not an object", err)
	}
	return data, nil
}

// extractField decodes the named member of the data payload into T.
func extractField[T any](data map[string]json.RawMessage, field string) (T, error) {
	var out T
	raw, ok := data[field]
	if !ok {
		return out, &ClientError{
			Type:      ErrorTypeProtocol,
			Message:   field + " missing from data payload",
			Cause:     fmt.Errorf("%w: %s", ErrMissingField, field),
			Timestamp: time.Now(),
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ClientError{
			Type:      ErrorTypeDecode,
			Message:   "malformed " + field,
			Cause:     err,
			Timestamp: time.Now(),
		}
	}
	return out, nil
}

func serverMessage(body []byte, status int) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return http.StatusText(status)
}

func responseError(resp *http.Response, errorType, message string, cause error) *ClientError {
	ce := &ClientError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
	stampRequest(ce, resp.Request)
	return ce
}
