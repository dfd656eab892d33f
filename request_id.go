package rubix

import (
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation id of a call.
const HeaderRequestID = "X-Request-ID"

// RequestID stamps every request with a random UUID under HeaderRequestID
// unless the caller already set one. Placed outside a retry middleware, all
// attempts of a call share the same id.
func RequestID() Middleware {
	return InterceptorFunc(func(req *http.Request, next RoundTripper) (*http.Response, error) {
		if req.Header.Get(HeaderRequestID) != "" {
			return next.RoundTrip(req)
		}
		stamped := req.Clone(req.Context())
		stamped.Header.Set(HeaderRequestID, uuid.NewString())
		return next.RoundTrip(stamped)
	})
}
