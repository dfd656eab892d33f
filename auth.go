package rubix

import (
	"encoding/base64"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/RubixML/Client/internal/singleflight"
)

const headerAuthorization = "Authorization"

// headerAuthenticator sets a fixed Authorization header on every request.
type headerAuthenticator struct {
	value string
}

// Wrap implements Middleware.
func (a *headerAuthenticator) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		authed := req.Clone(req.Context())
		authed.Header.Set(headerAuthorization, a.value)
		return next.RoundTrip(authed)
	})
}

// NewBasicAuthenticator authenticates with HTTP Basic credentials. The
// password may be empty, the username may not.
func NewBasicAuthenticator(username, password string) (Middleware, error) {
	if username == "" {
		return nil, configurationError("basic auth username must not be empty", nil)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &headerAuthenticator{value: "Basic " + credentials}, nil
}

// NewSharedTokenAuthenticator authenticates with a static bearer token.
func NewSharedTokenAuthenticator(token string) (Middleware, error) {
	if token == "" {
		return nil, configurationError("shared token must not be empty", nil)
	}
	return &headerAuthenticator{value: "Bearer " + token}, nil
}

// TokenSourceAuthenticator fetches a bearer token from an oauth2.TokenSource
// for every request. Concurrent requests share a single fetch. Caching and
// refresh are up to the source; wrap it in oauth2.ReuseTokenSource to avoid
// a fetch per call.
type TokenSourceAuthenticator struct {
	source oauth2.TokenSource
	group  singleflight.Group[*oauth2.Token]
}

// NewTokenSourceAuthenticator creates the middleware.
func NewTokenSourceAuthenticator(source oauth2.TokenSource) (*TokenSourceAuthenticator, error) {
	if source == nil {
		return nil, configurationError("token source must not be nil", nil)
	}
	return &TokenSourceAuthenticator{source: source}, nil
}

// Wrap implements Middleware.
func (a *TokenSourceAuthenticator) Wrap(next RoundTripper) RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		token, err, _ := a.group.Do("token", a.source.Token)
		if err != nil {
			return nil, transportError(req, "failed to obtain access token", err)
		}
		if !token.Valid() {
			return nil, transportError(req, "failed to obtain access token", errInvalidToken)
		}

		authed := req.Clone(req.Context())
		token.SetAuthHeader(authed)
		return next.RoundTrip(authed)
	})
}

var errInvalidToken = errors.New("rubix: token source returned an invalid token")
