// Package rubix is a client for a Rubix ML inference server. It sends
// batches of samples over the server's JSON REST contract and returns
// predictions, class probabilities or anomaly scores.
//
// Every call passes through a middleware chain around net/http:
//
//   - BackoffAndRetry re-sends a request answered with 429 or 503, doubling the delay
//   - Basic, shared token and oauth2 authenticators set the Authorization header
//   - CircuitBreaker fails fast while the server keeps failing
//   - Throttle enforces a client side rate limit
//   - RequestID, Tracing and Logging add correlation and observability
//
// Each operation has a blocking form and an asynchronous form returning a
// *Promise. The blocking form is the asynchronous one followed by Wait.
//
// Typical usage:
//
//	retry, err := rubix.NewBackoffAndRetry(3, 500*time.Millisecond)
//	if err != nil {
//	    return err
//	}
//	auth, err := rubix.NewSharedTokenAuthenticator(token)
//	if err != nil {
//	    return err
//	}
//	client, err := rubix.New("127.0.0.1", 8000,
//	    rubix.WithTimeout(10*time.Second),
//	    rubix.WithMiddleware(auth, retry),
//	)
//	predictions, err := client.Predict(ctx, rubix.Unlabeled{{"mean", "furry", 42.0}})
//
// Every failure is a *ClientError; its Type tells configuration, protocol,
// decode, transport and server failures apart and Unwrap exposes the cause.
package rubix
