package rubix

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/RubixML/Client"

// TracingOption configures the Tracing middleware.
type TracingOption func(*tracing)

type tracing struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
}

// TracingWithProvider uses tp instead of the global tracer provider.
func TracingWithProvider(tp trace.TracerProvider) TracingOption {
	return func(t *tracing) {
		if tp != nil {
			t.provider = tp
		}
	}
}

// TracingWithPropagator uses p instead of the global propagator.
func TracingWithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(t *tracing) {
		if p != nil {
			t.propagator = p
		}
	}
}

// Tracing opens a client span for every request passing through it and
// injects the span context into the outgoing headers.
func Tracing(opts ...TracingOption) Middleware {
	t := &tracing{
		provider:   otel.GetTracerProvider(),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(t)
	}
	tracer := t.provider.Tracer(tracerName, trace.WithInstrumentationVersion(Version))

	return InterceptorFunc(func(req *http.Request, next RoundTripper) (*http.Response, error) {
		ctx, span := tracer.Start(req.Context(), "rubix "+req.URL.Path,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL.String()),
				attribute.String("server.address", req.URL.Hostname()),
			),
		)
		defer span.End()

		traced := req.Clone(ctx)
		t.propagator.Inject(ctx, propagation.HeaderCarrier(traced.Header))

		resp, err := next.RoundTrip(traced)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return resp, err
		}

		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
		return resp, nil
	})
}
