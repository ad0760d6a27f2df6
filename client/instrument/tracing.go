package instrument

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/adamwoolhether/vjmap/client"

type tracing struct {
	tracer trace.Tracer
	next   http.RoundTripper
}

// Tracing wraps next so every request runs inside a client span. The
// span context is injected into the outgoing headers with the global
// propagator. A nil tp uses the global provider.
func Tracing(tp trace.TracerProvider, next http.RoundTripper) http.RoundTripper {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if next == nil {
		next = http.DefaultTransport
	}

	return &tracing{
		tracer: tp.Tracer(tracerName),
		next:   next,
	}
}

func (t *tracing) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(r.Context(), "vjmap "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.String("server.address", r.URL.Host),
		),
	)
	defer span.End()

	cpy := r.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(cpy.Header))

	resp, err := t.next.RoundTrip(cpy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	return resp, nil
}
