// Package instrument provides http.RoundTripper middleware that records
// OpenTelemetry client spans and Prometheus request metrics for calls
// made to the map service.
//
// Both wrappers are installed by [github.com/adamwoolhether/vjmap/client.Build]
// when WithTracing or WithMetrics is passed, but they compose with any
// http.RoundTripper:
//
//	rt, err := instrument.Metrics(prometheus.DefaultRegisterer, http.DefaultTransport)
//	rt = instrument.Tracing(nil, rt)
package instrument
