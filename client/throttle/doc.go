// Package throttle provides an [http.RoundTripper] that rate-limits
// calls to the map service using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// Tile fetching in particular can fire many requests in a short
// window; wrapping the transport keeps a client under the quota of the
// account its token belongs to:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the bucket is empty, outbound requests block until a token
// becomes available or the request context is done.
package throttle
