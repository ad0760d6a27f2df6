package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/adamwoolhether/vjmap/client/download"
	"github.com/adamwoolhether/vjmap/client/throttle"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// ErrConflictingBody is returned by [Request] when both a JSON payload
// and a multipart file are given.
var ErrConflictingBody = errors.New("json payload and multipart file are mutually exclusive")

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	headers           http.Header
	throttle          *throttle.Config
	metrics           prometheus.Registerer
	tracing           bool
	tracerProvider    trace.TracerProvider
	noFollowRedirects bool
	logger            *slog.Logger
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return WithHeader("User-Agent", header)
}

// WithHeader adds a header that is set on every outgoing request,
// replacing any per-request value with the same key.
func WithHeader(key, value string) Option {
	return func(c *options) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if c.headers == nil {
			c.headers = make(http.Header)
		}
		c.headers.Set(key, value)
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithMetrics records request counts and latencies on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *options) error {
		if reg == nil {
			return errors.New("metrics registerer must not be nil")
		}
		c.metrics = reg
		return nil
	}
}

// WithTracing wraps each request in a client span. A nil tp uses the
// global OpenTelemetry provider.
func WithTracing(tp trace.TracerProvider) Option {
	return func(c *options) error {
		c.tracing = true
		c.tracerProvider = tp
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// persistentHeaders is an http.RoundTripper setting fixed headers,
// such as the User-Agent or an access token, on every request.
type persistentHeaders struct {
	values http.Header
	base   http.RoundTripper
}

func (ph persistentHeaders) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	for k, v := range ph.values {
		cpy.Header[k] = v
	}
	return ph.base.RoundTrip(cpy)
}

// DoOption is a functional option for [Client.Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	responseBody any
	useJSONNum   bool
}

// WithDestination decodes the HTTP response body into bodyTemplate.
// bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// DownloadOption configures [Client.Download].
type DownloadOption = download.Option

// RequestOption is a functional option for [Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	body      any
	multipart *multipartFile
	headers   map[string][]string
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.body = body

		return nil
	}
}

// WithMultipart sends r as a single multipart/form-data file part.
// The reader is not closed.
func WithMultipart(field, filename string, r io.Reader) RequestOption {
	return func(opts *requestOpts) error {
		if field == "" {
			return errors.New("multipart field name must not be empty")
		}
		if r == nil {
			return fmt.Errorf("multipart %q: reader must not be nil", field)
		}

		opts.multipart = &multipartFile{field: field, filename: filename, r: r}

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	query url.Values
}

// WithQueryStrings appends query parameters to the URL. Repeated keys
// keep all their values.
func WithQueryStrings(query url.Values) URLOption {
	return func(opts *urlOpts) {
		if opts.query == nil {
			opts.query = make(url.Values)
		}
		for k, vs := range query {
			opts.query[k] = append(opts.query[k], vs...)
		}
	}
}
