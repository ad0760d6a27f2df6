package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/adamwoolhether/vjmap/client/download"
	"github.com/adamwoolhether/vjmap/client/instrument"
	"github.com/adamwoolhether/vjmap/client/throttle"
	"github.com/adamwoolhether/vjmap/hasher"
)

// Client wraps the std-lib *http.Client
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs.
type Client struct {
	c      *http.Client
	logger *slog.Logger
}

// Build creates a [Client] from the given options. The transport chain,
// innermost first, is: base transport, persistent headers, throttle,
// metrics, tracing.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger: slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	} else {
		client.c = &http.Client{}
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if len(opts.headers) > 0 {
		transport = persistentHeaders{values: opts.headers, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	if opts.metrics != nil {
		rt, err := instrument.Metrics(opts.metrics, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring metrics: %w", err)
		}
		transport = rt
	}
	if opts.tracing {
		transport = instrument.Tracing(opts.tracerProvider, transport)
	}
	client.c.Transport = transport

	return client, nil
}

// Do will fire the request, and write response to the given dest object if any.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return err
		}
	}

	doFunc := func(resp *http.Response) error {
		if settings.responseBody != nil {
			d := json.NewDecoder(resp.Body)

			if settings.useJSONNum {
				d.UseNumber()
			}

			if err := d.Decode(settings.responseBody); err != nil {
				return fmt.Errorf("decoding body: %w", err)
			}
		}

		return nil
	}

	return c.exec(req, expCode, doFunc)
}

// DoRaw fires the request and hands the open response to the caller,
// who must close its body. Unexpected status codes are returned as a
// [ServiceError] and the response is released before returning.
func (c *Client) DoRaw(req *http.Request, expCode int) (*http.Response, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != expCode {
		defer c.release(resp)
		return nil, c.statusErr(resp)
	}

	return resp, nil
}

// Download executes a request that's intended to stream the response body it to destPath.
// Data streams to a temp file in the same directory, then the temp file is renamed to
// destPath on success or cleared on failure
func (c *Client) Download(req *http.Request, expCode int, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	dlFunc := func(resp *http.Response) error {
		if err := download.Handle(req.Context(), resp.Body, resp.ContentLength, destPath, c.logger, opts...); err != nil {
			return fmt.Errorf("download: %w", err)
		}

		return nil
	}

	return c.exec(req, expCode, dlFunc)
}

// Request instantiates an *http.Request with the provided information.
// It's just a convenience method that wraps the public Request func.
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return Request(ctx, reqURL, method, opts...)
}

// URL creates a url.URL for use in Request.
// It's just a convenience method that wraps the public URL func.
func (c *Client) URL(scheme, host, path string, opts ...URLOption) *url.URL {
	return URL(scheme, host, path, opts...)
}

// Logger returns the logger the client was built with.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// exec runs the request and injected function on success after validating the expected status code.
func (c *Client) exec(req *http.Request, expCode int, fn execFn) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer c.release(resp)

	if resp.StatusCode != expCode {
		return c.statusErr(resp)
	}

	if err := fn(resp); err != nil {
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

// send performs the round trip, reporting failures as a TransportError.
// The inner *url.Error is unwrapped since its message repeats the full
// request URL, query included. A failure reading a local upload source
// is returned as its [hasher.IOError] instead.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		var ioErr *hasher.IOError
		if errors.As(err, &ioErr) {
			return nil, ioErr
		}

		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}

		return nil, &TransportError{
			Method: req.Method,
			URL:    stripQuery(req.URL),
			Err:    err,
		}
	}

	return resp, nil
}

// release drains and closes the body so the connection can be reused.
func (c *Client) release(resp *http.Response) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		c.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

func (c *Client) statusErr(resp *http.Response) error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	return newServiceError(resp.StatusCode, string(b))
}

// Request instantiates an *http.Request with the provided information.
// Content-Type is `application/json`, or the multipart form type when
// WithMultipart is given.
// A multipart body set via WithMultipart is streamed, and its reader is
// consumed when the request is sent.
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return nil, err
		}
	}

	if settings.body != nil && settings.multipart != nil {
		return nil, ErrConflictingBody
	}

	var body io.Reader
	var contentType string

	switch {
	case settings.multipart != nil:
		body, contentType = settings.multipart.stream()
	default:
		var payload bytes.Buffer
		if settings.body != nil {
			if err := json.NewEncoder(&payload).Encode(settings.body); err != nil {
				return nil, fmt.Errorf("encoding request payload: %w", err)
			}
		}
		body = &payload
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			rc.Close()
		}
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}

// URL creates a url.URL for use in Request. host may carry a port.
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if len(settings.query) > 0 {
		endpoint.RawQuery = settings.query.Encode()
	}

	return &endpoint
}

func stripQuery(u *url.URL) string {
	if u == nil {
		return ""
	}

	cpy := *u
	cpy.RawQuery = ""
	cpy.Fragment = ""
	cpy.User = nil
	return cpy.String()
}
