package vjmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/adamwoolhether/vjmap/client"
	"github.com/google/uuid"
)

const (
	tokenParam      = "token"
	requestIDHeader = "X-Request-Id"
)

// CallOption customizes a single request made through [Client.Do] or
// [Client.DoRaw], or through any operation method.
type CallOption func(*callOpts) error

type callOpts struct {
	query     url.Values
	body      any
	file      *fileUpload
	useNumber bool
}

type fileUpload struct {
	field    string
	filename string
	r        io.Reader
}

// WithQuery adds a query parameter. A token parameter set this way
// takes precedence over the client's own token.
func WithQuery(key, value string) CallOption {
	return func(o *callOpts) error {
		if key == "" {
			return errors.New("query key must not be empty")
		}
		if o.query == nil {
			o.query = make(url.Values)
		}
		o.query.Add(key, value)
		return nil
	}
}

// WithJSON sends body JSON-encoded. It cannot be combined with [WithFile].
func WithJSON(body any) CallOption {
	return func(o *callOpts) error {
		o.body = body
		return nil
	}
}

// WithFile sends r as a multipart/form-data file part. The reader is
// consumed but not closed. It cannot be combined with [WithJSON].
func WithFile(field, filename string, r io.Reader) CallOption {
	return func(o *callOpts) error {
		o.file = &fileUpload{field: field, filename: filename, r: r}
		return nil
	}
}

// WithJSONNumber decodes numbers in the Result as [encoding/json.Number]
// rather than float64, keeping large IDs exact.
func WithJSONNumber() CallOption {
	return func(o *callOpts) error {
		o.useNumber = true
		return nil
	}
}

// Do sends a request to path, relative to the base URL, and decodes the
// JSON object it answers with. Any status other than 200 is returned as
// a [*ServiceError] without attempting to decode the body.
func (c *Client) Do(ctx context.Context, method, path string, opts ...CallOption) (Result, error) {
	var res Result
	if err := c.DoJSON(ctx, method, path, &res, opts...); err != nil {
		return nil, err
	}

	return res, nil
}

// DoJSON sends a request like [Client.Do] and decodes the answer into
// dest, which must be a non-nil pointer. It accepts answers of any JSON
// shape, such as arrays or scalars.
func (c *Client) DoJSON(ctx context.Context, method, path string, dest any, opts ...CallOption) error {
	if rv := reflect.ValueOf(dest); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decoding destination must be a non-nil pointer, got %T", dest)
	}

	req, settings, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return err
	}

	doOpts := []client.DoOption{client.WithDestination(&dest)}
	if settings.useNumber {
		doOpts = append(doOpts, client.WithJSONNumb())
	}

	start := time.Now()
	err = c.http.Do(req, http.StatusOK, doOpts...)
	c.logRequest(req, start, err)

	return err
}

// DoRaw sends a request like [Client.Do] but returns the open response
// for binary content such as tiles and thumbnails. The caller must close
// the body.
func (c *Client) DoRaw(ctx context.Context, method, path string, opts ...CallOption) (*http.Response, error) {
	req, _, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.DoRaw(req, http.StatusOK)
	c.logRequest(req, start, err)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// save streams the answer of a GET request to destPath.
func (c *Client) save(ctx context.Context, path string, destPath string, callOpts []CallOption, dlOpts []client.DownloadOption) error {
	req, _, err := c.newRequest(ctx, http.MethodGet, path, callOpts)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.http.Download(req, http.StatusOK, destPath, dlOpts...)
	c.logRequest(req, start, err)

	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, opts []CallOption) (*http.Request, callOpts, error) {
	var settings callOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, settings, fmt.Errorf("applying call option: %w", err)
		}
	}

	target := c.target(path, settings.query)

	reqOpts := []client.RequestOption{
		client.WithHeaders(map[string][]string{requestIDHeader: {uuid.NewString()}}),
	}
	if settings.body != nil {
		reqOpts = append(reqOpts, client.WithPayload(settings.body))
	}
	if settings.file != nil {
		reqOpts = append(reqOpts, client.WithMultipart(settings.file.field, settings.file.filename, settings.file.r))
	}

	req, err := c.http.Request(ctx, target, method, reqOpts...)
	if err != nil {
		return nil, settings, err
	}

	return req, settings, nil
}

// target joins path onto the base URL with exactly one slash and adds
// the token query parameter unless the caller already set one.
func (c *Client) target(path string, query url.Values) *url.URL {
	joined := c.base.Path + "/" + strings.TrimLeft(path, "/")

	opts := []client.URLOption{
		client.WithQueryStrings(c.base.Query()),
		client.WithQueryStrings(query),
	}
	if query.Has(tokenParam) || c.base.Query().Has(tokenParam) {
		c.logger.Debug("caller token query parameter shadows client token", "path", joined)
	} else {
		opts = append(opts, client.WithQueryStrings(url.Values{tokenParam: {c.token}}))
	}

	return c.http.URL(c.base.Scheme, c.base.Host, joined, opts...)
}

func (c *Client) logRequest(req *http.Request, start time.Time, err error) {
	status := http.StatusOK

	var svcErr *ServiceError
	switch {
	case errors.As(err, &svcErr):
		status = svcErr.StatusCode
	case errors.Is(err, ErrTransport):
		status = 0
	}

	c.logger.DebugContext(req.Context(), "vjmap request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"request_id", req.Header.Get(requestIDHeader),
	)
}
