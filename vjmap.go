// Package vjmap is a client for the vjmap CAD map hosting service.
//
// A [Client] holds an access token and a base endpoint and exposes one
// method per remote operation: uploading and opening maps, querying
// features, fetching tiles and thumbnails, and managing metadata, layers
// and styles. Every call blocks until the service answers.
//
//	c, err := vjmap.New(os.Getenv("VJMAP_TOKEN"))
//	if err != nil {
//		return err
//	}
//
//	res, err := c.OpenMap(ctx, "sys_zp")
//
// Non-200 answers are returned as a [*ServiceError] whose message is the
// service's own response text. Failures to reach the service are
// returned as a [*TransportError].
package vjmap

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/adamwoolhether/vjmap/client"
)

// DefaultBaseURL is the public vjmap service endpoint.
const DefaultBaseURL = "https://vjmap.com/server/api/v1"

// Result is the decoded JSON object of a successful call. Every
// operation of the service answers with an object; use [Client.DoJSON]
// for endpoints answering with another JSON shape.
type Result map[string]any

// Client talks to a vjmap service. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	token   string
	baseURL string
	base    *url.URL
	http    *client.Client
	logger  *slog.Logger
}

// New creates a Client authenticating with token. The token is sent as
// the Token header and as the token query parameter of every request.
func New(token string, optFns ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token", ErrMissingArgument)
	}

	opts := options{
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	base := strings.TrimRight(opts.baseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", base)
	}

	clientOpts := append([]client.Option{
		client.WithHeader("Token", token),
		client.WithLogger(opts.logger),
	}, opts.clientOpts...)

	hc, err := client.Build(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	return &Client{
		token:   token,
		baseURL: base,
		base:    u,
		http:    hc,
		logger:  hc.Logger(),
	}, nil
}

// BaseURL returns the endpoint requests are sent to, without a
// trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}
