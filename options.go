package vjmap

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/vjmap/client"
)

// Option configures a [Client] created by [New].
type Option func(*options) error

type options struct {
	baseURL    string
	clientOpts []client.Option
	logger     *slog.Logger
}

// WithBaseURL points the client at a self-hosted service instead of
// [DefaultBaseURL]. Trailing slashes are removed.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		if baseURL == "" {
			return errors.New("base url must not be empty")
		}
		o.baseURL = baseURL
		return nil
	}
}

// WithClientOptions passes options through to the underlying transport,
// e.g. [client.WithTimeout], [client.WithThrottle] or [client.WithTracing].
// They are applied after the client's own settings.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) error {
		o.clientOpts = append(o.clientOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger used for request and transport logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}
