package download

import (
	"crypto/md5"
	"errors"
	"hash"
)

// Option defines optional settings for saving a body to disk.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	skipExisting bool
}

// WithChecksum enables checksum validation of the saved file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithMD5 validates the saved file against an MD5 hex digest, the
// digest format the map service uses for uploads.
func WithMD5(expected string) Option {
	return WithChecksum(md5.New(), expected)
}

// WithProgress enables periodic progress logging via the logger
// supplied to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting causes Handle to return nil immediately when the
// destination file already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
