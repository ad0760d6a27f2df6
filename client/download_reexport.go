package client

import (
	"hash"

	"github.com/adamwoolhether/vjmap/client/download"
)

// ————————————————————————————————————————————————————————————————————
// Type aliases – re-export user-facing types from [download].
// ————————————————————————————————————————————————————————————————————

type (
	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error

	// DownloadQueue runs saves with bounded concurrency.
	DownloadQueue = download.Queue

	// DownloadResult represents an in-flight or completed queued save.
	DownloadResult = download.Result
)

// ————————————————————————————————————————————————————————————————————
// Sentinel errors
// ————————————————————————————————————————————————————————————————————

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch

	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled

	// ErrQueueShutdown indicates the download queue was shut down.
	ErrQueueShutdown = download.ErrQueueShutdown
)

// ————————————————————————————————————————————————————————————————————
// Download option forwarding functions
// ————————————————————————————————————————————————————————————————————

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithMD5 validates the downloaded file against an MD5 hex digest.
func WithMD5(expected string) DownloadOption { return download.WithMD5(expected) }

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting causes a download to return nil immediately when
// the destination file already exists.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }
