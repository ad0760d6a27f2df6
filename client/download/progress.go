package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progressWriter is an io.Writer, logging transfer progress at
// most once per second if enabled.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	path        string
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("saving")
	}

	if pw.total >= 0 && pw.transferred == pw.total {
		pw.log("save complete")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"path", pw.path,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
	}
	// Tiles are usually served chunked, without a known length.
	if pw.total > 0 {
		attrs = append(attrs,
			"total", pw.total,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
		)
	}
	pw.logger.Info(msg, attrs...)
}
