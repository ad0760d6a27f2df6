package client

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/adamwoolhether/vjmap/hasher"
)

// multipartFile is a single-file multipart/form-data body.
type multipartFile struct {
	field    string
	filename string
	r        io.Reader
}

// stream returns a body that encodes the file as it is read, so large
// files are never buffered whole. The encoding goroutine only starts on
// the first Read; closing the body stops it.
func (m *multipartFile) stream() (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	body := &lazyBody{
		pr:    pr,
		start: func() { go m.write(mw, pw) },
	}

	return body, mw.FormDataContentType()
}

func (m *multipartFile) write(mw *multipart.Writer, pw *io.PipeWriter) {
	part, err := mw.CreateFormFile(m.field, m.filename)
	if err != nil {
		pw.CloseWithError(fmt.Errorf("creating form file: %w", err))
		return
	}

	if _, err := io.Copy(part, sourceReader{r: m.r, name: m.filename}); err != nil {
		pw.CloseWithError(err)
		return
	}

	pw.CloseWithError(mw.Close())
}

type lazyBody struct {
	pr    *io.PipeReader
	once  sync.Once
	start func()
}

func (b *lazyBody) Read(p []byte) (int, error) {
	b.once.Do(b.start)
	return b.pr.Read(p)
}

func (b *lazyBody) Close() error {
	return b.pr.Close()
}

// sourceReader reports read failures of the uploaded file as a
// [hasher.IOError], keeping them apart from network failures.
type sourceReader struct {
	r    io.Reader
	name string
}

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = &hasher.IOError{Op: "read", Path: s.name, Err: err}
	}
	return n, err
}
