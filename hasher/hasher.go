// Package hasher computes the MD5 content digest the map service uses to
// detect files that were already uploaded.
//
// Sources are consumed in fixed [ChunkSize] reads so that arbitrarily
// large drawings never have to fit in memory:
//
//	sum, err := hasher.File("/data/site-plan.dwg")
//	if err != nil { ... }
//	// sum is the lowercase hex MD5, e.g. "d41d8cd98f00b204e9800998ecf8427e"
package hasher

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// ChunkSize is the number of bytes fed into the digest per read.
const ChunkSize = 2 << 20 // 2MiB

// File opens the file at path and returns its MD5 digest.
// The file is always closed before File returns.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	sum, err := digest(f)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}

	return sum, nil
}

// Reader returns the MD5 digest of everything remaining in r.
// r is read until EOF and is not closed.
func Reader(r io.Reader) (string, error) {
	sum, err := digest(r)
	if err != nil {
		return "", &IOError{Op: "read", Err: err}
	}

	return sum, nil
}

func digest(r io.Reader) (string, error) {
	h := md5.New()
	buf := make([]byte, ChunkSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			h.Write(buf[:n])
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return hex.EncodeToString(h.Sum(nil)), nil
		default:
			return "", err
		}
	}
}
