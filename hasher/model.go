package hasher

import (
	"errors"
	"fmt"
)

// ErrIO is the sentinel wrapped by every [IOError].
var ErrIO = errors.New("local i/o failure")

// IOError reports a failure to open or read a local source while
// hashing or uploading it. Path is empty when the source was a stream.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s: %v", ErrIO, e.Op, e.Err)
	}

	return fmt.Sprintf("%v: %s %s: %v", ErrIO, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}
