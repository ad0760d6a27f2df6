package vjmap

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/vjmap/client"
	"github.com/adamwoolhether/vjmap/hasher"
	"github.com/adamwoolhether/vjmap/internal/validate"
)

// ErrMissingArgument is returned before any I/O when a required
// argument such as a map ID or version is empty.
var ErrMissingArgument = errors.New("missing argument")

type (
	// ServiceError is a non-200 answer. Its message is the raw response body.
	ServiceError = client.ServiceError

	// TransportError is a failure to get any answer from the service.
	TransportError = client.TransportError

	// IOError is a local file failure while hashing or uploading.
	IOError = hasher.IOError

	// FieldErrors lists the invalid fields of a query parameter or tile request.
	FieldErrors = validate.FieldErrors
)

var (
	ErrUnexpectedStatusCode = client.ErrUnexpectedStatusCode
	ErrAuthFailure          = client.ErrAuthFailure
	ErrTransport            = client.ErrTransport
	ErrIO                   = hasher.ErrIO
)

// required checks name/value pairs and reports the first empty value.
func required(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, kv[i])
		}
	}
	return nil
}
