package throttle

import (
	"errors"
	"fmt"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config sets the sustained requests per second and the burst the
// limiter allows before callers start waiting.
type Config struct {
	RPS   int
	Burst int
}

// Validate reports whether both limits are usable.
func (c Config) Validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}

	return nil
}
