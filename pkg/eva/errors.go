package eva

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration reports a missing or invalid mandatory setting,
	// detected when Calculate is invoked.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidOperation reports a contract violation such as selecting
	// from an empty population.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrDeadlineExceeded is matched by every *DeadlineExceededError.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// DeadlineExceededError is returned by Timed when the wrapped algorithm did
// not finish within the configured deadline.
type DeadlineExceededError struct {
	Algorithm string
	Deadline  time.Duration
}

func (e *DeadlineExceededError) Error() string {
	return fmt.Sprintf("%s: algorithm %s did not finish within %s", ErrDeadlineExceeded, e.Algorithm, e.Deadline)
}

// Is lets errors.Is match both ErrDeadlineExceeded and context.DeadlineExceeded.
func (e *DeadlineExceededError) Is(target error) bool {
	return target == ErrDeadlineExceeded || target == context.DeadlineExceeded
}
