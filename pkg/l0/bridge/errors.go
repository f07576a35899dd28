package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates the coprocessor didn't reply in time.
	ErrTimeout = errors.New("bridge timeout")
	// ErrUnexpectedReply indicates the reply doesn't match the request.
	ErrUnexpectedReply = errors.New("unexpected reply")
	// ErrMalformed indicates a request or reply which can't be decoded.
	ErrMalformed = errors.New("malformed packet")
	// ErrUnknownChannel indicates the channel is not served.
	ErrUnknownChannel = errors.New("unknown channel")
)

// RemoteError is reported by the coprocessor.
type RemoteError struct {
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Message)
}
