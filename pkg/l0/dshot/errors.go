package dshot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommand indicates a command which can't be encoded.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownRate indicates an unsupported DShot rate.
	ErrUnknownRate = errors.New("unknown rate")
)

// InvalidCommandError reports the command and the violated range.
type InvalidCommandError struct {
	Command Command
	Reason  string
}

// Error implements error.
func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %v: %s", e.Command, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidCommand).
func (e *InvalidCommandError) Unwrap() error {
	return ErrInvalidCommand
}
