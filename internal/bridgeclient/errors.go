package bridgeclient

import (
	"errors"
	"fmt"
)

// ErrClosedBeforeData is returned when the host closes the socket having
// sent zero response bytes. It is retried at the command level.
var ErrClosedBeforeData = errors.New("connection closed before receiving any data")

// ErrIncompleteResponse is returned when bytes were received but the frame
// never completed before a timeout or close. The socket may still be
// usable, but the retry path disconnects first to guarantee a clean
// protocol state.
var ErrIncompleteResponse = errors.New("incomplete response from host")

// ErrNotConnected is returned when a command is attempted and the
// connection could not be established.
var ErrNotConnected = errors.New("not connected to host")

// CommandError is a domain-level failure: the host executed the command
// and reported status "error". It is never a transport retry condition.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// ProtocolError is a fatal transport failure: the host sent a complete
// frame that is not a valid response document. Not retried.
type ProtocolError struct {
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid response from host: %v", e.Cause)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError aggregates a failed command exchange: the attempt
// budget and the last underlying cause.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("host did not respond after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
