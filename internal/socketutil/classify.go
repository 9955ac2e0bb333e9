// Package socketutil classifies socket-level failures for the bridge's
// retry logic. A transient fault is one expected to be recoverable by
// reconnecting with backoff; everything else is fatal and surfaces
// immediately.
package socketutil

import (
	"errors"
	"io"
	"net"
	"os"
)

// IsTransient reports whether err is a recoverable network fault: a
// timeout, a reset or refused connection, a broken pipe, or an aborted
// connection. OS-specific errno checks live in the platform files.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	// Peer vanished mid-exchange. EOF during an active exchange behaves
	// like a reset for retry purposes.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return isTransientErrno(err)
}

// IsClosed reports whether err indicates a socket or listener that was
// closed locally, typically during shutdown.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// IsTimeout reports whether err is a read/write deadline expiry.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
