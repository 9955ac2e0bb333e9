//go:build linux || darwin

package socketutil

import (
	"errors"
	"syscall"
)

// isTransientErrno checks the errno set of recoverable socket faults on
// Unix-like systems.
func isTransientErrno(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	switch errno {
	case syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.ETIMEDOUT,
		syscall.EPIPE:
		return true
	}
	return false
}
