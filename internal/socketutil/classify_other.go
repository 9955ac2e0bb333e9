//go:build !linux && !darwin

package socketutil

import (
	"errors"
	"syscall"
)

// isTransientErrno is a conservative fallback for platforms without the
// full errno set (notably Windows, where connection resets surface as
// WSA error codes wrapped in syscall.Errno all the same).
func isTransientErrno(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno.Timeout() || errno.Temporary()
}
