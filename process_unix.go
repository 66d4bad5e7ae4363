//go:build linux || darwin

package portwatch

import (
	"syscall"

	"github.com/pkg/errors"
)

// Polite termination. SIGTERM lets the service shut down cleanly; an
// operator who needs SIGKILL can escalate outside the tool.
func killProcess(pid int) error {
	if pid <= 0 {
		return ErrProcessNotFound
	}

	err := syscall.Kill(pid, syscall.SIGTERM)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ESRCH):
		return ErrProcessNotFound
	case errors.Is(err, syscall.EPERM):
		return ErrPermissionDenied
	default:
		return errors.Wrapf(err, "failed to signal pid %d", pid)
	}
}
