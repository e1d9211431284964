//go:build linux

package probe

import (
	"errors"
	"os"
	"syscall"
)

// ErrProcessGone is returned in place of the underlying os/syscall error
// whenever a /proc/<pid>/* read or a kill(2) fails because the process (or
// its cgroup) has already exited. Callers treat this as a non-event, never
// as a fatal condition.
var ErrProcessGone = errors.New("probe: process gone")

// ErrMalformed indicates a /proc file existed but its content could not be
// parsed. Per spec this is handled identically to ErrProcessGone.
var ErrMalformed = errors.New("probe: malformed proc entry")

// ClassifyProcErr normalizes an os or syscall error from a /proc/<pid>/*
// operation: ENOENT and ESRCH both become ErrProcessGone, anything else is
// returned unchanged.
func ClassifyProcErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ESRCH) || errors.Is(err, syscall.ENOENT) {
		return ErrProcessGone
	}
	return err
}

// IsProcessGone reports whether err (possibly wrapped) signals that the
// subject process is no longer present.
func IsProcessGone(err error) bool {
	return errors.Is(err, ErrProcessGone) || errors.Is(err, ErrMalformed)
}
