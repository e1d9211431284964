// Package logx wires up structured logging for the daemon and a couple of
// small helpers the original Python implementation leaned on heavily:
// swallow-and-log for operations that are allowed to fail (processes exit
// mid-probe all the time) and the freeze/unfreeze audit trail.
package logx

import (
	"log/slog"
	"os"
)

// New builds the process-wide slog.Logger. debug raises the level to Debug;
// otherwise only Info and above are emitted, matching the original's default
// of staying quiet unless --debug is passed.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// IgnoreFailure runs f and logs any error at debug level instead of
// propagating it. Grounded on the original's ignore_failure decorator,
// which wraps every best-effort /proc read and signal send in the hot
// loop: a process that disappeared between listing and probing is the
// common case, not an error worth surfacing above debug.
func IgnoreFailure(log *slog.Logger, op string, f func() error) {
	if err := f(); err != nil {
		log.Debug("ignored failure", "op", op, "err", err)
	}
}
