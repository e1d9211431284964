package thrash

import (
	"log/slog"
	"strings"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// DebugCheckState logs a warning when pid's observed stopped/running state
// doesn't match what the freezer just believed it set, which would
// indicate a race with something else signalling the process (another
// tool, the OOM killer, a manual `kill -CONT`). Only run when
// debug_checkstate is enabled — it's an extra /proc read per signal.
func DebugCheckState(log *slog.Logger, pid int, shouldBeSuspended bool) {
	stat, err := probe.ReadPidStat(pid)
	if err != nil {
		if shouldBeSuspended {
			log.Warn("pid should be suspended but is gone", "pid", pid)
		}
		return
	}
	isSuspended := strings.Contains(stat.State, "T")
	if isSuspended != shouldBeSuspended {
		log.Warn("process state mismatch", "pid", pid, "state", stat.State, "should_be_suspended", shouldBeSuspended)
	}
}
