package thrash

import (
	"errors"
	"log/slog"
	"strings"
	"syscall"
	"time"

	"github.com/tobixen/thrash-protect-go/internal/logx"
	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// Freezer mutates the Registry by freezing and unfreezing pid chains. It
// holds the only writer reference to the registry; selectors only read it.
type Freezer struct {
	reg   *Registry
	audit *logx.Audit
	log   *slog.Logger

	// MaxAcceptableTimeDelta sized inter-signal sleep, read fresh on every
	// call since the detector auto-tunes it.
	MaxAcceptableTimeDelta func() float64
	UnfreezePopRatio       int
	DebugCheckstate        bool
}

func NewFreezer(reg *Registry, audit *logx.Audit, log *slog.Logger, maxDelta func() float64, unfreezePopRatio int) *Freezer {
	return &Freezer{reg: reg, audit: audit, log: log, MaxAcceptableTimeDelta: maxDelta, UnfreezePopRatio: unfreezePopRatio}
}

func (f *Freezer) debugCheck(pid int, shouldBeSuspended bool) {
	if f.DebugCheckstate {
		DebugCheckState(f.log, pid, shouldBeSuspended)
	}
}

// shouldUseCgroupFreeze returns the cgroup path for pid when it's eligible
// for the v2 freezer: a scope (process-specific, safe to freeze) under a
// user service rather than a whole graphical session.
func shouldUseCgroupFreeze(pid int) string {
	path, err := probe.CgroupPath(pid)
	if err != nil || path == "" {
		return ""
	}
	if !probe.CgroupFreezable(path) {
		return ""
	}
	if !strings.HasSuffix(path, ".scope") {
		return ""
	}
	if !strings.Contains(path, "/user@") {
		return ""
	}
	return path
}

// Freeze suspends chain, preferring a cgroup-v2 freeze when any pid in the
// chain lives in an eligible scope, else falling back to per-pid SIGSTOP.
// selfPid guards against ever suspending the daemon itself.
func (f *Freezer) Freeze(chain PidChain, selfPid int) {
	if len(chain) == 0 {
		return
	}
	if chain.Contains(selfPid) {
		f.log.Error("own pid is next on the list of processes to freeze, refusing")
		return
	}

	var cgroupPath string
	for _, pid := range chain {
		if p := shouldUseCgroupFreeze(pid); p != "" {
			cgroupPath = p
			break
		}
	}

	if cgroupPath != "" {
		if f.reg.HasCgroup(cgroupPath) {
			f.logFrozenChain(chain)
			return
		}
		err := probe.WriteCgroupFreeze(cgroupPath, true)
		if err == nil {
			f.reg.append(FrozenItem{Kind: FrozenCgroup, CgroupPath: cgroupPath, Pids: chain})
			f.logFrozenChain(chain)
			return
		}
		if errors.Is(err, syscall.EBUSY) {
			// The cgroup is mid-transition: count it as already frozen for
			// this tick instead of also sending SIGSTOP.
			f.log.Debug("cgroup freeze busy, treating as already frozen", "path", cgroupPath)
			return
		}
		f.log.Warn("cgroup freeze failed, falling back to sigstop", "path", cgroupPath)
	}

	for i, pid := range chain {
		f.debugCheck(pid, false)
		if err := syscall.Kill(pid, syscall.SIGSTOP); err != nil {
			continue
		}
		if len(chain) > 1 && i < len(chain)-1 {
			time.Sleep(time.Duration(f.MaxAcceptableTimeDelta() / 3 * float64(time.Second)))
		}
	}
	if !f.reg.HasSigstopChain(chain) {
		f.reg.append(FrozenItem{Kind: FrozenSigstop, Pids: chain})
	}
	f.logFrozenChain(chain)
}

func (f *Freezer) logFrozenChain(chain PidChain) {
	allFrozen := f.chainsSnapshot()
	for _, pid := range chain {
		f.log.Debug("froze pid", "pid", pid)
		logx.IgnoreFailure(f.log, "log_frozen", func() error {
			return f.audit.LogFrozen(pid, allFrozen)
		})
	}
}

func (f *Freezer) chainsSnapshot() [][]int {
	var out [][]int
	for _, it := range f.reg.items {
		out = append(out, it.AllPids())
	}
	return out
}

// Unfreeze releases one entry from the registry, queue discipline every
// UnfreezePopRatio-th call and stack discipline otherwise, and returns the
// pids it released. Returns nil if nothing is frozen.
func (f *Freezer) Unfreeze() PidChain {
	if f.reg.Empty() {
		return nil
	}

	var item FrozenItem
	var ok bool
	if f.UnfreezePopRatio > 0 && f.reg.numUnfreezes%f.UnfreezePopRatio == 0 {
		item, ok = f.reg.popFront()
	} else {
		item, ok = f.reg.popBack()
	}
	if !ok {
		return nil
	}

	switch item.Kind {
	case FrozenCgroup:
		if err := probe.WriteCgroupFreeze(item.CgroupPath, false); err != nil {
			f.log.Warn("cgroup unfreeze failed", "path", item.CgroupPath, "err", err)
		}
	case FrozenSigstop:
		for i := len(item.Pids) - 1; i >= 0; i-- {
			f.debugCheck(item.Pids[i], true)
			if err := syscall.Kill(item.Pids[i], syscall.SIGCONT); err != nil {
				continue
			}
			if len(item.Pids) > 1 && i > 0 {
				time.Sleep(time.Duration(f.MaxAcceptableTimeDelta() * float64(time.Second)))
			}
		}
	}

	allFrozen := f.chainsSnapshot()
	for _, pid := range item.Pids {
		logx.IgnoreFailure(f.log, "log_unfrozen", func() error {
			return f.audit.LogUnfrozen(pid, allFrozen)
		})
	}

	f.reg.numUnfreezes++
	return item.Pids
}

// Cleanup unfreezes every remaining item (used on shutdown) and removes
// the persisted frozen-pid-list file.
func (f *Freezer) Cleanup() {
	for _, item := range f.reg.removeAll() {
		switch item.Kind {
		case FrozenCgroup:
			logx.IgnoreFailure(f.log, "cleanup_unfreeze_cgroup", func() error {
				return probe.WriteCgroupFreeze(item.CgroupPath, false)
			})
		case FrozenSigstop:
			for i := len(item.Pids) - 1; i >= 0; i-- {
				pid := item.Pids[i]
				logx.IgnoreFailure(f.log, "cleanup_unfreeze_pid", func() error {
					return syscall.Kill(pid, syscall.SIGCONT)
				})
			}
		}
	}
	logx.IgnoreFailure(f.log, "cleanup_remove_pidfile", f.audit.RemovePidFile)
}

// RecoverFromPreviousRun SIGCONTs every pid named in a stale frozen-pid
// file left by a previous, presumably crashed, run — systemd may have
// restarted us instantly, and stale stopped processes would otherwise
// hang indefinitely.
func RecoverFromPreviousRun(audit *logx.Audit, log *slog.Logger) {
	pids, err := audit.ReadStalePidFile()
	if err != nil || len(pids) == 0 {
		return
	}
	log.Info("cleaning up - unfreezing pids from last run", "count", len(pids))
	for _, pid := range pids {
		_ = syscall.Kill(pid, syscall.SIGCONT)
	}
}
