package thrash

import (
	"strings"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// SelectorConfig is the subset of resolved configuration every selector
// consults. Built once at startup (in NewLoop) from the immutable
// config.Config.
type SelectorConfig struct {
	Whitelist                map[string]struct{}
	Blacklist                map[string]struct{}
	JobCtrlList              map[string]struct{}
	WhitelistScoreDivider    float64
	BlacklistScoreMultiplier float64
	PgMajFaultScanThreshold  uint64
	SelfPid                  int
	SelfParentPid            int
}

func newNameSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// isKernelThread reports whether pid is pid 2 (kthreadd) or a direct
// child of it; kernel threads are never selection candidates.
func isKernelThread(pid int, stat probe.ProcStat) bool {
	return pid == 2 || stat.PPID == 2
}

// isFrozen reports whether pid is already suspended: either observed in
// stopped state ("T" in /proc/<pid>/stat's state field) or living in a
// cgroup the registry already has frozen.
func isFrozen(pid int, stat probe.ProcStat, reg *Registry) bool {
	if strings.Contains(stat.State, "T") {
		return true
	}
	if reg.IsFrozenPid(pid) {
		return true
	}
	cgPath, err := probe.CgroupPath(pid)
	if err == nil && cgPath != "" && reg.HasCgroup(cgPath) {
		return true
	}
	return false
}

// applyScoreAdjustments divides by the whitelist divider or multiplies by
// the blacklist multiplier, in that mutually-exclusive priority (a name
// should never appear in both lists, but whitelist wins if it does).
func applyScoreAdjustments(score float64, cmd string, cfg SelectorConfig) float64 {
	if _, ok := cfg.Whitelist[cmd]; ok {
		return score / cfg.WhitelistScoreDivider
	}
	if _, ok := cfg.Blacklist[cmd]; ok {
		return score * cfg.BlacklistScoreMultiplier
	}
	return score
}

// checkParents walks up the parent chain as long as each parent's command
// (leading '-' stripped) is a job-control program (a shell, or sudo),
// prepending ancestors so the whole chain is suspended/resumed together.
// Halts at ppid <= 1. Returns a chain ordered parent-first.
func checkParents(pid int, cfg SelectorConfig) PidChain {
	chain := PidChain{pid}
	cur := pid
	for {
		stat, err := probe.ReadPidStat(cur)
		if err != nil {
			return chain
		}
		ppid := stat.PPID
		if ppid <= 1 {
			return chain
		}
		pstat, err := probe.ReadPidStat(ppid)
		if err != nil {
			return chain
		}
		cmd := probe.JobControlName(pstat.Cmd)
		if _, ok := cfg.JobCtrlList[cmd]; !ok {
			return chain
		}
		chain = append(PidChain{ppid}, chain...)
		cur = ppid
	}
}

// isSelfOrParent reports whether pid is the daemon's own pid or its
// parent's pid — both must never be selected.
func isSelfOrParent(pid int, cfg SelectorConfig) bool {
	return pid == cfg.SelfPid || pid == cfg.SelfParentPid
}
