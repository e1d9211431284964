// Package thrash implements the thrash-detection and suspension control
// loop: the sampler, the detector, the OOM predictor, the process/cgroup
// selector cascade and the frozen registry with its freezer.
package thrash

import "github.com/tobixen/thrash-protect-go/internal/probe"

// PidChain is an ordered sequence of pids, parent-first, that must be
// frozen or unfrozen together. A selector returning a single pid yields a
// chain of length one; check_parents may prepend job-control ancestors.
type PidChain []int

// Contains reports whether pid appears anywhere in the chain.
func (c PidChain) Contains(pid int) bool {
	for _, p := range c {
		if p == pid {
			return true
		}
	}
	return false
}

func equalChains(a, b PidChain) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FrozenKind tags a FrozenItem's suspension mechanism.
type FrozenKind int

const (
	FrozenSigstop FrozenKind = iota
	FrozenCgroup
)

// FrozenItem is one entry in the registry: either a pid chain suspended by
// SIGSTOP, or a cgroup path frozen via the v2 freezer together with the
// pids it covers at the time of freezing (used only for logging — the
// cgroup freeze itself covers every task in the group, not just these).
type FrozenItem struct {
	Kind       FrozenKind
	CgroupPath string // set only when Kind == FrozenCgroup; unique key
	Pids       PidChain
}

// AllPids returns every pid this item represents, for the audit log and
// the frozen-pid-list state file.
func (f FrozenItem) AllPids() []int {
	return append([]int(nil), f.Pids...)
}

// ProcStat re-exports probe.ProcStat so callers in this package don't need
// to import probe merely to name the type in signatures.
type ProcStat = probe.ProcStat
