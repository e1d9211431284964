package thrash

import (
	"log/slog"
	"time"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// Selector picks a pid-chain to freeze. Scan returns nil when it found
// nothing suitable. Update lets stateful selectors refresh their caches
// between ticks without performing a full scan every time.
type Selector interface {
	Scan(cfg SelectorConfig, reg *Registry) PidChain
	Update(prev, cur *SystemState)
}

// LastFrozenProcessSelector re-offers the most recently unfrozen chain:
// cheapest possible check, and often the right answer since a process just
// resumed is a prime suspect if thrashing resumes within a tick.
type LastFrozenProcessSelector struct {
	lastUnfrozen PidChain
}

func (s *LastFrozenProcessSelector) Update(prev, cur *SystemState) {
	if len(cur.UnfrozenPid) > 0 {
		s.lastUnfrozen = cur.UnfrozenPid
	}
}

func (s *LastFrozenProcessSelector) Scan(cfg SelectorConfig, reg *Registry) PidChain {
	if len(s.lastUnfrozen) == 0 {
		return nil
	}
	anyAlive := false
	for _, pid := range s.lastUnfrozen {
		if probe.ProcessExists(pid) {
			anyAlive = true
			break
		}
	}
	if !anyAlive {
		s.lastUnfrozen = nil
		return nil
	}
	for _, pid := range s.lastUnfrozen {
		if reg.IsFrozenPid(pid) {
			return nil
		}
	}
	return s.lastUnfrozen
}

// OOMScoreProcessSelector picks the pid with the highest adjusted
// /proc/<pid>/oom_score. Stateless.
type OOMScoreProcessSelector struct{}

func (OOMScoreProcessSelector) Update(prev, cur *SystemState) {}

func (OOMScoreProcessSelector) Scan(cfg SelectorConfig, reg *Registry) PidChain {
	pids, err := probe.ListPIDs()
	if err != nil {
		return nil
	}

	best := 0.0
	var bestPid int
	found := false

	for _, pid := range pids {
		if isSelfOrParent(pid, cfg) {
			continue
		}
		score, err := probe.ReadOOMScore(pid)
		if err != nil || score <= 0 {
			continue
		}
		stat, err := probe.ReadPidStat(pid)
		if err != nil || isKernelThread(pid, stat) {
			continue
		}
		if isFrozen(pid, stat, reg) {
			continue
		}
		adj := applyScoreAdjustments(float64(score), stat.Cmd, cfg)
		if adj > best {
			best = adj
			bestPid = pid
			found = true
		}
	}
	if !found {
		return nil
	}
	return checkParents(bestPid, cfg)
}

// pressureCacheEntry is a single cgroup's cached PSI reading.
type pressureCacheEntry struct {
	at    time.Time
	avg10 float64
}

// CgroupPressureProcessSelector ranks candidates by the memory pressure of
// their cgroup times the pid's own oom_score, so a single expensive
// process in a quiet cgroup can still outrank a crowded-but-mild session.
type CgroupPressureProcessSelector struct {
	cache    map[string]pressureCacheEntry
	cacheTTL time.Duration
	now      func() time.Time
}

func NewCgroupPressureProcessSelector() *CgroupPressureProcessSelector {
	return &CgroupPressureProcessSelector{
		cache:    map[string]pressureCacheEntry{},
		cacheTTL: time.Second,
		now:      time.Now,
	}
}

func (s *CgroupPressureProcessSelector) Update(prev, cur *SystemState) {}

func (s *CgroupPressureProcessSelector) pressure(cgroupPath string) (float64, bool) {
	now := s.now()
	if e, ok := s.cache[cgroupPath]; ok && now.Sub(e.at) < s.cacheTTL {
		return e.avg10, true
	}
	psi, err := probe.ReadCgroupPressure(cgroupPath)
	if err != nil {
		return 0, false
	}
	s.cache[cgroupPath] = pressureCacheEntry{at: now, avg10: psi.Some.Avg10}
	return psi.Some.Avg10, true
}

func (s *CgroupPressureProcessSelector) Scan(cfg SelectorConfig, reg *Registry) PidChain {
	if !probe.PSIAvailable() {
		return nil
	}
	pids, err := probe.ListPIDs()
	if err != nil {
		return nil
	}

	best := 0.0
	var bestPid int
	found := false

	for _, pid := range pids {
		if isSelfOrParent(pid, cfg) {
			continue
		}
		stat, err := probe.ReadPidStat(pid)
		if err != nil || isKernelThread(pid, stat) {
			continue
		}
		if isFrozen(pid, stat, reg) {
			continue
		}
		if _, ok := cfg.Whitelist[stat.Cmd]; ok {
			continue
		}
		cgPath, err := probe.CgroupPath(pid)
		if err != nil || cgPath == "" {
			continue
		}
		avg10, ok := s.pressure(cgPath)
		if !ok {
			continue
		}
		oomScore, err := probe.ReadOOMScore(pid)
		if err != nil || oomScore < 1 {
			oomScore = 1
		}
		score := avg10 * float64(oomScore)
		score = applyScoreAdjustments(score, stat.Cmd, cfg)
		if score > best {
			best = score
			bestPid = pid
			found = true
		}
	}
	if !found || best <= 0 {
		return nil
	}
	return checkParents(bestPid, cfg)
}

// PageFaultingProcessSelector tracks each pid's last-seen major-fault
// count and scans for the largest delta once the system-wide major-fault
// rate crosses pgmajfault_scan_threshold between ticks.
type PageFaultingProcessSelector struct {
	lastMajFlt      map[int]uint64
	cooldownCounter int
}

func NewPageFaultingProcessSelector() *PageFaultingProcessSelector {
	return &PageFaultingProcessSelector{lastMajFlt: map[int]uint64{}}
}

func (s *PageFaultingProcessSelector) Update(prev, cur *SystemState) {
	s.cooldownCounter = cur.CooldownCounter
}

// ShouldRescan reports whether the major-fault delta between ticks
// warrants a fresh scan of per-pid fault counts.
func (s *PageFaultingProcessSelector) ShouldRescan(prev, cur *SystemState, threshold uint64) bool {
	return deltaU64(cur.PageFaultsMajor, prev.PageFaultsMajor) > threshold
}

// RefreshIfWarranted records every pid's current major-fault count when
// the system-wide rate crossed pgmajfault_scan_threshold since the
// previous tick. This must run after the cascade has already had its turn
// to call Scan for this tick: Scan's own bookkeeping zeroes every pid's
// diff against the count it just recorded, so refreshing first would
// defeat the selector on the exact high-fault ticks it exists for.
func (s *PageFaultingProcessSelector) RefreshIfWarranted(prev, cur *SystemState, cfg SelectorConfig, reg *Registry) {
	if !s.ShouldRescan(prev, cur, cfg.PgMajFaultScanThreshold) {
		return
	}
	s.Scan(cfg, reg)
}

func (s *PageFaultingProcessSelector) Scan(cfg SelectorConfig, reg *Registry) PidChain {
	pids, err := probe.ListPIDs()
	if err != nil {
		return nil
	}

	max := 0.0
	var bestPid int
	found := false

	for _, pid := range pids {
		if isSelfOrParent(pid, cfg) {
			continue
		}
		stat, err := probe.ReadPidStat(pid)
		if err != nil || isKernelThread(pid, stat) {
			continue
		}
		if stat.MajFlt == 0 || isFrozen(pid, stat, reg) {
			continue
		}
		prevFlt := s.lastMajFlt[pid]
		s.lastMajFlt[pid] = stat.MajFlt
		if stat.MajFlt <= prevFlt {
			continue
		}
		diff := float64(stat.MajFlt - prevFlt)
		diff = applyScoreAdjustments(diff, stat.Cmd, cfg)
		if diff > max {
			max = diff
			bestPid = pid
			found = true
		}
	}
	if !found {
		return nil
	}
	if max <= 4.0/float64(s.cooldownCounter+1) {
		return nil
	}
	return checkParents(bestPid, cfg)
}

// GlobalProcessSelector is the stateful round-robin cascade over the four
// selector implementations, in the fixed order LastFrozen, CgroupPressure,
// OOMScore, PageFault — cheap and targeted first, expensive and blunt
// last.
type GlobalProcessSelector struct {
	selectors []Selector
	index     int
	log       *slog.Logger
}

func NewGlobalProcessSelector(log *slog.Logger) *GlobalProcessSelector {
	return &GlobalProcessSelector{
		selectors: []Selector{
			&LastFrozenProcessSelector{},
			NewCgroupPressureProcessSelector(),
			OOMScoreProcessSelector{},
			NewPageFaultingProcessSelector(),
		},
		log: log,
	}
}

// PageFaultSelector exposes the page-faulting selector for tests.
func (g *GlobalProcessSelector) PageFaultSelector() *PageFaultingProcessSelector {
	return g.selectors[3].(*PageFaultingProcessSelector)
}

// Update advances every selector's internal state for the tick just
// finished. It runs after Scan: the page-fault selector's per-pid count
// refresh must see this tick's selection happen first, or a high-fault
// tick's own candidate is erased before the cascade reaches it.
func (g *GlobalProcessSelector) Update(cfg SelectorConfig, reg *Registry, prev, cur *SystemState) {
	if len(cur.UnfrozenPid) > 0 {
		g.index = 0
	}
	for _, s := range g.selectors {
		s.Update(prev, cur)
	}
	g.PageFaultSelector().RefreshIfWarranted(prev, cur, cfg, reg)
}

func (g *GlobalProcessSelector) Scan(cfg SelectorConfig, reg *Registry) PidChain {
	for i := 0; i < len(g.selectors); i++ {
		cur := g.selectors[g.index%len(g.selectors)]
		g.index++
		if chain := cur.Scan(cfg, reg); len(chain) > 0 {
			return chain
		}
	}
	g.log.Debug("scan found nothing to suspend")
	return nil
}
