package thrash

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastFrozenProcessSelector_NothingToOffer(t *testing.T) {
	s := &LastFrozenProcessSelector{}
	reg := NewRegistry()
	assert.Nil(t, s.Scan(SelectorConfig{}, reg))
}

func TestLastFrozenProcessSelector_OffersAfterUnfreeze(t *testing.T) {
	s := &LastFrozenProcessSelector{}
	reg := NewRegistry()
	s.Update(&SystemState{}, &SystemState{UnfrozenPid: PidChain{os.Getpid()}})

	chain := s.Scan(SelectorConfig{}, reg)
	assert.Equal(t, PidChain{os.Getpid()}, chain)
}

func TestLastFrozenProcessSelector_SkipsIfAlreadyFrozen(t *testing.T) {
	s := &LastFrozenProcessSelector{}
	reg := NewRegistry()
	reg.append(FrozenItem{Kind: FrozenSigstop, Pids: PidChain{os.Getpid()}})
	s.Update(&SystemState{}, &SystemState{UnfrozenPid: PidChain{os.Getpid()}})

	assert.Nil(t, s.Scan(SelectorConfig{}, reg))
}

func TestLastFrozenProcessSelector_ForgetsDeadChain(t *testing.T) {
	s := &LastFrozenProcessSelector{}
	reg := NewRegistry()
	s.Update(&SystemState{}, &SystemState{UnfrozenPid: PidChain{999999}})

	assert.Nil(t, s.Scan(SelectorConfig{}, reg))
	assert.Nil(t, s.Scan(SelectorConfig{}, reg), "a dead chain must be forgotten, not re-offered")
}

func TestPageFaultingProcessSelector_ShouldRescan(t *testing.T) {
	s := NewPageFaultingProcessSelector()
	prev := &SystemState{PageFaultsMajor: 100}
	below := &SystemState{PageFaultsMajor: 110}
	above := &SystemState{PageFaultsMajor: 200}

	assert.False(t, s.ShouldRescan(prev, below, 50))
	assert.True(t, s.ShouldRescan(prev, above, 50))
}

func TestPageFaultingProcessSelector_RefreshIfWarranted_NoOpBelowThreshold(t *testing.T) {
	s := NewPageFaultingProcessSelector()
	cfg := SelectorConfig{SelfPid: os.Getpid(), PgMajFaultScanThreshold: 50}
	reg := NewRegistry()
	prev := &SystemState{PageFaultsMajor: 100}
	below := &SystemState{PageFaultsMajor: 110}

	s.RefreshIfWarranted(prev, below, cfg, reg)
	assert.Empty(t, s.lastMajFlt, "a tick below the threshold must not touch the per-pid baseline")
}

func TestPageFaultingProcessSelector_RefreshIfWarranted_ScansAboveThreshold(t *testing.T) {
	s := NewPageFaultingProcessSelector()
	cfg := SelectorConfig{SelfPid: os.Getpid()}
	reg := NewRegistry()
	prev := &SystemState{PageFaultsMajor: 100}
	above := &SystemState{PageFaultsMajor: 200}

	s.RefreshIfWarranted(prev, above, cfg, reg)
	assert.NotEmpty(t, s.lastMajFlt, "a tick above the threshold must record a fresh per-pid baseline")
}

func TestGlobalProcessSelector_UpdateRefreshesPageFaultBaselineAfterCascade(t *testing.T) {
	g := NewGlobalProcessSelector(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	cfg := SelectorConfig{SelfPid: os.Getpid(), SelfParentPid: os.Getppid()}
	reg := NewRegistry()
	prev := &SystemState{PageFaultsMajor: 100}
	above := &SystemState{PageFaultsMajor: 200}

	pf := g.PageFaultSelector()
	require.Empty(t, pf.lastMajFlt)

	_ = g.Scan(cfg, reg)
	g.Update(cfg, reg, prev, above)

	assert.NotEmpty(t, pf.lastMajFlt, "Update must populate the per-pid baseline once the cascade has run")
}

func TestCgroupPressureProcessSelector_CachesWithinTTL(t *testing.T) {
	s := NewCgroupPressureProcessSelector()
	now := time.Now()
	s.now = func() time.Time { return now }
	s.cache["/some/path"] = pressureCacheEntry{at: now, avg10: 12.5}

	val, ok := s.pressure("/some/path")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, val, 0.0001)
}

func TestCgroupPressureProcessSelector_ExpiresAfterTTL(t *testing.T) {
	s := NewCgroupPressureProcessSelector()
	base := time.Now()
	s.cache["/sys/fs/cgroup/does-not-exist"] = pressureCacheEntry{at: base, avg10: 12.5}
	s.now = func() time.Time { return base.Add(2 * time.Second) }

	_, ok := s.pressure("/sys/fs/cgroup/does-not-exist")
	assert.False(t, ok, "an expired cache entry for a nonexistent path must re-read and fail")
}

func TestGlobalProcessSelector_IndexResetsOnUnfreeze(t *testing.T) {
	g := NewGlobalProcessSelector(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	g.index = 2
	g.Update(SelectorConfig{}, NewRegistry(), &SystemState{}, &SystemState{UnfrozenPid: PidChain{123}})
	assert.Equal(t, 0, g.index)
}

func TestGlobalProcessSelector_IndexUnchangedWithoutUnfreeze(t *testing.T) {
	g := NewGlobalProcessSelector(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	g.index = 2
	g.Update(SelectorConfig{}, NewRegistry(), &SystemState{}, &SystemState{})
	assert.Equal(t, 2, g.index)
}

func TestGlobalProcessSelector_PageFaultSelectorAccessor(t *testing.T) {
	g := NewGlobalProcessSelector(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	assert.NotNil(t, g.PageFaultSelector())
}

func TestGlobalProcessSelector_ScanNeverReturnsSelfOrParent(t *testing.T) {
	g := NewGlobalProcessSelector(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})))
	cfg := SelectorConfig{SelfPid: os.Getpid(), SelfParentPid: os.Getppid()}
	reg := NewRegistry()

	for i := 0; i < 4; i++ {
		chain := g.Scan(cfg, reg)
		assert.False(t, chain.Contains(os.Getpid()))
		assert.False(t, chain.Contains(os.Getppid()))
	}
}
