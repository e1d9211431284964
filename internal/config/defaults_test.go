package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

func TestDefaults_SwapPageThresholdVariesByStorage(t *testing.T) {
	hdd := Defaults(probe.SwapStorageHDD)
	ssd := Defaults(probe.SwapStorageSSD)
	unknown := Defaults(probe.SwapStorageUnknown)

	assert.Equal(t, 4, hdd.SwapPageThreshold)
	assert.Equal(t, 64, ssd.SwapPageThreshold)
	assert.Equal(t, 4, unknown.SwapPageThreshold, "unknown storage should fall back to the conservative HDD threshold")
}

func TestDefaults_OOMSwapWeightVariesByStorage(t *testing.T) {
	hdd := Defaults(probe.SwapStorageHDD)
	ssd := Defaults(probe.SwapStorageSSD)

	assert.Equal(t, 4.0, hdd.OOMSwapWeight)
	assert.Equal(t, 2.0, ssd.OOMSwapWeight)
	assert.True(t, hdd.OOMProtection)
	assert.Equal(t, 10.0, hdd.OOMLowPct)
}

func TestDefaults_WhitelistIncludesStaticEntriesAndShells(t *testing.T) {
	d := Defaults(probe.SwapStorageHDD)
	assert.Contains(t, d.CmdWhitelist, "sshd")
	assert.Contains(t, d.CmdWhitelist, "tmux")
	for _, shell := range probe.ReadShells() {
		assert.Contains(t, d.CmdWhitelist, shell)
	}
}

func TestDefaults_JobCtrlListIncludesSudo(t *testing.T) {
	d := Defaults(probe.SwapStorageHDD)
	assert.Contains(t, d.CmdJobCtrlList, "sudo")
}

func TestDedupe(t *testing.T) {
	out := dedupe([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestApplyDerived_ComputesDefaults(t *testing.T) {
	c := Config{Interval: 0.5, SwapPageThreshold: 4}
	ApplyDerived(&c)
	assert.Equal(t, 16, c.PgMajFaultScanThreshold)
	assert.InDelta(t, 0.0625, c.MaxAcceptableTimeDelta, 0.0001)
}

func TestApplyDerived_RespectsExplicitScanThreshold(t *testing.T) {
	c := Config{Interval: 1.0, SwapPageThreshold: 4, PgMajFaultScanThreshold: 999}
	ApplyDerived(&c)
	assert.Equal(t, 999, c.PgMajFaultScanThreshold)
}
