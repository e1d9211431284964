package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", "interval: 0.25\nswap-page-threshold: 8\ncmd-whitelist:\n  - foo\n  - bar\n")

	raw, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, 0.25, raw["interval"])
	assert.Equal(t, 8, raw["swap-page-threshold"])
}

func TestLoadFromFile_YAML_NestedTopLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", "thrash-protect:\n  interval: 0.1\nunrelated:\n  other: true\n")

	raw, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, raw["interval"])
	_, hasUnrelated := raw["unrelated"]
	assert.False(t, hasUnrelated)
}

func TestLoadFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.json", `{"interval": 0.75, "psi-threshold": 7.5}`)

	raw, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.75, raw["interval"])
	assert.Equal(t, 7.5, raw["psi-threshold"])
}

func TestLoadFromFile_INI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.conf", "[thrash-protect]\ninterval = 0.5\n# a comment\nswap-page-threshold: 12\n")

	raw, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.5", raw["interval"])
	assert.Equal(t, "12", raw["swap-page-threshold"])
}

func TestLoadFromFile_INI_SkipsOtherSections(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.conf", "[other]\ninterval = 9\n[thrash-protect]\ninterval = 1\n")

	raw, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1", raw["interval"])
}

func TestLoadFromFile_Missing(t *testing.T) {
	raw, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestApplyRawOverlay_AliasesAndTypes(t *testing.T) {
	c := Defaults(0)
	var warned []string
	ApplyRawOverlay(&c, rawFileConfig{
		"interval":                   "0.2",
		"swap-page-threshold":        "32",
		"whitelist-score-multiplier": "128", // legacy alias for whitelist_score_divider
		"cmd-whitelist":              []any{"foo", "bar"},
		"unknown-key-entirely":       "x",
	}, func(key string, value any, err error) { warned = append(warned, key) })

	assert.InDelta(t, 0.2, c.Interval, 0.0001)
	assert.Equal(t, 32, c.SwapPageThreshold)
	assert.Equal(t, 128, c.WhitelistScoreDivider)
	assert.Equal(t, []string{"foo", "bar"}, c.CmdWhitelist)
	assert.Equal(t, []string{"unknown-key-entirely"}, warned, "an unrecognized key must be reported, not silently dropped")
}

func TestApplyRawOverlay_SwapPageThresholdZeroMeansAuto(t *testing.T) {
	c := Defaults(probe.SwapStorageSSD)
	want := c.SwapPageThreshold
	ApplyRawOverlay(&c, rawFileConfig{"swap-page-threshold": "0"}, nil)
	assert.Equal(t, want, c.SwapPageThreshold, "an explicit 0 must not clobber the storage-derived default")
}

func TestApplyRawOverlay_OOMKeys(t *testing.T) {
	c := Defaults(0)
	ApplyRawOverlay(&c, rawFileConfig{
		"oom-protection":  "false",
		"oom-swap-weight": "3.5",
		"oom-low-pct":     "15",
	}, func(key string, value any, err error) { t.Fatalf("unexpected warning for %s: %v", key, err) })

	assert.False(t, c.OOMProtection)
	assert.InDelta(t, 3.5, c.OOMSwapWeight, 0.0001)
	assert.InDelta(t, 15.0, c.OOMLowPct, 0.0001)
}

func TestApplyRawOverlay_WarnsOnBadValue(t *testing.T) {
	c := Defaults(0)
	var gotKey string
	ApplyRawOverlay(&c, rawFileConfig{"interval": "not-a-number"}, func(key string, value any, err error) {
		gotKey = key
	})
	assert.Equal(t, "interval", gotKey)
}

func TestParseBool(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want bool
	}{
		{true, true},
		{"yes", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"no", false},
		{"", false},
	} {
		got, err := parseBool(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	_, err := parseBool("maybe")
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a b"))
	assert.Nil(t, parseList(""))
	assert.Equal(t, []string{"a", "b"}, parseList([]any{"a", "b"}))
	assert.Equal(t, []string{"x", "y"}, parseList([]string{"x", "y"}))
}
