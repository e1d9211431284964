// Package config loads and layers thrash-protect's configuration: built-in
// defaults, an optional config file (YAML, JSON or INI-style, auto-detected
// by extension), environment variables, and CLI flags, in that increasing
// priority order.
package config

// Config is the fully resolved, layered configuration used by the control
// loop and its collaborators. Field names mirror the original daemon's
// snake_case keys so the grounding between config file/env var names and
// struct fields stays obvious.
type Config struct {
	DebugLogging    bool
	DebugCheckstate bool

	Interval                float64
	MaxAcceptableTimeDelta  float64
	SwapPageThreshold       int
	PgMajFaultScanThreshold int
	UsePSI                  bool
	PSIThreshold            float64

	CmdWhitelist   []string
	CmdBlacklist   []string
	CmdJobCtrlList []string

	BlacklistScoreMultiplier int
	WhitelistScoreDivider    int
	UnfreezePopRatio         int

	TestMode int

	LogUserDataOnFreeze   bool
	LogUserDataOnUnfreeze bool
	DateHumanReadable     bool

	// OOMHorizon is the projected number of seconds until exhaustion that
	// triggers a proactive freeze; not present in the original config
	// surface, added as part of the OOM predictor (spec §5).
	OOMHorizon    float64
	OOMProtection bool
	OOMSwapWeight float64
	OOMLowPct     float64

	ConfigPath string
}
