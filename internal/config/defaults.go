package config

import "github.com/tobixen/thrash-protect-go/internal/probe"

// staticWhitelist lists processes that are always protected regardless of
// what /etc/shells or the OOM score say: terminals, multiplexers, window
// managers and desktop shells whose loss would strand an interactive
// session. Grounded on the original daemon's hardcoded list.
var staticWhitelist = []string{
	// SSH/terminals
	"sshd", "ssh", "xterm", "rxvt", "urxvt", "alacritty", "kitty", "foot",
	// Multiplexers
	"screen", "SCREEN", "tmux",
	// X11
	"xinit", "X", "Xorg", "Xorg.bin",
	// Wayland compositors
	"sway", "wayfire", "hyprland",
	// Window managers
	"spectrwm", "i3", "dwm", "openbox", "awesome", "bspwm",
	// Desktop environments
	"gnome-shell", "kwin_x11", "kwin_wayland", "plasmashell", "xfce4-session",
	// System
	"systemd-journal", "dbus-daemon",
}

// DefaultWhitelist returns the static whitelist union'd with shells,
// deduplicated.
func DefaultWhitelist(shells []string) []string {
	return dedupe(append(append([]string(nil), staticWhitelist...), shells...))
}

// DefaultJobCtrlList returns shells plus "sudo": these are the process names
// whose presence in a target's parent chain marks it as under interactive
// job control.
func DefaultJobCtrlList(shells []string) []string {
	for _, s := range shells {
		if s == "sudo" {
			return dedupe(shells)
		}
	}
	return dedupe(append(append([]string(nil), shells...), "sudo"))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Defaults returns the built-in configuration, the lowest-priority layer.
// swapStorage biases the swap_page_threshold default: SSDs can sustain
// heavy pageout without user-visible stall, so they get a much higher
// threshold before the detector considers it a thrashing signal. This
// must happen at the defaults layer (not as a later override) so that an
// operator's explicit file/env/CLI value is never clobbered by
// auto-detection — overlays apply strictly after this.
func Defaults(swapStorage probe.SwapStorage) Config {
	swapPageThreshold := 4
	oomSwapWeight := 4.0
	if swapStorage == probe.SwapStorageSSD {
		swapPageThreshold = 64
		oomSwapWeight = 2.0
	}
	shells := probe.ReadShells()
	return Config{
		DebugLogging:             false,
		DebugCheckstate:          false,
		Interval:                 0.5,
		SwapPageThreshold:        swapPageThreshold,
		PgMajFaultScanThreshold:  0, // computed below if left at zero
		UsePSI:                   true,
		PSIThreshold:             5.0,
		CmdWhitelist:             DefaultWhitelist(shells),
		CmdJobCtrlList:           DefaultJobCtrlList(shells),
		CmdBlacklist:             nil,
		BlacklistScoreMultiplier: 16,
		WhitelistScoreDivider:    64,
		UnfreezePopRatio:         5,
		TestMode:                 0,
		LogUserDataOnFreeze:      false,
		LogUserDataOnUnfreeze:    true,
		DateHumanReadable:        true,
		OOMHorizon:               3600,
		OOMProtection:            true,
		OOMSwapWeight:            oomSwapWeight,
		OOMLowPct:                10.0,
	}
}

// ApplyDerived fills in values computed from other fields when the caller
// left them at their zero value, mirroring load_config's post-merge step.
func ApplyDerived(c *Config) {
	if c.PgMajFaultScanThreshold == 0 {
		c.PgMajFaultScanThreshold = c.SwapPageThreshold * 4
	}
	c.MaxAcceptableTimeDelta = c.Interval / 8.0
}
