//go:build linux

// Command thrash-protect is a daemon that prevents system-wide thrashing
// by temporarily suspending memory-hungry processes when swap I/O and
// memory-pressure indicators cross calibrated thresholds.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tobixen/thrash-protect-go/internal/buildinfo"
	"github.com/tobixen/thrash-protect-go/internal/config"
	"github.com/tobixen/thrash-protect-go/internal/logx"
	"github.com/tobixen/thrash-protect-go/internal/probe"
	"github.com/tobixen/thrash-protect-go/internal/thrash"
)

type cliFlags struct {
	configPath string

	debugLogging    bool
	debugCheckstate bool

	interval                 float64
	swapPageThreshold        int
	pgmajfaultScanThreshold  int
	usePSI                   bool
	noPSI                    bool
	psiThreshold             float64
	unfreezePopRatio         int
	blacklistScoreMultiplier int
	whitelistScoreDivider    int
	testMode                 int
	storageType              string

	oomProtection   bool
	noOOMProtection bool
	oomSwapWeight   float64
	oomLowPct       float64
	oomHorizon      float64

	cmdWhitelist   []string
	cmdBlacklist   []string
	cmdJobctrllist []string

	logUserDataOnFreeze   bool
	logUserDataOnUnfreeze bool
	dateHumanReadable     bool
}

func main() {
	var flags cliFlags

	root := &cobra.Command{
		Use:     "thrash-protect",
		Short:   "Protect a Linux host from thrashing by temporarily suspending processes",
		Version: buildinfo.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	fl := root.Flags()
	fl.StringVarP(&flags.configPath, "config", "c", "", "configuration file path (auto-detects format by extension)")
	fl.BoolVar(&flags.debugLogging, "debug", false, "enable debug logging to stderr")
	fl.BoolVar(&flags.debugCheckstate, "debug-checkstate", false, "log warnings when processes are in unexpected states")
	fl.Float64Var(&flags.interval, "interval", 0.5, "sleep interval between checks, in seconds")
	fl.IntVar(&flags.swapPageThreshold, "swap-page-threshold", 0, "swap pages per tick considered thrashing (0 = auto)")
	fl.IntVar(&flags.pgmajfaultScanThreshold, "pgmajfault-scan-threshold", 0, "major fault delta that triggers a page-fault selector scan (0 = 4x swap-page-threshold)")
	fl.BoolVar(&flags.usePSI, "use-psi", true, "fold /proc/pressure/memory into the thrashing detector")
	fl.BoolVar(&flags.noPSI, "no-psi", false, "disable PSI, detect thrashing from swap counters alone")
	fl.Float64Var(&flags.psiThreshold, "psi-threshold", 5.0, "PSI some/avg10 percentage threshold")
	fl.IntVar(&flags.unfreezePopRatio, "unfreeze-pop-ratio", 5, "1-in-N unfreezes are FIFO, the rest LIFO")
	fl.IntVar(&flags.blacklistScoreMultiplier, "blacklist-score-multiplier", 16, "score multiplier applied to blacklisted commands")
	fl.IntVar(&flags.whitelistScoreDivider, "whitelist-score-divider", 64, "score divider applied to whitelisted commands")
	fl.IntVar(&flags.testMode, "test-mode", 0, "force-trigger 1-in-2^N ticks, for integration testing")
	fl.StringVar(&flags.storageType, "storage-type", "auto", "swap backing storage: auto, ssd, hdd")
	fl.BoolVar(&flags.oomProtection, "oom-protection", true, "proactively freeze a candidate when memory exhaustion is projected soon")
	fl.BoolVar(&flags.noOOMProtection, "no-oom-protection", false, "disable proactive OOM-projection freezing, detect actual thrashing only")
	fl.Float64Var(&flags.oomSwapWeight, "oom-swap-weight", 0, "swap headroom weight used by the OOM projector (0 = derive from swap storage type)")
	fl.Float64Var(&flags.oomLowPct, "oom-low-pct", 10.0, "minimum available-memory percentage before the OOM projector engages")
	fl.Float64Var(&flags.oomHorizon, "oom-horizon", 3600, "projected seconds-to-exhaustion that triggers a proactive freeze")
	fl.StringSliceVar(&flags.cmdWhitelist, "cmd-whitelist", nil, "whitelisted command basenames (replaces the default list)")
	fl.StringSliceVar(&flags.cmdBlacklist, "cmd-blacklist", nil, "blacklisted command basenames")
	fl.StringSliceVar(&flags.cmdJobctrllist, "cmd-jobctrllist", nil, "job-control command basenames (replaces the default list)")
	fl.BoolVar(&flags.logUserDataOnFreeze, "log-user-data-on-freeze", false, "include ps-derived user info in freeze log lines")
	fl.BoolVar(&flags.logUserDataOnUnfreeze, "log-user-data-on-unfreeze", true, "include ps-derived user info in unfreeze log lines")
	fl.BoolVar(&flags.dateHumanReadable, "date-human-readable", true, "use local human-readable timestamps in the audit log")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, flags cliFlags) error {
	swapStorage, err := resolveSwapStorage(flags.storageType)
	if err != nil {
		return fmt.Errorf("resolve swap storage: %w", err)
	}

	overlay := buildCLIOverlay(cmd, flags)
	var warnings []string
	cfg, err := config.Load(flags.configPath, swapStorage, overlay, func(key string, value any, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid value for config key %s: %v (%v)", key, value, err))
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logx.New(cfg.DebugLogging)
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Info("starting thrash-protect", "version", buildinfo.Version, "swap_storage", swapStorage.String())

	loop := thrash.NewLoop(cfg, log, swapStorage)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		log.Error("control loop exited with error", "err", err)
		return err
	}
	log.Info("exiting cleanly")
	return nil
}

// resolveSwapStorage honors an explicit --storage-type override before
// falling back to /proc/swaps + sysfs auto-detection.
func resolveSwapStorage(storageType string) (probe.SwapStorage, error) {
	switch storageType {
	case "ssd":
		return probe.SwapStorageSSD, nil
	case "hdd":
		return probe.SwapStorageHDD, nil
	case "", "auto":
		return probe.DetectSwapStorage()
	default:
		return probe.SwapStorageUnknown, fmt.Errorf("unknown storage-type %q", storageType)
	}
}

// buildCLIOverlay returns only the flags the user actually set, so unset
// flags never shadow a config-file or environment value.
func buildCLIOverlay(cmd *cobra.Command, flags cliFlags) map[string]any {
	overlay := config.NewCLIOverlay()
	changed := cmd.Flags().Changed

	if changed("debug") {
		overlay["debug_logging"] = flags.debugLogging
	}
	if changed("debug-checkstate") {
		overlay["debug_checkstate"] = flags.debugCheckstate
	}
	if changed("interval") {
		overlay["interval"] = flags.interval
	}
	if changed("swap-page-threshold") {
		overlay["swap_page_threshold"] = flags.swapPageThreshold
	}
	if changed("pgmajfault-scan-threshold") {
		overlay["pgmajfault_scan_threshold"] = flags.pgmajfaultScanThreshold
	}
	if changed("use-psi") || changed("no-psi") {
		overlay["use_psi"] = flags.usePSI && !flags.noPSI
	}
	if changed("psi-threshold") {
		overlay["psi_threshold"] = flags.psiThreshold
	}
	if changed("unfreeze-pop-ratio") {
		overlay["unfreeze_pop_ratio"] = flags.unfreezePopRatio
	}
	if changed("blacklist-score-multiplier") {
		overlay["blacklist_score_multiplier"] = flags.blacklistScoreMultiplier
	}
	if changed("whitelist-score-divider") {
		overlay["whitelist_score_divider"] = flags.whitelistScoreDivider
	}
	if changed("test-mode") {
		overlay["test_mode"] = flags.testMode
	}
	if changed("oom-protection") || changed("no-oom-protection") {
		overlay["oom_protection"] = flags.oomProtection && !flags.noOOMProtection
	}
	if changed("oom-swap-weight") {
		overlay["oom_swap_weight"] = flags.oomSwapWeight
	}
	if changed("oom-low-pct") {
		overlay["oom_low_pct"] = flags.oomLowPct
	}
	if changed("oom-horizon") {
		overlay["oom_horizon"] = flags.oomHorizon
	}
	if changed("cmd-whitelist") {
		overlay["cmd_whitelist"] = flags.cmdWhitelist
	}
	if changed("cmd-blacklist") {
		overlay["cmd_blacklist"] = flags.cmdBlacklist
	}
	if changed("cmd-jobctrllist") {
		overlay["cmd_jobctrllist"] = flags.cmdJobctrllist
	}
	if changed("log-user-data-on-freeze") {
		overlay["log_user_data_on_freeze"] = flags.logUserDataOnFreeze
	}
	if changed("log-user-data-on-unfreeze") {
		overlay["log_user_data_on_unfreeze"] = flags.logUserDataOnUnfreeze
	}
	if changed("date-human-readable") {
		overlay["date_human_readable"] = flags.dateHumanReadable
	}
	return overlay
}
