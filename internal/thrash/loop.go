package thrash

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tobixen/thrash-protect-go/internal/config"
	"github.com/tobixen/thrash-protect-go/internal/logx"
	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// Loop owns every long-lived collaborator and runs the control loop:
// sample, detect, (maybe) predict, select+freeze or unfreeze, adapt the
// sleep interval, repeat.
type Loop struct {
	cfg   config.Config
	log   *slog.Logger
	audit *logx.Audit

	detector  *Detector
	predictor *OOMPredictor
	selector  *GlobalProcessSelector
	registry  *Registry
	freezer   *Freezer

	selectorCfg   SelectorConfig
	detectorCfg   DetectorConfig
	predictorCfg  PredictorConfig
	oomProtection bool
}

// NewLoop wires up every collaborator from a resolved configuration.
func NewLoop(cfg config.Config, log *slog.Logger, swapStorage probe.SwapStorage) *Loop {
	audit := logx.NewAudit(cfg.DateHumanReadable, cfg.LogUserDataOnFreeze, cfg.LogUserDataOnUnfreeze)
	registry := NewRegistry()

	l := &Loop{
		cfg:       cfg,
		log:       log,
		audit:     audit,
		detector:  NewDetector(log),
		predictor: NewOOMPredictor(),
		selector:  NewGlobalProcessSelector(log),
		registry:  registry,
		selectorCfg: SelectorConfig{
			Whitelist:                newNameSet(cfg.CmdWhitelist),
			Blacklist:                newNameSet(cfg.CmdBlacklist),
			JobCtrlList:              newNameSet(cfg.CmdJobCtrlList),
			WhitelistScoreDivider:    float64(cfg.WhitelistScoreDivider),
			BlacklistScoreMultiplier: float64(cfg.BlacklistScoreMultiplier),
			PgMajFaultScanThreshold:  uint64(cfg.PgMajFaultScanThreshold),
			SelfPid:                  os.Getpid(),
			SelfParentPid:            os.Getppid(),
		},
		detectorCfg: DetectorConfig{
			Interval:               cfg.Interval,
			SwapPageThreshold:      cfg.SwapPageThreshold,
			UsePSI:                 cfg.UsePSI,
			PSIThreshold:           cfg.PSIThreshold,
			TestMode:               cfg.TestMode,
			MaxAcceptableTimeDelta: cfg.MaxAcceptableTimeDelta,
		},
		predictorCfg: PredictorConfig{
			SwapWeight: cfg.OOMSwapWeight,
			HorizonSec: cfg.OOMHorizon,
			LowPct:     cfg.OOMLowPct,
		},
		oomProtection: cfg.OOMProtection,
	}
	l.freezer = NewFreezer(registry, audit, log, func() float64 { return l.detectorCfg.MaxAcceptableTimeDelta }, cfg.UnfreezePopRatio)
	l.freezer.DebugCheckstate = cfg.DebugCheckstate

	if mode, err := probe.DetectCgroupMode(); err != nil || !mode.HasV2() {
		log.Warn("cgroup v2 freezer unavailable, falling back to SIGSTOP/SIGCONT for every selection", "mode", mode)
	}
	if !probe.PSIAvailable() {
		log.Warn("PSI (/proc/pressure/memory) unavailable, thrash detection relies on swap counters alone")
	}

	return l
}

// mlockAll attempts to lock the daemon's own memory so it can never be
// swapped out during an extreme thrashing event. Best-effort: tries the
// stronger current+future lock first, then falls back to current-only,
// then gives up with a logged warning (e.g. when not running as root).
func (l *Loop) mlockAll() {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err == nil {
		return
	}
	if err := unix.Mlockall(unix.MCL_CURRENT); err == nil {
		return
	}
	l.log.Warn("failed to mlockall() - the daemon itself could be swapped out during an extreme thrashing event (maybe not running as root?)")
}

// Run executes the control loop until ctx is cancelled, then runs cleanup.
func (l *Loop) Run(ctx context.Context) error {
	l.mlockAll()
	RecoverFromPreviousRun(l.audit, l.log)
	defer l.freezer.Cleanup()

	if mi, err := probe.ReadMemInfo(); err == nil {
		l.log.Info("starting control loop",
			"mem_available", probe.KBtoBytes(mi.MemAvailableKB).Humanized(),
			"swap_free", probe.KBtoBytes(mi.SwapFreeKB).Humanized(),
		)
	}

	current, err := Sample(0)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		prev := current
		current, err = Sample(prev.CooldownCounter)
		if err != nil {
			l.log.Warn("sample failed", "err", err)
			current = prev
			continue
		}

		busy := l.detector.Check(&prev, &current, &l.detectorCfg)

		oom := false
		if l.oomProtection && !busy {
			if mi, err := probe.ReadMemInfo(); err == nil {
				oom = l.predictor.Observe(mi, l.predictorCfg, current.Timestamp)
			}
		}

		if busy || oom {
			chain := l.selector.Scan(l.selectorCfg, l.registry)
			if len(chain) == 0 {
				l.log.Info("nothing to freeze found, or the process we were going to suspend has already exited")
			} else {
				l.freezer.Freeze(chain, l.selectorCfg.SelfPid)
			}
		} else if current.CooldownCounter == 0 {
			current.UnfrozenPid = l.freezer.Unfreeze()
		}

		l.selector.Update(l.selectorCfg, l.registry, &prev, &current)

		if l.checkDelay(&current, 0) && !busy {
			sleepInterval := current.SleepInterval(l.detectorCfg.Interval)
			l.log.Debug("sleeping", "seconds", sleepInterval)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(sleepInterval * float64(time.Second))):
			}
			l.checkDelay(&current, sleepInterval)
		}
	}
}

// checkDelay detects that the daemon itself may have been swapped out: if
// wall-clock elapsed since current.Timestamp exceeds the expected delay by
// more than max_acceptable_time_delta, raise a timer alert and accelerate.
func (l *Loop) checkDelay(current *SystemState, expectedDelay float64) bool {
	delta := time.Since(current.Timestamp).Seconds() - expectedDelay
	if delta > l.detectorCfg.MaxAcceptableTimeDelta {
		l.log.Info("relatively big time delta observed, this is expected occasionally as max_acceptable_time_delta autotunes",
			"interval", l.detectorCfg.Interval,
			"cooldown_counter", current.CooldownCounter,
			"expected_delay", expectedDelay,
			"max_acceptable_time_delta", l.detectorCfg.MaxAcceptableTimeDelta,
			"delta", delta,
			"frozen_pids", l.registry.AllFrozenPids(),
		)
		current.CooldownCounter += 2
		current.TimerAlert = true
		return false
	}
	return true
}
