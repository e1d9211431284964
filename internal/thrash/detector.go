package thrash

import (
	"log/slog"
	"math/rand"
)

// DetectorConfig is the subset of the resolved configuration the detector
// consumes. MaxAcceptableTimeDelta autotunes: Check adjusts it in place on
// the *DetectorConfig it is given, so the caller's copy always holds the
// current value, keeping the detector itself free of hidden state beyond
// what SystemState already carries.
type DetectorConfig struct {
	Interval               float64
	SwapPageThreshold      int
	UsePSI                 bool
	PSIThreshold           float64
	TestMode               int
	MaxAcceptableTimeDelta float64
}

// Detector compares two consecutive samples and decides whether the host
// is thrashing. It has no state of its own: all hysteresis lives on
// SystemState.CooldownCounter, carried tick to tick by the caller.
type Detector struct {
	log *slog.Logger
}

func NewDetector(log *slog.Logger) *Detector {
	return &Detector{log: log}
}

// Check evaluates cur against prev, mutates cur.CooldownCounter and
// returns whether the tick is busy (thrashing). cfg.MaxAcceptableTimeDelta
// is adjusted in place to auto-tune the timer-alert threshold.
func (d *Detector) Check(prev, cur *SystemState, cfg *DetectorConfig) bool {
	cur.CooldownCounter = prev.CooldownCounter

	if cfg.TestMode > 0 && rand.Intn(1<<uint(cfg.TestMode)) == 0 {
		cur.CooldownCounter = prev.CooldownCounter + 1
		return true
	}

	deltaIn := float64(deltaU64(cur.SwapCount[0], prev.SwapCount[0]))
	deltaOut := float64(deltaU64(cur.SwapCount[1], prev.SwapCount[1]))
	threshold := float64(cfg.SwapPageThreshold)

	swapProduct := safeDiv(deltaIn+0.1, threshold) * safeDiv(deltaOut+0.1, threshold)

	psiWeight := 1.0
	if cfg.UsePSI && cur.PSIValid {
		psiWeight = 1 + cur.PSI.Some.Avg10/cfg.PSIThreshold
	}

	triggered := swapProduct*psiWeight > 1.0

	switch {
	case triggered:
		cur.CooldownCounter = prev.CooldownCounter + 1
		if !prev.TimerAlert {
			d.log.Debug("potential thrashing detected without a timing alarm, tightening max_acceptable_time_delta")
			cfg.MaxAcceptableTimeDelta /= 1.1
		}
	case prev.CooldownCounter > 0 &&
		cur.SwapCount == prev.SwapCount &&
		cur.Timestamp.Sub(prev.Timestamp).Seconds() >= cur.SleepInterval(cfg.Interval):
		cur.CooldownCounter = prev.CooldownCounter - 1
		if prev.TimerAlert {
			d.log.Debug("timer alert seen without real swap evidence, loosening max_acceptable_time_delta")
			cfg.MaxAcceptableTimeDelta *= 1.1
		}
	}

	return triggered
}

// SleepInterval is the adaptive tick length: shrinks under pressure,
// returns to the baseline interval when calm.
func (s *SystemState) SleepInterval(baseInterval float64) float64 {
	return baseInterval / float64(s.CooldownCounter+1)
}
