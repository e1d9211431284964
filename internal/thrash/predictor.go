package thrash

import (
	"time"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// OOMPredictor maintains a two-point linear projection of
// available-memory-plus-weighted-swap, firing a proactive freeze when the
// projected exhaustion time falls inside the configured horizon. Unlike
// the detector (which reacts to swap I/O already in flight) this looks at
// the trend in MemAvailable/SwapFree and can act before any swapping
// happens at all.
type OOMPredictor struct {
	hasPrev       bool
	prevTime      time.Time
	prevAvailable float64
	rate          *ema
}

// NewOOMPredictor returns an empty predictor; its first Observe call always
// reports "unknown" since a decline rate needs two points. The decline rate
// itself is smoothed with a light exponential moving average (alpha 0.5) so
// one noisy sample can't swing the projected ETA on its own.
func NewOOMPredictor() *OOMPredictor {
	return &OOMPredictor{rate: newEMA(0.5)}
}

// PredictorConfig is the subset of resolved configuration the predictor
// needs, recomputed once at startup from storage-type auto-detection
// (spec §4.6) unless the operator pinned swap_weight explicitly.
type PredictorConfig struct {
	SwapWeight float64 // 2.0 SSD, 4.0 HDD
	HorizonSec float64
	LowPct     float64 // percent, e.g. 10.0
}

// Observe computes the current available/total figures from mi and
// compares against the previous observation. Returns whether a proactive
// freeze should be triggered; the "unknown" case (first call, or not
// declining) returns false.
func (p *OOMPredictor) Observe(mi probe.MemInfo, cfg PredictorConfig, now time.Time) bool {
	available := float64(mi.MemAvailableKB) + cfg.SwapWeight*float64(mi.SwapFreeKB)
	total := float64(mi.MemTotalKB) + cfg.SwapWeight*float64(mi.SwapTotalKB)

	if !p.hasPrev {
		p.hasPrev = true
		p.prevTime = now
		p.prevAvailable = available
		return false
	}

	dt := now.Sub(p.prevTime).Seconds()
	prevAvailable := p.prevAvailable
	p.prevTime = now
	p.prevAvailable = available

	if dt <= 0 || available >= prevAvailable {
		// Not declining (or no time has passed to compute a rate from).
		return false
	}

	if total <= 0 {
		return false
	}
	if available/total >= cfg.LowPct/100.0 {
		// Plenty of room even though declining; avoid false positives on
		// ordinary allocation spikes.
		return false
	}

	instantRate := (prevAvailable - available) / dt
	rate := p.rate.next(instantRate)
	if rate <= 0 {
		return false
	}
	eta := available / rate
	return eta < cfg.HorizonSec
}
