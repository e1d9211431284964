package thrash

import (
	"time"

	"github.com/tobixen/thrash-protect-go/internal/probe"
)

// SwapCount is the ordered pair (pswpin, pswpout) read from /proc/vmstat.
type SwapCount [2]uint64

// SystemState is one tick's worth of observed counters. Exactly two
// instances are ever live at once in the control loop: "previous" and
// "current".
type SystemState struct {
	Timestamp       time.Time
	PageFaultsMajor uint64
	SwapCount       SwapCount
	PSI             probe.PSI
	PSIValid        bool // false when /proc/pressure/memory is unavailable

	// CooldownCounter carries detector hysteresis forward tick to tick.
	CooldownCounter int
	// UnfrozenPid is the chain this tick's unfreeze released, if any; read
	// by selector.Update to reset the round-robin cascade.
	UnfrozenPid PidChain
	TimerAlert  bool
}

// Sample takes a fresh reading of /proc/vmstat and /proc/pressure/memory.
// cooldown carries the previous tick's CooldownCounter forward as the
// starting point for the detector to adjust.
func Sample(cooldown int) (SystemState, error) {
	vm, err := probe.ReadVMStat()
	if err != nil {
		return SystemState{}, err
	}

	var sc SwapCount
	sc[0], sc[1] = vm.SwapIn, vm.SwapOut

	s := SystemState{
		Timestamp:       time.Now(),
		PageFaultsMajor: vm.PageFaultsMajor,
		SwapCount:       sc,
		CooldownCounter: cooldown,
	}

	if probe.PSIAvailable() {
		if psi, err := probe.ReadGlobalPSI(); err == nil {
			s.PSI = psi
			s.PSIValid = true
		}
	}
	return s, nil
}
