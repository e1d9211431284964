//go:build linux

package probe

import "fmt"

// Bytes is a byte count with a human-readable rendering, used to log
// memory figures (MemAvailable, SwapFree, the OOM predictor's projected
// headroom) the way an operator reads them rather than as a raw kB count.
type Bytes uint64

// Humanized renders b with the largest unit that keeps the mantissa >= 1.
func (b Bytes) Humanized() string {
	switch {
	case b >= 1<<40:
		return fmt.Sprintf("%.2f TB", float64(b)/(1<<40))
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", uint64(b))
	}
}

// KBtoBytes converts a kB figure (as /proc/meminfo reports) to Bytes.
func KBtoBytes(kb uint64) Bytes {
	return Bytes(kb * 1024)
}
