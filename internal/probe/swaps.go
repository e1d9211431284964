//go:build linux

package probe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// SwapStorage classifies the backing storage of active swap devices, used by
// the OOM predictor to pick a swap_weight (spec §5.2): SSDs and HDDs page at
// very different latencies, so the same amount of SwapFree buys a different
// amount of time.
type SwapStorage int

const (
	SwapStorageUnknown SwapStorage = iota
	SwapStorageSSD
	SwapStorageHDD
)

func (s SwapStorage) String() string {
	switch s {
	case SwapStorageSSD:
		return "ssd"
	case SwapStorageHDD:
		return "hdd"
	default:
		return "unknown"
	}
}

// DetectSwapStorage inspects every active swap device listed in /proc/swaps
// and classifies the aggregate. Per spec, a single rotational device among
// several makes the whole system "spinning rust" for predictor purposes: an
// HDD swap device is the slow case, so any HDD found wins the classification.
func DetectSwapStorage() (SwapStorage, error) {
	devices, err := listSwapDevices()
	if err != nil {
		return SwapStorageUnknown, err
	}
	if len(devices) == 0 {
		return SwapStorageUnknown, nil
	}

	result := SwapStorageUnknown
	for _, dev := range devices {
		rot, err := deviceRotational(dev)
		if err != nil {
			continue
		}
		switch rot {
		case SwapStorageHDD:
			return SwapStorageHDD, nil
		case SwapStorageSSD:
			result = SwapStorageSSD
		}
	}
	return result, nil
}

// listSwapDevices parses /proc/swaps and returns the device path of every
// active swap area (partitions and swapfiles alike).
func listSwapDevices() ([]string, error) {
	f, err := os.Open("/proc/swaps")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var devices []string
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue // header line: "Filename Type Size Used Priority"
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		devices = append(devices, fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// deviceRotational resolves path (following symlinks, and for a plain file
// such as a swapfile, resolving the block device that backs its filesystem)
// to major:minor and reads /sys/dev/block/<major>:<minor>/queue/rotational,
// walking up to the parent device for partitions which don't carry their own
// queue/ directory.
func deviceRotational(path string) (SwapStorage, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}

	var st syscall.Stat_t
	if err := syscall.Stat(real, &st); err != nil {
		return SwapStorageUnknown, err
	}
	if st.Mode&syscall.S_IFBLK == 0 {
		// Swapfile on a regular filesystem: st.Dev is the backing block
		// device's dev_t, not st.Rdev (that's only set for device nodes).
		return rotationalForDevT(st.Dev)
	}
	return rotationalForDevT(st.Rdev)
}

func rotationalForDevT(dev uint64) (SwapStorage, error) {
	return readRotationalWalkUp(uint64(unix.Major(dev)), uint64(unix.Minor(dev)))
}

// readRotationalWalkUp reads queue/rotational for major:minor, and if that
// sysfs node doesn't exist (true for partitions, which expose
// queue/rotational only on the whole-disk device), walks up to the parent
// device. /sys/dev/block/<major>:<minor> is itself a symlink (e.g. to
// ../../devices/pci.../block/sda/sda1), so the parent must be found by
// resolving that symlink first and taking the directory of the real path;
// lexically joining ".." onto the unresolved symlink path collapses through
// "/sys/dev/block" itself and never reaches the real device directory.
func readRotationalWalkUp(major, minor uint64) (SwapStorage, error) {
	base := fmt.Sprintf("/sys/dev/block/%d:%d", major, minor)
	val, err := readRotationalFile(filepath.Join(base, "queue", "rotational"))
	if err == nil {
		return val, nil
	}
	real, resolveErr := filepath.EvalSymlinks(base)
	if resolveErr != nil {
		return SwapStorageUnknown, err
	}
	parent := filepath.Dir(real)
	return readRotationalFile(filepath.Join(parent, "queue", "rotational"))
}

func readRotationalFile(path string) (SwapStorage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SwapStorageUnknown, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return SwapStorageUnknown, ErrMalformed
	}
	if n == 0 {
		return SwapStorageSSD, nil
	}
	return SwapStorageHDD, nil
}
