//go:build linux

package probe

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// CgroupMode reports which cgroup hierarchy (or hierarchies) are mounted.
// The control loop reads this once at startup and logs a warning when no v2
// hierarchy is present. It does not switch anything off: without v2
// membership CgroupPath returns "", so the cgroup-freeze path and the
// cgroup-pressure selector find nothing and selection ends in SIGSTOP.
type CgroupMode int

const (
	CgroupUnsupported CgroupMode = iota
	CgroupV1
	CgroupV2
	CgroupHybrid
)

func (m CgroupMode) String() string {
	switch m {
	case CgroupV1:
		return "cgroup v1"
	case CgroupV2:
		return "cgroup v2"
	case CgroupHybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

// HasV2 reports whether this mode includes the unified v2 hierarchy, i.e.
// whether the cgroup-freeze path and cgroup-pressure selector can function.
func (m CgroupMode) HasV2() bool {
	return m == CgroupV2 || m == CgroupHybrid
}

// DetectCgroupMode parses /proc/self/mountinfo for cgroup and cgroup2
// filesystem entries.
func DetectCgroupMode() (CgroupMode, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return CgroupUnsupported, fmt.Errorf("open mountinfo: %w", err)
	}
	defer f.Close()

	var hasV1, hasV2 bool
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		sep := " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		tail := strings.Fields(line[i+len(sep):])
		if len(tail) < 1 {
			continue
		}
		switch tail[0] {
		case "cgroup2":
			hasV2 = true
		case "cgroup":
			hasV1 = true
		}
	}
	if err := sc.Err(); err != nil {
		return CgroupUnsupported, fmt.Errorf("scan mountinfo: %w", err)
	}

	switch {
	case hasV1 && hasV2:
		return CgroupHybrid, nil
	case hasV2:
		return CgroupV2, nil
	case hasV1:
		return CgroupV1, nil
	default:
		return CgroupUnsupported, nil
	}
}
