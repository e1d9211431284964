//go:build linux

package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CgroupRoot is the conventional cgroup v2 mount point.
const CgroupRoot = "/sys/fs/cgroup"

// CgroupPath returns the cgroup v2 path for pid, or "" if the process has no
// v2 membership (cgroup v1 only, or the process is gone). /proc/<pid>/cgroup
// lines are "<hierarchy-id>:<controllers>:<path>"; the v2 line has
// hierarchy-id "0" and an empty controller list.
func CgroupPath(pid int) (string, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return "", ClassifyProcErr(err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		if parts[0] != "0" {
			continue
		}
		rel := strings.TrimPrefix(parts[2], "/")
		return filepath.Join(CgroupRoot, rel), nil
	}
	return "", nil
}

// CgroupFreezable reports whether path has a cgroup.freeze control file.
func CgroupFreezable(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(path, "cgroup.freeze"))
	return err == nil
}

// WriteCgroupFreeze writes "1" (freeze) or "0" (thaw) to <path>/cgroup.freeze.
// A write that fails with EBUSY (cgroup mid-transition) is treated the same
// as "already frozen" by the caller — see spec Open Questions.
func WriteCgroupFreeze(path string, freeze bool) error {
	val := "0"
	if freeze {
		val = "1"
	}
	return os.WriteFile(filepath.Join(path, "cgroup.freeze"), []byte(val), 0o644)
}

// ReadCgroupPressure reads the per-cgroup memory.pressure PSI file.
func ReadCgroupPressure(cgroupPath string) (PSI, error) {
	return ReadPSI(filepath.Join(cgroupPath, "memory.pressure"))
}
