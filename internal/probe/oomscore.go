//go:build linux

package probe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadOOMScore reads /proc/<pid>/oom_score, a single integer.
func ReadOOMScore(pid int) (int, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/oom_score", pid))
	if err != nil {
		return 0, ClassifyProcErr(err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, ErrMalformed
	}
	return v, nil
}

// ListPIDs returns every numeric entry directly under /proc.
func ListPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if pid, err := strconv.Atoi(e.Name()); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}
