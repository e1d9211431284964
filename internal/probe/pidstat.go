//go:build linux

package probe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcStat is the subset of /proc/<pid>/stat this daemon needs. Cmd is the
// literal, parenthesis-stripped executable name; it is treated as an opaque
// byte range and may contain anything up to and including unbalanced parens
// or invalid UTF-8 — see ReadPidStat for the parsing rule.
type ProcStat struct {
	Cmd    string
	State  string
	MajFlt uint64
	PPID   int
}

// ReadPidStat parses /proc/<pid>/stat.
//
// Rule (spec §4.1): split the raw bytes on the first '('; take everything up
// to the *last* ')' as Cmd (it may itself contain parens); split the
// remainder on ASCII spaces to get the numeric/state fields. Field indices,
// zero-based after the "(cmd) " prefix: state=0, ppid=1, majflt=9.
func ReadPidStat(pid int) (ProcStat, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return ProcStat{}, ClassifyProcErr(err)
	}
	return parsePidStat(raw)
}

func parsePidStat(raw []byte) (ProcStat, error) {
	s := string(raw)

	open := strings.IndexByte(s, '(')
	if open < 0 {
		return ProcStat{}, ErrMalformed
	}
	close := strings.LastIndexByte(s, ')')
	if close < 0 || close <= open {
		return ProcStat{}, ErrMalformed
	}

	cmd := s[open+1 : close]
	rest := strings.TrimPrefix(s[close+1:], " ")
	fields := strings.Split(rest, " ")

	get := func(idx int) (string, error) {
		if idx < 0 || idx >= len(fields) {
			return "", ErrMalformed
		}
		return strings.TrimSpace(fields[idx]), nil
	}

	state, err := get(0)
	if err != nil {
		return ProcStat{}, err
	}
	ppidStr, err := get(1)
	if err != nil {
		return ProcStat{}, err
	}
	ppid, err := strconv.Atoi(ppidStr)
	if err != nil {
		return ProcStat{}, ErrMalformed
	}
	majfltStr, err := get(9)
	if err != nil {
		return ProcStat{}, err
	}
	majflt, err := strconv.ParseUint(majfltStr, 10, 64)
	if err != nil {
		return ProcStat{}, ErrMalformed
	}

	return ProcStat{Cmd: cmd, State: state, MajFlt: majflt, PPID: ppid}, nil
}

// JobControlName strips a leading '-' (login-shell marker, e.g. "-bash")
// for job-control-list comparisons only. Use the raw Cmd for logging.
func JobControlName(cmd string) string {
	return strings.TrimPrefix(cmd, "-")
}

// ProcessExists reports whether /proc/<pid> currently exists.
func ProcessExists(pid int) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}
