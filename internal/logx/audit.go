package logx

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Default paths for the audit log and the crash-recovery pid-list state
// file, matching the original daemon's hardcoded locations.
const (
	DefaultLogPath = "/var/log/thrash-protect.log"
	DefaultPidFile = "/tmp/thrash-protect-frozen-pid-list"
)

// Audit writes the append-only freeze/unfreeze event log and the
// single-line frozen-pid-list state file consumed by crash recovery.
type Audit struct {
	LogPath    string
	PidFile    string
	HumanTime  bool
	OnFreeze   bool // log_user_data_on_freeze
	OnUnfreeze bool // log_user_data_on_unfreeze
}

// NewAudit returns an Audit using the standard system paths.
func NewAudit(humanTime, onFreeze, onUnfreeze bool) *Audit {
	return &Audit{
		LogPath:    DefaultLogPath,
		PidFile:    DefaultPidFile,
		HumanTime:  humanTime,
		OnFreeze:   onFreeze,
		OnUnfreeze: onUnfreeze,
	}
}

func (a *Audit) dateString() string {
	if a.HumanTime {
		now := time.Now()
		return now.Format("2006-01-02 15:04:05") + fmt.Sprintf(".%03d", now.Nanosecond()/1_000_000)
	}
	return strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64)
}

func serializeChains(chains [][]int) string {
	groups := make([]string, 0, len(chains))
	for _, chain := range chains {
		pids := make([]string, 0, len(chain))
		for _, p := range chain {
			pids = append(pids, strconv.Itoa(p))
		}
		groups = append(groups, "["+strings.Join(pids, ", ")+"]")
	}
	return "[" + strings.Join(groups, ", ") + "]"
}

func (a *Audit) appendLine(line string) error {
	f, err := os.OpenFile(a.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// LogFrozen appends one "frozen" event line, and rewrites the frozen-pid
// state file with the full current frozen-pid set.
func (a *Audit) LogFrozen(pid int, allFrozen [][]int) error {
	var line string
	if a.OnFreeze {
		line = fmt.Sprintf("%s - frozen   pid %5d - %s - list: %s\n",
			a.dateString(), pid, ProcessInfo(pid), serializeChains(allFrozen))
	} else {
		line = fmt.Sprintf("%s - frozen pid %d - frozen list: %s\n",
			a.dateString(), pid, serializeChains(allFrozen))
	}
	if err := a.appendLine(line); err != nil {
		return err
	}
	return a.writePidFile(allFrozen)
}

// LogUnfrozen appends one "unfrozen" event line. It rewrites the pid file
// when chains remain, otherwise removes it entirely.
func (a *Audit) LogUnfrozen(pid int, allFrozen [][]int) error {
	var line string
	if a.OnUnfreeze {
		line = fmt.Sprintf("%s - unfrozen   pid %5d - %s - list: %s\n",
			a.dateString(), pid, ProcessInfo(pid), serializeChains(allFrozen))
	} else {
		line = fmt.Sprintf("%s - unfrozen pid %d\n", a.dateString(), pid)
	}
	if err := a.appendLine(line); err != nil {
		return err
	}
	if len(allFrozen) == 0 {
		if err := os.Remove(a.PidFile); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return a.writePidFile(allFrozen)
}

func (a *Audit) writePidFile(allFrozen [][]int) error {
	var buf bytes.Buffer
	first := true
	for _, chain := range allFrozen {
		for _, pid := range chain {
			if !first {
				buf.WriteByte(' ')
			}
			first = false
			buf.WriteString(strconv.Itoa(pid))
		}
	}
	buf.WriteByte('\n')
	return os.WriteFile(a.PidFile, buf.Bytes(), 0o644)
}

// ReadStalePidFile parses the pid-list file left by a previous run, for
// startup recovery. Returns (nil, nil) when the file doesn't exist.
func (a *Audit) ReadStalePidFile() ([]int, error) {
	raw, err := os.ReadFile(a.PidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	fields := strings.Fields(string(raw))
	pids := make([]int, 0, len(fields))
	for _, f := range fields {
		if pid, err := strconv.Atoi(f); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// RemovePidFile deletes the state file, ignoring "not found".
func (a *Audit) RemovePidFile() error {
	if err := os.Remove(a.PidFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ProcessInfo runs `ps -p <pid> uf` for enriched logging. Best-effort only
// — never called from the freeze/unfreeze critical path itself, only from
// the audit logger when log_user_data_on_{freeze,unfreeze} is set.
func ProcessInfo(pid int) string {
	out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "uf").Output()
	if err != nil {
		return "problem fetching process information"
	}
	lines := strings.SplitN(string(out), "\n", 3)
	if len(lines) < 2 {
		return "no information available, the process was probably killed or 'ps' returned unexpected output"
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 11 {
		return "no information available, the process was probably killed or 'ps' returned unexpected output"
	}
	return fmt.Sprintf("u:%10s  CPU:%5s%%  MEM:%5s%%  CMD: %s",
		fields[0], fields[2], fields[3], strings.Join(fields[10:], " "))
}
