//go:build linux

package probe

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// PSILine is one row of a pressure file ("some" or "full").
type PSILine struct {
	Avg10  float64
	Avg60  float64
	Avg300 float64
	Total  uint64
}

// PSI is the parsed content of a /proc/pressure/memory (or per-cgroup
// memory.pressure) file.
type PSI struct {
	Some PSILine
	Full PSILine
}

// ReadPSI parses a PSI file. Works for both the global
// /proc/pressure/memory and the per-cgroup <path>/memory.pressure, since
// both use the identical "some ...\nfull ...\n" format.
func ReadPSI(path string) (PSI, error) {
	f, err := os.Open(path)
	if err != nil {
		return PSI{}, err
	}
	defer f.Close()

	var psi PSI
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row, err := parsePSILine(fields[1:])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "some":
			psi.Some = row
		case "full":
			psi.Full = row
		}
	}
	if err := sc.Err(); err != nil {
		return PSI{}, err
	}
	return psi, nil
}

func parsePSILine(fields []string) (PSILine, error) {
	var row PSILine
	for _, field := range fields {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "avg10":
			row.Avg10, _ = strconv.ParseFloat(val, 64)
		case "avg60":
			row.Avg60, _ = strconv.ParseFloat(val, 64)
		case "avg300":
			row.Avg300, _ = strconv.ParseFloat(val, 64)
		case "total":
			row.Total, _ = strconv.ParseUint(val, 10, 64)
		}
	}
	return row, nil
}

// PSIAvailable reports whether the kernel exposes global PSI accounting.
func PSIAvailable() bool {
	_, err := os.Stat("/proc/pressure/memory")
	return err == nil
}

// ReadGlobalPSI reads /proc/pressure/memory.
func ReadGlobalPSI() (PSI, error) {
	return ReadPSI("/proc/pressure/memory")
}
