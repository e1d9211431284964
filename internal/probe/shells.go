//go:build linux

package probe

import (
	"bufio"
	"os"
	"strings"
)

// fallbackShells is used when /etc/shells is missing or unreadable, mirroring
// the original daemon's conservative guess at what an interactive shell looks
// like on a minimal system.
var fallbackShells = []string{"bash", "sh", "zsh", "fish"}

// ReadShells returns the base names (no directory, e.g. "bash" not
// "/bin/bash") listed in /etc/shells, skipping blank lines and '#' comments.
// Falls back to a short hardcoded list if the file can't be read, since a
// missing /etc/shells shouldn't disable whitelist protection for shells.
func ReadShells() []string {
	f, err := os.Open("/etc/shells")
	if err != nil {
		return append([]string(nil), fallbackShells...)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.LastIndexByte(line, '/'); idx >= 0 {
			line = line[idx+1:]
		}
		if line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil || len(names) == 0 {
		return append([]string(nil), fallbackShells...)
	}
	return names
}
