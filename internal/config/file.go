package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// searchPaths are tried in order when no --config path is given.
var searchPaths = []string{
	"/etc/thrash-protect.yaml",
	"/etc/thrash-protect.yml",
	"/etc/thrash-protect.json",
	"/etc/thrash-protect.conf",
}

// rawFileConfig is the untyped bag of key/value pairs a file loader
// produces, before ApplyRawOverlay coerces it into typed fields.
type rawFileConfig map[string]any

// keyAliases maps hyphenated file keys (and one legacy alias) to the
// canonical underscored config key.
var keyAliases = map[string]string{
	"debug-logging":              "debug_logging",
	"debug-checkstate":           "debug_checkstate",
	"swap-page-threshold":        "swap_page_threshold",
	"pgmajfault-scan-threshold":  "pgmajfault_scan_threshold",
	"use-psi":                    "use_psi",
	"psi-threshold":              "psi_threshold",
	"cmd-whitelist":              "cmd_whitelist",
	"cmd-blacklist":              "cmd_blacklist",
	"cmd-jobctrllist":            "cmd_jobctrllist",
	"blacklist-score-multiplier": "blacklist_score_multiplier",
	"whitelist-score-divider":    "whitelist_score_divider",
	"whitelist-score-multiplier": "whitelist_score_divider", // legacy name; the value is used as a divider
	"unfreeze-pop-ratio":         "unfreeze_pop_ratio",
	"test-mode":                  "test_mode",
	"log-user-data-on-freeze":    "log_user_data_on_freeze",
	"log-user-data-on-unfreeze":  "log_user_data_on_unfreeze",
	"date-human-readable":        "date_human_readable",
	"oom-horizon":                "oom_horizon",
	"oom-protection":             "oom_protection",
	"oom-swap-weight":            "oom_swap_weight",
	"oom-low-pct":                "oom_low_pct",
}

// LoadFromFile locates and parses a config file, returning its key/value
// overlay with keys as written in the file (ApplyRawOverlay normalizes them
// when merging onto the defaults). path overrides the search
// list when non-empty. Returns a nil map (not an error) when nothing is
// found — an absent config file is normal, not a failure.
func LoadFromFile(path string) (rawFileConfig, error) {
	paths := searchPaths
	if path != "" {
		paths = []string{path}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		raw, err := loadFileByExt(p)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", p, err)
		}
		return raw, nil
	}
	return nil, nil
}

func loadFileByExt(path string) (rawFileConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".json":
		return loadJSON(path)
	default:
		return loadINI(path)
	}
}

// unwrapTopLevel returns data["thrash-protect"] if present as a map, else
// data itself — config files may nest all settings under a top-level key to
// allow co-locating with unrelated config in the same file.
func unwrapTopLevel(data map[string]any) rawFileConfig {
	if nested, ok := data["thrash-protect"]; ok {
		if m, ok := nested.(map[string]any); ok {
			return rawFileConfig(m)
		}
	}
	return rawFileConfig(data)
}

func loadYAML(path string) (rawFileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return unwrapTopLevel(data), nil
}

func loadJSON(path string) (rawFileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return unwrapTopLevel(data), nil
}

// loadINI parses a minimal INI/.conf dialect: "[section]" headers, "key =
// value" or "key: value" assignments, '#' and ';' comments. Only the
// "thrash-protect" section (or the implicit top-level section when none is
// named) is returned, mirroring configparser's section lookup in the
// original loader.
func loadINI(path string) (rawFileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := rawFileConfig{}
	section := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != "" && section != "thrash-protect" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			key, val, ok = strings.Cut(line, ":")
		}
		if !ok {
			continue
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyRawOverlay maps file/env key-value pairs onto canonical Config
// fields and applies type conversion, mutating c in place. Mirrors the
// original's normalize_file_config + dict.update layering: unrecognized
// keys are dropped and reported via warn rather than silently carried,
// since a typo'd key in a user config file should be visible somewhere.
func ApplyRawOverlay(c *Config, raw rawFileConfig, warn func(key string, value any, err error)) {
	for key, value := range raw {
		norm, ok := keyAliases[key]
		if !ok {
			norm = strings.ReplaceAll(key, "-", "_")
		}
		if err := applyTyped(c, norm, value); err != nil && warn != nil {
			warn(key, value, err)
		}
	}
}

func applyTyped(c *Config, key string, value any) error {
	str := func() string { return fmt.Sprintf("%v", value) }

	switch key {
	case "debug_logging":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.DebugLogging = v
	case "debug_checkstate":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.DebugCheckstate = v
	case "interval":
		v, err := strconv.ParseFloat(str(), 64)
		if err != nil {
			return err
		}
		c.Interval = v
	case "swap_page_threshold":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		if v != 0 {
			// 0 means "auto", i.e. leave the storage-derived default from
			// Defaults() in place rather than clobbering it with a literal 0
			// that would permanently disable swap-based thrash detection.
			c.SwapPageThreshold = v
		}
	case "pgmajfault_scan_threshold":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		c.PgMajFaultScanThreshold = v
	case "use_psi":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.UsePSI = v
	case "psi_threshold":
		v, err := strconv.ParseFloat(str(), 64)
		if err != nil {
			return err
		}
		c.PSIThreshold = v
	case "cmd_whitelist":
		c.CmdWhitelist = parseList(value)
	case "cmd_blacklist":
		c.CmdBlacklist = parseList(value)
	case "cmd_jobctrllist":
		c.CmdJobCtrlList = parseList(value)
	case "blacklist_score_multiplier":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		c.BlacklistScoreMultiplier = v
	case "whitelist_score_divider":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		c.WhitelistScoreDivider = v
	case "unfreeze_pop_ratio":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		c.UnfreezePopRatio = v
	case "test_mode":
		v, err := strconv.Atoi(str())
		if err != nil {
			return err
		}
		c.TestMode = v
	case "log_user_data_on_freeze":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.LogUserDataOnFreeze = v
	case "log_user_data_on_unfreeze":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.LogUserDataOnUnfreeze = v
	case "date_human_readable":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.DateHumanReadable = v
	case "oom_horizon":
		v, err := strconv.ParseFloat(str(), 64)
		if err != nil {
			return err
		}
		c.OOMHorizon = v
	case "oom_protection":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		c.OOMProtection = v
	case "oom_swap_weight":
		v, err := strconv.ParseFloat(str(), 64)
		if err != nil {
			return err
		}
		if v != 0 {
			// 0 means "derive from swap storage type"; leave Defaults()'s
			// storage-based value in place instead of overriding with 0.
			c.OOMSwapWeight = v
		}
	case "oom_low_pct":
		v, err := strconv.ParseFloat(str(), 64)
		if err != nil {
			return err
		}
		c.OOMLowPct = v
	default:
		return fmt.Errorf("unrecognized config key %q", key)
	}
	return nil
}

func parseBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "on":
			return true, nil
		case "false", "no", "0", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("invalid bool %q", v)
	default:
		return false, fmt.Errorf("invalid bool %v", v)
	}
}

func parseList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return strings.Fields(v)
	default:
		return nil
	}
}
