package config

import "os"

// envMappings lists every THRASH_PROTECT_* environment variable this daemon
// recognizes and the canonical config key it overlays.
var envMappings = map[string]string{
	"THRASH_PROTECT_DEBUG_LOGGING":              "debug_logging",
	"THRASH_PROTECT_DEBUG_CHECKSTATE":           "debug_checkstate",
	"THRASH_PROTECT_INTERVAL":                   "interval",
	"THRASH_PROTECT_SWAP_PAGE_THRESHOLD":        "swap_page_threshold",
	"THRASH_PROTECT_PGMAJFAULT_SCAN_THRESHOLD":  "pgmajfault_scan_threshold",
	"THRASH_PROTECT_USE_PSI":                    "use_psi",
	"THRASH_PROTECT_PSI_THRESHOLD":              "psi_threshold",
	"THRASH_PROTECT_CMD_WHITELIST":              "cmd_whitelist",
	"THRASH_PROTECT_CMD_BLACKLIST":              "cmd_blacklist",
	"THRASH_PROTECT_CMD_JOBCTRLLIST":            "cmd_jobctrllist",
	"THRASH_PROTECT_BLACKLIST_SCORE_MULTIPLIER": "blacklist_score_multiplier",
	"THRASH_PROTECT_WHITELIST_SCORE_MULTIPLIER": "whitelist_score_divider",
	"THRASH_PROTECT_UNFREEZE_POP_RATIO":         "unfreeze_pop_ratio",
	"THRASH_PROTECT_TEST_MODE":                  "test_mode",
	"THRASH_PROTECT_LOG_USER_DATA_ON_FREEZE":    "log_user_data_on_freeze",
	"THRASH_PROTECT_LOG_USER_DATA_ON_UNFREEZE":  "log_user_data_on_unfreeze",
	"THRASH_PROTECT_DATE_HUMAN_READABLE":        "date_human_readable",
	"THRASH_PROTECT_OOM_HORIZON":                "oom_horizon",
	"THRASH_PROTECT_OOM_PROTECTION":             "oom_protection",
	"THRASH_PROTECT_OOM_SWAP_WEIGHT":            "oom_swap_weight",
	"THRASH_PROTECT_OOM_LOW_PCT":                "oom_low_pct",
}

// LoadFromEnv collects every recognized THRASH_PROTECT_* variable that's
// currently set, as a raw overlay ready for ApplyRawOverlay.
func LoadFromEnv() rawFileConfig {
	raw := rawFileConfig{}
	for envVar, key := range envMappings {
		if v, ok := os.LookupEnv(envVar); ok {
			raw[key] = v
		}
	}
	return raw
}
