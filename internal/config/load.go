package config

import "github.com/tobixen/thrash-protect-go/internal/probe"

// Load layers defaults <- file <- env <- cli and computes derived fields.
// cliOverlay should contain only flags the caller actually set (cobra's
// Changed("flag-name") check) — an unset flag must never shadow a value
// from a lower layer. warn receives one call per rejected file/env key.
// swapStorage comes from auto-detection (or the storage_type override) and
// seeds the swap_page_threshold default.
func Load(configPath string, swapStorage probe.SwapStorage, cliOverlay rawFileConfig, warn func(key string, value any, err error)) (Config, error) {
	c := Defaults(swapStorage)

	fileRaw, err := LoadFromFile(configPath)
	if err != nil {
		return Config{}, err
	}
	if fileRaw != nil {
		ApplyRawOverlay(&c, fileRaw, warn)
	}

	ApplyRawOverlay(&c, LoadFromEnv(), warn)

	if cliOverlay != nil {
		ApplyRawOverlay(&c, cliOverlay, warn)
	}

	c.ConfigPath = configPath
	ApplyDerived(&c)
	return c, nil
}

// NewCLIOverlay is a convenience constructor for building the cli layer
// from individual key/value pairs, used by cmd/thrashprotect to avoid
// exposing the unexported rawFileConfig type outside this package.
func NewCLIOverlay() rawFileConfig {
	return rawFileConfig{}
}
