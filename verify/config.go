package verify

import (
	"github.com/vyquocvu/blockview/verify/internal/config"
)

// Config is the top-level harness configuration. Re-exported from internal.
type Config = config.Config

// TargetConfig locates the application under verification.
type TargetConfig = config.TargetConfig

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// TimeoutsConfig bounds each class of flow step.
type TimeoutsConfig = config.TimeoutsConfig

// ArtifactsConfig controls what the run leaves on disk.
type ArtifactsConfig = config.ArtifactsConfig

// LedgerConfig points at the optional SQLite run ledger.
type LedgerConfig = config.LedgerConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the zero-config defaults: the literal constants of
// the original verification flow.
func DefaultConfig() *Config {
	return config.Default()
}
