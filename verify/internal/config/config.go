// Package config handles verification harness configuration from YAML files.
// Every default equals the constant baked into the original verification
// flow, so the harness runs against a local BlockView instance with no
// config file at all.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level harness configuration.
type Config struct {
	Target    TargetConfig    `yaml:"target"`
	Browser   BrowserConfig   `yaml:"browser"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

// TargetConfig locates the application under verification.
type TargetConfig struct {
	BaseURL string `yaml:"base_url"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"` // ws:// DevTools URL, empty = launch local Chrome
	Headful          bool     `yaml:"headful"`
	XvfbDisplay      string   `yaml:"xvfb_display"`
	ResourceBlocking []string `yaml:"resource_blocking"`
	ViewportWidth    int      `yaml:"viewport_width"`
	ViewportHeight   int      `yaml:"viewport_height"`
}

// TimeoutsConfig bounds each class of flow step.
type TimeoutsConfig struct {
	Navigation time.Duration `yaml:"navigation"`
	Element    time.Duration `yaml:"element"`
	Action     time.Duration `yaml:"action"`
	Outcome    time.Duration `yaml:"outcome"`
}

// ArtifactsConfig controls what the run leaves on disk.
type ArtifactsConfig struct {
	Dir         string `yaml:"dir"`
	Success     string `yaml:"success"`
	Error       string `yaml:"error"`
	DOMSnapshot *bool  `yaml:"dom_snapshot"`
	PDFReport   bool   `yaml:"pdf_report"`
}

// LedgerConfig points at the optional SQLite run ledger.
type LedgerConfig struct {
	DB string `yaml:"db"` // empty = ledger disabled
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration equivalent to an absent config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with the original flow constants.
func (c *Config) ApplyDefaults() {
	if c.Target.BaseURL == "" {
		c.Target.BaseURL = "http://localhost:5173"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 800
	}
	if c.Timeouts.Navigation <= 0 {
		c.Timeouts.Navigation = 60 * time.Second
	}
	if c.Timeouts.Element <= 0 {
		c.Timeouts.Element = 30 * time.Second
	}
	if c.Timeouts.Action <= 0 {
		c.Timeouts.Action = 10 * time.Second
	}
	if c.Timeouts.Outcome <= 0 {
		c.Timeouts.Outcome = 30 * time.Second
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "verification"
	}
	if c.Artifacts.Success == "" {
		c.Artifacts.Success = "verification.png"
	}
	if c.Artifacts.Error == "" {
		c.Artifacts.Error = "error_screenshot.png"
	}
	if c.Artifacts.DOMSnapshot == nil {
		on := true
		c.Artifacts.DOMSnapshot = &on
	}
}
