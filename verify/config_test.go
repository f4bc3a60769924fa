package verify

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Target.BaseURL != "http://localhost:5173" {
		t.Errorf("base url = %q", cfg.Target.BaseURL)
	}
	if cfg.Timeouts.Navigation != 60*time.Second {
		t.Errorf("navigation timeout = %s, want 60s", cfg.Timeouts.Navigation)
	}
	if cfg.Timeouts.Element != 30*time.Second {
		t.Errorf("element timeout = %s, want 30s", cfg.Timeouts.Element)
	}
	if cfg.Timeouts.Action != 10*time.Second {
		t.Errorf("action timeout = %s, want 10s", cfg.Timeouts.Action)
	}
	if cfg.Timeouts.Outcome != 30*time.Second {
		t.Errorf("outcome timeout = %s, want 30s", cfg.Timeouts.Outcome)
	}
	if cfg.Artifacts.Success != "verification.png" || cfg.Artifacts.Error != "error_screenshot.png" {
		t.Errorf("artifact names = %q / %q", cfg.Artifacts.Success, cfg.Artifacts.Error)
	}
	if cfg.Artifacts.DOMSnapshot == nil || !*cfg.Artifacts.DOMSnapshot {
		t.Error("dom snapshot should default on")
	}
	if cfg.Ledger.DB != "" {
		t.Error("ledger should default off")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verify.yaml")
	data := `
target:
  base_url: http://explorer.internal:8080
browser:
  headful: true
  resource_blocking: [images, fonts]
timeouts:
  element: 5s
artifacts:
  dir: /tmp/artifacts
  dom_snapshot: false
ledger:
  db: runs.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Target.BaseURL != "http://explorer.internal:8080" {
		t.Errorf("base url = %q", cfg.Target.BaseURL)
	}
	if !cfg.Browser.Headful {
		t.Error("headful not parsed")
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("resource blocking = %v", cfg.Browser.ResourceBlocking)
	}
	if cfg.Timeouts.Element != 5*time.Second {
		t.Errorf("element timeout = %s", cfg.Timeouts.Element)
	}
	// Unset timeouts fall back to the flow constants.
	if cfg.Timeouts.Navigation != 60*time.Second {
		t.Errorf("navigation timeout = %s, want default 60s", cfg.Timeouts.Navigation)
	}
	// An explicit false survives defaulting.
	if cfg.Artifacts.DOMSnapshot == nil || *cfg.Artifacts.DOMSnapshot {
		t.Error("explicit dom_snapshot: false was overridden")
	}
	if cfg.Ledger.DB != "runs.db" {
		t.Errorf("ledger db = %q", cfg.Ledger.DB)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
