package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Axes != "TYX" {
		t.Errorf("default axes %q", cfg.Axes)
	}
	if cfg.Tracking.SearchRange != 50 || cfg.Tracking.Memory != 2 {
		t.Errorf("wrong tracking defaults: %+v", cfg.Tracking)
	}
	if !cfg.Tracking.UseVelocity {
		t.Error("velocity prediction must default on")
	}
	if cfg.Measure.MembraneThickness != 4 || cfg.Measure.Factor != 2.0 {
		t.Errorf("wrong measure defaults: %+v", cfg.Measure)
	}
	if cfg.Segmentation.Model != "cyto3" {
		t.Errorf("wrong segmentation model default: %q", cfg.Segmentation.Model)
	}
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tracking.SearchRange != 50 {
		t.Errorf("missing file must yield defaults, got %+v", cfg.Tracking)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
axes: ZYX
tracking:
  searchRange: 25
  memory: 1
measure:
  membraneThickness: 6
`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Axes != "ZYX" {
		t.Errorf("axes not overridden: %q", cfg.Axes)
	}
	if cfg.Tracking.SearchRange != 25 || cfg.Tracking.Memory != 1 {
		t.Errorf("tracking not overridden: %+v", cfg.Tracking)
	}
	if cfg.Measure.MembraneThickness != 6 {
		t.Errorf("thickness not overridden: %d", cfg.Measure.MembraneThickness)
	}
	// Untouched keys keep their defaults.
	if cfg.Measure.Factor != 2.0 {
		t.Errorf("factor must keep its default, got %f", cfg.Measure.Factor)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tracking: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed YAML must fail to load")
	}
}
