// Package config loads the CLI's pipeline parameters from a YAML file and
// provides defaults. The core workers never read or persist configuration
// themselves; this layer exists for the batch command only.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the batch pipelines.
type Config struct {
	// Axes is the dimension-tag string of the input stacks.
	Axes string `yaml:"axes"`

	Tracking struct {
		// SearchRange is the max per-frame displacement in pixels.
		SearchRange float64 `yaml:"searchRange"`

		// Memory is how many consecutive frames a track may vanish.
		Memory int `yaml:"memory"`

		// UseVelocity enables velocity-predictive linking.
		UseVelocity bool `yaml:"useVelocity"`

		// MergeNeighbors merges isolated last-frame pairs into one lineage.
		MergeNeighbors bool `yaml:"mergeNeighbors"`

		// RemoveIncomplete prunes tracks absent from the last frame.
		RemoveIncomplete bool `yaml:"removeIncomplete"`
	} `yaml:"tracking"`

	Measure struct {
		// MembraneThickness is the ring erosion depth in pixels.
		MembraneThickness int `yaml:"membraneThickness"`

		// Factor scales the outlier brightness cutoff.
		Factor float64 `yaml:"factor"`
	} `yaml:"measure"`

	Segmentation struct {
		// Diameter is the median object diameter in pixels.
		Diameter float64 `yaml:"diameter"`

		// Anisotropy between the Z and YX axes for 3-D data.
		Anisotropy float64 `yaml:"anisotropy"`

		// Model is the segmentation model identifier.
		Model string `yaml:"model"`
	} `yaml:"segmentation"`
}

// DefaultConfig returns the defaults the interactive tool ships with.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Axes = "TYX"

	cfg.Tracking.SearchRange = 50
	cfg.Tracking.Memory = 2
	cfg.Tracking.UseVelocity = true
	cfg.Tracking.MergeNeighbors = true
	cfg.Tracking.RemoveIncomplete = true

	cfg.Measure.MembraneThickness = 4
	cfg.Measure.Factor = 2.0

	cfg.Segmentation.Diameter = 30
	cfg.Segmentation.Anisotropy = 1.0
	cfg.Segmentation.Model = "cyto3"

	return cfg
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}
