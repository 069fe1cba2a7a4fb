// Package config loads the optional run configuration file.
//
// The file supplies defaults for flags the user did not pass. Flags always
// win over the file; the file wins over built-in defaults. The path is
// explicit via --config, there is no automatic discovery.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the run configuration.
type Config struct {
	// Source labels packed MUs (file, chat, web, pdf).
	Source string `yaml:"source"`

	// Split is the split strategy spec, e.g. "line_window:400".
	Split string `yaml:"split"`

	// VaultID names the vault referenced by raw pointer URIs.
	VaultID string `yaml:"vault_id"`

	// Dedup selects the duplicate handling mode (skip, alias, versioned).
	Dedup string `yaml:"dedup"`

	// AssetsDir is the evidence root used by extract for pointer resolution.
	AssetsDir string `yaml:"assets_dir"`

	// Tags are attached to every packed MU.
	Tags []string `yaml:"tags"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Source:  "file",
		Split:   "line_window:400",
		VaultID: "default",
		Dedup:   "skip",
	}
}

// Load reads a config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
