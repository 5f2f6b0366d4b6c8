// Package config loads the optional .envfold.yaml project file. The file is
// looked up only in the given directory; there is no upward search.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/envfold/envfold/internal/prune"
)

const FileName = ".envfold.yaml"

type PruneConfig struct {
	Patterns []string `yaml:"patterns,omitempty"`
}

type Config struct {
	Files    []string    `yaml:"files,omitempty"`
	Overload bool        `yaml:"overload,omitempty"`
	Env      []string    `yaml:"env,omitempty"`
	Prune    PruneConfig `yaml:"prune,omitempty"`
}

// Default is the configuration used when no .envfold.yaml exists.
func Default() *Config {
	return &Config{
		Files: []string{".env"},
		Prune: PruneConfig{Patterns: prune.DefaultPatterns},
	}
}

func Path(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, FileName)
}

// Load reads .envfold.yaml from dir, filling unset fields from Default.
// A missing file yields Default unchanged.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	path := Path(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if len(cfg.Files) == 0 {
		cfg.Files = Default().Files
	}
	if len(cfg.Prune.Patterns) == 0 {
		cfg.Prune.Patterns = prune.DefaultPatterns
	}
	return cfg, nil
}

// Save writes the config to dir.
func (c *Config) Save(dir string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(Path(dir), out, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
