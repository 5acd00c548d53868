// Package config loads the ocular-mosaic YAML configuration: store
// location, runner settings and named pipeline presets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"ocular-mosaic/internal/mosaic"
)

// Config is the top-level configuration.
type Config struct {
	DB            string        `yaml:"db"`
	DefaultPreset string        `yaml:"default_preset"`
	Workers       int           `yaml:"workers"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	FallbackGrid  bool          `yaml:"fallback_grid"`
	Acceleration  bool          `yaml:"acceleration"`
	LogLevel      string        `yaml:"log_level"` // debug | info | warn | error

	// Presets holds the file presets resolved against their base.
	Presets map[string]mosaic.Config `yaml:"-"`
}

type fileConfig struct {
	Config  `yaml:",inline"`
	Presets map[string]yaml.Node `yaml:"presets"`
}

// presetEntry is one preset in the file: optional base plus overrides.
type presetEntry struct {
	Base          string `yaml:"base"`
	mosaic.Config `yaml:",inline"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration. Unknown keys are rejected and every
// preset is validated.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := strictDecode(data, &raw); err != nil {
		return nil, err
	}

	cfg := raw.Config
	cfg.Presets = make(map[string]mosaic.Config, len(raw.Presets))
	for name, node := range raw.Presets {
		pc, err := resolvePreset(name, &node)
		if err != nil {
			return nil, err
		}
		cfg.Presets[name] = pc
	}

	cfg.applyDefaults()
	if _, err := cfg.Preset(cfg.DefaultPreset); err != nil {
		return nil, fmt.Errorf("default_preset: %w", err)
	}
	return &cfg, nil
}

func resolvePreset(name string, node *yaml.Node) (mosaic.Config, error) {
	var head struct {
		Base string `yaml:"base"`
	}
	if err := node.Decode(&head); err != nil {
		return mosaic.Config{}, fmt.Errorf("preset %s: %w", name, err)
	}

	base := head.Base
	if base == "" {
		if _, builtin := mosaic.Presets()[name]; builtin {
			base = name
		}
	}
	entry := presetEntry{Config: mosaic.DefaultConfig()}
	if base != "" {
		pc, err := mosaic.Preset(base)
		if err != nil {
			return mosaic.Config{}, fmt.Errorf("preset %s: base: %w", name, err)
		}
		entry.Config = pc
	}

	// Re-encode so the overrides get the strict decoder too.
	data, err := yaml.Marshal(node)
	if err != nil {
		return mosaic.Config{}, fmt.Errorf("preset %s: %w", name, err)
	}
	if err := strictDecode(data, &entry); err != nil {
		return mosaic.Config{}, fmt.Errorf("preset %s: %w", name, err)
	}
	if err := entry.Config.Validate(); err != nil {
		return mosaic.Config{}, fmt.Errorf("preset %s: %w", name, err)
	}
	return entry.Config, nil
}

func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DB == "" {
		c.DB = "data/samples.db"
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = mosaic.TagGrid
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Presets == nil {
		c.Presets = make(map[string]mosaic.Config)
	}
}

// Preset returns the named preset. File presets shadow built-in ones.
func (c *Config) Preset(name string) (mosaic.Config, error) {
	if pc, ok := c.Presets[name]; ok {
		return pc, nil
	}
	return mosaic.Preset(name)
}

// PresetNames lists built-in and file presets, sorted.
func (c *Config) PresetNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range mosaic.PresetNames() {
		seen[n] = true
		names = append(names, n)
	}
	for n := range c.Presets {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
