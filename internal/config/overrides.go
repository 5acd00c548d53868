package config

import (
	"fmt"

	"ocular-mosaic/internal/mosaic"
)

// Overrides holds settings given on the command line. They win over the
// file and are applied again after every reload.
type Overrides struct {
	DB           string
	Workers      int
	LogLevel     string
	FallbackGrid bool
	Acceleration bool

	// Strategy, when set, replaces the compositor of Preset (or of the
	// default preset when Preset is empty).
	Preset   string
	Strategy mosaic.Strategy
}

// Apply writes the overrides into c.
func (o Overrides) Apply(c *Config) error {
	if o.DB != "" {
		c.DB = o.DB
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	c.FallbackGrid = c.FallbackGrid || o.FallbackGrid
	c.Acceleration = c.Acceleration || o.Acceleration

	if o.Strategy == "" {
		return nil
	}
	name := o.Preset
	if name == "" {
		name = c.DefaultPreset
	}
	pc, err := c.Preset(name)
	if err != nil {
		return err
	}
	pc = pc.WithStrategy(o.Strategy)
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}
	c.Presets[name] = pc
	return nil
}
