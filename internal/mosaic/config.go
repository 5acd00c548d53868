package mosaic

import (
	"fmt"
	"image/color"
	"sort"

	"ocular-mosaic/internal/vision"
	"ocular-mosaic/pkg/colorutil"
)

// Strategy selects the compositor.
type Strategy string

const (
	StrategyGeometric Strategy = "geometric"
	StrategyGrid      Strategy = "grid"
)

// Mode tags identify the kind of mosaic in published filenames.
const (
	TagCircular = "circular"
	TagCropped  = "cropped"
	TagGrid     = "grid"
	TagContact  = "contact"
)

// Config holds the parameters of one pipeline run. It is a value type;
// the WithX helpers return modified copies.
type Config struct {
	// Inspection thumbnails
	Downscale float64 `yaml:"downscale"`

	// Quality filter
	DarkThreshold   uint8   `yaml:"dark_threshold"`
	BrightThreshold uint8   `yaml:"bright_threshold"`
	BlackRatio      float64 `yaml:"black_ratio"`
	WhiteRatio      float64 `yaml:"white_ratio"`
	MinKeypoints    int     `yaml:"min_keypoints"`

	// Circle-to-square crop
	Crop          bool   `yaml:"crop"`
	CropThreshold uint8  `yaml:"crop_threshold"`
	Border        int    `yaml:"border"`
	BorderColor   string `yaml:"border_color"`

	// Duplicate detection
	Dedup      bool            `yaml:"dedup"`
	HashKind   vision.HashKind `yaml:"hash_kind"`
	MaxHamming int             `yaml:"max_hamming"`

	// Frame cap; 0 disables it. Seed 0 seeds from the clock.
	MaxFrames int   `yaml:"max_frames"`
	Seed      int64 `yaml:"seed"`

	Strategy    Strategy `yaml:"strategy"`
	StitchScale float64  `yaml:"stitch_scale"`

	ContactSheet bool `yaml:"contact_sheet"`
	ContactCell  int  `yaml:"contact_cell"`

	JPEGQuality int `yaml:"jpeg_quality"`
}

// DefaultConfig returns the baseline parameters.
func DefaultConfig() Config {
	return Config{
		Downscale:       0.25,
		DarkThreshold:   30,
		BrightThreshold: 240,
		BlackRatio:      0.60,
		WhiteRatio:      0.60,
		MinKeypoints:    50,
		Crop:            true,
		CropThreshold:   10,
		BorderColor:     "#ffffff",
		Dedup:           true,
		HashKind:        vision.HashPerception,
		MaxHamming:      5,
		MaxFrames:       100,
		Strategy:        StrategyGrid,
		StitchScale:     1.0,
		ContactCell:     160,
		JPEGQuality:     95,
	}
}

// Presets returns the named parameter sets.
func Presets() map[string]Config {
	base := DefaultConfig()

	circular := base.WithStrategy(StrategyGeometric).WithStitchScale(0.25)
	circular.Crop = false
	circular.Dedup = false

	cropped := base.WithStrategy(StrategyGeometric).WithStitchScale(0.25)
	cropped.Dedup = false

	grid := base.WithBorder(2, "#ffffff")

	return map[string]Config{
		TagCircular: circular,
		TagCropped:  cropped,
		TagGrid:     grid,
	}
}

// PresetNames returns the built-in preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, 3)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a built-in preset by name.
func Preset(name string) (Config, error) {
	cfg, ok := Presets()[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

// WithStrategy returns a copy of c using the given compositor.
func (c Config) WithStrategy(s Strategy) Config {
	c.Strategy = s
	return c
}

// WithMaxFrames returns a copy of c with the frame cap set.
func (c Config) WithMaxFrames(n int) Config {
	c.MaxFrames = n
	return c
}

// WithSeed returns a copy of c with a fixed frame-cap seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	return c
}

// WithBorder returns a copy of c with a crop border.
func (c Config) WithBorder(thickness int, hex string) Config {
	c.Border = thickness
	c.BorderColor = hex
	return c
}

// WithStitchScale returns a copy of c with the pre-stitch downscale factor set.
func (c Config) WithStitchScale(scale float64) Config {
	c.StitchScale = scale
	return c
}

// WithContactSheet returns a copy of c with the debug contact sheet toggled.
func (c Config) WithContactSheet(enabled bool) Config {
	c.ContactSheet = enabled
	return c
}

// ModeTag is the tag under which the composite is published.
func (c Config) ModeTag() string {
	switch {
	case c.Strategy == StrategyGrid:
		return TagGrid
	case c.Crop:
		return TagCropped
	default:
		return TagCircular
	}
}

// EffectiveBorder is the seam border framed around each cropped grid tile.
// Borders would create false features for the geometric stitcher, so they
// only apply to grid mosaics of cropped frames.
func (c Config) EffectiveBorder() int {
	if c.Strategy != StrategyGrid || !c.Crop {
		return 0
	}
	return c.Border
}

// BorderRGB returns the parsed border color, white when it does not parse.
func (c Config) BorderRGB() color.NRGBA {
	bc, err := colorutil.ParseHex(c.BorderColor)
	if err != nil {
		return colorutil.White
	}
	return bc
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	switch {
	case c.Downscale <= 0 || c.Downscale > 1:
		return fmt.Errorf("downscale %.3f out of range (0,1]", c.Downscale)
	case c.BlackRatio <= 0 || c.BlackRatio > 1:
		return fmt.Errorf("black_ratio %.3f out of range (0,1]", c.BlackRatio)
	case c.WhiteRatio <= 0 || c.WhiteRatio > 1:
		return fmt.Errorf("white_ratio %.3f out of range (0,1]", c.WhiteRatio)
	case c.MinKeypoints < 0:
		return fmt.Errorf("min_keypoints %d is negative", c.MinKeypoints)
	case c.MaxHamming < 0:
		return fmt.Errorf("max_hamming %d is negative", c.MaxHamming)
	case c.MaxFrames < 0:
		return fmt.Errorf("max_frames %d is negative", c.MaxFrames)
	case c.Border < 0:
		return fmt.Errorf("border %d is negative", c.Border)
	case c.StitchScale <= 0 || c.StitchScale > 1:
		return fmt.Errorf("stitch_scale %.3f out of range (0,1]", c.StitchScale)
	case c.ContactSheet && c.ContactCell <= 0:
		return fmt.Errorf("contact_cell %d must be positive", c.ContactCell)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("jpeg_quality %d out of range [1,100]", c.JPEGQuality)
	}
	switch c.Strategy {
	case StrategyGeometric, StrategyGrid:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.Dedup {
		if _, err := vision.NewHasher(c.HashKind); err != nil {
			return err
		}
	}
	if _, err := colorutil.ParseHex(c.BorderColor); err != nil {
		return fmt.Errorf("border_color: %w", err)
	}
	return nil
}
