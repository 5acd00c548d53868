package mosaic

import (
	"image"

	"ocular-mosaic/internal/vision"
)

// Reason names why a frame was rejected.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonMostlyBlack Reason = "mostly_black"
	ReasonMostlyWhite Reason = "mostly_white"
	ReasonFeaturePoor Reason = "feature_poor"
	ReasonDuplicate   Reason = "duplicate"
	ReasonCapped      Reason = "capped"
)

// Verdict is the outcome of inspecting one thumbnail.
type Verdict struct {
	Reason         Reason
	DarkFraction   float64
	BrightFraction float64
	Keypoints      int // -1 when not measured
}

// Useful reports whether the frame passed every test.
func (v Verdict) Useful() bool {
	return v.Reason == ReasonNone
}

// QualityFilter rejects frames that are mostly black, mostly white or too
// poor in features to contribute to a mosaic.
type QualityFilter struct {
	DarkThreshold   uint8
	BrightThreshold uint8
	BlackRatio      float64
	WhiteRatio      float64
	MinKeypoints    int
	Luminance       vision.LuminanceMeter
	Features        vision.FeatureDetector
}

// NewQualityFilter builds a filter from run parameters and the toolkit's
// luminance meter and feature detector. A nil meter disables the black and
// white tests; a nil detector disables the feature test.
func NewQualityFilter(cfg Config, tk vision.Toolkit) *QualityFilter {
	return &QualityFilter{
		DarkThreshold:   cfg.DarkThreshold,
		BrightThreshold: cfg.BrightThreshold,
		BlackRatio:      cfg.BlackRatio,
		WhiteRatio:      cfg.WhiteRatio,
		MinKeypoints:    cfg.MinKeypoints,
		Luminance:       tk.Luminance,
		Features:        tk.Features,
	}
}

// IsUseful reports whether thumb passes all three tests.
func (f *QualityFilter) IsUseful(thumb image.Image) bool {
	return f.Inspect(thumb).Useful()
}

// Inspect runs the tests in order and stops at the first failure.
func (f *QualityFilter) Inspect(thumb image.Image) Verdict {
	v := Verdict{Keypoints: -1}
	if f.Luminance != nil {
		v.DarkFraction, v.BrightFraction = f.Luminance.LuminanceFractions(thumb, f.DarkThreshold, f.BrightThreshold)
		if v.DarkFraction >= f.BlackRatio {
			v.Reason = ReasonMostlyBlack
			return v
		}
		if v.BrightFraction >= f.WhiteRatio {
			v.Reason = ReasonMostlyWhite
			return v
		}
	}
	if f.Features != nil {
		v.Keypoints = f.Features.CountKeypoints(thumb)
		if v.Keypoints < f.MinKeypoints {
			v.Reason = ReasonFeaturePoor
		}
	}
	return v
}
