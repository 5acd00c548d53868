// Package mosaic builds one composite image from the raw ocular sub-images
// of a sample: load, filter, crop, dedup, cap, standardize, compose, publish.
package mosaic

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"ocular-mosaic/internal/vision"
	"ocular-mosaic/pkg/geometry"
)

// Report summarizes what happened to the frames of one run.
type Report struct {
	Listed       int
	DecodeFailed int
	Rejected     map[Reason]int
	Kept         int

	// Keypoint statistics over the frames that passed the quality filter.
	KeypointMean   float64
	KeypointStdDev float64

	Grid    geometry.Grid // zero unless the grid strategy ran
	Mode    vision.Mode   // stitch mode that succeeded, geometric strategy only
	Elapsed time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	SampleID     string
	Tag          string
	Image        image.Image
	ContactSheet image.Image // nil unless enabled

	// FrameIDs lists the frames used in the composite, in order.
	FrameIDs []string

	MosaicID  string // set once published
	ContactID string

	// JPEGQuality is the quality the composites are published at.
	JPEGQuality int

	Report Report
}

// Pipeline runs the mosaic stages with one fixed configuration and
// capability set.
type Pipeline struct {
	cfg    Config
	vision vision.Toolkit
	logger *slog.Logger
}

// New validates cfg and returns a pipeline.
func New(cfg Config, tk vision.Toolkit, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mosaic: invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, vision: tk, logger: logger}, nil
}

// Config returns the run parameters.
func (p *Pipeline) Config() Config { return p.cfg }

// Run builds the mosaic of a sample and publishes it, plus the contact
// sheet when enabled.
func Run(ctx context.Context, st ImageStore, sampleID string, cfg Config, tk vision.Toolkit, logger *slog.Logger) (*Result, error) {
	p, err := New(cfg, tk, logger)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, st, sampleID)
}

// Run builds and publishes the mosaic of a sample. If only the contact
// sheet fails to publish, the result is returned with MosaicID set along
// with the error.
func (p *Pipeline) Run(ctx context.Context, st ImageStore, sampleID string) (*Result, error) {
	res, err := p.Build(ctx, st, sampleID)
	if err != nil {
		return nil, err
	}

	pub := &Publisher{Store: st, Quality: p.cfg.JPEGQuality}
	if res.MosaicID, err = pub.Publish(ctx, sampleID, res.Image, res.Tag); err != nil {
		return nil, err
	}
	if res.ContactSheet != nil {
		if res.ContactID, err = pub.Publish(ctx, sampleID, res.ContactSheet, TagContact); err != nil {
			return res, fmt.Errorf("sample %s: mosaic %s stored: %w", sampleID, res.MosaicID, err)
		}
	}
	p.logger.Info("mosaic published", "sample", sampleID, "tag", res.Tag, "id", res.MosaicID,
		"frames", len(res.FrameIDs), "elapsed", res.Report.Elapsed.Round(time.Millisecond))
	return res, nil
}

// Build runs every stage except publishing.
func (p *Pipeline) Build(ctx context.Context, st ImageStore, sampleID string) (*Result, error) {
	start := time.Now()
	cfg := p.cfg
	logger := p.logger.With("sample", sampleID)
	report := Report{Rejected: make(map[Reason]int)}

	frames, failures, err := LoadFrames(ctx, st, sampleID)
	if err != nil {
		return nil, err
	}
	report.Listed = len(frames) + len(failures)
	report.DecodeFailed = len(failures)
	for _, f := range failures {
		logger.Warn("skipping undecodable frame", "frame", f.FrameID, "error", f.Err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("sample %s: %w", sampleID, ErrNoUsableFrames)
	}

	tiles, keypoints := p.selectTiles(frames, &report, logger)
	logger.Info("frames selected", "kept", len(tiles), "listed", report.Listed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if len(keypoints) > 0 {
		report.KeypointMean, report.KeypointStdDev = stat.MeanStdDev(keypoints, nil)
		if len(keypoints) == 1 {
			report.KeypointStdDev = 0
		}
	}

	if n := len(tiles); cfg.MaxFrames > 0 && n > cfg.MaxFrames {
		tiles = CapFrames(tiles, cfg.MaxFrames, cfg.Seed)
		report.Rejected[ReasonCapped] = n - len(tiles)
		logger.Info("frame cap applied", "from", n, "to", len(tiles))
	}
	report.Kept = len(tiles)
	if len(tiles) == 0 {
		return nil, fmt.Errorf("sample %s: %w", sampleID, ErrNoUsableFrames)
	}

	res := &Result{
		SampleID:    sampleID,
		Tag:         cfg.ModeTag(),
		FrameIDs:    sourceIDs(tiles),
		JPEGQuality: cfg.JPEGQuality,
	}

	switch cfg.Strategy {
	case StrategyGrid:
		tiles = FrameTiles(Standardize(tiles), cfg.EffectiveBorder(), cfg.BorderRGB())
		img, grid, err := AssembleGrid(tiles)
		if err != nil {
			return nil, err
		}
		res.Image = img
		report.Grid = grid
		logger.Info("grid assembled", "cols", grid.Cols, "rows", grid.Rows,
			"width", grid.Width(), "height", grid.Height())
	case StrategyGeometric:
		stitcher := &GeometricStitcher{Panoramic: p.vision.Stitcher, Scale: cfg.StitchScale, Logger: logger}
		img, mode, err := stitcher.Compose(tiles)
		if err != nil {
			return nil, err
		}
		res.Image = img
		report.Mode = mode
		logger.Info("stitched", "mode", mode.String(), "tiles", len(tiles))
	}

	if cfg.ContactSheet {
		res.ContactSheet = BuildContactSheet(tiles, cfg.ContactCell)
	}

	report.Elapsed = time.Since(start)
	res.Report = report
	return res, nil
}

// selectTiles crops each frame in order, then applies the quality filter
// and the duplicate detector to the cropped tile.
func (p *Pipeline) selectTiles(frames []RawFrame, report *Report, logger *slog.Logger) ([]Tile, []float64) {
	cfg := p.cfg
	filter := NewQualityFilter(cfg, p.vision)

	var cropper *Cropper
	if cfg.Crop {
		cropper = NewCropper(cfg, p.vision.Circles)
	}

	var hasher vision.Hasher
	if cfg.Dedup {
		hasher = p.vision.Hasher
		if hasher == nil {
			logger.Warn("dedup: perceptual hashing unavailable, duplicate detection skipped")
		}
	}
	dedup := NewDuplicateDetector(hasher, cfg.MaxHamming, logger)

	var tiles []Tile
	var keypoints []float64
	for _, f := range frames {
		img := f.Image
		if cropper != nil {
			img = cropper.Crop(img)
		}
		t := NewTile(f.ID, img, cfg.Downscale)

		v := filter.Inspect(t.Thumb)
		if !v.Useful() {
			report.Rejected[v.Reason]++
			logger.Debug("frame rejected", "frame", f.ID, "reason", string(v.Reason),
				"dark", v.DarkFraction, "bright", v.BrightFraction, "keypoints", v.Keypoints)
			continue
		}
		if v.Keypoints >= 0 {
			keypoints = append(keypoints, float64(v.Keypoints))
		}

		if !dedup.Accept(t) {
			report.Rejected[ReasonDuplicate]++
			logger.Debug("frame rejected", "frame", f.ID, "reason", string(ReasonDuplicate))
			continue
		}
		tiles = append(tiles, t)
	}
	return tiles, keypoints
}
