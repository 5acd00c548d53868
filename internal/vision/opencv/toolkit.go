package opencv

import (
	"log/slog"

	"ocular-mosaic/internal/vision"
)

// Options configures the OpenCV-backed toolkit for one run.
type Options struct {
	// Acceleration requests a hardware-accelerated path. Only the CPU path
	// is built; the request is logged and ignored.
	Acceleration bool

	// Hasher is used for duplicate detection; nil disables it.
	Hasher vision.Hasher

	Stitch StitchParams
	Logger *slog.Logger
}

// DefaultOptions returns CPU-only options with default stitching parameters.
func DefaultOptions() Options {
	return Options{Stitch: DefaultStitchParams()}
}

// Toolkit owns the OpenCV handles used by one pipeline run.
type Toolkit struct {
	features *FeatureDetector
	stitcher *Stitcher
	hasher   vision.Hasher
}

// Open allocates the run-scoped OpenCV handles. Close must be called when
// the run ends.
func Open(opts Options) *Toolkit {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Acceleration {
		logger.Warn("opencv: hardware acceleration requested but not built in, using CPU")
	}
	return &Toolkit{
		features: NewFeatureDetector(),
		stitcher: NewStitcher(opts.Stitch, logger),
		hasher:   opts.Hasher,
	}
}

// Vision returns the capability set backed by this toolkit.
func (t *Toolkit) Vision() vision.Toolkit {
	return vision.Toolkit{
		Features:  t.features,
		Luminance: LuminanceMeter{},
		Circles:   CircleFinder{},
		Stitcher:  t.stitcher,
		Hasher:    t.hasher,
	}
}

// Close releases the OpenCV handles.
func (t *Toolkit) Close() error {
	return t.features.Close()
}
