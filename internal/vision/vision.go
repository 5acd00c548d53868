// Package vision declares the computer-vision capabilities the mosaic
// pipeline relies on. The OpenCV-backed implementation lives in the opencv
// subpackage; perceptual hashing is provided here directly.
package vision

import (
	"fmt"
	"image"

	"ocular-mosaic/pkg/geometry"
)

// Mode selects the alignment model of the panoramic compositor.
type Mode int

const (
	// ModePanorama assumes a continuous sweep related by full homographies.
	ModePanorama Mode = iota
	// ModeScans assumes a flat scan related by similarity transforms, which
	// tolerates loosely overlapping microscope frames.
	ModeScans
)

func (m Mode) String() string {
	switch m {
	case ModePanorama:
		return "panorama"
	case ModeScans:
		return "scans"
	default:
		return "unknown"
	}
}

// Status is the outcome of one stitching attempt. Values follow
// cv::Stitcher::Status.
type Status int

const (
	StatusOK Status = iota
	StatusErrNeedMoreImgs
	StatusErrHomographyEstFail
	StatusErrCameraParamsAdjustFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusErrNeedMoreImgs:
		return "ERR_NEED_MORE_IMGS"
	case StatusErrHomographyEstFail:
		return "ERR_HOMOGRAPHY_EST_FAIL"
	case StatusErrCameraParamsAdjustFail:
		return "ERR_CAMERA_PARAMS_ADJUST_FAIL"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// FeatureDetector counts salient keypoints in an image.
type FeatureDetector interface {
	CountKeypoints(img image.Image) int
}

// LuminanceMeter measures the share of pixels whose luma is below dark and
// the share whose luma is above bright.
type LuminanceMeter interface {
	LuminanceFractions(img image.Image, dark, bright uint8) (darkFrac, brightFrac float64)
}

// CircleFinder locates the bright circular field of view of an ocular image.
// ok is false when no contour is found.
type CircleFinder interface {
	FindFieldCircle(img image.Image, threshold uint8) (c geometry.Circle, ok bool)
}

// Panoramic composes an ordered list of overlapping images into one raster.
type Panoramic interface {
	Stitch(images []image.Image, mode Mode) (image.Image, Status)
}

// Toolkit bundles the capabilities used by one pipeline run.
type Toolkit struct {
	Features  FeatureDetector
	Luminance LuminanceMeter
	Circles   CircleFinder
	Stitcher  Panoramic
	Hasher    Hasher // nil when perceptual hashing is unavailable
}
