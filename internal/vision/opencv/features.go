package opencv

import (
	"image"

	"gocv.io/x/gocv"
)

// FeatureDetector counts SIFT keypoints. It owns an OpenCV handle and must
// be closed.
type FeatureDetector struct {
	sift gocv.SIFT
}

// NewFeatureDetector creates a SIFT-backed detector.
func NewFeatureDetector() *FeatureDetector {
	return &FeatureDetector{sift: gocv.NewSIFT()}
}

// CountKeypoints implements vision.FeatureDetector.
func (d *FeatureDetector) CountKeypoints(img image.Image) int {
	gray, err := ImageToGray(img)
	if err != nil {
		return 0
	}
	defer gray.Close()
	return len(d.sift.Detect(gray))
}

// Close releases the SIFT handle.
func (d *FeatureDetector) Close() error {
	return d.sift.Close()
}
