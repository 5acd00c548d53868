package mosaic

import (
	"image"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/vision"
)

// Cropper cuts the square inscribed in the ocular's circular field of view.
type Cropper struct {
	Finder    vision.CircleFinder
	Threshold uint8
}

// NewCropper builds a cropper from run parameters.
func NewCropper(cfg Config, finder vision.CircleFinder) *Cropper {
	return &Cropper{Finder: finder, Threshold: cfg.CropThreshold}
}

// Crop returns the inscribed square of the largest bright region. The
// input is returned unchanged when no circle is found or the square would
// be empty; the quality filter deals with such frames.
func (c *Cropper) Crop(img image.Image) image.Image {
	if c.Finder == nil {
		return img
	}
	circle, ok := c.Finder.FindFieldCircle(img, c.Threshold)
	if !ok {
		return img
	}
	square := circle.InscribedSquare().Clamp(img.Bounds())
	if square.Empty() {
		return img
	}
	return imgpkg.Crop(img, square.Image())
}
