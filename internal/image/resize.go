package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Thumbnail returns img scaled by factor (0 < factor <= 1) with bilinear
// interpolation. Both sides are at least one pixel.
func Thumbnail(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	if factor <= 0 || factor >= 1 {
		return img
	}
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

// CropCenter crops img to width x height around its center.
func CropCenter(img image.Image, width, height int) *image.NRGBA {
	return imaging.CropCenter(img, width, height)
}

// Crop returns a copy of the given region of img.
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}

// AddBorder surrounds img with a uniform border of the given thickness.
func AddBorder(img image.Image, thickness int, c color.Color) *image.NRGBA {
	if thickness <= 0 {
		return ToNRGBA(img)
	}
	b := img.Bounds()
	out := imaging.New(b.Dx()+2*thickness, b.Dy()+2*thickness, c)
	return imaging.Paste(out, img, image.Pt(thickness, thickness))
}

// EncodeJPEG encodes img as an RGB JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
