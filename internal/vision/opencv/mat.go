// Package opencv implements the vision capabilities on top of gocv.
package opencv

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// packedNRGBA returns img as an NRGBA whose pixel rows are contiguous, the
// layout NewMatFromBytes expects.
func packedNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	return imaging.Clone(img)
}

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR format.
// The caller owns the returned Mat.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	rgba := packedNRGBA(img)
	b := rgba.Bounds()
	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("mat from bytes: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorRGBAToBGR)
	return dst, nil
}

// ImageToGray converts a Go image.Image to a single-channel gocv.Mat.
func ImageToGray(img image.Image) (gocv.Mat, error) {
	rgba := packedNRGBA(img)
	b := rgba.Bounds()
	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("mat from bytes: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorRGBAToGray)
	return dst, nil
}

// MatToImage converts a BGR gocv.Mat back to a Go image.
func MatToImage(m gocv.Mat) (image.Image, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	return m.ToImage()
}
