package opencv

import (
	"image"

	"gocv.io/x/gocv"
)

// LuminanceMeter counts dark and bright pixels on the gray image with two
// binary thresholds.
type LuminanceMeter struct{}

// LuminanceFractions implements vision.LuminanceMeter. An empty or
// unconvertible image counts as entirely dark.
func (LuminanceMeter) LuminanceFractions(img image.Image, dark, bright uint8) (float64, float64) {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 1, 0
	}
	gray, err := ImageToGray(img)
	if err != nil {
		return 1, 0
	}
	defer gray.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	// luma < dark, i.e. not above dark-1
	gocv.Threshold(gray, &mask, float32(dark)-1, 255, gocv.ThresholdBinaryInv)
	nDark := gocv.CountNonZero(mask)

	gocv.Threshold(gray, &mask, float32(bright), 255, gocv.ThresholdBinary)
	nBright := gocv.CountNonZero(mask)

	return float64(nDark) / float64(total), float64(nBright) / float64(total)
}
