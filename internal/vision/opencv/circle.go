package opencv

import (
	"image"

	"ocular-mosaic/pkg/geometry"

	"gocv.io/x/gocv"
)

// CircleFinder locates the illuminated ocular disc: it binarizes the gray
// image, takes the largest external contour and fits its minimum enclosing
// circle.
type CircleFinder struct{}

// FindFieldCircle implements vision.CircleFinder.
func (CircleFinder) FindFieldCircle(img image.Image, threshold uint8) (geometry.Circle, bool) {
	gray, err := ImageToGray(img)
	if err != nil {
		return geometry.Circle{}, false
	}
	defer gray.Close()

	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, float32(threshold), 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return geometry.Circle{}, false
	}

	best := -1
	var bestArea float64
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}

	cx, cy, radius := gocv.MinEnclosingCircle(contours.At(best))
	if radius <= 0 {
		return geometry.Circle{}, false
	}
	return geometry.Circle{
		Center: geometry.Point2D{X: float64(cx), Y: float64(cy)},
		Radius: float64(radius),
	}, true
}
