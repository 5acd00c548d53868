package opencv

import (
	"image"
	"log/slog"
	"math"

	"ocular-mosaic/internal/vision"
	"ocular-mosaic/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// StitchParams tunes the feature-based compositor.
type StitchParams struct {
	RatioTest       float64 // Lowe ratio for kNN matches
	MinMatches      int     // good matches needed to relate two frames
	MinInliers      int     // RANSAC inliers needed to accept a homography
	RansacThreshold float64 // reprojection threshold in pixels
	MaxCanvasFactor float64 // canvas area limit relative to the summed frame area
	MinOverlap      float64 // overlap of consecutive warped frames, relative to the smaller one
	MinScale        float64 // accepted range of the accumulated area scale
	MaxScale        float64
}

// DefaultStitchParams returns parameters that work for overlapping
// microscope frames of a few hundred pixels per side.
func DefaultStitchParams() StitchParams {
	return StitchParams{
		RatioTest:       0.75,
		MinMatches:      10,
		MinInliers:      8,
		RansacThreshold: 4.0,
		MaxCanvasFactor: 4.0,
		MinOverlap:      0.05,
		MinScale:        0.25,
		MaxScale:        4.0,
	}
}

// Stitcher composes frames by chaining pairwise transforms between
// consecutive frames onto the first one. In panorama mode the pairwise
// model is a RANSAC homography, in scans mode a partial affine
// (rotation, uniform scale, translation).
type Stitcher struct {
	params StitchParams
	logger *slog.Logger
}

// NewStitcher creates a Stitcher.
func NewStitcher(params StitchParams, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stitcher{params: params, logger: logger}
}

type frameFeatures struct {
	keypoints   []gocv.KeyPoint
	descriptors gocv.Mat
}

// Stitch implements vision.Panoramic.
func (s *Stitcher) Stitch(images []image.Image, mode vision.Mode) (image.Image, vision.Status) {
	if len(images) < 2 {
		return nil, vision.StatusErrNeedMoreImgs
	}

	mats := make([]gocv.Mat, 0, len(images))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	for _, img := range images {
		m, err := ImageToMat(img)
		if err != nil {
			return nil, vision.StatusErrNeedMoreImgs
		}
		mats = append(mats, m)
	}

	feats := s.detect(mats)
	defer func() {
		for _, f := range feats {
			f.descriptors.Close()
		}
	}()

	// transforms[i] maps frame i into the coordinates of frame 0.
	transforms := make([]*mat.Dense, len(mats))
	transforms[0] = identity()

	matcher := gocv.NewBFMatcher()
	defer matcher.Close()

	for i := 1; i < len(mats); i++ {
		local, status := s.pairTransform(&matcher, feats[i], feats[i-1], mode)
		if status != vision.StatusOK {
			s.logger.Debug("stitch: pair rejected", "mode", mode, "pair", i, "status", status)
			return nil, status
		}
		var chained mat.Dense
		chained.Mul(transforms[i-1], local)
		transforms[i] = &chained

		scale := math.Abs(chained.At(0, 0)*chained.At(1, 1) - chained.At(0, 1)*chained.At(1, 0))
		if scale < s.params.MinScale || scale > s.params.MaxScale {
			s.logger.Debug("stitch: implausible scale", "mode", mode, "pair", i, "scale", scale)
			return nil, vision.StatusErrCameraParamsAdjustFail
		}
	}

	outlines, ok := warpedOutlines(mats, transforms)
	if !ok {
		return nil, vision.StatusErrCameraParamsAdjustFail
	}
	for i := 1; i < len(outlines); i++ {
		if !geometry.IsConvex(outlines[i]) {
			s.logger.Debug("stitch: folded frame", "mode", mode, "frame", i)
			return nil, vision.StatusErrHomographyEstFail
		}
		if ov := geometry.OverlapFraction(outlines[i-1], outlines[i]); ov < s.params.MinOverlap {
			s.logger.Debug("stitch: frames do not overlap", "mode", mode, "pair", i, "overlap", ov)
			return nil, vision.StatusErrHomographyEstFail
		}
	}

	canvasRect, ok := s.canvasBounds(mats, outlines)
	if !ok {
		return nil, vision.StatusErrCameraParamsAdjustFail
	}

	offset := translation(-float64(canvasRect.X), -float64(canvasRect.Y))
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), canvasRect.Height, canvasRect.Width, gocv.MatTypeCV8UC3)
	defer canvas.Close()
	size := image.Pt(canvasRect.Width, canvasRect.Height)

	for i, src := range mats {
		var full mat.Dense
		full.Mul(offset, transforms[i])
		m := denseToMat(&full)

		warped := gocv.NewMat()
		gocv.WarpPerspective(src, &warped, m, size)

		// Warp a solid mask alongside so dark specimen pixels are still pasted.
		solid := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8U)
		mask := gocv.NewMat()
		gocv.WarpPerspective(solid, &mask, m, size)

		warped.CopyToWithMask(&canvas, mask)

		mask.Close()
		solid.Close()
		warped.Close()
		m.Close()
	}

	out, err := MatToImage(canvas)
	if err != nil {
		return nil, vision.StatusErrCameraParamsAdjustFail
	}
	return out, vision.StatusOK
}

func (s *Stitcher) detect(mats []gocv.Mat) []frameFeatures {
	sift := gocv.NewSIFT()
	defer sift.Close()
	noMask := gocv.NewMat()
	defer noMask.Close()

	feats := make([]frameFeatures, len(mats))
	for i, m := range mats {
		gray := gocv.NewMat()
		gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
		kps, desc := sift.DetectAndCompute(gray, noMask)
		gray.Close()
		feats[i] = frameFeatures{keypoints: kps, descriptors: desc}
	}
	return feats
}

// pairTransform estimates the 3x3 transform taking points of frame "from"
// into frame "to".
func (s *Stitcher) pairTransform(matcher *gocv.BFMatcher, from, to frameFeatures, mode vision.Mode) (*mat.Dense, vision.Status) {
	if from.descriptors.Empty() || to.descriptors.Empty() ||
		len(from.keypoints) < s.params.MinMatches || len(to.keypoints) < s.params.MinMatches {
		return nil, vision.StatusErrNeedMoreImgs
	}

	var srcPts, dstPts []gocv.Point2f
	for _, m := range matcher.KnnMatch(from.descriptors, to.descriptors, 2) {
		if len(m) < 2 || m[0].Distance >= s.params.RatioTest*m[1].Distance {
			continue
		}
		q := from.keypoints[m[0].QueryIdx]
		t := to.keypoints[m[0].TrainIdx]
		srcPts = append(srcPts, gocv.Point2f{X: float32(q.X), Y: float32(q.Y)})
		dstPts = append(dstPts, gocv.Point2f{X: float32(t.X), Y: float32(t.Y)})
	}
	if len(srcPts) < s.params.MinMatches {
		return nil, vision.StatusErrNeedMoreImgs
	}

	switch mode {
	case vision.ModeScans:
		return s.affine(srcPts, dstPts)
	default:
		return s.homography(srcPts, dstPts)
	}
}

func (s *Stitcher) homography(srcPts, dstPts []gocv.Point2f) (*mat.Dense, vision.Status) {
	src := pointsToMat(srcPts)
	defer src.Close()
	dst := pointsToMat(dstPts)
	defer dst.Close()
	inliers := gocv.NewMat()
	defer inliers.Close()

	h := gocv.FindHomography(src, &dst, gocv.HomographyMethodRANSAC, s.params.RansacThreshold, &inliers, 2000, 0.995)
	defer h.Close()
	if h.Empty() || h.Rows() != 3 || h.Cols() != 3 {
		return nil, vision.StatusErrHomographyEstFail
	}
	if gocv.CountNonZero(inliers) < s.params.MinInliers {
		return nil, vision.StatusErrHomographyEstFail
	}

	d := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, h.GetDoubleAt(r, c))
		}
	}
	return d, vision.StatusOK
}

func (s *Stitcher) affine(srcPts, dstPts []gocv.Point2f) (*mat.Dense, vision.Status) {
	from := gocv.NewPoint2fVectorFromPoints(srcPts)
	defer from.Close()
	to := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer to.Close()

	a := gocv.EstimateAffinePartial2D(from, to)
	defer a.Close()
	if a.Empty() || a.Rows() != 2 || a.Cols() != 3 {
		return nil, vision.StatusErrHomographyEstFail
	}

	d := identity()
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, a.GetDoubleAt(r, c))
		}
	}
	return d, vision.StatusOK
}

// warpedOutlines projects the corners of every frame into the coordinates
// of the first frame. It fails when a corner lands behind the camera.
func warpedOutlines(mats []gocv.Mat, transforms []*mat.Dense) ([][]geometry.Point2D, bool) {
	outlines := make([][]geometry.Point2D, len(mats))
	for i, m := range mats {
		corners := geometry.RectCorners(float64(m.Cols()), float64(m.Rows()))
		for j, p := range corners {
			q, ok := project(transforms[i], p)
			if !ok {
				return nil, false
			}
			corners[j] = q
		}
		outlines[i] = corners
	}
	return outlines, true
}

// canvasBounds returns the pixel rectangle enclosing every outline, or
// false when it is empty or unreasonably large.
func (s *Stitcher) canvasBounds(mats []gocv.Mat, outlines [][]geometry.Point2D) (geometry.RectInt, bool) {
	var corners []geometry.Point2D
	var area float64
	for i, m := range mats {
		area += float64(m.Cols()) * float64(m.Rows())
		corners = append(corners, outlines[i]...)
	}

	r := geometry.BoundingBox(corners).ToInt()
	if r.Empty() || float64(r.Width)*float64(r.Height) > s.params.MaxCanvasFactor*area {
		return geometry.RectInt{}, false
	}
	return r, true
}

func project(t *mat.Dense, p geometry.Point2D) (geometry.Point2D, bool) {
	x := t.At(0, 0)*p.X + t.At(0, 1)*p.Y + t.At(0, 2)
	y := t.At(1, 0)*p.X + t.At(1, 1)*p.Y + t.At(1, 2)
	w := t.At(2, 0)*p.X + t.At(2, 1)*p.Y + t.At(2, 2)
	if w < 1e-6 {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{X: x / w, Y: y / w}, true
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func translation(tx, ty float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, tx, 0, 1, ty, 0, 0, 1})
}

func denseToMat(d *mat.Dense) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, d.At(r, c))
		}
	}
	return m
}

func pointsToMat(pts []gocv.Point2f) gocv.Mat {
	m := gocv.NewMatWithSize(len(pts), 1, gocv.MatTypeCV64FC2)
	for i, p := range pts {
		m.SetDoubleAt(i, 0, float64(p.X))
		m.SetDoubleAt(i, 1, float64(p.Y))
	}
	return m
}
