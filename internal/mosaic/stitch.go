package mosaic

import (
	"errors"
	"image"
	"log/slog"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/vision"
)

// GeometricStitcher composes tiles with the panoramic capability, first in
// panorama mode and then, if that fails, in scans mode.
type GeometricStitcher struct {
	Panoramic vision.Panoramic
	Scale     float64 // pre-stitch downscale, 1 keeps full resolution
	Logger    *slog.Logger
}

// Compose returns the stitched raster and the mode that produced it. When
// both attempts fail the error is a *StitchingFailedError.
func (s *GeometricStitcher) Compose(tiles []Tile) (image.Image, vision.Mode, error) {
	if s.Panoramic == nil {
		return nil, 0, errors.New("mosaic: no panoramic capability")
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	imgs := images(tiles)
	if s.Scale > 0 && s.Scale < 1 {
		for i, img := range imgs {
			imgs[i] = imgpkg.Thumbnail(img, s.Scale)
		}
	}

	pano, panoStatus := s.Panoramic.Stitch(imgs, vision.ModePanorama)
	if panoStatus == vision.StatusOK && pano != nil {
		return pano, vision.ModePanorama, nil
	}
	logger.Warn("stitch: panorama failed, trying scans", "status", panoStatus.String(), "tiles", len(imgs))

	scan, scanStatus := s.Panoramic.Stitch(imgs, vision.ModeScans)
	if scanStatus == vision.StatusOK && scan != nil {
		return scan, vision.ModeScans, nil
	}
	return nil, 0, &StitchingFailedError{Panorama: panoStatus, Scans: scanStatus}
}
