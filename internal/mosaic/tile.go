package mosaic

import (
	"image"

	imgpkg "ocular-mosaic/internal/image"
)

// Tile is a frame on its way through the pipeline. Image keeps full
// resolution; Thumb is only used for filtering and hashing.
type Tile struct {
	SourceID string
	Image    image.Image
	Thumb    image.Image
}

// NewTile builds a tile with a thumbnail at the given downscale factor.
func NewTile(sourceID string, img image.Image, downscale float64) Tile {
	return Tile{
		SourceID: sourceID,
		Image:    img,
		Thumb:    imgpkg.Thumbnail(img, downscale),
	}
}

// Size returns the full-resolution dimensions.
func (t Tile) Size() (width, height int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

func sourceIDs(tiles []Tile) []string {
	ids := make([]string, len(tiles))
	for i, t := range tiles {
		ids[i] = t.SourceID
	}
	return ids
}

func images(tiles []Tile) []image.Image {
	out := make([]image.Image, len(tiles))
	for i, t := range tiles {
		out[i] = t.Image
	}
	return out
}
