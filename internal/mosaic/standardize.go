package mosaic

import (
	"image"
	"image/color"

	imgpkg "ocular-mosaic/internal/image"
)

// Standardize center-crops every tile to the smallest width and height
// found among them.
func Standardize(tiles []Tile) []Tile {
	if len(tiles) < 2 {
		return tiles
	}

	minW, minH := tiles[0].Size()
	for _, t := range tiles[1:] {
		w, h := t.Size()
		minW = min(minW, w)
		minH = min(minH, h)
	}

	out := make([]Tile, len(tiles))
	for i, t := range tiles {
		out[i] = t
		if w, h := t.Size(); w != minW || h != minH {
			out[i].Image = image.Image(imgpkg.CropCenter(t.Image, minW, minH))
		}
	}
	return out
}

// FrameTiles surrounds every tile with a uniform border. It runs after
// Standardize so that every cell of the grid keeps its seam.
func FrameTiles(tiles []Tile, thickness int, c color.NRGBA) []Tile {
	if thickness <= 0 {
		return tiles
	}
	out := make([]Tile, len(tiles))
	for i, t := range tiles {
		out[i] = t
		out[i].Image = image.Image(imgpkg.AddBorder(t.Image, thickness, c))
	}
	return out
}
