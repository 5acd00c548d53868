package mosaic

import (
	"image"

	xdraw "golang.org/x/image/draw"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/pkg/geometry"
)

// BuildContactSheet lays the tiles out on the grid rule with square cells
// of the given size. Each tile is scaled to fit its cell and centered.
func BuildContactSheet(tiles []Tile, cell int) *image.NRGBA {
	if len(tiles) == 0 || cell <= 0 {
		return nil
	}
	grid := geometry.NewGrid(len(tiles), cell, cell)
	canvas := imgpkg.NewComposite(grid.Width(), grid.Height())

	for i, t := range tiles {
		w, h := t.Size()
		if w == 0 || h == 0 {
			continue
		}
		fw, fh := fitInside(w, h, cell)
		thumb := image.NewNRGBA(image.Rect(0, 0, fw, fh))
		xdraw.CatmullRom.Scale(thumb, thumb.Bounds(), t.Image, t.Image.Bounds(), xdraw.Src, nil)

		r := grid.Cell(i)
		canvas.AddLayer(thumb, r.X+(cell-fw)/2, r.Y+(cell-fh)/2)
	}
	return canvas.Render()
}

func fitInside(w, h, box int) (int, int) {
	if w >= h {
		return box, max(1, h*box/w)
	}
	return max(1, w*box/h), box
}
