package mosaic

import (
	"image"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/pkg/geometry"
)

// AssembleGrid tiles same-sized images row-major onto a near-square grid
// of ceil(sqrt(n)) columns. Cells past the last tile stay black.
func AssembleGrid(tiles []Tile) (*image.NRGBA, geometry.Grid, error) {
	if len(tiles) == 0 {
		return nil, geometry.Grid{}, ErrAssemblyFailed
	}

	w, h := tiles[0].Size()
	grid := geometry.NewGrid(len(tiles), w, h)
	canvas := imgpkg.NewComposite(grid.Width(), grid.Height())
	for i, t := range tiles {
		cell := grid.Cell(i)
		canvas.AddLayer(t.Image, cell.X, cell.Y)
	}
	return canvas.Render(), grid, nil
}
