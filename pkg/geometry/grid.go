package geometry

import "math"

// Grid is a near-square row-major layout of equally sized cells.
type Grid struct {
	Count      int // number of occupied cells
	Cols, Rows int
	CellWidth  int
	CellHeight int
}

// NewGrid lays out n cells of the given size with cols = ceil(sqrt(n))
// and rows = ceil(n/cols). A grid for n <= 0 has no rows or columns.
func NewGrid(n, cellWidth, cellHeight int) Grid {
	if n <= 0 {
		return Grid{CellWidth: cellWidth, CellHeight: cellHeight}
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	return Grid{
		Count:      n,
		Cols:       cols,
		Rows:       rows,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
	}
}

// Width returns the total canvas width in pixels.
func (g Grid) Width() int {
	return g.Cols * g.CellWidth
}

// Height returns the total canvas height in pixels.
func (g Grid) Height() int {
	return g.Rows * g.CellHeight
}

// Position returns the row and column of cell i.
func (g Grid) Position(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// Cell returns the pixel rectangle of cell i.
func (g Grid) Cell(i int) RectInt {
	row, col := g.Position(i)
	return RectInt{
		X:      col * g.CellWidth,
		Y:      row * g.CellHeight,
		Width:  g.CellWidth,
		Height: g.CellHeight,
	}
}
