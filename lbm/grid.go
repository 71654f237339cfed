// Package lbm implements the D2Q9 lattice-Boltzmann scheme with BGK
// collision. The speeds in each cell are numbered:
//
//	6 2 5
//	 \|/
//	3-0-1
//	 /|\
//	7 4 8
//
// The grid is stored row major, row 0 at the bottom, and is periodic in
// both axes.
package lbm

import "log"

// NSpeeds is the number of discrete velocity directions per cell.
const NSpeeds = 9

// Cell holds the occupation densities for one lattice site.
type Cell [NSpeeds]float32

// Grid is a row-major 2D array of lattice cells.
type Grid struct {
	Width  int
	Height int
	Cells  []Cell
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		log.Panicf("invalid grid dimensions %dx%d", width, height)
	}
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

// InitialGrid allocates a grid with every cell at the reference density,
// split across the directions with the standard resting weights.
func InitialGrid(p Params) *Grid {
	w0 := p.Density * 4 / 9
	w1 := p.Density / 9
	w2 := p.Density / 36

	grid := NewGrid(p.Nx, p.Ny)
	for i := range grid.Cells {
		grid.Cells[i] = Cell{w0, w1, w1, w1, w1, w2, w2, w2, w2}
	}
	return grid
}

// At returns the cell at (x, y).
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[x+y*g.Width]
}

// Row returns the cells of row y.
func (g *Grid) Row(y int) []Cell {
	return g.Cells[y*g.Width : (y+1)*g.Width]
}

// RowFloats is the number of float32 values in one serialised row.
func (g *Grid) RowFloats() int {
	return g.Width * NSpeeds
}

// PackRow serialises row y into buf, which must hold RowFloats values.
func (g *Grid) PackRow(y int, buf []float32) {
	row := g.Row(y)
	for x := 0; x != g.Width; x++ {
		copy(buf[x*NSpeeds:(x+1)*NSpeeds], row[x][:])
	}
}

// UnpackRow fills row y from buf.
func (g *Grid) UnpackRow(y int, buf []float32) {
	row := g.Row(y)
	for x := 0; x != g.Width; x++ {
		copy(row[x][:], buf[x*NSpeeds:(x+1)*NSpeeds])
	}
}

// PackRows serialises rows [start, start+count) into a single buffer.
func (g *Grid) PackRows(start, count int) []float32 {
	buf := make([]float32, count*g.RowFloats())
	for j := 0; j != count; j++ {
		g.PackRow(start+j, buf[j*g.RowFloats():(j+1)*g.RowFloats()])
	}
	return buf
}

// UnpackRows fills rows [start, start+count) from buf.
func (g *Grid) UnpackRows(start, count int, buf []float32) {
	for j := 0; j != count; j++ {
		g.UnpackRow(start+j, buf[j*g.RowFloats():(j+1)*g.RowFloats()])
	}
}

// TotalDensity sums every density in the grid. With accel set to zero the
// total should remain constant from one timestep to the next. The sum is
// accumulated in float64 so the diagnostic itself does not drown the drift
// it measures.
func (g *Grid) TotalDensity() float32 {
	var total float64
	for i := range g.Cells {
		for k := 0; k != NSpeeds; k++ {
			total += float64(g.Cells[i][k])
		}
	}
	return float32(total)
}
