package lbm

import (
	"fmt"
	"os"
)

// Params holds the simulation parameter values.
type Params struct {
	Nx          int     // no. of cells in x-direction
	Ny          int     // no. of cells in y-direction
	MaxIters    int     // no. of iterations
	ReynoldsDim int     // dimension for Reynolds number
	Density     float32 // density per link
	Accel       float32 // density redistribution
	Omega       float32 // relaxation parameter
}

// LoadParams reads the seven whitespace-separated parameter values from a
// file.
func LoadParams(path string) (Params, error) {
	file, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("could not open input parameter file: %w", err)
	}
	defer file.Close()

	var p Params
	_, err = fmt.Fscan(file, &p.Nx, &p.Ny, &p.MaxIters, &p.ReynoldsDim,
		&p.Density, &p.Accel, &p.Omega)
	if err != nil {
		return Params{}, fmt.Errorf("could not read param file %s: %w", path, err)
	}
	if p.Nx <= 0 || p.Ny <= 0 || p.MaxIters <= 0 {
		return Params{}, fmt.Errorf("param file %s: non-positive dimensions or iteration count", path)
	}
	return p, nil
}

// Mask marks the cells that block flow. It is set once at initialisation
// and immutable afterwards, so it is safe to share between goroutines.
type Mask struct {
	Width   int
	Height  int
	blocked []bool
}

// NewMask allocates an all-clear obstacle mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:   width,
		Height:  height,
		blocked: make([]bool, width*height),
	}
}

// Blocked reports whether the cell at (x, y) is an obstacle.
func (m *Mask) Blocked(x, y int) bool {
	return m.blocked[x+y*m.Width]
}

// Set marks the cell at (x, y) as an obstacle.
func (m *Mask) Set(x, y int) {
	m.blocked[x+y*m.Width] = true
}

// LoadObstacles reads the blocked-cell list, one "x y 1" line per
// obstacle, into a mask sized from the params.
func LoadObstacles(path string, p Params) (*Mask, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open input obstacles file: %w", err)
	}
	defer file.Close()

	mask := NewMask(p.Nx, p.Ny)
	for {
		var x, y, blocked int
		n, err := fmt.Fscan(file, &x, &y, &blocked)
		if n == 0 {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("expected 3 values per line in obstacle file %s: %w", path, err)
		}
		if x < 0 || x > p.Nx-1 {
			return nil, fmt.Errorf("obstacle x-coord %d out of range", x)
		}
		if y < 0 || y > p.Ny-1 {
			return nil, fmt.Errorf("obstacle y-coord %d out of range", y)
		}
		if blocked != 1 {
			return nil, fmt.Errorf("obstacle blocked value should be 1, got %d", blocked)
		}
		mask.Set(x, y)
	}
	return mask, nil
}
