package lbm

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// WriteFinalState writes one line per cell: coordinates, velocity
// components, velocity magnitude, pressure and the obstacle flag.
// Obstacle cells report zero velocity and the reference pressure.
func WriteFinalState(path string, p Params, cells *Grid, obstacles *Mask) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for y := 0; y != p.Ny; y++ {
		for x := 0; x != p.Nx; x++ {
			var ux, uy, u, pressure float32
			blocked := 0
			if obstacles.Blocked(x, y) {
				pressure = p.Density * cSq
				blocked = 1
			} else {
				cell := cells.At(x, y)

				var localDensity float32
				for k := 0; k != NSpeeds; k++ {
					localDensity += cell[k]
				}

				ux = (cell[1] + cell[5] + cell[8] - (cell[3] + cell[6] + cell[7])) / localDensity
				uy = (cell[2] + cell[5] + cell[6] - (cell[4] + cell[7] + cell[8])) / localDensity
				u = float32(math.Sqrt(float64(ux*ux + uy*uy)))
				pressure = localDensity * cSq
			}

			_, err = fmt.Fprintf(w, "%d %d %.12E %.12E %.12E %.12E %d\n",
				x, y, ux, uy, u, pressure, blocked)
			if err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// WriteAvVels writes the per-timestep average velocity series.
func WriteAvVels(path string, avVels []float32) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for tt, av := range avVels {
		_, err = fmt.Fprintf(w, "%d:\t%.12E\n", tt, av)
		if err != nil {
			return err
		}
	}
	return w.Flush()
}
