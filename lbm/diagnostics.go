package lbm

import "math"

// VelocityTotals accumulates the velocity magnitudes of the non-obstacle
// cells in rows [start, start+count), returning the sum and the number of
// cells inspected. These are the per-worker partials of the average
// velocity reduction.
func VelocityTotals(cells *Grid, obstacles *Mask, start, count int) (totU float32, totCells int) {
	for y := start; y != start+count; y++ {
		for x := 0; x != cells.Width; x++ {
			if obstacles.Blocked(x, y) {
				continue
			}
			cell := cells.At(x, y)

			var localDensity float32
			for k := 0; k != NSpeeds; k++ {
				localDensity += cell[k]
			}

			ux := (cell[1] + cell[5] + cell[8] - (cell[3] + cell[6] + cell[7])) / localDensity
			uy := (cell[2] + cell[5] + cell[6] - (cell[4] + cell[7] + cell[8])) / localDensity

			totU += float32(math.Sqrt(float64(ux*ux + uy*uy)))
			totCells++
		}
	}
	return totU, totCells
}

// AvVelocity computes the average velocity magnitude over the whole grid.
func AvVelocity(cells *Grid, obstacles *Mask) float32 {
	totU, totCells := VelocityTotals(cells, obstacles, 0, cells.Height)
	return totU / float32(totCells)
}

// Reynolds computes the Reynolds number of the final state.
func Reynolds(p Params, cells *Grid, obstacles *Mask) float32 {
	viscosity := float32(1.0/6.0) * (2/p.Omega - 1)
	return AvVelocity(cells, obstacles) * float32(p.ReynoldsDim) / viscosity
}
