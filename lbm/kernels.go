package lbm

// cSq is the square of the speed of sound.
const cSq = float32(1.0 / 3.0)

// Direction weights for the equilibrium expansion.
const (
	weight0 = float32(4.0 / 9.0)  // rest
	weight1 = float32(1.0 / 9.0)  // axis directions
	weight2 = float32(1.0 / 36.0) // diagonals
)

// AccelerateFlow shifts a fixed fraction of density from the west-facing
// directions to the east-facing directions along row ny-2. A cell is left
// untouched when it is blocked or when any donor density would go
// negative.
func AccelerateFlow(p Params, cells *Grid, obstacles *Mask) {
	w1 := p.Density * p.Accel / 9
	w2 := p.Density * p.Accel / 36

	y := p.Ny - 2
	for x := 0; x != p.Nx; x++ {
		cell := cells.At(x, y)
		if !obstacles.Blocked(x, y) &&
			cell[3]-w1 > 0 && cell[6]-w2 > 0 && cell[7]-w2 > 0 {
			// increase east-side densities
			cell[1] += w1
			cell[5] += w2
			cell[8] += w2
			// decrease west-side densities
			cell[3] -= w1
			cell[6] -= w2
			cell[7] -= w2
		}
	}
}

// Propagate streams each density of cell (x, y) in from the neighbour one
// step opposite its direction of travel, wrapping periodically, and writes
// the result into the scratch grid.
func Propagate(x, y int, cells, scratch *Grid) {
	w, h := cells.Width, cells.Height
	yn := (y + 1) % h
	xe := (x + 1) % w
	ys := y - 1
	if y == 0 {
		ys = h - 1
	}
	xw := x - 1
	if x == 0 {
		xw = w - 1
	}

	dst := scratch.At(x, y)
	dst[0] = cells.At(x, y)[0]   // central cell, no movement
	dst[1] = cells.At(xw, y)[1]  // east
	dst[2] = cells.At(x, ys)[2]  // north
	dst[3] = cells.At(xe, y)[3]  // west
	dst[4] = cells.At(x, yn)[4]  // south
	dst[5] = cells.At(xw, ys)[5] // north-east
	dst[6] = cells.At(xe, ys)[6] // north-west
	dst[7] = cells.At(xe, yn)[7] // south-west
	dst[8] = cells.At(xw, yn)[8] // south-east
}

// Rebound applies the full bounce-back boundary condition at obstacle
// cells: the streamed densities in the scratch grid are written back into
// the main grid with each opposing direction pair swapped. Non-obstacle
// cells are untouched; Collide finalises those.
func Rebound(x, y int, cells, scratch *Grid, obstacles *Mask) {
	if !obstacles.Blocked(x, y) {
		return
	}
	src := scratch.At(x, y)
	dst := cells.At(x, y)
	dst[1] = src[3]
	dst[2] = src[4]
	dst[3] = src[1]
	dst[4] = src[2]
	dst[5] = src[7]
	dst[6] = src[8]
	dst[7] = src[5]
	dst[8] = src[6]
}

// Collide relaxes the streamed densities of a non-obstacle cell towards
// their local equilibrium by a fraction omega, writing into the main grid.
// The division by the local density is unguarded: a cell whose densities
// sum to zero is outside the model and the result is undefined, as in any
// standard BGK implementation.
func Collide(x, y int, p Params, cells, scratch *Grid, obstacles *Mask) {
	if obstacles.Blocked(x, y) {
		return
	}
	src := scratch.At(x, y)

	var localDensity float32
	for k := 0; k != NSpeeds; k++ {
		localDensity += src[k]
	}

	ux := (src[1] + src[5] + src[8] - (src[3] + src[6] + src[7])) / localDensity
	uy := (src[2] + src[5] + src[6] - (src[4] + src[7] + src[8])) / localDensity
	uSq := ux*ux + uy*uy

	// directional velocity components
	var u [NSpeeds]float32
	u[1] = ux
	u[2] = uy
	u[3] = -ux
	u[4] = -uy
	u[5] = ux + uy
	u[6] = -ux + uy
	u[7] = -ux - uy
	u[8] = ux - uy

	var dEqu [NSpeeds]float32
	dEqu[0] = weight0 * localDensity * (1 - uSq/(2*cSq))
	for k := 1; k != 5; k++ {
		dEqu[k] = weight1 * localDensity *
			(1 + u[k]/cSq + (u[k]*u[k])/(2*cSq*cSq) - uSq/(2*cSq))
	}
	for k := 5; k != NSpeeds; k++ {
		dEqu[k] = weight2 * localDensity *
			(1 + u[k]/cSq + (u[k]*u[k])/(2*cSq*cSq) - uSq/(2*cSq))
	}

	dst := cells.At(x, y)
	for k := 0; k != NSpeeds; k++ {
		dst[k] = src[k] + p.Omega*(dEqu[k]-src[k])
	}
}
