// Package view renders gathered simulation states into an SDL window: a
// blue heat map of the velocity magnitude with obstacle cells in black.
package view

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Briggybros/Uni-Advanced-HPC/lbm"
)

// Window is a live view of the velocity field. It implements sim.Monitor.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	width    int
	height   int
	pixels   []byte
}

// NewWindow opens a window of nx*scale by ny*scale pixels.
func NewWindow(nx, ny, scale int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	window, err := sdl.CreateWindow("d2q9-bgk",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(nx*scale), int32(ny*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, err
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, err
	}
	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, int32(nx), int32(ny))
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, err
	}
	return &Window{
		window:   window,
		renderer: renderer,
		texture:  texture,
		width:    nx,
		height:   ny,
		pixels:   make([]byte, nx*ny*4),
	}, nil
}

// Frame draws one gathered state. Row 0 of the grid is drawn at the
// bottom of the window.
func (w *Window) Frame(turn int, cells *lbm.Grid, obstacles *lbm.Mask) {
	for y := 0; y != w.height; y++ {
		py := w.height - 1 - y
		for x := 0; x != w.width; x++ {
			i := (x + py*w.width) * 4
			if obstacles.Blocked(x, y) {
				w.pixels[i] = 0
				w.pixels[i+1] = 0
				w.pixels[i+2] = 0
				w.pixels[i+3] = 0xFF
				continue
			}
			// ARGB8888, little endian: B G R A.
			intensity := speedIntensity(cells.At(x, y))
			w.pixels[i] = byte(64 + intensity*191)
			w.pixels[i+1] = byte(intensity * 170)
			w.pixels[i+2] = 0
			w.pixels[i+3] = 0xFF
		}
	}

	w.texture.Update(nil, w.pixels, w.width*4)
	w.renderer.Copy(w.texture, nil, nil)
	w.renderer.Present()
	w.window.SetTitle(fmt.Sprintf("d2q9-bgk - step %d", turn))

	// Keep the window responsive between frames.
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
	}
}

// speedIntensity maps a cell's velocity magnitude onto [0, 1].
func speedIntensity(cell *lbm.Cell) float64 {
	var localDensity float32
	for k := 0; k != lbm.NSpeeds; k++ {
		localDensity += cell[k]
	}
	ux := float64((cell[1] + cell[5] + cell[8] - (cell[3] + cell[6] + cell[7])) / localDensity)
	uy := float64((cell[2] + cell[5] + cell[6] - (cell[4] + cell[7] + cell[8])) / localDensity)
	return math.Min(math.Sqrt(ux*ux+uy*uy)*20, 1)
}

// Destroy tears the window down.
func (w *Window) Destroy() {
	w.texture.Destroy()
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
}
