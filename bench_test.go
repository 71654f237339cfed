package main

import (
	"fmt"
	"os"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/Briggybros/Uni-Advanced-HPC/comm"
	"github.com/Briggybros/Uni-Advanced-HPC/lbm"
	"github.com/Briggybros/Uni-Advanced-HPC/sim"
)

func benchRun(b *testing.B, cfg sim.Config, workers int) {
	endpoints := comm.NewMesh(workers)
	var group errgroup.Group
	for rank := range endpoints {
		rank := rank
		group.Go(func() error {
			_, err := sim.Run(cfg, endpoints[rank], nil)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		b.Fatal(err)
	}
}

func Benchmark_128_100(b *testing.B) {

	os.Stdout = nil // Disable all program output apart from benchmark results

	p := lbm.Params{
		Nx:          128,
		Ny:          128,
		MaxIters:    100,
		ReynoldsDim: 128,
		Density:     0.1,
		Accel:       0.005,
		Omega:       1.7,
	}
	cfg := sim.Config{Params: p, Obstacles: lbm.NewMask(p.Nx, p.Ny)}

	for workers := 1; workers <= 16; workers++ {
		name := fmt.Sprintf("%dx%dx%d-%d", p.Nx, p.Ny, p.MaxIters, workers)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				benchRun(b, cfg, workers)
			}
		})
	}
}

func Benchmark_256_20(b *testing.B) {

	os.Stdout = nil // Disable all program output apart from benchmark results

	p := lbm.Params{
		Nx:          256,
		Ny:          256,
		MaxIters:    20,
		ReynoldsDim: 256,
		Density:     0.1,
		Accel:       0.005,
		Omega:       1.7,
	}
	cfg := sim.Config{Params: p, Obstacles: lbm.NewMask(p.Nx, p.Ny)}

	for workers := 1; workers <= 16; workers++ {
		name := fmt.Sprintf("%dx%dx%d-%d", p.Nx, p.Ny, p.MaxIters, workers)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				benchRun(b, cfg, workers)
			}
		})
	}
}
