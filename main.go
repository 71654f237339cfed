// Distributed D2Q9-BGK lattice-Boltzmann solver. In local mode the grid
// is split across in-process workers; with a cluster config each process
// runs one worker and they exchange halo rows over TCP. Usage:
//
//	d2q9 [flags] <paramfile> <obstaclefile>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Briggybros/Uni-Advanced-HPC/comm"
	"github.com/Briggybros/Uni-Advanced-HPC/lbm"
	"github.com/Briggybros/Uni-Advanced-HPC/sim"
	"github.com/Briggybros/Uni-Advanced-HPC/view"
)

func main() {
	workers := flag.Int("workers", runtime.NumCPU(), "worker count for local runs")
	configPath := flag.String("config", "", "cluster description file; enables distributed mode")
	rank := flag.Int("rank", 0, "this worker's rank in the cluster")
	showView := flag.Bool("view", false, "show a live view of the velocity field")
	viewEvery := flag.Int("view-every", 0,
		"steps between intermediate gathers for the live view; must match on every cluster worker")
	finalPath := flag.String("final", "final_state.dat", "final state output file")
	avVelsPath := flag.String("avvels", "av_vels.dat", "average velocity output file")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <paramfile> <obstaclefile>\n", os.Args[0])
		os.Exit(1)
	}

	params, err := lbm.LoadParams(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	obstacles, err := lbm.LoadObstacles(flag.Arg(1), params)
	if err != nil {
		log.Fatal(err)
	}

	cfg := sim.Config{
		Params:     params,
		Obstacles:  obstacles,
		FrameEvery: *viewEvery,
	}
	if *showView && cfg.FrameEvery == 0 {
		cfg.FrameEvery = 100
	}

	tic := time.Now()
	var result *sim.Result
	if *configPath != "" {
		result = runCluster(cfg, *configPath, *rank, *showView)
	} else {
		result = runLocal(cfg, *workers, *showView)
	}
	elapsed := time.Since(tic)

	// Only the aggregator reports and writes output files.
	if result == nil {
		return
	}
	fmt.Println("==done==")
	fmt.Printf("Reynolds number:\t\t%.12E\n", lbm.Reynolds(params, result.Cells, obstacles))
	fmt.Printf("Elapsed time:\t\t\t%.6f (s)\n", elapsed.Seconds())
	if err := lbm.WriteFinalState(*finalPath, params, result.Cells, obstacles); err != nil {
		log.Fatal(err)
	}
	if err := lbm.WriteAvVels(*avVelsPath, result.AvVels); err != nil {
		log.Fatal(err)
	}
}

// runLocal evaluates the grid with in-process workers over a channel
// mesh.
func runLocal(cfg sim.Config, workers int, showView bool) *sim.Result {
	var mon sim.Monitor
	if showView {
		window, err := view.NewWindow(cfg.Params.Nx, cfg.Params.Ny, viewScale(cfg.Params))
		if err != nil {
			log.Fatal(err)
		}
		defer window.Destroy()
		mon = window
	}

	endpoints := comm.NewMesh(workers)
	results := make([]*sim.Result, workers)
	var group errgroup.Group
	for rank := range endpoints {
		rank := rank
		group.Go(func() error {
			var m sim.Monitor
			if rank == sim.Aggregator {
				m = mon
			}
			result, err := sim.Run(cfg, endpoints[rank], m)
			results[rank] = result
			return err
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
	return results[sim.Aggregator]
}

// runCluster joins a TCP cluster as one worker. Every worker loads the
// input files itself; only the aggregator's result is returned.
func runCluster(cfg sim.Config, configPath string, rank int, showView bool) *sim.Result {
	addrs, err := loadClusterAddrs(configPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Joining cluster of %d as worker %d", len(addrs), rank)
	cluster, err := comm.Dial(rank, addrs)
	if err != nil {
		log.Fatal(err)
	}
	defer cluster.Close()

	var mon sim.Monitor
	if showView && rank == sim.Aggregator {
		window, err := view.NewWindow(cfg.Params.Nx, cfg.Params.Ny, viewScale(cfg.Params))
		if err != nil {
			log.Fatal(err)
		}
		defer window.Destroy()
		mon = window
	}

	result, err := sim.Run(cfg, cluster, mon)
	if err != nil {
		log.Fatal(err)
	}
	if rank != sim.Aggregator {
		return nil
	}
	return result
}

// viewScale picks a pixel scale that keeps the window near 512 pixels on
// its longer side.
func viewScale(p lbm.Params) int {
	longest := p.Nx
	if p.Ny > longest {
		longest = p.Ny
	}
	scale := 512 / longest
	if scale < 1 {
		scale = 1
	}
	return scale
}
