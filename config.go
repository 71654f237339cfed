package main

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

// clusterConfig mirrors the cluster description file:
//
//	[cluster]
//	worker = 172.31.46.10:2000
//	worker = 172.31.46.11:2000
//
// Workers are ranked in listing order; the first listed is the
// aggregator.
type clusterConfig struct {
	Cluster struct {
		Worker []string
	}
}

func loadClusterAddrs(path string) ([]string, error) {
	var cfg clusterConfig
	if err := gcfg.ReadFileInto(&cfg, path); err != nil {
		return nil, fmt.Errorf("could not read cluster config %s: %w", path, err)
	}
	if len(cfg.Cluster.Worker) == 0 {
		return nil, fmt.Errorf("cluster config %s lists no workers", path)
	}
	return cfg.Cluster.Worker, nil
}
