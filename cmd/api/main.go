package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"clusterperm/adapters/adjacency"
	"clusterperm/adapters/api"
	"clusterperm/adapters/postgres"
	"clusterperm/adapters/stats"
	"clusterperm/app"
	"clusterperm/internal"
	"clusterperm/internal/config"
	"clusterperm/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	log := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server's mesh comes from the environment for now: a lattice sized
	// by MESH_WIDTH x MESH_HEIGHT. Real deployments would plug a mesh-file
	// provider in here.
	width := envInt("MESH_WIDTH", 32)
	height := envInt("MESH_HEIGHT", 32)
	adj, err := adjacency.Lattice(width, height)
	if err != nil {
		return err
	}
	log.Info("serving cluster tests over a %dx%d lattice mesh", width, height)

	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		repo = postgres.NewResultRepository(db)
		log.Info("run persistence enabled")
	}

	service := app.NewClusterTestService(stats.OneWayF(), adj, nil, log)
	server := api.NewServer(service, repo, log)
	return server.ListenAndServe(ctx, ":"+cfg.Server.Port)
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
