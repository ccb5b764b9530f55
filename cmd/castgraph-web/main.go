// castgraph-web serves the status API and the WebSocket progress feed over
// the graph produced by castgraph-ingest.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/castgraph/internal/config"
	"github.com/scrypster/castgraph/internal/retry"
	"github.com/scrypster/castgraph/internal/server"
	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/internal/storage/postgres"
	"github.com/scrypster/castgraph/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Shares the breaker state file with the ingest pipeline so the API
	// reflects circuits opened during extraction runs.
	manager, err := retry.NewManager(
		retry.NewFileStateStore(cfg.Retry.StatePath),
		retry.WithFailureThreshold(cfg.Retry.FailureThreshold),
	)
	if err != nil {
		log.Fatalf("Failed to initialize retry manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(store, manager, cfg)
	addr, err := srv.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Castgraph status server running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(time.Second)
}

func openStore(cfg *config.Config) (storage.GraphStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.NewGraphStore(cfg.Storage.PostgresDSN)
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewGraphStore(cfg.Storage.DataPath + "/castgraph.db")
}
