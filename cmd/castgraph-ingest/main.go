// castgraph-ingest scans a directory of episode transcripts and runs the
// full extraction pipeline over them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrypster/castgraph/internal/config"
	"github.com/scrypster/castgraph/internal/ingest"
	"github.com/scrypster/castgraph/internal/llm"
	"github.com/scrypster/castgraph/internal/pipeline"
	"github.com/scrypster/castgraph/internal/resolve"
	"github.com/scrypster/castgraph/internal/retry"
	"github.com/scrypster/castgraph/internal/segment"
	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/internal/storage/postgres"
	"github.com/scrypster/castgraph/internal/storage/sqlite"
	"github.com/scrypster/castgraph/pkg/types"
)

func main() {
	episodesDir := flag.String("episodes", "", "Episodes directory (default: CASTGRAPH_EPISODES_PATH)")
	reprocess := flag.String("reprocess", "", "Episode ID to clear and reprocess")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dir := *episodesDir
	if dir == "" {
		dir = cfg.Storage.EpisodesPath
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	manager, err := retry.NewManager(
		retry.NewFileStateStore(cfg.Retry.StatePath),
		retry.WithFailureThreshold(cfg.Retry.FailureThreshold),
	)
	if err != nil {
		log.Fatalf("Failed to initialize retry manager: %v", err)
	}

	factoryCfg := factoryConfig(cfg)
	generators, err := llm.NewTextGenerators(factoryCfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM clients: %v", err)
	}

	var embedder llm.EmbeddingGenerator
	if cfg.LLM.EmbeddingsEnabled {
		embedder, err = llm.NewEmbeddingGenerator(factoryCfg)
		if err != nil {
			log.Fatalf("Failed to initialize embedding client: %v", err)
		}
	}

	checkpoint := pipeline.LoadCheckpoint(cfg.Pipeline.CheckpointPath)
	if *reprocess != "" {
		checkpoint.Forget(*reprocess)
		if err := store.DeleteEpisodeGraph(context.Background(), *reprocess); err != nil {
			log.Printf("WARNING: failed to clear graph for %s: %v", *reprocess, err)
		}
		log.Printf("Cleared %s for reprocessing", *reprocess)
	}

	p := &pipeline.Pipeline{
		Store: store,
		Extractor: &pipeline.Extractor{
			API:        string(factoryCfg.Provider),
			Generators: generators,
			Manager:    manager,
			Policy: retry.Policy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
			},
		},
		Resolver: &resolve.Resolver{Threshold: cfg.Resolver.SimilarityThreshold},
		Segmenter: &segment.Segmenter{
			MaxTokens: cfg.Pipeline.UnitMaxTokens,
			PauseGap:  cfg.Pipeline.UnitPauseGap,
		},
		Checkpoint: checkpoint,
		Embedder:   embedder,
		Workers:    cfg.Pipeline.Workers,
		OnProgress: logProgress,
	}

	episodes, err := ingest.Scan(dir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", dir, err)
	}
	if len(episodes) == 0 {
		log.Printf("No transcripts found in %s", dir)
		return
	}
	log.Printf("Found %d episodes in %s", len(episodes), dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Interrupted, finishing current episode...")
		cancel()
	}()

	results := p.ProcessAll(ctx, episodes)

	var completed, degraded, failed, skipped int
	for _, result := range results {
		switch {
		case result.Skipped:
			skipped++
		case result.Status == types.EpisodeCompleted:
			completed++
		case result.Status == types.EpisodeDegraded:
			degraded++
		default:
			failed++
		}
	}
	log.Printf("Done: %d completed, %d degraded, %d failed, %d skipped",
		completed, degraded, failed, skipped)
}

// openStore builds the configured graph store backend.
func openStore(cfg *config.Config) (storage.GraphStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.NewGraphStore(cfg.Storage.PostgresDSN)
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewGraphStore(cfg.Storage.DataPath + "/castgraph.db")
}

// factoryConfig maps the loaded config onto the LLM factory settings for
// the active provider.
func factoryConfig(cfg *config.Config) llm.FactoryConfig {
	fc := llm.FactoryConfig{
		Provider:          llm.Provider(cfg.LLM.LLMProvider),
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		EmbeddingAPIKey:   cfg.LLM.EmbeddingAPIKey,
		EmbeddingModel:    cfg.LLM.EmbeddingModel,
	}

	switch fc.Provider {
	case llm.ProviderAnthropic:
		fc.APIKeys = llm.ParseAPIKeys(cfg.LLM.AnthropicAPIKeys)
		fc.Model = cfg.LLM.AnthropicModel
	case llm.ProviderOpenAI:
		fc.APIKeys = llm.ParseAPIKeys(cfg.LLM.OpenAIAPIKeys)
		fc.Model = cfg.LLM.OpenAIModel
	case llm.ProviderOllama:
		fc.BaseURL = cfg.LLM.OllamaURL
		fc.Model = cfg.LLM.OllamaModel
		fc.EmbeddingModel = cfg.LLM.OllamaEmbeddingModel
	}
	return fc
}

func logProgress(event pipeline.Progress) {
	switch event.Stage {
	case pipeline.StageExtracting:
		log.Printf("[%s] extracting unit %d/%d", event.EpisodeID, event.Unit, event.Units)
	case pipeline.StageDone:
		log.Printf("[%s] done: %s %s", event.EpisodeID, event.Status, event.Message)
	default:
		log.Printf("[%s] %s", event.EpisodeID, event.Stage)
	}
}
