// castgraph-transcribe generates VTT transcripts for episodes that have a
// metadata sidecar with an audio URL but no transcript yet. The generated
// .vtt lands next to the sidecar, where castgraph-ingest will find it.
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
	"github.com/scrypster/castgraph/internal/transcribe"
)

func main() {
	episodesDir := flag.String("episodes", "", "Episodes directory (default: CASTGRAPH_EPISODES_PATH)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Transcribe.SpeechAPIURL == "" {
		log.Fatal("CASTGRAPH_SPEECH_API_URL is required")
	}

	dir := *episodesDir
	if dir == "" {
		dir = cfg.Storage.EpisodesPath
	}

	episodes, err := ingest.ScanAwaitingTranscription(dir)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", dir, err)
	}
	if len(episodes) == 0 {
		log.Printf("Nothing to transcribe in %s", dir)
		return
	}
	log.Printf("Found %d episodes awaiting transcription", len(episodes))

	client, err := transcribe.NewSpeechClient(transcribe.SpeechConfig{
		BaseURL: cfg.Transcribe.SpeechAPIURL,
		APIKey:  cfg.Transcribe.SpeechAPIKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize speech client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Interrupted, stopping after current episode...")
		cancel()
	}()

	// Each episode's VTTPath already points next to its sidecar, so the
	// transcript and metadata pair up on the next ingest scan.
	tr := &transcribe.Transcriber{Client: client, OutputDir: dir}

	done := 0
	for _, episode := range episodes {
		if ctx.Err() != nil {
			break
		}
		if err := tr.Transcribe(ctx, episode); err != nil {
			log.Printf("ERROR: %v", err)
			continue
		}
		done++
	}
	log.Printf("Transcribed %d/%d episodes", done, len(episodes))
}
