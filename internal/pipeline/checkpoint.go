package pipeline

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Checkpoint records which episodes have finished processing so reruns skip
// them. It is a small JSON file rewritten after every episode, in the same
// read-modify-write style as the breaker state file.
type Checkpoint struct {
	mu   sync.Mutex
	path string
	data checkpointFile
}

type checkpointFile struct {
	LastUpdated time.Time                  `json:"last_updated"`
	Episodes    map[string]EpisodeProgress `json:"episodes"`
}

// EpisodeProgress is one episode's checkpoint entry.
type EpisodeProgress struct {
	Status      string    `json:"status"` // completed or degraded
	CompletedAt time.Time `json:"completed_at"`
	Units       int       `json:"units"`
	FailedUnits int       `json:"failed_units,omitempty"`
}

// LoadCheckpoint reads the checkpoint file. A missing file starts fresh; a
// corrupt file is logged and discarded rather than blocking the run.
func LoadCheckpoint(path string) *Checkpoint {
	cp := &Checkpoint{
		path: path,
		data: checkpointFile{Episodes: make(map[string]EpisodeProgress)},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cp
	}
	if err != nil {
		log.Printf("pipeline: WARNING - cannot read checkpoint %s, starting fresh: %v", path, err)
		return cp
	}

	var data checkpointFile
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("pipeline: WARNING - corrupt checkpoint %s, starting fresh: %v", path, err)
		return cp
	}
	if data.Episodes == nil {
		data.Episodes = make(map[string]EpisodeProgress)
	}
	cp.data = data
	return cp
}

// Done reports whether the episode already finished in a prior run.
func (c *Checkpoint) Done(episodeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data.Episodes[episodeID]
	return ok
}

// Record marks an episode finished and persists the file. A save failure is
// logged, not fatal: the worst case is reprocessing the episode next run.
func (c *Checkpoint) Record(episodeID string, progress EpisodeProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if progress.CompletedAt.IsZero() {
		progress.CompletedAt = time.Now()
	}
	c.data.Episodes[episodeID] = progress
	c.data.LastUpdated = time.Now()

	if err := c.save(); err != nil {
		log.Printf("pipeline: WARNING - failed to save checkpoint: %v", err)
	}
}

// Forget removes an episode from the checkpoint so it will be reprocessed.
func (c *Checkpoint) Forget(episodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data.Episodes, episodeID)
	c.data.LastUpdated = time.Now()

	if err := c.save(); err != nil {
		log.Printf("pipeline: WARNING - failed to save checkpoint: %v", err)
	}
}

func (c *Checkpoint) save() error {
	if c.path == "" {
		return nil
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0o644)
}
