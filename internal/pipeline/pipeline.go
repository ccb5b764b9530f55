package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/scrypster/castgraph/internal/llm"
	"github.com/scrypster/castgraph/internal/resolve"
	"github.com/scrypster/castgraph/internal/segment"
	"github.com/scrypster/castgraph/internal/storage"
	"github.com/scrypster/castgraph/internal/vtt"
	"github.com/scrypster/castgraph/pkg/types"
)

// Stage identifies where in episode processing a progress event occurred.
type Stage string

const (
	StageParsing    Stage = "parsing"
	StageExtracting Stage = "extracting"
	StageResolving  Stage = "resolving"
	StageStoring    Stage = "storing"
	StageDone       Stage = "done"
)

// Progress is one pipeline progress event, consumed by the WebSocket feed
// and the CLI log.
type Progress struct {
	EpisodeID string              `json:"episode_id"`
	Stage     Stage               `json:"stage"`
	Unit      int                 `json:"unit,omitempty"`  // 1-based, extracting stage only
	Units     int                 `json:"units,omitempty"` // total units in the episode
	Status    types.EpisodeStatus `json:"status,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// ProgressFunc receives progress events. It must not block; slow consumers
// should buffer on their side.
type ProgressFunc func(Progress)

// Pipeline processes episodes end to end.
type Pipeline struct {
	Store      storage.GraphStore
	Extractor  *Extractor
	Resolver   *resolve.Resolver
	Segmenter  *segment.Segmenter
	Checkpoint *Checkpoint

	// Embedder optionally generates entity embeddings after resolution.
	Embedder llm.EmbeddingGenerator

	// Workers is the number of concurrent unit extractions per episode
	// (default: 4).
	Workers int

	// OnProgress, when set, receives progress events.
	OnProgress ProgressFunc
}

// EpisodeResult summarises one processed episode.
type EpisodeResult struct {
	EpisodeID     string
	Status        types.EpisodeStatus
	Units         int
	FailedUnits   int
	Entities      int
	Relationships int
	Insights      int
	Quotes        int
	Skipped       bool // already done per checkpoint
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return 4
}

func (p *Pipeline) emit(event Progress) {
	if p.OnProgress != nil {
		p.OnProgress(event)
	}
}

// ProcessEpisode runs one episode through the full pipeline. Unit extraction
// failures degrade the episode but preserve every completed unit's output;
// the episode fails outright only when parsing fails or every unit fails.
func (p *Pipeline) ProcessEpisode(ctx context.Context, episode *types.Episode) (*EpisodeResult, error) {
	if p.Checkpoint != nil && p.Checkpoint.Done(episode.ID) {
		log.Printf("pipeline: skipping %s, already processed", episode.ID)
		return &EpisodeResult{EpisodeID: episode.ID, Skipped: true}, nil
	}

	if err := p.Store.StoreEpisode(ctx, episode); err != nil {
		return nil, fmt.Errorf("pipeline: failed to store episode %s: %w", episode.ID, err)
	}
	if err := p.Store.UpdateEpisodeStatus(ctx, episode.ID, types.EpisodeProcessing); err != nil {
		return nil, fmt.Errorf("pipeline: failed to mark %s processing: %w", episode.ID, err)
	}

	p.emit(Progress{EpisodeID: episode.ID, Stage: StageParsing})

	units, err := p.parseAndSegment(episode)
	if err != nil {
		_ = p.Store.UpdateEpisodeStatus(ctx, episode.ID, types.EpisodeFailed)
		p.emit(Progress{EpisodeID: episode.ID, Stage: StageDone, Status: types.EpisodeFailed, Message: err.Error()})
		return nil, err
	}

	// Re-store to persist the duration backfilled from the transcript.
	episode.Status = types.EpisodeProcessing
	if err := p.Store.StoreEpisode(ctx, episode); err != nil {
		return nil, fmt.Errorf("pipeline: failed to update episode %s: %w", episode.ID, err)
	}

	if err := p.Store.StoreUnits(ctx, units); err != nil {
		_ = p.Store.UpdateEpisodeStatus(ctx, episode.ID, types.EpisodeFailed)
		return nil, fmt.Errorf("pipeline: failed to store units for %s: %w", episode.ID, err)
	}

	unitResults, failedUnits := p.extractUnits(ctx, episode.ID, units)

	if len(units) > 0 && failedUnits == len(units) {
		_ = p.Store.UpdateEpisodeStatus(ctx, episode.ID, types.EpisodeFailed)
		p.emit(Progress{EpisodeID: episode.ID, Stage: StageDone, Status: types.EpisodeFailed})
		return nil, fmt.Errorf("pipeline: every unit failed for %s", episode.ID)
	}

	p.emit(Progress{EpisodeID: episode.ID, Stage: StageResolving})

	entities, rels, insights, quotes := p.resolveResults(unitResults)

	p.emit(Progress{EpisodeID: episode.ID, Stage: StageStoring})

	if err := p.storeResults(ctx, entities, rels, insights, quotes); err != nil {
		_ = p.Store.UpdateEpisodeStatus(ctx, episode.ID, types.EpisodeFailed)
		return nil, err
	}

	p.embedEntities(ctx, entities)

	status := types.EpisodeCompleted
	if failedUnits > 0 {
		status = types.EpisodeDegraded
		log.Printf("pipeline: %s degraded, %d/%d units failed", episode.ID, failedUnits, len(units))
	}
	if err := p.Store.UpdateEpisodeStatus(ctx, episode.ID, status); err != nil {
		return nil, fmt.Errorf("pipeline: failed to finalise %s: %w", episode.ID, err)
	}

	if p.Checkpoint != nil {
		p.Checkpoint.Record(episode.ID, EpisodeProgress{
			Status:      string(status),
			Units:       len(units),
			FailedUnits: failedUnits,
		})
	}

	p.emit(Progress{EpisodeID: episode.ID, Stage: StageDone, Status: status})

	return &EpisodeResult{
		EpisodeID:     episode.ID,
		Status:        status,
		Units:         len(units),
		FailedUnits:   failedUnits,
		Entities:      len(entities),
		Relationships: len(rels),
		Insights:      len(insights),
		Quotes:        len(quotes),
	}, nil
}

// ProcessAll runs every episode sequentially. Per-episode failures are
// logged and do not abort the batch; context cancellation does.
func (p *Pipeline) ProcessAll(ctx context.Context, episodes []*types.Episode) []EpisodeResult {
	results := make([]EpisodeResult, 0, len(episodes))
	for _, episode := range episodes {
		if ctx.Err() != nil {
			log.Printf("pipeline: run cancelled after %d episodes", len(results))
			break
		}
		result, err := p.ProcessEpisode(ctx, episode)
		if err != nil {
			log.Printf("pipeline: ERROR - episode %s failed: %v", episode.ID, err)
			results = append(results, EpisodeResult{EpisodeID: episode.ID, Status: types.EpisodeFailed})
			continue
		}
		results = append(results, *result)
	}
	return results
}

func (p *Pipeline) parseAndSegment(episode *types.Episode) ([]types.Unit, error) {
	f, err := os.Open(episode.VTTPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to open transcript for %s: %w", episode.ID, err)
	}
	defer f.Close()

	transcript, err := vtt.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to parse transcript for %s: %w", episode.ID, err)
	}
	if episode.Duration == 0 {
		episode.Duration = transcript.Duration()
	}

	segmented := p.Segmenter.Segment(episode.ID, transcript)
	units := make([]types.Unit, len(segmented))
	for i, unit := range segmented {
		units[i] = *unit
	}
	return units, nil
}

// extractUnits fans the episode's units across the worker pool. Results come
// back in unit order regardless of completion order.
func (p *Pipeline) extractUnits(ctx context.Context, episodeID string, units []types.Unit) ([]*UnitResult, int) {
	results := make([]*UnitResult, len(units))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	done := 0

	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result, err := p.Extractor.ExtractUnit(ctx, units[idx])

				mu.Lock()
				done++
				completed := done
				if err != nil {
					failed++
					log.Printf("pipeline: ERROR - unit %s failed: %v", units[idx].ID, err)
				} else {
					results[idx] = result
				}
				mu.Unlock()

				p.emit(Progress{
					EpisodeID: episodeID,
					Stage:     StageExtracting,
					Unit:      completed,
					Units:     len(units),
				})
			}
		}()
	}

	for idx := range units {
		if ctx.Err() != nil {
			mu.Lock()
			failed += len(units) - idx
			mu.Unlock()
			break
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results, failed
}

// resolveResults merges entities across all units of the episode and rewrites
// relationship and insight references to the surviving entity IDs.
func (p *Pipeline) resolveResults(unitResults []*UnitResult) ([]*types.Entity, []types.Relationship, []types.Insight, []types.Quote) {
	var (
		rawEntities []*types.Entity
		rels        []types.Relationship
		insights    []types.Insight
		quotes      []types.Quote
	)
	for _, result := range unitResults {
		if result == nil {
			continue
		}
		rawEntities = append(rawEntities, result.Entities...)
		rels = append(rels, result.Relationships...)
		insights = append(insights, result.Insights...)
		quotes = append(quotes, result.Quotes...)
	}

	entities, idMap := p.Resolver.ResolveWithMap(rawEntities)

	remap := func(id string) string {
		if canonical, ok := idMap[id]; ok {
			return canonical
		}
		return id
	}

	kept := rels[:0]
	seenRel := make(map[string]bool)
	for _, rel := range rels {
		rel.FromID = remap(rel.FromID)
		rel.ToID = remap(rel.ToID)
		if rel.FromID == rel.ToID {
			// Merging collapsed both endpoints into one entity.
			continue
		}
		// Duplicate edges across units collapse to the first occurrence.
		key := rel.FromID + "|" + rel.Type + "|" + rel.ToID
		if seenRel[key] {
			continue
		}
		seenRel[key] = true
		kept = append(kept, rel)
	}

	for i := range insights {
		seen := make(map[string]bool)
		ids := insights[i].EntityIDs[:0]
		for _, id := range insights[i].EntityIDs {
			canonical := remap(id)
			if !seen[canonical] {
				seen[canonical] = true
				ids = append(ids, canonical)
			}
		}
		insights[i].EntityIDs = ids
	}

	return entities, kept, insights, quotes
}

func (p *Pipeline) storeResults(ctx context.Context, entities []*types.Entity, rels []types.Relationship, insights []types.Insight, quotes []types.Quote) error {
	if err := p.Store.StoreEntities(ctx, derefEntities(entities)); err != nil {
		return fmt.Errorf("pipeline: failed to store entities: %w", err)
	}
	if err := p.Store.StoreRelationships(ctx, rels); err != nil {
		return fmt.Errorf("pipeline: failed to store relationships: %w", err)
	}
	if err := p.Store.StoreInsights(ctx, insights); err != nil {
		return fmt.Errorf("pipeline: failed to store insights: %w", err)
	}
	if err := p.Store.StoreQuotes(ctx, quotes); err != nil {
		return fmt.Errorf("pipeline: failed to store quotes: %w", err)
	}
	return nil
}

// embedEntities generates and stores embeddings for resolved entities.
// Failures are logged and skipped; embeddings are an enrichment, not a
// pipeline requirement.
func (p *Pipeline) embedEntities(ctx context.Context, entities []*types.Entity) {
	if p.Embedder == nil {
		return
	}
	for _, entity := range entities {
		text := entity.Name
		if entity.Description != "" {
			text += ": " + entity.Description
		}
		vec, err := p.Embedder.Embed(ctx, text)
		if err != nil {
			log.Printf("pipeline: WARNING - embedding failed for %s: %v", entity.ID, err)
			continue
		}
		if err := p.Store.UpdateEntityEmbedding(ctx, entity.ID, vec, p.Embedder.GetModel()); err != nil {
			log.Printf("pipeline: WARNING - failed to store embedding for %s: %v", entity.ID, err)
		}
	}
}
