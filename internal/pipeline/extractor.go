// Package pipeline orchestrates episode processing: transcript parsing,
// segmentation, per-unit LLM extraction through the retry layer, entity
// resolution, and graph-store writes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/castgraph/internal/llm"
	"github.com/scrypster/castgraph/internal/retry"
	"github.com/scrypster/castgraph/pkg/types"
)

// UnitResult holds everything extracted from one transcript unit. Entity IDs
// are minted here; the resolver pass may later remap them to cluster
// representatives.
type UnitResult struct {
	Entities      []*types.Entity
	Relationships []types.Relationship
	Insights      []types.Insight
	Quotes        []types.Quote
}

// Extractor runs the per-unit extraction calls. Each configured API key has
// its own generator and breaker slot; when a key's circuit is open or its
// quota is exhausted the extractor rotates to the next key instead of
// failing the unit.
type Extractor struct {
	API        string // breaker registry name, e.g. "anthropic"
	Generators []llm.KeyedGenerator
	Manager    *retry.Manager
	Policy     retry.Policy
}

// complete runs one completion through the retry layer, rotating across API
// keys. Open circuits are skipped without burning an attempt; quota failures
// advance to the next key. Any other failure is final for this call.
func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	if len(e.Generators) == 0 {
		return "", fmt.Errorf("extractor: no generators configured")
	}

	var lastErr error
	for _, gen := range e.Generators {
		fn := gen.Generator.Complete
		out, err := retry.Do(ctx, e.Manager, e.API, gen.KeyIndex, e.Policy,
			func(ctx context.Context) (string, error) { return fn(ctx, prompt) })
		if err == nil {
			return out, nil
		}
		lastErr = err

		var openErr *retry.OpenCircuitError
		var quotaErr *retry.QuotaError
		if errors.As(err, &openErr) || errors.As(err, &quotaErr) {
			log.Printf("pipeline: key %d unavailable for %s, rotating: %v", gen.KeyIndex, e.API, err)
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("pipeline: all %d API keys unavailable for %s: %w", len(e.Generators), e.API, lastErr)
}

// ExtractUnit runs the four extraction passes (entities, relationships,
// insights, quotes) for one transcript unit. A failure in any pass fails the
// whole unit; the caller decides whether that degrades the episode.
func (e *Extractor) ExtractUnit(ctx context.Context, unit types.Unit) (*UnitResult, error) {
	result := &UnitResult{}
	now := time.Now()

	// Pass 1: entities. Everything downstream references them.
	entityRaw, err := e.complete(ctx, llm.EntityExtractionPrompt(unit.Text))
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}
	entityResponses, err := llm.ParseEntityResponse(entityRaw)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	byName := make(map[string]*types.Entity, len(entityResponses))
	for _, er := range entityResponses {
		entity := &types.Entity{
			ID:          "ent:" + uuid.NewString(),
			Name:        er.Name,
			Type:        er.Type,
			Confidence:  er.Confidence,
			Description: er.Description,
			EpisodeID:   unit.EpisodeID,
			UnitIDs:     []string{unit.ID},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		result.Entities = append(result.Entities, entity)
		byName[er.Name] = entity
	}

	// Pass 2: relationships between the unit's entities. Skipped when there
	// is nothing to relate.
	if len(result.Entities) >= 2 {
		relRaw, err := e.complete(ctx, llm.RelationshipExtractionPrompt(unit.Text, derefEntities(result.Entities)))
		if err != nil {
			return nil, fmt.Errorf("relationship extraction: %w", err)
		}
		relResponses, err := llm.ParseRelationshipResponse(relRaw)
		if err != nil {
			return nil, fmt.Errorf("relationship extraction: %w", err)
		}
		for _, rr := range relResponses {
			from, okFrom := byName[rr.From]
			to, okTo := byName[rr.To]
			if !okFrom || !okTo {
				log.Printf("pipeline: dropping relationship %q->%q, endpoint not in unit entities", rr.From, rr.To)
				continue
			}
			result.Relationships = append(result.Relationships, types.Relationship{
				ID:         "rel:" + uuid.NewString(),
				FromID:     from.ID,
				ToID:       to.ID,
				Type:       rr.Type,
				Confidence: rr.Confidence,
				EpisodeID:  unit.EpisodeID,
				Evidence:   []string{unit.ID},
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
	}

	// Pass 3: insights.
	insightRaw, err := e.complete(ctx, llm.InsightExtractionPrompt(unit.Text, unit.Speakers))
	if err != nil {
		return nil, fmt.Errorf("insight extraction: %w", err)
	}
	insightResponses, err := llm.ParseInsightResponse(insightRaw)
	if err != nil {
		return nil, fmt.Errorf("insight extraction: %w", err)
	}
	for _, ir := range insightResponses {
		insight := types.Insight{
			ID:         "ins:" + uuid.NewString(),
			Type:       ir.Type,
			Content:    ir.Content,
			Speaker:    ir.Speaker,
			Confidence: ir.Confidence,
			EpisodeID:  unit.EpisodeID,
			UnitID:     unit.ID,
			CreatedAt:  now,
		}
		for _, name := range ir.EntityNames {
			if entity, ok := byName[name]; ok {
				insight.EntityIDs = append(insight.EntityIDs, entity.ID)
			}
		}
		result.Insights = append(result.Insights, insight)
	}

	// Pass 4: quotes, with the verbatim check against the unit text.
	quoteRaw, err := e.complete(ctx, llm.QuoteExtractionPrompt(unit.Text, unit.Speakers))
	if err != nil {
		return nil, fmt.Errorf("quote extraction: %w", err)
	}
	quoteResponses, err := llm.ParseQuoteResponse(quoteRaw, unit.Text)
	if err != nil {
		return nil, fmt.Errorf("quote extraction: %w", err)
	}
	for _, qr := range quoteResponses {
		result.Quotes = append(result.Quotes, types.Quote{
			ID:        "quo:" + uuid.NewString(),
			Text:      qr.Text,
			Speaker:   qr.Speaker,
			EpisodeID: unit.EpisodeID,
			UnitID:    unit.ID,
			Start:     unit.Start,
			CreatedAt: now,
		})
	}

	return result, nil
}

func derefEntities(entities []*types.Entity) []types.Entity {
	out := make([]types.Entity, len(entities))
	for i, e := range entities {
		out[i] = *e
	}
	return out
}
