// Package segment groups parsed transcript cues into "meaningful units":
// semantically coherent spans sized for LLM extraction. Units are built by
// greedy accumulation up to a token budget, broken early when the speaker
// changes after a long pause, so one unit rarely straddles two topics.
package segment

import (
	"fmt"
	"time"

	"github.com/scrypster/castgraph/internal/vtt"
	"github.com/scrypster/castgraph/pkg/types"
)

// Segmenter holds the unit-building configuration.
type Segmenter struct {
	// MaxTokens is the token budget per unit (default: 3000).
	MaxTokens int

	// MinBreakTokens is the minimum unit fill, in tokens, before a
	// speaker-change break is taken (default: 40% of MaxTokens).
	MinBreakTokens int

	// PauseGap is the silence between cues that, combined with a speaker
	// change, forces a unit boundary (default: 8s).
	PauseGap time.Duration
}

func (s *Segmenter) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return 3000
}

func (s *Segmenter) minBreakTokens() int {
	if s.MinBreakTokens > 0 {
		return s.MinBreakTokens
	}
	return s.maxTokens() * 2 / 5
}

func (s *Segmenter) pauseGap() time.Duration {
	if s.PauseGap > 0 {
		return s.PauseGap
	}
	return 8 * time.Second
}

// EstimateTokens estimates the number of tokens in the given text using
// the ~4 characters per token heuristic, which is a reasonable
// approximation for English with GPT-style tokenizers.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Segment builds units for the episode from its parsed transcript. A unit
// closes when adding the next cue would exceed the token budget, or when
// the speaker changes after a pause of at least PauseGap and the unit has
// already reached MinBreakTokens. A single oversized cue becomes its own
// unit rather than being split mid-sentence.
func (s *Segmenter) Segment(episodeID string, transcript *vtt.Transcript) []*types.Unit {
	var units []*types.Unit

	var (
		cues   []vtt.Cue
		tokens int
	)

	flush := func() {
		if len(cues) == 0 {
			return
		}
		units = append(units, buildUnit(episodeID, len(units), cues))
		cues = nil
		tokens = 0
	}

	for _, cue := range transcript.Cues {
		cueTokens := EstimateTokens(cue.Text)

		if len(cues) > 0 {
			prev := cues[len(cues)-1]
			speakerChanged := cue.Speaker != "" && prev.Speaker != "" && cue.Speaker != prev.Speaker
			pausedLong := cue.Start-prev.End >= s.pauseGap()

			switch {
			case tokens+cueTokens > s.maxTokens():
				flush()
			case speakerChanged && pausedLong && tokens >= s.minBreakTokens():
				flush()
			}
		}

		cues = append(cues, cue)
		tokens += cueTokens
	}
	flush()

	return units
}

// buildUnit assembles one unit from its cues.
func buildUnit(episodeID string, index int, cues []vtt.Cue) *types.Unit {
	var (
		text     string
		speakers []string
		seen     = make(map[string]bool)
	)

	for i, cue := range cues {
		if i > 0 {
			text += " "
		}
		text += cue.Text

		if cue.Speaker != "" && !seen[cue.Speaker] {
			seen[cue.Speaker] = true
			speakers = append(speakers, cue.Speaker)
		}
	}

	return &types.Unit{
		ID:        fmt.Sprintf("unit:%s:%d", episodeID, index),
		EpisodeID: episodeID,
		Index:     index,
		Start:     cues[0].Start,
		End:       cues[len(cues)-1].End,
		Speakers:  speakers,
		Text:      text,
		Tokens:    EstimateTokens(text),
	}
}
