package transcribe

import (
	"time"

	"github.com/scrypster/castgraph/internal/resolve"
	"github.com/scrypster/castgraph/pkg/types"
)

// MatchThreshold is the minimum title similarity for a YouTube candidate to
// be considered a match.
const MatchThreshold = 0.6

// DurationTolerance is how far a candidate's duration may deviate from the
// episode's before it is rejected. YouTube uploads often trim intros or ads.
const DurationTolerance = 2 * time.Minute

// Candidate is one YouTube search result considered for an episode.
type Candidate struct {
	VideoID  string
	Title    string
	Duration time.Duration
}

// MatchYouTube picks the candidate most likely to be the episode's upload.
// Titles are compared with the same normalized similarity used for entity
// resolution; candidates whose duration deviates more than DurationTolerance
// are rejected outright (when both durations are known). Returns false when
// no candidate clears the threshold.
func MatchYouTube(episode *types.Episode, candidates []Candidate) (Candidate, bool) {
	var (
		best      Candidate
		bestScore float64
	)

	for _, candidate := range candidates {
		if episode.Duration > 0 && candidate.Duration > 0 {
			diff := episode.Duration - candidate.Duration
			if diff < 0 {
				diff = -diff
			}
			if diff > DurationTolerance {
				continue
			}
		}

		score := resolve.Similarity(episode.Title, candidate.Title)
		if score < MatchThreshold {
			continue
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore > 0
}
