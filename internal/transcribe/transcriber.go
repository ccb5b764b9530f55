package transcribe

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/scrypster/castgraph/pkg/types"
)

// Transcriber produces VTT transcripts for episodes that have audio but no
// transcript yet.
type Transcriber struct {
	Client *SpeechClient

	// OutputDir is where generated .vtt files land when the episode does
	// not already carry a destination VTTPath.
	OutputDir string
}

// Transcribe generates the episode's transcript and sets its VTTPath. The
// transcript is written to the episode's VTTPath when set, otherwise to
// OutputDir with a filename derived from the episode ID.
func (t *Transcriber) Transcribe(ctx context.Context, episode *types.Episode) error {
	if episode.AudioURL == "" {
		return fmt.Errorf("transcribe: episode %s has no audio URL", episode.ID)
	}

	segments, err := t.Client.Transcribe(ctx, episode.AudioURL)
	if err != nil {
		return fmt.Errorf("transcribe: episode %s: %w", episode.ID, err)
	}
	if len(segments) == 0 {
		return fmt.Errorf("transcribe: episode %s: speech API returned no segments", episode.ID)
	}

	path := episode.VTTPath
	if path == "" {
		path = filepath.Join(t.OutputDir, vttFilename(episode.ID))
	}
	if err := WriteVTT(path, segments); err != nil {
		return err
	}

	episode.VTTPath = path
	if episode.Duration == 0 {
		episode.Duration = segments[len(segments)-1].End
	}
	log.Printf("transcribe: wrote %d segments for %s to %s", len(segments), episode.ID, path)
	return nil
}

// vttFilename maps "ep:some-slug" to "some-slug.vtt".
func vttFilename(episodeID string) string {
	slug := strings.TrimPrefix(episodeID, "ep:")
	return slug + ".vtt"
}
