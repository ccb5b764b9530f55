// Package ingest discovers episode transcripts on disk. An episode is a
// .vtt file, optionally paired with a .yaml sidecar carrying metadata
// (title, podcast, publish date). Files without a sidecar get defaults
// derived from the filename.
package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/castgraph/pkg/types"
)

// Metadata is the YAML sidecar format. All fields are optional; anything
// missing falls back to filename-derived defaults.
type Metadata struct {
	Title       string    `yaml:"title"`
	Podcast     string    `yaml:"podcast"`
	PublishedAt time.Time `yaml:"published_at"`
	Duration    string    `yaml:"duration"` // Go duration string, e.g. "1h23m"
	AudioURL    string    `yaml:"audio_url"`
	YouTubeID   string    `yaml:"youtube_id"`
}

// Scan walks dir for .vtt files and returns one Episode per transcript,
// sorted by path. Sidecar parse failures are logged and the episode falls
// back to defaults; only the directory read itself can fail the scan.
func Scan(dir string) ([]*types.Episode, error) {
	var episodes []*types.Episode

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".vtt") {
			return nil
		}
		episodes = append(episodes, episodeFromFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: failed to scan %s: %w", dir, err)
	}

	return episodes, nil
}

// ScanAwaitingTranscription walks dir for .yaml metadata files that have no
// .vtt transcript next to them. These are audio-only episodes waiting for
// the transcriber; entries without an audio_url are skipped with a warning.
// Each returned episode's VTTPath is the destination the transcript should
// be written to (next to its sidecar), not an existing file.
func ScanAwaitingTranscription(dir string) ([]*types.Episode, error) {
	var episodes []*types.Episode

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".yaml") {
			return nil
		}

		vttPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vtt"
		if _, err := os.Stat(vttPath); err == nil {
			return nil // already transcribed
		}

		episode := episodeFromFile(vttPath)
		if episode.AudioURL == "" {
			log.Printf("ingest: WARNING - %s has no transcript and no audio_url, skipping", path)
			return nil
		}
		episodes = append(episodes, episode)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: failed to scan %s: %w", dir, err)
	}

	return episodes, nil
}

// episodeFromFile builds an Episode from a transcript path plus its sidecar.
func episodeFromFile(vttPath string) *types.Episode {
	slug := slugify(strings.TrimSuffix(filepath.Base(vttPath), filepath.Ext(vttPath)))

	episode := &types.Episode{
		ID:      "ep:" + slug,
		Title:   titleFromSlug(slug),
		VTTPath: vttPath,
		Status:  types.EpisodePending,
	}

	meta, err := loadSidecar(vttPath)
	if err != nil {
		log.Printf("ingest: WARNING - ignoring bad sidecar for %s: %v", vttPath, err)
		return episode
	}
	if meta == nil {
		return episode
	}

	if meta.Title != "" {
		episode.Title = meta.Title
	}
	episode.Podcast = meta.Podcast
	episode.PublishedAt = meta.PublishedAt
	if meta.Duration != "" {
		d, err := time.ParseDuration(meta.Duration)
		if err != nil {
			log.Printf("ingest: WARNING - bad duration %q in sidecar for %s: %v", meta.Duration, vttPath, err)
		} else {
			episode.Duration = d
		}
	}
	episode.AudioURL = meta.AudioURL
	episode.YouTubeID = meta.YouTubeID
	return episode
}

// loadSidecar reads the .yaml file next to the transcript. A missing sidecar
// is not an error; returns (nil, nil).
func loadSidecar(vttPath string) (*Metadata, error) {
	sidecarPath := strings.TrimSuffix(vttPath, filepath.Ext(vttPath)) + ".yaml"

	data, err := os.ReadFile(sidecarPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &meta, nil
}

// slugify lowercases and collapses non-alphanumeric runs to single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// titleFromSlug turns "my-great-episode" into "My Great Episode".
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
