package types

import "time"

// Episode represents one podcast episode being processed through the
// extraction pipeline.
type Episode struct {
	ID          string        `json:"id"`    // Unique identifier (format: ep:slug or ep:uuid)
	Title       string        `json:"title"` // Display title
	Podcast     string        `json:"podcast,omitempty"`
	PublishedAt time.Time     `json:"published_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	AudioURL    string        `json:"audio_url,omitempty"`
	YouTubeID   string        `json:"youtube_id,omitempty"` // Matched YouTube video, if any
	VTTPath     string        `json:"vtt_path,omitempty"`   // Source transcript file

	Status    EpisodeStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Unit is a semantically coherent span of transcript ("meaningful unit")
// produced by the segmenter and sent to the LLM for extraction.
type Unit struct {
	ID        string        `json:"id"`         // Unique identifier (format: unit:episodeID:index)
	EpisodeID string        `json:"episode_id"`
	Index     int           `json:"index"` // Position within the episode, 0-based
	Start     time.Duration `json:"start"`
	End       time.Duration `json:"end"`
	Speakers  []string      `json:"speakers,omitempty"` // Distinct speakers in order of first appearance
	Text      string        `json:"text"`
	Tokens    int           `json:"tokens"` // Estimated token count
}
