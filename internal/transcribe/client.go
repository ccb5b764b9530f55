// Package transcribe turns podcast audio into VTT transcripts through an
// external speech API and matches episodes to their YouTube uploads.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"

	"github.com/scrypster/castgraph/internal/vtt"
)

// ErrUpstreamOpen is returned when the speech API breaker is open and
// requests are rejected without hitting the network.
var ErrUpstreamOpen = errors.New("transcribe: speech API circuit breaker is open")

// Segment is one diarized span of transcribed speech.
type Segment struct {
	Start   time.Duration
	End     time.Duration
	Speaker string
	Text    string
}

// SpeechConfig configures the speech API client.
type SpeechConfig struct {
	BaseURL string
	APIKey  string

	// Timeout bounds one transcription request (default: 10 minutes;
	// transcription of long episodes is slow).
	Timeout time.Duration

	// MaxFailures trips the breaker after this many consecutive failures
	// (default: 3). The circuit stays open for OpenTimeout (default: 30s).
	MaxFailures uint32
	OpenTimeout time.Duration
}

// SpeechClient calls the speech transcription API. All requests pass through
// a circuit breaker so a struggling upstream is not hammered; while the
// circuit is open, Transcribe fails fast with ErrUpstreamOpen.
type SpeechClient struct {
	config  SpeechConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewSpeechClient creates a speech API client.
func NewSpeechClient(config SpeechConfig) (*SpeechClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("transcribe: speech API URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Minute
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = 3
	}
	if config.OpenTimeout == 0 {
		config.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "speech-api",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
	}

	return &SpeechClient{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}, nil
}

// State returns the breaker state as "closed", "open", or "half-open".
func (c *SpeechClient) State() string {
	switch c.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Diarize  bool   `json:"diarize"`
}

type transcribeResponse struct {
	Segments []struct {
		Start   float64 `json:"start"` // seconds
		End     float64 `json:"end"`
		Speaker string  `json:"speaker,omitempty"`
		Text    string  `json:"text"`
	} `json:"segments"`
}

// Transcribe submits the audio URL for transcription and returns the timed
// segments. Blocks until the API finishes or ctx expires.
func (c *SpeechClient) Transcribe(ctx context.Context, audioURL string) ([]Segment, error) {
	if audioURL == "" {
		return nil, fmt.Errorf("transcribe: audio URL is required")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.transcribe(ctx, audioURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUpstreamOpen
		}
		return nil, err
	}
	return result.([]Segment), nil
}

func (c *SpeechClient) transcribe(ctx context.Context, audioURL string) ([]Segment, error) {
	body, err := json.Marshal(transcribeRequest{AudioURL: audioURL, Diarize: true})
	if err != nil {
		return nil, fmt.Errorf("transcribe: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transcribe: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcribe: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcribe: speech API returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("transcribe: failed to parse response: %w", err)
	}

	segments := make([]Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, Segment{
			Start:   time.Duration(s.Start * float64(time.Second)),
			End:     time.Duration(s.End * float64(time.Second)),
			Speaker: s.Speaker,
			Text:    s.Text,
		})
	}
	return segments, nil
}

// WriteVTT writes the segments as a WebVTT file at path.
func WriteVTT(path string, segments []Segment) error {
	transcript := &vtt.Transcript{Cues: make([]vtt.Cue, 0, len(segments))}
	for i, s := range segments {
		transcript.Cues = append(transcript.Cues, vtt.Cue{
			Index:   i,
			Start:   s.Start,
			End:     s.End,
			Speaker: s.Speaker,
			Text:    s.Text,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("transcribe: failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := vtt.Write(f, transcript); err != nil {
		return fmt.Errorf("transcribe: failed to write %s: %w", path, err)
	}
	return f.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
