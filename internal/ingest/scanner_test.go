package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/castgraph/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFindsTranscripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ai-frontier-042.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "nested", "deep-dive.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a transcript")

	episodes, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	byID := map[string]*types.Episode{}
	for _, ep := range episodes {
		byID[ep.ID] = ep
	}
	require.Contains(t, byID, "ep:ai-frontier-042")
	require.Contains(t, byID, "ep:deep-dive")

	ep := byID["ep:ai-frontier-042"]
	assert.Equal(t, "Ai Frontier 042", ep.Title)
	assert.Equal(t, types.EpisodePending, ep.Status)
	assert.Equal(t, filepath.Join(dir, "ai-frontier-042.vtt"), ep.VTTPath)
}

func TestScanReadsSidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ep42.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "ep42.yaml"), `
title: "The AI Frontier, Part 42"
podcast: "AI Frontier"
published_at: 2025-06-15T00:00:00Z
duration: 1h23m
audio_url: "https://example.com/ep42.mp3"
youtube_id: "dQw4w9WgXcQ"
`)

	episodes, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, episodes, 1)

	ep := episodes[0]
	assert.Equal(t, "ep:ep42", ep.ID)
	assert.Equal(t, "The AI Frontier, Part 42", ep.Title)
	assert.Equal(t, "AI Frontier", ep.Podcast)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), ep.PublishedAt)
	assert.Equal(t, time.Hour+23*time.Minute, ep.Duration)
	assert.Equal(t, "https://example.com/ep42.mp3", ep.AudioURL)
	assert.Equal(t, "dQw4w9WgXcQ", ep.YouTubeID)
}

func TestScanBadSidecarFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ep1.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "ep1.yaml"), "title: [unclosed")

	episodes, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "Ep1", episodes[0].Title, "defaults used when sidecar is unparseable")
}

func TestScanBadDurationIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ep1.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "ep1.yaml"), "title: Good Title\nduration: ninety minutes\n")

	episodes, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "Good Title", episodes[0].Title)
	assert.Zero(t, episodes[0].Duration)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Great Episode!", "my-great-episode"},
		{"ep_042 (final)", "ep-042-final"},
		{"--weird--", "weird"},
		{"Simple", "simple"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}

func TestScanAwaitingTranscription(t *testing.T) {
	dir := t.TempDir()
	// Already transcribed: has both files.
	writeFile(t, filepath.Join(dir, "done.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "done.yaml"), "title: Done\naudio_url: https://cdn.example.com/done.mp3\n")
	// Awaiting: sidecar with audio, no transcript.
	writeFile(t, filepath.Join(dir, "pending.yaml"), "title: Pending Episode\naudio_url: https://cdn.example.com/pending.mp3\n")
	// No audio URL: nothing to transcribe from.
	writeFile(t, filepath.Join(dir, "stuck.yaml"), "title: Stuck\n")

	episodes, err := ScanAwaitingTranscription(dir)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, "ep:pending", episodes[0].ID)
	assert.Equal(t, "Pending Episode", episodes[0].Title)
	assert.Equal(t, "https://cdn.example.com/pending.mp3", episodes[0].AudioURL)
	assert.Equal(t, filepath.Join(dir, "pending.vtt"), episodes[0].VTTPath, "destination for the transcriber")
}
