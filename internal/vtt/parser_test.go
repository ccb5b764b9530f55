package vtt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVTT = `WEBVTT

NOTE generated by castgraph-transcribe

1
00:00:01.000 --> 00:00:04.500
<v Alice>Welcome back to the show.</v>

2
00:00:04.500 --> 00:00:09.250
<v Bob>Thanks for having me, it's great
to be here.</v>

00:00:09.250 --> 00:00:12.000
Untagged narration line.
`

func TestParse(t *testing.T) {
	transcript, err := Parse(strings.NewReader(sampleVTT))
	require.NoError(t, err)
	require.Len(t, transcript.Cues, 3)

	first := transcript.Cues[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, time.Second, first.Start)
	assert.Equal(t, 4500*time.Millisecond, first.End)
	assert.Equal(t, "Alice", first.Speaker)
	assert.Equal(t, "Welcome back to the show.", first.Text)

	second := transcript.Cues[1]
	assert.Equal(t, "Bob", second.Speaker)
	assert.Equal(t, "Thanks for having me, it's great to be here.", second.Text,
		"multi-line payloads join with a single space")

	third := transcript.Cues[2]
	assert.Equal(t, "", third.Speaker)
	assert.Equal(t, "Untagged narration line.", third.Text)

	assert.Equal(t, 12*time.Second, transcript.Duration())
}

func TestParseHourTimestamps(t *testing.T) {
	input := "WEBVTT\n\n01:02:03.450 --> 01:02:05.000\nLate in the episode.\n"
	transcript, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transcript.Cues, 1)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second+450*time.Millisecond, transcript.Cues[0].Start)
}

func TestParseShortTimestamps(t *testing.T) {
	input := "WEBVTT\n\n02:03.450 --> 02:05.000\nMM:SS form.\n"
	transcript, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transcript.Cues, 1)
	assert.Equal(t, 2*time.Minute+3*time.Second+450*time.Millisecond, transcript.Cues[0].Start)
}

func TestParseMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("1\n00:00:01.000 --> 00:00:02.000\nhi\n"))
	require.Error(t, err)
}

func TestParseSkipsMalformedCues(t *testing.T) {
	input := `WEBVTT

00:00:01.000 --> 00:00:02.000
Good cue.

garbage --> more garbage
Bad timing.

00:00:05.000 --> 00:00:03.000
End before start.

00:00:06.000 --> 00:00:07.000
Another good cue.
`
	transcript, err := Parse(strings.NewReader(input))
	require.NoError(t, err, "malformed cues are skipped, not fatal")
	require.Len(t, transcript.Cues, 2)
	assert.Equal(t, "Good cue.", transcript.Cues[0].Text)
	assert.Equal(t, "Another good cue.", transcript.Cues[1].Text)
}

func TestParseCueSettingsIgnored(t *testing.T) {
	input := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000 align:start position:0%\nPositioned cue.\n"
	transcript, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, transcript.Cues, 1)
	assert.Equal(t, "Positioned cue.", transcript.Cues[0].Text)
}

func TestWriteParseRoundTrip(t *testing.T) {
	original := &Transcript{Cues: []Cue{
		{Start: time.Second, End: 4 * time.Second, Speaker: "Alice", Text: "First line."},
		{Start: 4 * time.Second, End: 9*time.Second + 500*time.Millisecond, Speaker: "Bob", Text: "Second line."},
		{Start: 10 * time.Second, End: 12 * time.Second, Text: "No speaker."},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original))

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Cues, len(original.Cues))

	for i, want := range original.Cues {
		got := parsed.Cues[i]
		assert.Equal(t, want.Start, got.Start, "cue %d start", i)
		assert.Equal(t, want.End, got.End, "cue %d end", i)
		assert.Equal(t, want.Speaker, got.Speaker, "cue %d speaker", i)
		assert.Equal(t, want.Text, got.Text, "cue %d text", i)
	}
}
