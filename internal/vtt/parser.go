// Package vtt parses and writes WebVTT transcript files. The parser covers
// the subset produced by transcription services: an optional header line,
// timed cues with optional identifiers, <v Speaker> voice tags, and NOTE
// blocks. Malformed cues are skipped with a logged warning, never fatal.
package vtt

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cue is one timed caption from a VTT file.
type Cue struct {
	Index   int           // 0-based position in the file
	Start   time.Duration // offset from the start of the media
	End     time.Duration
	Speaker string // from a <v Name> tag, empty when absent
	Text    string // payload with voice tags stripped, lines joined by spaces
}

// Transcript is the parsed form of one VTT file.
type Transcript struct {
	Cues []Cue
}

// Duration returns the end time of the last cue, or zero for an empty
// transcript.
func (t *Transcript) Duration() time.Duration {
	if len(t.Cues) == 0 {
		return 0
	}
	return t.Cues[len(t.Cues)-1].End
}

// Text returns the full transcript text with cues joined by newlines.
func (t *Transcript) Text() string {
	lines := make([]string, 0, len(t.Cues))
	for _, cue := range t.Cues {
		lines = append(lines, cue.Text)
	}
	return strings.Join(lines, "\n")
}

var (
	timingRe = regexp.MustCompile(`^(\d{1,2}:)?\d{2}:\d{2}\.\d{3}\s+-->\s+(\d{1,2}:)?\d{2}:\d{2}\.\d{3}`)
	voiceRe  = regexp.MustCompile(`<v(?:\.[^ >]*)?\s+([^>]*)>`)
	tagRe    = regexp.MustCompile(`</?[^>]+>`)
)

// Parse reads a WebVTT document. It returns an error only when the input
// is not VTT at all (missing WEBVTT header); individual malformed cues are
// skipped with a warning.
func Parse(r io.Reader) (*Transcript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("vtt: empty input")
	}
	header := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "\ufeff")
	if !strings.HasPrefix(header, "WEBVTT") {
		return nil, fmt.Errorf("vtt: missing WEBVTT header, got %q", header)
	}

	transcript := &Transcript{}
	var pending []string // lines of the block being accumulated

	flush := func() {
		if len(pending) == 0 {
			return
		}
		block := pending
		pending = nil

		// NOTE and STYLE blocks carry no cue content.
		if strings.HasPrefix(block[0], "NOTE") || strings.HasPrefix(block[0], "STYLE") {
			return
		}

		// An optional cue identifier precedes the timing line.
		timingIdx := -1
		for i, line := range block {
			if timingRe.MatchString(line) {
				timingIdx = i
				break
			}
		}
		if timingIdx == -1 || timingIdx > 1 {
			log.Printf("vtt: WARNING - skipping block without timing line: %q", block[0])
			return
		}

		start, end, err := parseTiming(block[timingIdx])
		if err != nil {
			log.Printf("vtt: WARNING - skipping cue with bad timing: %v", err)
			return
		}
		if end < start {
			log.Printf("vtt: WARNING - skipping cue with end before start (%v --> %v)", start, end)
			return
		}

		payload := block[timingIdx+1:]
		if len(payload) == 0 {
			return
		}

		speaker, text := parsePayload(payload)
		if text == "" {
			return
		}

		transcript.Cues = append(transcript.Cues, Cue{
			Index:   len(transcript.Cues),
			Start:   start,
			End:     end,
			Speaker: speaker,
			Text:    text,
		})
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		pending = append(pending, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vtt: read failed: %w", err)
	}
	return transcript, nil
}

// parseTiming parses a "HH:MM:SS.mmm --> HH:MM:SS.mmm" line. Cue settings
// after the end timestamp are ignored.
func parseTiming(line string) (start, end time.Duration, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("no arrow in timing line %q", line)
	}

	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}

	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err = parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm".
func parseTimestamp(s string) (time.Duration, error) {
	secParts := strings.SplitN(s, ".", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("timestamp %q missing milliseconds", s)
	}

	millis, err := strconv.Atoi(secParts[1])
	if err != nil || len(secParts[1]) != 3 {
		return 0, fmt.Errorf("timestamp %q has bad milliseconds", s)
	}

	fields := strings.Split(secParts[0], ":")
	var hours, minutes, seconds int
	switch len(fields) {
	case 3:
		hours, err = strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("timestamp %q has bad hours", s)
		}
		fields = fields[1:]
	case 2:
		// MM:SS.mmm form
	default:
		return 0, fmt.Errorf("timestamp %q has wrong field count", s)
	}

	minutes, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q has bad minutes", s)
	}
	seconds, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q has bad seconds", s)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// parsePayload extracts the speaker from the first voice tag and returns
// the payload text with all tags stripped and lines joined by spaces.
func parsePayload(lines []string) (speaker, text string) {
	joined := strings.Join(lines, " ")

	if m := voiceRe.FindStringSubmatch(joined); m != nil {
		speaker = strings.TrimSpace(m[1])
	}

	text = tagRe.ReplaceAllString(joined, "")
	text = strings.Join(strings.Fields(text), " ")
	return speaker, text
}
