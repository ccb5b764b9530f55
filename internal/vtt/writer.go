package vtt

import (
	"fmt"
	"io"
	"time"
)

// Write emits the transcript as a WebVTT document. Cues with a speaker are
// written with a <v Speaker> voice tag so a later Parse round-trips the
// attribution.
func Write(w io.Writer, t *Transcript) error {
	if _, err := fmt.Fprint(w, "WEBVTT\n\n"); err != nil {
		return err
	}

	for _, cue := range t.Cues {
		if _, err := fmt.Fprintf(w, "%s --> %s\n", formatTimestamp(cue.Start), formatTimestamp(cue.End)); err != nil {
			return err
		}

		line := cue.Text
		if cue.Speaker != "" {
			line = fmt.Sprintf("<v %s>%s</v>", cue.Speaker, cue.Text)
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
			return err
		}
	}
	return nil
}

// formatTimestamp renders a duration as "HH:MM:SS.mmm".
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
