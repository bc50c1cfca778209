// Package timing converts on-screen text into frame counts. The rates
// here are tuned for readability (~150 wpm) rather than listening speed.
package timing

import (
	"math"
	"strings"
)

// Frame-rate and pacing constants. Tests pin exact outputs against
// these values; changing one changes every rendered duration.
const (
	FPS = 30

	WordsPerSecond     = 2.8
	MinSequenceSeconds = 1.2

	// TailFrames is extra hold time after a closing call-to-action so
	// the video does not cut away mid-read. Applied once per video by
	// the orchestrator, never per sequence.
	TailFrames = 60

	// FallbackVideoDurationFrames stands in for a background clip
	// whose real duration could not be probed (15 s at 30 FPS).
	FallbackVideoDurationFrames = 450
)

// SequenceDuration returns the frame count for one text sequence.
// Empty text is absent text and contributes nothing; whitespace-only
// text counts as zero words and gets the minimum floor.
func SequenceDuration(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	seconds := math.Max(float64(words)/WordsPerSecond, MinSequenceSeconds)
	return int(math.Round(seconds * FPS))
}

// TotalFrames sums SequenceDuration over texts in order. Tail frames
// are a template-level concern and are not added here.
func TotalFrames(texts []string) int {
	total := 0
	for _, t := range texts {
		total += SequenceDuration(t)
	}
	return total
}
