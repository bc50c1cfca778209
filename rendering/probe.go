package rendering

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"astromatic/timing"
)

// FFProbe measures media durations by shelling out to ffprobe. Works
// for local paths and public URLs alike.
type FFProbe struct {
	// Binary defaults to "ffprobe" on PATH.
	Binary string
}

func (p *FFProbe) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "ffprobe"
}

// ProbeDuration returns the duration of source in frames. Callers own
// the fallback policy; this only reports or fails.
func (p *FFProbe) ProbeDuration(ctx context.Context, source string) (int, error) {
	cmd := exec.CommandContext(ctx, p.binary(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", source, err)
	}
	return ParseDuration(string(out))
}

// ParseDuration converts raw ffprobe output (seconds) into frames.
// Exported for testing without a real ffprobe binary.
func ParseDuration(raw string) (int, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned invalid duration %q: %w", strings.TrimSpace(raw), err)
	}
	return int(seconds * timing.FPS), nil
}
