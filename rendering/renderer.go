// Package rendering drives the external composition engine and the
// media duration probe. Both are thin exec wrappers; the visual
// composition itself lives outside this repository.
package rendering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"astromatic/errs"
)

// Renderer invokes the Remotion CLI to produce the video artifact.
type Renderer struct {
	// Binary defaults to "npx".
	Binary        string
	EntryPoint    string
	CompositionID string
}

// NewRenderer builds a renderer for one entry point and composition.
func NewRenderer(entryPoint, compositionID string) *Renderer {
	return &Renderer{EntryPoint: entryPoint, CompositionID: compositionID}
}

func (r *Renderer) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "npx"
}

// Render writes inputProps to a props file beside the output and runs
// the render. The durationInFrames inside inputProps overrides any
// duration baked into the composition. Returns the artifact path.
func (r *Renderer) Render(ctx context.Context, inputProps any, outputPath string) (string, error) {
	props, err := json.Marshal(inputProps)
	if err != nil {
		return "", errs.Wrap(errs.KindRendering, "failed to encode render input", err, nil)
	}

	propsFile := filepath.Join(filepath.Dir(outputPath), "props.json")
	if err := os.WriteFile(propsFile, props, 0644); err != nil {
		return "", errs.Wrap(errs.KindRendering, "failed to write props file", err,
			map[string]any{"path": propsFile})
	}

	log.Info().Str("composition", r.CompositionID).Str("output", outputPath).Msg("Rendering video...")

	cmd := exec.CommandContext(ctx, r.binary(), "remotion", "render",
		r.EntryPoint,
		r.CompositionID,
		outputPath,
		"--props="+propsFile,
		"--codec=h264",
		"--audio-codec=aac",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", errs.Wrap(errs.KindRendering, "render failed", err,
			map[string]any{"composition": r.CompositionID, "output": outputPath})
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", errs.Wrap(errs.KindRendering, "render reported success but produced no artifact", err,
			map[string]any{"output": outputPath})
	}

	log.Info().Str("output", outputPath).Msg("Render complete.")
	return outputPath, nil
}

// PrepareOutput makes sure the artifact location exists and holds no
// stale file from a previous run. A stale file that cannot be removed
// is fatal; a locked file will not unlock itself on a retry schedule.
func PrepareOutput(outputPath string) error {
	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errs.Wrap(errs.KindRendering, "failed to create output directory", err,
			map[string]any{"dir": outDir})
	}

	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return errs.Wrap(errs.KindRendering,
				fmt.Sprintf("could not delete %s; ensure it is not open in another program", outputPath),
				err, map[string]any{"path": outputPath})
		}
	}
	return nil
}
