// Package assets picks the background media for one run: two distinct
// background videos and one audio track, drawn at random from the
// brand's asset ranges.
package assets

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"astromatic/brands"
	"astromatic/timing"
)

// DurationProber measures a remote media file's length in frames.
type DurationProber interface {
	ProbeDuration(ctx context.Context, source string) (int, error)
}

// Selection is the chosen background media for a run, immutable once
// built. Video indices are distinct whenever the range allows it.
type Selection struct {
	VideoIndexA    int
	VideoIndexB    int
	VideoDurationA int
	VideoDurationB int
	AudioIndex     int
	BaseURL        string
	Names          Names
}

// Names are the operator-facing asset display names.
type Names struct {
	VideoA string
	VideoB string
	Audio  string
}

// VideoURLA is the public URL of the first background video.
func (s *Selection) VideoURLA(brand brands.Config) string {
	return assetURL(s.BaseURL, brand.StorageFolder, brand.Prefix.Video, s.VideoIndexA)
}

// VideoURLB is the public URL of the second background video.
func (s *Selection) VideoURLB(brand brands.Config) string {
	return assetURL(s.BaseURL, brand.StorageFolder, brand.Prefix.Video, s.VideoIndexB)
}

func assetURL(base, folder, prefix string, index int) string {
	return fmt.Sprintf("%s/%s/videos/%s%04d.mp4", base, folder, prefix, index)
}

// Selector draws assets for a single brand.
type Selector struct {
	brand   brands.Config
	baseURL string
	prober  DurationProber

	// intn is rand.Intn unless a test injects a fixed sequence.
	intn func(n int) int
}

// NewSelector builds a selector. publicBaseURL may carry a trailing
// slash; it is normalized away.
func NewSelector(brand brands.Config, publicBaseURL string, prober DurationProber) *Selector {
	return &Selector{
		brand:   brand,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		prober:  prober,
		intn:    rand.Intn,
	}
}

// Select draws the indices and probes both video durations
// concurrently. Probe failures are absorbed: the affected video gets a
// fixed 15-second fallback instead of failing the run.
func (s *Selector) Select(ctx context.Context) (*Selection, error) {
	limits := s.brand.MaxAssets
	if limits.Videos < 1 || limits.Audios < 1 {
		return nil, fmt.Errorf("brand %q has malformed asset limits: %d videos, %d audios",
			s.brand.ID, limits.Videos, limits.Audios)
	}

	videoA := s.intn(limits.Videos) + 1
	videoB := s.drawDistinct(videoA, limits.Videos)
	audio := s.intn(limits.Audios) + 1

	sel := &Selection{
		VideoIndexA: videoA,
		VideoIndexB: videoB,
		AudioIndex:  audio,
		BaseURL:     s.baseURL,
		Names: Names{
			VideoA: fmt.Sprintf("%s%04d", s.brand.Prefix.Video, videoA),
			VideoB: fmt.Sprintf("%s%04d", s.brand.Prefix.Video, videoB),
			Audio:  fmt.Sprintf("%s%04d", s.brand.Prefix.Audio, audio),
		},
	}

	log.Info().
		Str("videoA", sel.Names.VideoA).
		Str("videoB", sel.Names.VideoB).
		Str("audio", sel.Names.Audio).
		Msg("Fetching video metadata for smart looping...")

	urlA := sel.VideoURLA(s.brand)
	urlB := sel.VideoURLB(s.brand)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sel.VideoDurationA = s.probeOrFallback(gctx, urlA)
		return nil
	})
	g.Go(func() error {
		sel.VideoDurationB = s.probeOrFallback(gctx, urlB)
		return nil
	})
	_ = g.Wait()

	return sel, nil
}

// drawDistinct picks a second index different from first. When the
// range has a single member there is no distinct choice; reusing the
// first index beats looping forever. Drawing from n-1 and shifting
// keeps the draw uniform without rejection sampling.
func (s *Selector) drawDistinct(first, n int) int {
	if n == 1 {
		return first
	}
	second := s.intn(n-1) + 1
	if second >= first {
		second++
	}
	return second
}

func (s *Selector) probeOrFallback(ctx context.Context, url string) int {
	frames, err := s.prober.ProbeDuration(ctx, url)
	if err != nil {
		log.Warn().Str("source", url).Err(err).Msg("Failed to probe duration. Using 15s fallback.")
		return timing.FallbackVideoDurationFrames
	}
	return frames
}
