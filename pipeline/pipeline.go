// Package pipeline sequences one automation cycle: fetch approved
// content, prepare the output location, pick assets, render, upload,
// publish and finalize. Stage sets are explicit lists, so the dev
// (render-only) variant is just a shorter list over the same core.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"astromatic/assets"
	"astromatic/brands"
	"astromatic/config"
	"astromatic/content"
	"astromatic/errs"
	"astromatic/rendering"
	"astromatic/retry"
	"astromatic/storage"
	"astromatic/timing"
)

// Config identifies what one run processes.
type Config struct {
	TemplateID string
	TableID    string
}

// ContentSource is the content-sheet collaborator.
type ContentSource interface {
	FetchApproved(ctx context.Context, templateID, tableID string) (*content.Payload, error)
	MarkProcessed(ctx context.Context, recordID, tableID string) error
}

// AssetSelector picks background media for a run.
type AssetSelector interface {
	Select(ctx context.Context) (*assets.Selection, error)
}

// Renderer produces the video artifact from render input.
type Renderer interface {
	Render(ctx context.Context, inputProps any, outputPath string) (string, error)
}

// Storage uploads an artifact and returns its public URL.
type Storage interface {
	Upload(ctx context.Context, localPath, remoteKey string) (string, error)
}

// Publisher runs one full publish session and returns the permalink.
type Publisher interface {
	Publish(ctx context.Context, videoURL, caption string) (string, error)
}

// Notifier delivers best-effort operator messages.
type Notifier interface {
	Send(ctx context.Context, message string)
}

// RenderInput is the merged payload handed to the renderer. Field
// names are the composition's prop contract.
type RenderInput struct {
	ID               string            `json:"id"`
	Sequences        map[string]string `json:"sequences"`
	Caption          string            `json:"caption"`
	TemplateID       string            `json:"templateId"`
	VideoIndex1      int               `json:"videoIndex1"`
	VideoIndex2      int               `json:"videoIndex2"`
	Video1Duration   int               `json:"video1Duration"`
	Video2Duration   int               `json:"video2Duration"`
	MusicIndex       int               `json:"musicIndex"`
	R2BaseURL        string            `json:"r2BaseUrl"`
	DurationInFrames int               `json:"durationInFrames"`
}

// Pipeline owns one run's collaborators and configuration.
type Pipeline struct {
	cfg        Config
	brand      brands.Config
	outputPath string

	content   ContentSource
	selector  AssetSelector
	renderer  Renderer
	storage   Storage
	publisher Publisher
	notifier  Notifier

	retryOpts []retry.Option

	// now and prepareOutput are swappable in tests.
	now           func() time.Time
	prepareOutput func(path string) error
}

// New wires a pipeline. settings tunes retries; nil means defaults.
func New(
	cfg Config,
	brand brands.Config,
	settings *config.Settings,
	src ContentSource,
	selector AssetSelector,
	renderer Renderer,
	store Storage,
	publisher Publisher,
	notifier Notifier,
) *Pipeline {
	var opts []retry.Option
	outputPath := "out/video.mp4"
	if settings != nil {
		opts = []retry.Option{
			retry.Attempts(settings.Retry.Attempts),
			retry.InitialDelay(settings.InitialRetryDelay()),
		}
		outputPath = settings.Pipeline.OutputPath
	}
	return &Pipeline{
		cfg:           cfg,
		brand:         brand,
		outputPath:    outputPath,
		content:       src,
		selector:      selector,
		renderer:      renderer,
		storage:       store,
		publisher:     publisher,
		notifier:      notifier,
		retryOpts:     opts,
		now:           time.Now,
		prepareOutput: rendering.PrepareOutput,
	}
}

// state accumulates what the stages produce during one run.
type state struct {
	payload   *content.Payload
	selection *assets.Selection
	artifact  string
	publicURL string
	postLink  string
}

// Stage is one named step. Returning done=true ends the run cleanly
// without touching the remaining stages.
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *state) (done bool, err error)
}

// ProductionStages is the full cycle.
func (p *Pipeline) ProductionStages() []Stage {
	return []Stage{
		{Name: "FetchContent", Run: p.fetchContent},
		{Name: "PrepareOutput", Run: p.prepareOutputStage},
		{Name: "SelectAssets", Run: p.selectAssets},
		{Name: "RenderAndUpload", Run: p.renderAndUpload},
		{Name: "Publish", Run: p.publish},
		{Name: "Finalize", Run: p.finalize},
	}
}

// DevStages renders locally and skips distribution and record updates.
func (p *Pipeline) DevStages() []Stage {
	return []Stage{
		{Name: "FetchContent", Run: p.fetchContent},
		{Name: "PrepareOutput", Run: p.prepareOutputStage},
		{Name: "SelectAssets", Run: p.selectAssets},
		{Name: "RenderOnly", Run: p.renderOnly},
	}
}

// Execute runs the stages in order. Any stage error routes to the
// single failure handler; partially completed side effects are left
// as-is, rollback is deliberately out of scope.
func (p *Pipeline) Execute(ctx context.Context, stages []Stage) error {
	log.Info().Str("templateId", p.cfg.TemplateID).Msg("🚀 Astromatic: Starting automation cycle...")

	st := &state{}
	for _, stage := range stages {
		done, err := stage.Run(ctx, st)
		if err != nil {
			return p.handleError(ctx, err)
		}
		if done {
			return nil
		}
	}

	log.Info().Msg("✅ Automation cycle finished successfully.")
	return nil
}

func (p *Pipeline) fetchContent(ctx context.Context, st *state) (bool, error) {
	payload, err := retry.Do(ctx, "fetchApproved", func(ctx context.Context) (*content.Payload, error) {
		return p.content.FetchApproved(ctx, p.cfg.TemplateID, p.cfg.TableID)
	}, p.retryOpts...)
	if err != nil {
		return false, err
	}

	if payload == nil {
		log.Info().Str("templateId", p.cfg.TemplateID).Msg("Nothing to process. Exiting.")
		p.notifier.Send(ctx, fmt.Sprintf(
			"⚠️ <b>Astromatic:</b> No approved records found for <b>%s</b> today.",
			p.cfg.TemplateID))
		return true, nil
	}

	st.payload = payload
	return false, nil
}

func (p *Pipeline) prepareOutputStage(_ context.Context, _ *state) (bool, error) {
	return false, p.prepareOutput(p.outputPath)
}

func (p *Pipeline) selectAssets(ctx context.Context, st *state) (bool, error) {
	selection, err := p.selector.Select(ctx)
	if err != nil {
		return false, err
	}
	st.selection = selection
	return false, nil
}

// totalFrames computes the video duration: per-sequence sums plus tail
// frames when the template closes on a call-to-action.
func (p *Pipeline) totalFrames(payload *content.Payload) int {
	total := timing.TotalFrames(payload.Texts())
	if brands.EndsWithCTA(p.cfg.TemplateID) {
		total += timing.TailFrames
	}
	return total
}

func (p *Pipeline) renderInput(st *state) RenderInput {
	seqs := make(map[string]string, len(st.payload.Sequences))
	for _, s := range st.payload.Sequences {
		seqs[s.Name] = s.Text
	}
	return RenderInput{
		ID:               st.payload.ID,
		Sequences:        seqs,
		Caption:          st.payload.Caption,
		TemplateID:       p.cfg.TemplateID,
		VideoIndex1:      st.selection.VideoIndexA,
		VideoIndex2:      st.selection.VideoIndexB,
		Video1Duration:   st.selection.VideoDurationA,
		Video2Duration:   st.selection.VideoDurationB,
		MusicIndex:       st.selection.AudioIndex,
		R2BaseURL:        st.selection.BaseURL,
		DurationInFrames: p.totalFrames(st.payload),
	}
}

func (p *Pipeline) renderAndUpload(ctx context.Context, st *state) (bool, error) {
	input := p.renderInput(st)
	log.Info().Int("durationInFrames", input.DurationInFrames).Msg("Rendering video...")

	artifact, err := p.renderer.Render(ctx, input, p.outputPath)
	if err != nil {
		return false, err
	}
	st.artifact = artifact

	key := storage.OutputKey(p.brand, p.now())
	publicURL, err := retry.Do(ctx, "uploadArtifact", func(ctx context.Context) (string, error) {
		return p.storage.Upload(ctx, artifact, key)
	}, p.retryOpts...)
	if err != nil {
		return false, err
	}

	st.publicURL = publicURL
	return false, nil
}

func (p *Pipeline) renderOnly(ctx context.Context, st *state) (bool, error) {
	input := p.renderInput(st)
	log.Info().Int("durationInFrames", input.DurationInFrames).Msg("Rendering video (dev mode)...")

	artifact, err := p.renderer.Render(ctx, input, p.outputPath)
	if err != nil {
		return false, err
	}
	st.artifact = artifact

	log.Info().Str("artifact", artifact).Msg("✅ Render complete! Distribution and record updates skipped in dev mode.")
	return false, nil
}

func (p *Pipeline) publish(ctx context.Context, st *state) (bool, error) {
	postLink, err := retry.Do(ctx, "publish", func(ctx context.Context) (string, error) {
		return p.publisher.Publish(ctx, st.publicURL, st.payload.Caption)
	}, p.retryOpts...)
	if err != nil {
		return false, err
	}

	st.postLink = postLink
	log.Info().Str("postLink", postLink).Msg("Published successfully.")
	return false, nil
}

func (p *Pipeline) finalize(ctx context.Context, st *state) (bool, error) {
	_, err := retry.Do(ctx, "markProcessed", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.content.MarkProcessed(ctx, st.payload.ID, p.cfg.TableID)
	}, p.retryOpts...)
	if err != nil {
		return false, err
	}

	p.notifier.Send(ctx, fmt.Sprintf(
		"✅ <b>Astromatic:</b> Cycle completed for <b>%s</b>!\n\n"+
			"🎬 <b>Assets:</b>\n- Video 1: <code>%s</code>\n- Video 2: <code>%s</code>\n- Music: <code>%s</code>\n\n"+
			"🔗 <a href=\"%s\">View post</a>",
		p.cfg.TemplateID,
		st.selection.Names.VideoA,
		st.selection.Names.VideoB,
		st.selection.Names.Audio,
		st.postLink))
	return false, nil
}

// handleError is the single failure sink: classify, log, notify
// best-effort, and surface a non-nil error so the process exits
// non-zero. No rollback of completed stages is attempted.
func (p *Pipeline) handleError(ctx context.Context, err error) error {
	pe := errs.Classify(err)
	log.Error().Err(err).Interface("context", pe.Context).Str("kind", string(pe.Kind)).Msg(pe.Message)

	p.notifier.Send(ctx, fmt.Sprintf(
		"❌ <b>Astromatic Error:</b>\n%s\n\n<code>%v</code>", pe.Message, err))
	return pe
}
