// Package cmd contains the command line interface for the astromatic
// pipeline.
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"astromatic/assets"
	"astromatic/brands"
	"astromatic/config"
	"astromatic/content"
	"astromatic/distribution"
	"astromatic/monitoring"
	"astromatic/pipeline"
	"astromatic/rendering"
	"astromatic/storage"
)

var (
	cfgFile    string
	templateID string
)

var rootCmd = &cobra.Command{
	Use:   "astromatic",
	Short: "automated content-to-video-to-social publishing",
	Long: `Astromatic pulls one approved record from the content sheet, renders
a video for it, uploads the artifact to object storage, publishes it
to the brand's social account and marks the record processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), false)
	},
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "render locally, skip distribution and record updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true)
	},
}

// Execute runs the CLI. Pipeline failures have already been logged and
// notified by the time they surface here.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "settings file")
	rootCmd.PersistentFlags().StringVarP(&templateID, "template", "t", "asfa-t1", "template id to process")
	rootCmd.AddCommand(devCmd)

	// Pipeline failures are reported by the failure handler; cobra
	// should not repeat them.
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("APP_ENV") != "production" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func run(ctx context.Context, dev bool) error {
	// .env is for local development; CI environments inject real vars.
	_ = godotenv.Load()

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	settings, err := config.Load(cfgFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgFile).Msg("Failed to load settings")
	}

	runID := uuid.NewString()[:8]
	log.Logger = log.With().Str("runId", runID).Logger()

	brand := brands.NewResolver(env).Resolve(templateID)
	cfg := pipeline.Config{TemplateID: templateID, TableID: brand.Table(templateID)}

	src := content.NewClient(env, settings.RequestTimeout())
	prober := &rendering.FFProbe{}
	selector := assets.NewSelector(brand, env.R2PublicURL, prober)
	renderer := rendering.NewRenderer(settings.Pipeline.EntryPoint, settings.Pipeline.CompositionID)
	notifier := monitoring.NewNotifier(env, settings.RequestTimeout())

	uploader, err := storage.NewUploader(ctx, env)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	publisher := distribution.NewClient(env.IGToken, brand.AccountID, distribution.Options{
		PollMaxChecks: settings.Poll.MaxChecks,
		PollInterval:  settings.PollInterval(),
		StatusTimeout: settings.RequestTimeout(),
		CreateTimeout: settings.PublishTimeout(),
	})

	p := pipeline.New(cfg, brand, settings, src, selector, renderer, uploader, publisher, notifier)

	stages := p.ProductionStages()
	if dev {
		stages = p.DevStages()
	}

	start := time.Now()
	if err := p.Execute(ctx, stages); err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("Done.")
	return nil
}
