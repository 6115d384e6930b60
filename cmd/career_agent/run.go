package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-navigator/internal/config"
	"github.com/jonathan/career-navigator/internal/db"
	"github.com/jonathan/career-navigator/internal/events"
	"github.com/jonathan/career-navigator/internal/ingestion"
	"github.com/jonathan/career-navigator/internal/logging"
	"github.com/jonathan/career-navigator/internal/observability"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/profile"
	"github.com/jonathan/career-navigator/internal/schemas"
	"github.com/jonathan/career-navigator/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full career pipeline for one resume",
	Long: `Runs every stage in order: upload -> skills -> paths -> jobs -> plan.

The resume is a local PDF, DOCX or text file, or an s3://bucket/key object.
Configuration can be loaded from a JSON or TOML file using --config. Command-line
arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runResume      string
	runGoal        string
	runPath        string
	runOut         string
	runAPIKey      string
	runOffline     bool
	runDatabaseURL string
	runAMQPURL     string
	runTimeout     int
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to a .json or .toml config file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runResume, "resume", "r", "", "Resume file path or s3://bucket/key")
	runCommand.Flags().StringVarP(&runGoal, "goal", "g", "", "Career goal hint for path generation")
	runCommand.Flags().StringVarP(&runPath, "path", "p", "", "Career path title to choose (defaults to the top-ranked path)")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "", "Write the final profile JSON to this file")
	runCommand.Flags().IntVar(&runTimeout, "stage-timeout", 0, "Per-stage generator timeout in seconds")
	runCommand.Flags().BoolVar(&runOffline, "offline", false, "Use built-in sample results instead of the LLM")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every stage's output")

	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL URL for profile snapshots (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runAMQPURL, "amqp-url", "", "RabbitMQ URL for session updates (optional, defaults to AMQP_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		p := logging.RuntimeProfile().FromEnv()
		p.Level = zerolog.DebugLevel
		logging.Init(appName, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = executeRun(ctx, cfg, cmd.OutOrStdout())
	return err
}

// resolveRunConfig merges the config file, explicitly set flags, defaults and environment
func resolveRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		log.Debug().Str("path", runConfigPath).Msg("loaded config")
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("resume") {
		cfg.Resume = runResume
	}
	if flags.Changed("goal") {
		cfg.CareerGoal = runGoal
	}
	if flags.Changed("path") {
		cfg.ChosenPath = runPath
	}
	if flags.Changed("out") {
		cfg.Output = runOut
	}
	if flags.Changed("stage-timeout") {
		cfg.StageTimeoutSeconds = runTimeout
	}
	if flags.Changed("offline") {
		cfg.Offline = runOffline
	}
	if flags.Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if flags.Changed("amqp-url") {
		cfg.AMQPURL = runAMQPURL
	}

	return finalizeRunConfig(cfg)
}

// finalizeRunConfig applies defaults and environment, then checks required fields
func finalizeRunConfig(cfg config.Config) (config.Config, error) {
	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()

	if cfg.Resume == "" {
		return cfg, fmt.Errorf("--resume must be provided (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := requireAPIKey(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// executeRun runs every stage for the configured resume and returns the final profile
func executeRun(ctx context.Context, cfg config.Config, out io.Writer) (types.Profile, error) {
	blob, err := loadResume(ctx, cfg)
	if err != nil {
		return types.Profile{}, err
	}

	gen, closeGen, err := buildGenerators(ctx, cfg)
	if err != nil {
		return types.Profile{}, err
	}
	defer closeGen()

	store := profile.NewStore()
	printer := observability.NewPrinter(out)
	sessionID := uuid.New()

	opts := []pipeline.Option{pipeline.WithStageTimeout(cfg.StageTimeout())}
	if cfg.Verbose {
		opts = append(opts,
			pipeline.WithProgress(printer.OnProgress()),
			pipeline.WithProgress(printer.OnStageOutput()),
		)
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return types.Profile{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return types.Profile{}, fmt.Errorf("failed to migrate database: %w", err)
		}
		if sessionID, err = database.CreateSession(ctx, sessionID); err != nil {
			return types.Profile{}, err
		}
		opts = append(opts, pipeline.WithProgress(snapshotter(ctx, database, sessionID)))
	}

	if cfg.AMQPURL != "" {
		pub, err := events.Dial(cfg.AMQPURL, cfg.Exchange, sessionID.String())
		if err != nil {
			return types.Profile{}, err
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, pipeline.WithProgress(pub.OnProgress()))
		defer store.Subscribe(pub.OnProfile())()
	}

	logger := log.With().Str("session_id", sessionID.String()).Logger()
	logger.Info().Str("resume", blob.Filename).Bool("offline", cfg.Offline).Msg("starting pipeline")

	orch := pipeline.New(store, gen, opts...)
	in := pipeline.StageInput{Resume: &blob, CareerGoalHint: cfg.CareerGoal, ChosenPath: cfg.ChosenPath}

	p, err := orch.Run(ctx, in)
	if err != nil {
		return p, err
	}

	if !cfg.Verbose {
		printer.PrintCareerPaths(p.CareerPaths, p.CareerGoal)
		printer.PrintJobs(p.RecommendedJobs, p.SkillGaps)
		printer.PrintPlan(p.CareerPlan)
	}

	if cfg.Output != "" {
		if err := writeProfile(cfg.Output, p); err != nil {
			return p, err
		}
		logger.Info().Str("path", cfg.Output).Msg("profile written")
	}
	return p, nil
}

// snapshotter saves the profile after every completed stage. Failures are logged only.
func snapshotter(ctx context.Context, database *db.DB, sessionID uuid.UUID) pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		p, ok := e.Content.(types.Profile)
		if e.Status != pipeline.StatusCompleted || !ok {
			return
		}
		if _, err := database.SaveSnapshot(ctx, sessionID, string(e.Stage), p); err != nil {
			log.Warn().Err(err).Str("stage", string(e.Stage)).Msg("failed to save snapshot")
		}
	}
}

// loadResume reads the resume from disk or from S3
func loadResume(ctx context.Context, cfg config.Config) (types.ResumeBlob, error) {
	if !strings.HasPrefix(cfg.Resume, "s3://") {
		return ingestion.ReadFile(cfg.Resume)
	}

	var s3cfg ingestion.S3Config
	if cfg.S3 != nil {
		s3cfg = *cfg.S3
	}
	source, err := ingestion.NewS3Source(ctx, s3cfg)
	if err != nil {
		return types.ResumeBlob{}, err
	}
	return source.Fetch(ctx, cfg.Resume)
}

// writeProfile validates the profile against the embedded schema and writes it as indented JSON
func writeProfile(path string, p types.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := schemas.ValidateProfile(data); err != nil {
		return fmt.Errorf("profile failed schema validation: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
