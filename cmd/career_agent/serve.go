package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-navigator/internal/config"
	"github.com/jonathan/career-navigator/internal/server"
)

var (
	serveConfigPath  string
	servePort        int
	serveOffline     bool
	serveAPIKey      string
	serveDatabaseURL string
	serveAMQPURL     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that runs career sessions stage by stage.

JWT_SECRET must be set to sign session tokens. DATABASE_URL enables profile
snapshots and AMQP_URL enables publishing session updates.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a .json or .toml config file")
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "Use built-in sample results instead of the LLM")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "db-url", "", "PostgreSQL URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveAMQPURL, "amqp-url", "", "RabbitMQ URL (optional, defaults to AMQP_URL env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("offline") {
		cfg.Offline = serveOffline
	}
	if flags.Changed("api-key") {
		cfg.APIKey = serveAPIKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = serveDatabaseURL
	}
	if flags.Changed("amqp-url") {
		cfg.AMQPURL = serveAMQPURL
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, closeGen, err := buildGenerators(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	srv, err := server.New(ctx, server.Config{
		Port:         cfg.Port,
		Generators:   gen,
		JWT:          jwtCfg,
		StageTimeout: cfg.StageTimeout(),
		DatabaseURL:  cfg.DatabaseURL,
		AMQPURL:      cfg.AMQPURL,
		Exchange:     cfg.Exchange,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
