package main

import (
	"context"
	"fmt"

	"github.com/jonathan/career-navigator/internal/advisor"
	"github.com/jonathan/career-navigator/internal/config"
	"github.com/jonathan/career-navigator/internal/ingestion"
	"github.com/jonathan/career-navigator/internal/llm"
	"github.com/jonathan/career-navigator/internal/pipeline"
)

// buildGenerators wires the resume extractor and the advisor. Offline mode
// uses the built-in sample advisor and needs no API key.
func buildGenerators(ctx context.Context, cfg config.Config) (pipeline.Generators, func(), error) {
	extractor := ingestion.NewExtractor()
	if cfg.Offline {
		return pipeline.FromAdvisor(extractor, advisor.NewStatic()), func() {}, nil
	}

	client, err := llm.NewClient(ctx, cfg.LLM, cfg.APIKey)
	if err != nil {
		return pipeline.Generators{}, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return pipeline.FromAdvisor(extractor, advisor.NewLLM(client)), func() { _ = client.Close() }, nil
}

// requireAPIKey fails unless the run is offline or a key is configured
func requireAPIKey(cfg config.Config) error {
	if !cfg.Offline && cfg.APIKey == "" {
		return fmt.Errorf("%s environment variable or --api-key flag is required (or pass --offline)", config.EnvAPIKey)
	}
	return nil
}
