package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/workspace-analytics/internal/config"
	"github.com/example/workspace-analytics/internal/dataset"
	"github.com/example/workspace-analytics/internal/simulation"
)

func runGenerate(ctx context.Context, cfg config.Config, args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("generate", stderr)
	out := fs.String("out", cfg.OutputPath, "path of the CSV artifact to write")
	seed := fs.Uint64("seed", cfg.Seed, "random seed; a fresh one is drawn and logged when unset")
	scenarioPath := fs.String("scenario", cfg.ScenarioFile, "YAML, JSON or TOML scenario file layered over the defaults")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	scenario, err := config.LoadScenario(*scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	seedValue := *seed
	if !cfg.SeedSet && !flagWasSet(fs, "seed") {
		seedValue = simulation.RandomSeed()
		logger.Info("no seed configured; drew a random seed", "seed", seedValue)
	}

	gen, err := simulation.NewGeneratorWithLogger(scenario, simulation.NewSeededSource(seedValue), logger)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	result, err := gen.Run(ctx)
	if err != nil {
		return fmt.Errorf("run generator: %w", err)
	}

	if err := dataset.WriteFile(*out, result.Records); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	checksum, err := dataset.ChecksumFile(*out)
	if err != nil {
		return fmt.Errorf("checksum dataset: %w", err)
	}

	logger.Info("dataset written",
		"path", *out,
		"seed", seedValue,
		"rows", len(result.Records),
		"employees", len(result.Employees),
		"spaces", len(result.Spaces),
		"workdays", result.Stats.Workdays,
		"skipped_no_space", result.Stats.SkippedNoSpace,
		"checksum", checksum,
	)
	return nil
}
