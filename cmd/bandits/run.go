package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/boristopalov/bandits/pkg/algorithm"
	"github.com/boristopalov/bandits/pkg/config"
	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/experiment"
	"github.com/boristopalov/bandits/pkg/results"
)

type runFlags struct {
	configPath string
	seed       int64
	runs       int
	steps      int
	csv        string
	actionsCSV string
	sqlite     string
	chart      string
	decimals   int
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured test against the configured environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "experiment YAML (default $"+envConfigPath+" or a built-in 10-armed testbed)")
	flags.Int64Var(&f.seed, "seed", 0, "random seed (default $"+envSeed+", the config seed, or the clock)")
	flags.IntVar(&f.runs, "runs", 0, "override the number of runs per test")
	flags.IntVar(&f.steps, "steps", 0, "override the number of steps per run")
	flags.StringVar(&f.csv, "csv", "", "write rewards as CSV to this file")
	flags.StringVar(&f.actionsCSV, "actions-csv", "", "write selected arms as CSV to this file")
	flags.StringVar(&f.sqlite, "sqlite", "", "store the results in this SQLite database")
	flags.StringVar(&f.chart, "chart", "", "write an HTML chart of average rewards to this file")
	flags.IntVar(&f.decimals, "decimals", results.DefaultDecimals, "decimal places for exported rewards")
	return cmd
}

func runExperiment(cmd *cobra.Command, f *runFlags) error {
	logger := slog.Default()

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	applyRunOverrides(cmd, cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed, err := resolveSeed(f.seed, cmd.Flags().Changed("seed"), cfg.Seed)
	if err != nil {
		return err
	}
	rng := core.NewRand(uint64(seed))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Stop between runs on interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Warn("interrupted, stopping after the current run")
			cancel()
		case <-ctx.Done():
		}
	}()

	res, err := runSuite(ctx, cfg, rng, logger)
	if err != nil {
		return err
	}
	logger.Info("suite complete", "id", res.ID, "seed", seed)

	stats := experiment.Summarize(res)
	experiment.LogStats(logger, stats)

	return writeOutputs(ctx, cfg, res, stats, logger)
}

func applyRunOverrides(cmd *cobra.Command, cfg *config.ExperimentConfig, f *runFlags) {
	flags := cmd.Flags()
	if flags.Changed("runs") {
		cfg.Runs = f.runs
	}
	if flags.Changed("steps") {
		cfg.Steps = f.steps
	}
	if flags.Changed("csv") {
		cfg.Output.CSV = f.csv
	}
	if flags.Changed("actions-csv") {
		cfg.Output.Actions = f.actionsCSV
	}
	if flags.Changed("sqlite") {
		cfg.Output.SQLite = f.sqlite
	}
	if flags.Changed("chart") {
		cfg.Output.Chart = f.chart
	}
	if flags.Changed("decimals") {
		d := f.decimals
		cfg.Output.Decimals = &d
	}
}

func runSuite(ctx context.Context, cfg *config.ExperimentConfig, rng core.Rand, logger *slog.Logger) (*experiment.Result, error) {
	env, err := buildEnvironment(cfg.Environment, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}

	// The starting epsilon is replaced by each test.
	alg, err := algorithm.NewEpsilonGreedy(cfg.Tests[0].Epsilon, rng)
	if err != nil {
		return nil, err
	}

	suite, err := experiment.NewSuite(env, alg,
		experiment.WithName(cfg.Name),
		experiment.WithTests(buildTests(cfg.Tests)...),
		experiment.WithRuns(cfg.Runs),
		experiment.WithSteps(cfg.Steps),
		experiment.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suite: %w", err)
	}
	return suite.Run(ctx)
}

func writeOutputs(ctx context.Context, cfg *config.ExperimentConfig, res *experiment.Result, stats []experiment.TestStats, logger *slog.Logger) error {
	decimals := cfg.Output.DecimalsOr(results.DefaultDecimals)

	if cfg.Output.CSV != "" {
		if err := writeFile(cfg.Output.CSV, func(w io.Writer) error {
			return results.WriteResult(w, res, results.Rewards, decimals)
		}); err != nil {
			return fmt.Errorf("write rewards csv: %w", err)
		}
		logger.Info("wrote rewards", "path", cfg.Output.CSV)
	}

	if cfg.Output.Actions != "" {
		if err := writeFile(cfg.Output.Actions, func(w io.Writer) error {
			return results.WriteResult(w, res, results.Actions, decimals)
		}); err != nil {
			return fmt.Errorf("write actions csv: %w", err)
		}
		logger.Info("wrote actions", "path", cfg.Output.Actions)
	}

	if cfg.Output.Chart != "" {
		if err := writeFile(cfg.Output.Chart, func(w io.Writer) error {
			return results.RenderChart(w, res.Name, stats)
		}); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info("wrote chart", "path", cfg.Output.Chart)
	}

	if cfg.Output.SQLite != "" {
		store := results.NewSQLiteStore(cfg.Output.SQLite)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer store.Close()
		if err := store.SaveResult(ctx, res); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		logger.Info("stored results", "path", cfg.Output.SQLite, "id", res.ID)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
