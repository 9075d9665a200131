package main

import (
	"log/slog"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/boristopalov/bandits/pkg/config"
	"github.com/boristopalov/bandits/pkg/console"
	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/environment"
)

type playFlags struct {
	configPath string
	seed       int64
	numArms    int
	minMean    float64
	maxMean    float64
	stdev      float64
	noColor    bool
	history    int
}

func newPlayCmd() *cobra.Command {
	f := &playFlags{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Pull arms by hand and see the rewards",
		Long: "Play picks arms interactively. Without --config it builds a random Gaussian " +
			"bandit from --arms, --min-mean, --max-mean and --stdev.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return playInteractive(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "take the environment from this experiment YAML")
	flags.Int64Var(&f.seed, "seed", 0, "random seed")
	flags.IntVar(&f.numArms, "arms", 5, "number of random arms")
	flags.Float64Var(&f.minMean, "min-mean", -10, "lowest possible arm mean")
	flags.Float64Var(&f.maxMean, "max-mean", 10, "highest possible arm mean")
	flags.Float64Var(&f.stdev, "stdev", 1, "standard deviation of every arm")
	flags.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	flags.IntVar(&f.history, "history", 10, "rounds kept for the 'history' command")
	return cmd
}

func playInteractive(cmd *cobra.Command, f *playFlags) error {
	var cfgSeed int64
	var envCfg *config.EnvConfig
	if f.configPath != "" {
		cfg, err := config.LoadConfig(f.configPath)
		if err != nil {
			return err
		}
		cfgSeed = cfg.Seed
		envCfg = &cfg.Environment
	}

	seed, err := resolveSeed(f.seed, cmd.Flags().Changed("seed"), cfgSeed)
	if err != nil {
		return err
	}
	rng := core.NewRand(uint64(seed))

	var env core.Environment
	if envCfg != nil {
		if env, err = buildEnvironment(*envCfg, rng); err != nil {
			return err
		}
	} else {
		random, err := environment.RandomGaussian(rng, f.numArms, f.minMean, f.maxMean, f.stdev)
		if err != nil {
			return err
		}
		env = random
	}

	out := cmd.OutOrStdout()
	colors := !f.noColor && isTerminal(out)
	sum, err := console.Play(env, cmd.InOrStdin(), out,
		console.WithColors(colors),
		console.WithHistorySize(f.history),
	)
	if err != nil {
		return err
	}
	slog.Debug("session finished", "rounds", sum.Rounds, "total_reward", sum.TotalReward, "seed", seed)
	return nil
}

func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
