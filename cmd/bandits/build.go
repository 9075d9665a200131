package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/boristopalov/bandits/pkg/config"
	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/environment"
	"github.com/boristopalov/bandits/pkg/experiment"
)

// loadConfig reads path, falling back to $BANDITS_CONFIG and then the
// built-in testbed.
func loadConfig(path string) (*config.ExperimentConfig, error) {
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

// resolveSeed prefers an explicit flag, then $BANDITS_SEED, then the config,
// and finally the clock.
func resolveSeed(flagSeed int64, flagSet bool, cfgSeed int64) (int64, error) {
	if flagSet {
		return flagSeed, nil
	}
	if s := os.Getenv(envSeed); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envSeed, err)
		}
		return seed, nil
	}
	if cfgSeed != 0 {
		return cfgSeed, nil
	}
	return time.Now().UnixNano(), nil
}

func buildEnvironment(cfg config.EnvConfig, rng core.Rand) (core.Environment, error) {
	switch cfg.Type {
	case config.EnvGaussian, "":
		env := environment.NewGaussianEnvironment(rng)
		for _, arm := range cfg.Arms {
			if err := env.AddArm(arm.Name, arm.Mean, arm.Stdev); err != nil {
				return nil, err
			}
		}
		return env, nil
	case config.EnvRandom:
		if cfg.Random == nil {
			return nil, fmt.Errorf("%w: random environment needs a random block", core.ErrInvalidInput)
		}
		r := cfg.Random
		env, err := environment.RandomGaussian(rng, r.NumArms, r.MinMean, r.MaxMean, r.Stdev)
		if err != nil {
			return nil, err
		}
		return env, nil
	case config.EnvFixed:
		names := make([]string, len(cfg.Arms))
		rewards := make([]float64, len(cfg.Arms))
		for i, arm := range cfg.Arms {
			names[i] = arm.Name
			rewards[i] = arm.Mean
		}
		env, err := environment.NewFixedEnvironment(names, rewards)
		if err != nil {
			return nil, err
		}
		return env, nil
	}
	return nil, fmt.Errorf("%w: unknown environment type %q", core.ErrInvalidInput, cfg.Type)
}

func buildTests(cfg []config.TestConfig) []experiment.Test {
	tests := make([]experiment.Test, len(cfg))
	for i, t := range cfg {
		tests[i] = experiment.Test{Name: t.Name, Epsilon: t.Epsilon}
	}
	return tests
}
