package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvGaussian = "gaussian"
	EnvRandom   = "random"
	EnvFixed    = "fixed"
)

type ExperimentConfig struct {
	Name        string       `yaml:"name" validate:"required"`
	Seed        int64        `yaml:"seed"`
	Runs        int          `yaml:"runs" validate:"gte=1"`
	Steps       int          `yaml:"steps" validate:"gte=1"`
	Environment EnvConfig    `yaml:"environment"`
	Tests       []TestConfig `yaml:"tests" validate:"required,min=1,unique=Name,dive"`
	Output      OutputConfig `yaml:"output"`
}

type EnvConfig struct {
	Type   string        `yaml:"type" validate:"oneof=gaussian random fixed"`
	Arms   []ArmConfig   `yaml:"arms" validate:"required_unless=Type random,unique=Name,dive"`
	Random *RandomConfig `yaml:"random" validate:"required_if=Type random"`
}

type ArmConfig struct {
	Name  string  `yaml:"name" validate:"required"`
	Mean  float64 `yaml:"mean"`
	Stdev float64 `yaml:"stdev" validate:"gte=0"`
}

type RandomConfig struct {
	NumArms int     `yaml:"num_arms" validate:"gte=1"`
	MinMean float64 `yaml:"min_mean"`
	MaxMean float64 `yaml:"max_mean" validate:"gtefield=MinMean"`
	Stdev   float64 `yaml:"stdev" validate:"gte=0"`
}

type TestConfig struct {
	Name    string  `yaml:"name" validate:"required"`
	Epsilon float64 `yaml:"epsilon" validate:"gte=0,lte=1"`
}

type OutputConfig struct {
	CSV      string `yaml:"csv"`
	Actions  string `yaml:"actions_csv"`
	SQLite   string `yaml:"sqlite"`
	Chart    string `yaml:"chart"`
	Decimals *int   `yaml:"decimals" validate:"omitempty,gte=0"`
}

// DefaultConfig is a ten-armed random testbed comparing three exploration rates.
func DefaultConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Name:  "testbed",
		Runs:  100,
		Steps: 1000,
		Environment: EnvConfig{
			Type: EnvRandom,
			Random: &RandomConfig{
				NumArms: 10,
				MinMean: -1,
				MaxMean: 1,
				Stdev:   1,
			},
		},
		Tests: []TestConfig{
			{Name: "greedy", Epsilon: 0},
			{Name: "eps-0.01", Epsilon: 0.01},
			{Name: "eps-0.1", Epsilon: 0.1},
		},
	}
}

// LoadConfig reads and validates a YAML experiment config.
func LoadConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r, rejecting unknown fields, and validates it.
// Missing environment type defaults to gaussian.
func Parse(r io.Reader) (*ExperimentConfig, error) {
	var cfg ExperimentConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Environment.Type == "" {
		cfg.Environment.Type = EnvGaussian
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func (c *ExperimentConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), describeTag(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// DecimalsOr returns the configured rounding or def when unset.
func (o OutputConfig) DecimalsOr(def int) int {
	if o.Decimals == nil {
		return def
	}
	return *o.Decimals
}
