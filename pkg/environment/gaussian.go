package environment

import (
	"fmt"

	"github.com/boristopalov/bandits/pkg/core"
)

// GaussianArm is an arm whose reward is normally distributed.
type GaussianArm struct {
	Name  string
	Mean  float64
	Stdev float64
}

// NewGaussianArm rejects a negative standard deviation.
func NewGaussianArm(name string, mean, stdev float64) (GaussianArm, error) {
	if !(stdev >= 0) {
		return GaussianArm{}, fmt.Errorf("%w: arm %q has stdev %v", core.ErrInvalidInput, name, stdev)
	}
	return GaussianArm{Name: name, Mean: mean, Stdev: stdev}, nil
}

// Reward draws one sample from N(Mean, Stdev^2).
func (a GaussianArm) Reward(rng core.Rand) float64 {
	return a.Mean + a.Stdev*rng.NormFloat64()
}

// GaussianEnvironment is a bandit problem with Gaussian arms. Arms keep the
// order in which they were added. It holds no state besides its arms, so
// runner resets leave it unchanged.
type GaussianEnvironment struct {
	arms  []GaussianArm
	index map[string]int
	rng   core.Rand
}

var (
	_ core.Environment  = (*GaussianEnvironment)(nil)
	_ core.OptimalArmer = (*GaussianEnvironment)(nil)
)

// NewGaussianEnvironment creates an environment with no arms.
func NewGaussianEnvironment(rng core.Rand) *GaussianEnvironment {
	return &GaussianEnvironment{
		arms:  make([]GaussianArm, 0),
		index: make(map[string]int),
		rng:   rng,
	}
}

// AddArm registers a new arm. Names must be unique.
func (e *GaussianEnvironment) AddArm(name string, mean, stdev float64) error {
	if _, exists := e.index[name]; exists {
		return fmt.Errorf("%w: arm %q already exists", core.ErrInvalidInput, name)
	}
	arm, err := NewGaussianArm(name, mean, stdev)
	if err != nil {
		return err
	}
	e.index[name] = len(e.arms)
	e.arms = append(e.arms, arm)
	return nil
}

// FromMeansAndStdevs builds one arm per name with the matching mean and stdev.
func FromMeansAndStdevs(rng core.Rand, names []string, means, stdevs []float64) (*GaussianEnvironment, error) {
	if len(names) != len(means) || len(names) != len(stdevs) {
		return nil, fmt.Errorf("%w: %d names, %d means, %d stdevs",
			core.ErrInvalidInput, len(names), len(means), len(stdevs))
	}

	env := NewGaussianEnvironment(rng)
	for i, name := range names {
		if err := env.AddArm(name, means[i], stdevs[i]); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func (e *GaussianEnvironment) Arms() []string {
	names := make([]string, len(e.arms))
	for i, arm := range e.arms {
		names[i] = arm.Name
	}
	return names
}

// Arm returns the arm registered under name.
func (e *GaussianEnvironment) Arm(name string) (GaussianArm, bool) {
	i, ok := e.index[name]
	if !ok {
		return GaussianArm{}, false
	}
	return e.arms[i], true
}

func (e *GaussianEnvironment) Reward(arm string) (float64, error) {
	i, ok := e.index[arm]
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidArm, arm)
	}
	return e.arms[i].Reward(e.rng), nil
}

// OptimalArm returns the first arm with the highest mean, or "" when empty.
func (e *GaussianEnvironment) OptimalArm() string {
	if len(e.arms) == 0 {
		return ""
	}
	best := e.arms[0]
	for _, arm := range e.arms[1:] {
		if arm.Mean > best.Mean {
			best = arm
		}
	}
	return best.Name
}
