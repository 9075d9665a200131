package experiment

import (
	"fmt"

	"github.com/boristopalov/bandits/pkg/core"
)

// Runner drives one algorithm against one environment and records the
// trajectory. Both collaborators must outlive the runner.
type Runner struct {
	env        core.Environment
	alg        core.Algorithm
	trajectory core.Trajectory
}

// NewRunner initializes alg with the environment's arms.
func NewRunner(env core.Environment, alg core.Algorithm) (*Runner, error) {
	if err := alg.Initialize(env.Arms()); err != nil {
		return nil, fmt.Errorf("failed to initialize algorithm: %w", err)
	}
	return &Runner{
		env:        env,
		alg:        alg,
		trajectory: make(core.Trajectory, 0),
	}, nil
}

// Run performs numSteps select/reward/update steps, appending each to the
// trajectory. numSteps <= 0 does nothing. An error stops the run and leaves
// the steps completed so far in the trajectory.
func (r *Runner) Run(numSteps int) error {
	for i := 0; i < numSteps; i++ {
		if err := r.step(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *Runner) step() error {
	action, err := r.alg.NextAction()
	if err != nil {
		return err
	}
	reward, err := r.env.Reward(action)
	if err != nil {
		return err
	}
	if err := r.alg.UpdateWithLastReward(reward); err != nil {
		return err
	}
	r.trajectory = append(r.trajectory, core.Step{Action: action, Reward: reward})
	return nil
}

// Reset clears the trajectory and resets the algorithm. The environment is
// left untouched.
func (r *Runner) Reset() error {
	r.trajectory = make(core.Trajectory, 0)
	return r.alg.Reset()
}

// Trajectory returns a copy of the steps recorded since the last reset.
func (r *Runner) Trajectory() core.Trajectory {
	out := make(core.Trajectory, len(r.trajectory))
	copy(out, r.trajectory)
	return out
}

func (r *Runner) Algorithm() core.Algorithm {
	return r.alg
}

func (r *Runner) Environment() core.Environment {
	return r.env
}
