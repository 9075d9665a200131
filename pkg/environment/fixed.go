package environment

import (
	"fmt"

	"github.com/boristopalov/bandits/pkg/core"
)

// FixedEnvironment returns the same reward for an arm on every call.
type FixedEnvironment struct {
	arms    []string
	rewards map[string]float64
	calls   int
}

var (
	_ core.Environment  = (*FixedEnvironment)(nil)
	_ core.OptimalArmer = (*FixedEnvironment)(nil)
)

// NewFixedEnvironment creates arms in the given order with constant rewards.
func NewFixedEnvironment(arms []string, rewards []float64) (*FixedEnvironment, error) {
	if len(arms) != len(rewards) {
		return nil, fmt.Errorf("%w: %d arms, %d rewards", core.ErrInvalidInput, len(arms), len(rewards))
	}
	e := &FixedEnvironment{
		arms:    make([]string, 0, len(arms)),
		rewards: make(map[string]float64, len(arms)),
	}
	for i, arm := range arms {
		if _, exists := e.rewards[arm]; exists {
			return nil, fmt.Errorf("%w: arm %q already exists", core.ErrInvalidInput, arm)
		}
		e.arms = append(e.arms, arm)
		e.rewards[arm] = rewards[i]
	}
	return e, nil
}

func (e *FixedEnvironment) Arms() []string {
	return append([]string(nil), e.arms...)
}

func (e *FixedEnvironment) Reward(arm string) (float64, error) {
	r, ok := e.rewards[arm]
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidArm, arm)
	}
	e.calls++
	return r, nil
}

// Calls reports how many rewards were handed out.
func (e *FixedEnvironment) Calls() int {
	return e.calls
}

func (e *FixedEnvironment) OptimalArm() string {
	if len(e.arms) == 0 {
		return ""
	}
	best := e.arms[0]
	for _, arm := range e.arms[1:] {
		if e.rewards[arm] > e.rewards[best] {
			best = arm
		}
	}
	return best
}
