// Package algorithm holds the bandit learning policies.
package algorithm

import (
	"fmt"

	"github.com/boristopalov/bandits/pkg/core"
)

// EpsilonGreedy explores a uniformly random arm with probability epsilon and
// otherwise exploits the arm with the highest sample-average estimate, breaking
// ties uniformly at random.
type EpsilonGreedy struct {
	epsilon float64
	rng     core.Rand

	arms       []string
	armIndices map[string]int
	qValues    []float64
	counts     []int

	// lastAction is nil when no action is pending
	lastAction *int
}

var _ core.Algorithm = (*EpsilonGreedy)(nil)

// NewEpsilonGreedy creates an uninitialized algorithm. epsilon must be in [0, 1].
func NewEpsilonGreedy(epsilon float64, rng core.Rand) (*EpsilonGreedy, error) {
	if err := validateEpsilon(epsilon); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", core.ErrInvalidInput)
	}
	return &EpsilonGreedy{
		epsilon: epsilon,
		rng:     rng,
	}, nil
}

func validateEpsilon(epsilon float64) error {
	// written so that NaN fails too
	if !(epsilon >= 0 && epsilon <= 1) {
		return fmt.Errorf("%w: epsilon %v outside [0, 1]", core.ErrInvalidInput, epsilon)
	}
	return nil
}

// Initialize zeroes the estimates and counts for arms and clears any pending action.
func (g *EpsilonGreedy) Initialize(arms []string) error {
	if len(arms) == 0 {
		return fmt.Errorf("%w: no arms", core.ErrInvalidInput)
	}

	indices := make(map[string]int, len(arms))
	for i, arm := range arms {
		if _, dup := indices[arm]; dup {
			return fmt.Errorf("%w: duplicate arm %q", core.ErrInvalidInput, arm)
		}
		indices[arm] = i
	}

	g.arms = append([]string(nil), arms...)
	g.armIndices = indices
	g.qValues = make([]float64, len(arms))
	g.counts = make([]int, len(arms))
	g.lastAction = nil
	return nil
}

func (g *EpsilonGreedy) initialized() bool {
	return g.arms != nil
}

// NextAction picks the next arm. A draw <= epsilon explores over all arms,
// including the current greedy one.
func (g *EpsilonGreedy) NextAction() (string, error) {
	if !g.initialized() {
		return "", fmt.Errorf("%w: algorithm not initialized", core.ErrPreconditionViolation)
	}

	var idx int
	if g.rng.Float64() <= g.epsilon {
		idx = g.rng.IntN(len(g.arms))
	} else {
		idx = g.greedyIndex()
	}

	g.lastAction = &idx
	return g.arms[idx], nil
}

// greedyIndex returns a uniformly random index among the arms sharing the
// maximum estimate.
func (g *EpsilonGreedy) greedyIndex() int {
	best := []int{0}
	bestQ := g.qValues[0]

	for i := 1; i < len(g.qValues); i++ {
		q := g.qValues[i]
		switch {
		case q > bestQ:
			best = best[:0]
			best = append(best, i)
			bestQ = q
		case q == bestQ:
			best = append(best, i)
		}
	}

	return best[g.rng.IntN(len(best))]
}

// UpdateWithLastReward folds reward into the running mean of the last selected arm.
func (g *EpsilonGreedy) UpdateWithLastReward(reward float64) error {
	if g.lastAction == nil {
		return fmt.Errorf("%w: no action selected since last initialize or reset", core.ErrPreconditionViolation)
	}
	idx := *g.lastAction
	g.lastAction = nil

	g.counts[idx]++
	oldQ := g.qValues[idx]
	stepSize := 1 / float64(g.counts[idx])
	g.qValues[idx] = oldQ + stepSize*(reward-oldQ)
	return nil
}

// Reset re-initializes with the same arms. Epsilon is kept.
func (g *EpsilonGreedy) Reset() error {
	if !g.initialized() {
		return fmt.Errorf("%w: algorithm not initialized", core.ErrPreconditionViolation)
	}
	return g.Initialize(g.arms)
}

// ChangeEpsilon sets a new epsilon and resets all learned state. Before
// Initialize it only stores the value.
func (g *EpsilonGreedy) ChangeEpsilon(epsilon float64) error {
	if err := validateEpsilon(epsilon); err != nil {
		return err
	}
	g.epsilon = epsilon
	if !g.initialized() {
		return nil
	}
	return g.Reset()
}

func (g *EpsilonGreedy) Epsilon() float64 {
	return g.epsilon
}

// Arms returns a copy of the arm list.
func (g *EpsilonGreedy) Arms() []string {
	return append([]string(nil), g.arms...)
}

// Estimates returns the current value estimate of each arm.
func (g *EpsilonGreedy) Estimates() map[string]float64 {
	out := make(map[string]float64, len(g.arms))
	for i, arm := range g.arms {
		out[arm] = g.qValues[i]
	}
	return out
}

// Counts returns how many times each arm was updated.
func (g *EpsilonGreedy) Counts() map[string]int {
	out := make(map[string]int, len(g.arms))
	for i, arm := range g.arms {
		out[arm] = g.counts[i]
	}
	return out
}

// Pending reports whether an action awaits its reward.
func (g *EpsilonGreedy) Pending() bool {
	return g.lastAction != nil
}
