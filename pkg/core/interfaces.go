package core

// Algorithm is a multi-armed bandit learning policy.
type Algorithm interface {
	// Initialize sets up fresh per-arm state for the given arms
	Initialize(arms []string) error
	// NextAction selects an arm and remembers it for the next update
	NextAction() (string, error)
	// UpdateWithLastReward feeds back the reward of the last selected arm
	UpdateWithLastReward(reward float64) error
	// Reset restores the just-initialized state for the same arms
	Reset() error
}

// Environment produces rewards for a fixed set of named arms.
//
// Runner.Reset does not reset the environment. Implementations with internal
// state (for example non-stationary rewards) keep that state across resets.
type Environment interface {
	// Arms returns the selectable arm names
	Arms() []string
	// Reward samples a reward for the named arm
	Reward(arm string) (float64, error)
}

// OptimalArmer is implemented by environments that know which arm has the
// highest expected reward.
type OptimalArmer interface {
	OptimalArm() string
}

// Rand is the randomness used by algorithms and environments. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a number in [0.0, 1.0)
	Float64() float64
	// IntN returns a number in [0, n)
	IntN(n int) int
	// NormFloat64 returns a standard normal sample
	NormFloat64() float64
}
