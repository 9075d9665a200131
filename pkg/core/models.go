package core

import "errors"

var (
	// ErrInvalidInput reports malformed construction parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidArm reports a reward request for an unknown arm.
	ErrInvalidArm = errors.New("invalid arm")
	// ErrPreconditionViolation reports an update with no pending action.
	ErrPreconditionViolation = errors.New("precondition violation")
)

// Step is one (action, reward) pair of a run.
type Step struct {
	Action string
	Reward float64
}

// Trajectory is the ordered record of one run.
type Trajectory []Step

// Actions returns the selected arms in step order.
func (t Trajectory) Actions() []string {
	actions := make([]string, len(t))
	for i, s := range t {
		actions[i] = s.Action
	}
	return actions
}

// Rewards returns the received rewards in step order.
func (t Trajectory) Rewards() []float64 {
	rewards := make([]float64, len(t))
	for i, s := range t {
		rewards[i] = s.Reward
	}
	return rewards
}

// TotalReward sums the rewards of the trajectory.
func (t Trajectory) TotalReward() float64 {
	var total float64
	for _, s := range t {
		total += s.Reward
	}
	return total
}
