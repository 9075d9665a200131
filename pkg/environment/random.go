package environment

import (
	"fmt"
	"strconv"

	"github.com/boristopalov/bandits/pkg/core"
)

// RandomGaussian creates numArms arms named "1".."numArms" whose means are drawn
// uniformly from [minMean, maxMean] and which share the same stdev.
func RandomGaussian(rng core.Rand, numArms int, minMean, maxMean, stdev float64) (*GaussianEnvironment, error) {
	if numArms < 1 {
		return nil, fmt.Errorf("%w: need at least one arm, got %d", core.ErrInvalidInput, numArms)
	}
	if !(minMean <= maxMean) {
		return nil, fmt.Errorf("%w: min mean %v above max mean %v", core.ErrInvalidInput, minMean, maxMean)
	}
	if !(stdev >= 0) {
		return nil, fmt.Errorf("%w: stdev %v", core.ErrInvalidInput, stdev)
	}

	env := NewGaussianEnvironment(rng)
	for i := 0; i < numArms; i++ {
		mean := minMean + rng.Float64()*(maxMean-minMean)
		if err := env.AddArm(strconv.Itoa(i+1), mean, stdev); err != nil {
			return nil, err
		}
	}
	return env, nil
}
