package algorithm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/bandits/internal/randtest"
	"github.com/boristopalov/bandits/pkg/core"
)

func newAlg(t *testing.T, epsilon float64, rng core.Rand, arms ...string) *EpsilonGreedy {
	t.Helper()
	g, err := NewEpsilonGreedy(epsilon, rng)
	require.NoError(t, err)
	require.NoError(t, g.Initialize(arms))
	return g
}

func TestNewEpsilonGreedyValidation(t *testing.T) {
	rng := randtest.Seeded(1)
	for _, eps := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := NewEpsilonGreedy(eps, rng)
		assert.ErrorIs(t, err, core.ErrInvalidInput, "epsilon %v", eps)
	}
	for _, eps := range []float64{0, 0.1, 1} {
		_, err := NewEpsilonGreedy(eps, rng)
		assert.NoError(t, err, "epsilon %v", eps)
	}

	_, err := NewEpsilonGreedy(0.1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestInitialize(t *testing.T) {
	t.Run("zeroes every arm", func(t *testing.T) {
		for k := 1; k <= 6; k++ {
			arms := make([]string, k)
			for i := range arms {
				arms[i] = string(rune('A' + i))
			}
			g := newAlg(t, 0.3, randtest.Seeded(7), arms...)

			assert.Len(t, g.Estimates(), k)
			for _, arm := range arms {
				assert.Zero(t, g.Estimates()[arm])
				assert.Zero(t, g.Counts()[arm])
			}
			assert.False(t, g.Pending())
		}
	})

	t.Run("rejects empty arm set", func(t *testing.T) {
		g, err := NewEpsilonGreedy(0.1, randtest.Seeded(1))
		require.NoError(t, err)
		assert.ErrorIs(t, g.Initialize(nil), core.ErrInvalidInput)
		assert.ErrorIs(t, g.Initialize([]string{}), core.ErrInvalidInput)
	})

	t.Run("rejects duplicate arms", func(t *testing.T) {
		g, err := NewEpsilonGreedy(0.1, randtest.Seeded(1))
		require.NoError(t, err)
		assert.ErrorIs(t, g.Initialize([]string{"A", "A"}), core.ErrInvalidInput)
	})

	t.Run("copies the arm slice", func(t *testing.T) {
		arms := []string{"A", "B"}
		g := newAlg(t, 0, randtest.Seeded(1), arms...)
		arms[0] = "Z"
		assert.Equal(t, []string{"A", "B"}, g.Arms())
	})
}

func TestUninitialized(t *testing.T) {
	g, err := NewEpsilonGreedy(0.5, randtest.Seeded(1))
	require.NoError(t, err)

	_, err = g.NextAction()
	assert.ErrorIs(t, err, core.ErrPreconditionViolation)
	assert.ErrorIs(t, g.UpdateWithLastReward(1), core.ErrPreconditionViolation)
	assert.ErrorIs(t, g.Reset(), core.ErrPreconditionViolation)

	require.NoError(t, g.ChangeEpsilon(0.2))
	assert.Equal(t, 0.2, g.Epsilon())
}

func TestIncrementalMean(t *testing.T) {
	rewards := []float64{3.5, -1.25, 10, 0, 7.75, 2.2, -4.1, 0.333}

	// Epsilon 0 with one arm always selects that arm.
	g := newAlg(t, 0, randtest.Seeded(3), "only")

	var sum float64
	for n, r := range rewards {
		action, err := g.NextAction()
		require.NoError(t, err)
		require.Equal(t, "only", action)
		require.NoError(t, g.UpdateWithLastReward(r))

		sum += r
		mean := sum / float64(n+1)
		assert.InDelta(t, mean, g.Estimates()["only"], 1e-12, "after %d rewards", n+1)
		assert.Equal(t, n+1, g.Counts()["only"])
	}
}

func TestIncrementalMeanPerArm(t *testing.T) {
	rng := randtest.NewScripted(1)
	g := newAlg(t, 1, rng, "A", "B")

	// Every draw explores: Float64 <= 1 always, IntN picks the arm.
	rng.Ints = []int{0, 1, 0, 1, 0}
	rewards := []float64{1, 10, 2, 20, 6}
	for _, r := range rewards {
		_, err := g.NextAction()
		require.NoError(t, err)
		require.NoError(t, g.UpdateWithLastReward(r))
	}

	assert.InDelta(t, 3.0, g.Estimates()["A"], 1e-12)
	assert.InDelta(t, 15.0, g.Estimates()["B"], 1e-12)
	assert.Equal(t, map[string]int{"A": 3, "B": 2}, g.Counts())
}

func TestUpdateRequiresPendingAction(t *testing.T) {
	g := newAlg(t, 0.1, randtest.Seeded(5), "A", "B")
	assert.ErrorIs(t, g.UpdateWithLastReward(1), core.ErrPreconditionViolation)

	_, err := g.NextAction()
	require.NoError(t, err)
	require.NoError(t, g.UpdateWithLastReward(1))

	// the pending action is consumed by the update
	assert.ErrorIs(t, g.UpdateWithLastReward(1), core.ErrPreconditionViolation)

	_, err = g.NextAction()
	require.NoError(t, err)
	require.NoError(t, g.Reset())
	assert.ErrorIs(t, g.UpdateWithLastReward(1), core.ErrPreconditionViolation)
}

func TestOnlyMostRecentActionIsUpdated(t *testing.T) {
	rng := randtest.NewScripted(1)
	g := newAlg(t, 1, rng, "A", "B", "C")
	rng.Ints = []int{0, 2}

	first, err := g.NextAction()
	require.NoError(t, err)
	second, err := g.NextAction()
	require.NoError(t, err)
	require.Equal(t, "A", first)
	require.Equal(t, "C", second)

	require.NoError(t, g.UpdateWithLastReward(4))
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 1}, g.Counts())
	assert.Equal(t, 4.0, g.Estimates()["C"])
}

func TestTieBreakFairness(t *testing.T) {
	arms := []string{"A", "B", "C", "D"}
	g := newAlg(t, 0, randtest.Seeded(42), arms...)

	const trials = 40000
	freq := make(map[string]int)
	for i := 0; i < trials; i++ {
		action, err := g.NextAction()
		require.NoError(t, err)
		freq[action]++
	}

	want := 1 / float64(len(arms))
	for _, arm := range arms {
		got := float64(freq[arm]) / trials
		assert.InDelta(t, want, got, 0.02, "arm %s selected with frequency %v", arm, got)
	}
}

func TestGreedyUniqueMaximum(t *testing.T) {
	rng := randtest.NewScripted(9)
	g := newAlg(t, 0, rng, "A", "B", "C")

	// Seed estimates through exploration-free updates on B.
	rng.Ints = []int{1}
	action, err := g.NextAction()
	require.NoError(t, err)
	require.Equal(t, "B", action)
	require.NoError(t, g.UpdateWithLastReward(0.5))

	for i := 0; i < 200; i++ {
		action, err := g.NextAction()
		require.NoError(t, err)
		assert.Equal(t, "B", action)
	}
}

func TestGreedyPrefersUntriedArmOverNegativeEstimates(t *testing.T) {
	rng := randtest.NewScripted(9)
	g := newAlg(t, 1, rng, "A", "B", "C")

	rng.Ints = []int{0, 1}
	for _, r := range []float64{-3, -1} {
		_, err := g.NextAction()
		require.NoError(t, err)
		require.NoError(t, g.UpdateWithLastReward(r))
	}

	// Switch to pure exploitation without the reset ChangeEpsilon performs.
	g.epsilon = 0
	for i := 0; i < 50; i++ {
		action, err := g.NextAction()
		require.NoError(t, err)
		assert.Equal(t, "C", action)
	}
}

func TestExploreOnlyIsUniform(t *testing.T) {
	arms := []string{"A", "B", "C"}
	rng := randtest.Seeded(11)
	g := newAlg(t, 1, rng, arms...)

	// Make A a clear greedy winner; exploration must ignore it.
	scripted := randtest.NewScripted(12)
	g.rng = scripted
	scripted.Ints = []int{0}
	_, err := g.NextAction()
	require.NoError(t, err)
	require.NoError(t, g.UpdateWithLastReward(100))
	g.rng = rng

	const trials = 30000
	freq := make(map[string]int)
	for i := 0; i < trials; i++ {
		action, err := g.NextAction()
		require.NoError(t, err)
		freq[action]++
	}
	for _, arm := range arms {
		got := float64(freq[arm]) / trials
		assert.InDelta(t, 1.0/3, got, 0.02, "arm %s", arm)
	}
}

func TestExploreBranchBoundary(t *testing.T) {
	rng := randtest.NewScripted(1)
	g := newAlg(t, 0.25, rng, "A", "B")

	// A draw equal to epsilon explores.
	rng.Floats = []float64{0.25}
	rng.Ints = []int{1}
	action, err := g.NextAction()
	require.NoError(t, err)
	assert.Equal(t, "B", action)
	assert.Empty(t, rng.Ints)

	// A draw above epsilon exploits; the tie-break consumes one int.
	rng.Floats = []float64{0.26}
	rng.Ints = []int{0}
	action, err = g.NextAction()
	require.NoError(t, err)
	assert.Equal(t, "A", action)
	assert.Empty(t, rng.Ints)
}

func TestResetKeepsArmsAndEpsilon(t *testing.T) {
	g := newAlg(t, 0.4, randtest.Seeded(2), "A", "B", "C")
	for i := 0; i < 10; i++ {
		_, err := g.NextAction()
		require.NoError(t, err)
		require.NoError(t, g.UpdateWithLastReward(float64(i)))
	}

	require.NoError(t, g.Reset())
	assert.Equal(t, []string{"A", "B", "C"}, g.Arms())
	assert.Equal(t, 0.4, g.Epsilon())
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, g.Counts())
	assert.Equal(t, map[string]float64{"A": 0, "B": 0, "C": 0}, g.Estimates())
}

func TestChangeEpsilon(t *testing.T) {
	g := newAlg(t, 0.1, randtest.Seeded(4), "A", "B")
	for i := 0; i < 5; i++ {
		_, err := g.NextAction()
		require.NoError(t, err)
		require.NoError(t, g.UpdateWithLastReward(2))
	}
	_, err := g.NextAction()
	require.NoError(t, err)

	require.NoError(t, g.ChangeEpsilon(0.9))
	assert.Equal(t, 0.9, g.Epsilon())
	assert.Equal(t, []string{"A", "B"}, g.Arms())
	assert.Equal(t, map[string]int{"A": 0, "B": 0}, g.Counts())
	assert.Equal(t, map[string]float64{"A": 0, "B": 0}, g.Estimates())
	assert.False(t, g.Pending())

	assert.ErrorIs(t, g.ChangeEpsilon(1.5), core.ErrInvalidInput)
	assert.Equal(t, 0.9, g.Epsilon())
}
