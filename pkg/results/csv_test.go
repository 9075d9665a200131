package results

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/experiment"
)

func traj(steps ...core.Step) core.Trajectory {
	return core.Trajectory(steps)
}

func st(action string, reward float64) core.Step {
	return core.Step{Action: action, Reward: reward}
}

func TestWriteSingleTest(t *testing.T) {
	runs := []core.Trajectory{
		traj(st("A", 1.234), st("B", 5)),
		traj(st("B", -0.006), st("C", 2.999)),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSingleTest(&buf, runs, Rewards, 2))
	assert.Equal(t, "run_num,step_1,step_2\n1,1.23,5\n2,-0.01,3\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteSingleTest(&buf, runs, Actions, 2))
	assert.Equal(t, "run_num,step_1,step_2\n1,A,B\n2,B,C\n", buf.String())
}

func TestWriteSingleTestErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteSingleTest(&buf, nil, Rewards, 2), ErrNoRuns)

	runs := []core.Trajectory{traj(st("A", 1)), traj(st("A", 1), st("A", 1))}
	assert.ErrorIs(t, WriteSingleTest(&buf, runs, Rewards, 2), ErrStepCountMismatch)
}

func TestWriteMultipleTests(t *testing.T) {
	tests := [][]core.Trajectory{
		{traj(st("A", 1), st("B", 2)), traj(st("B", 3), st("B", 4))},
		{traj(st("C", 0.5), st("A", 0.25))},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMultipleTests(&buf, []string{"eps-0.1", "greedy"}, tests, Rewards, 2))
	want := strings.Join([]string{
		"test_name,run_num,step_1,step_2",
		"eps-0.1,1,1,2",
		"eps-0.1,2,3,4",
		"greedy,1,0.5,0.25",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteMultipleTestsErrors(t *testing.T) {
	var buf bytes.Buffer
	tests := [][]core.Trajectory{{traj(st("A", 1))}, {traj(st("A", 1), st("B", 1))}}

	assert.Error(t, WriteMultipleTests(&buf, []string{"one"}, tests, Rewards, 2))
	assert.ErrorIs(t, WriteMultipleTests(&buf, []string{"one", "two"}, tests, Rewards, 2), ErrStepCountMismatch)
}

func TestWriteResult(t *testing.T) {
	one := &experiment.Result{Tests: []experiment.TestResult{
		{Name: "only", Runs: []core.Trajectory{traj(st("A", 1))}},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, one, Rewards, 2))
	assert.True(t, strings.HasPrefix(buf.String(), "run_num,"))

	two := &experiment.Result{Tests: []experiment.TestResult{
		{Name: "a", Runs: []core.Trajectory{traj(st("A", 1))}},
		{Name: "b", Runs: []core.Trajectory{traj(st("B", 2))}},
	}}
	buf.Reset()
	require.NoError(t, WriteResult(&buf, two, Actions, 2))
	assert.Equal(t, "test_name,run_num,step_1\na,1,A\nb,1,B\n", buf.String())
}

func TestFormatReward(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{5, 2, "5"},
		{1.005, 0, "1"},
		{2.66, 1, "2.7"},
		{-1.234, 2, "-1.23"},
		{0.1234, -1, "0.1234"},
		{-0.004, 2, "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatReward(tc.v, tc.decimals), "%v @ %d", tc.v, tc.decimals)
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("actions")
	require.NoError(t, err)
	assert.Equal(t, Actions, f)
	f, err = ParseField("rewards")
	require.NoError(t, err)
	assert.Equal(t, Rewards, f)
	_, err = ParseField("bogus")
	assert.Error(t, err)
}
