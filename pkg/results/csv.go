// Package results exports suite results as delimited text, SQLite rows and
// HTML charts.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/experiment"
)

// DefaultDecimals is the rounding applied to rewards unless overridden.
const DefaultDecimals = 2

var (
	// ErrStepCountMismatch reports runs of different lengths in one export.
	ErrStepCountMismatch = errors.New("runs have different step counts")
	// ErrNoRuns reports an export without any run.
	ErrNoRuns = errors.New("no runs to export")
)

// Field selects which half of each step is written.
type Field int

const (
	Rewards Field = iota
	Actions
)

func (f Field) String() string {
	switch f {
	case Rewards:
		return "rewards"
	case Actions:
		return "actions"
	default:
		return "unknown"
	}
}

// ParseField maps "rewards" or "actions" to a Field.
func ParseField(s string) (Field, error) {
	switch s {
	case "rewards", "reward":
		return Rewards, nil
	case "actions", "action":
		return Actions, nil
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// WriteSingleTest writes a header "run_num,step_1,...,step_n" followed by one
// row per run, numbered from 1.
func WriteSingleTest(w io.Writer, runs []core.Trajectory, field Field, decimals int) error {
	steps, err := stepCount([][]core.Trajectory{runs})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header(steps, "run_num")); err != nil {
		return err
	}
	for i, run := range runs {
		record := append([]string{strconv.Itoa(i + 1)}, cells(run, field, decimals)...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMultipleTests writes a header "test_name,run_num,step_1,...,step_n" and
// one row per run of every test. Run numbers restart at 1 for each test.
func WriteMultipleTests(w io.Writer, names []string, tests [][]core.Trajectory, field Field, decimals int) error {
	if len(names) != len(tests) {
		return fmt.Errorf("%d test names for %d tests", len(names), len(tests))
	}
	steps, err := stepCount(tests)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header(steps, "test_name", "run_num")); err != nil {
		return err
	}
	for i, runs := range tests {
		for j, run := range runs {
			record := append([]string{names[i], strconv.Itoa(j + 1)}, cells(run, field, decimals)...)
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResult exports every test of res, using the single-test layout when
// there is only one test.
func WriteResult(w io.Writer, res *experiment.Result, field Field, decimals int) error {
	if len(res.Tests) == 1 {
		return WriteSingleTest(w, res.Tests[0].Runs, field, decimals)
	}
	names := make([]string, len(res.Tests))
	tests := make([][]core.Trajectory, len(res.Tests))
	for i, tr := range res.Tests {
		names[i] = tr.Name
		tests[i] = tr.Runs
	}
	return WriteMultipleTests(w, names, tests, field, decimals)
}

func stepCount(tests [][]core.Trajectory) (int, error) {
	steps := -1
	for _, runs := range tests {
		for _, run := range runs {
			if steps == -1 {
				steps = len(run)
				continue
			}
			if len(run) != steps {
				return 0, fmt.Errorf("%w: %d and %d", ErrStepCountMismatch, steps, len(run))
			}
		}
	}
	if steps == -1 {
		return 0, ErrNoRuns
	}
	return steps, nil
}

func header(steps int, leading ...string) []string {
	h := make([]string, 0, len(leading)+steps)
	h = append(h, leading...)
	for i := 1; i <= steps; i++ {
		h = append(h, "step_"+strconv.Itoa(i))
	}
	return h
}

func cells(run core.Trajectory, field Field, decimals int) []string {
	out := make([]string, len(run))
	for i, s := range run {
		if field == Actions {
			out[i] = s.Action
		} else {
			out[i] = FormatReward(s.Reward, decimals)
		}
	}
	return out
}

// FormatReward rounds v half away from zero to decimals places and prints it
// without trailing zeros. A negative decimals leaves v unrounded.
func FormatReward(v float64, decimals int) string {
	if decimals >= 0 {
		p := math.Pow10(decimals)
		v = math.Round(v*p) / p
	}
	if v == 0 {
		// -0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
