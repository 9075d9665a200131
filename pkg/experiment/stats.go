package experiment

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// TestStats aggregates the runs of one test.
type TestStats struct {
	Name    string
	Epsilon float64
	Runs    int

	// AverageRewards[i] is the mean reward at step i+1 across runs.
	AverageRewards []float64
	// OptimalRate[i] is the fraction of runs that picked the optimal arm at
	// step i+1. Nil when the optimal arm is unknown.
	OptimalRate []float64

	MeanTotalReward  float64
	StdevTotalReward float64
}

// Summarize computes per-step and per-run statistics for every test in res.
func Summarize(res *Result) []TestStats {
	out := make([]TestStats, 0, len(res.Tests))
	for _, tr := range res.Tests {
		out = append(out, summarizeTest(tr, res.OptimalArm))
	}
	return out
}

func summarizeTest(tr TestResult, optimalArm string) TestStats {
	ts := TestStats{
		Name:    tr.Name,
		Epsilon: tr.Epsilon,
		Runs:    len(tr.Runs),
	}
	if len(tr.Runs) == 0 {
		return ts
	}

	steps := len(tr.Runs[0])
	for _, run := range tr.Runs[1:] {
		if len(run) < steps {
			steps = len(run)
		}
	}

	ts.AverageRewards = make([]float64, steps)
	if optimalArm != "" {
		ts.OptimalRate = make([]float64, steps)
	}
	column := make([]float64, len(tr.Runs))
	for i := 0; i < steps; i++ {
		hits := 0
		for j, run := range tr.Runs {
			column[j] = run[i].Reward
			if run[i].Action == optimalArm {
				hits++
			}
		}
		ts.AverageRewards[i] = stat.Mean(column, nil)
		if ts.OptimalRate != nil {
			ts.OptimalRate[i] = float64(hits) / float64(len(tr.Runs))
		}
	}

	totals := make([]float64, len(tr.Runs))
	for j, run := range tr.Runs {
		totals[j] = run.TotalReward()
	}
	if len(totals) < 2 {
		ts.MeanTotalReward = totals[0]
	} else {
		ts.MeanTotalReward, ts.StdevTotalReward = stat.MeanStdDev(totals, nil)
	}
	return ts
}

// LogStats writes a one-line summary per test.
func LogStats(logger *slog.Logger, stats []TestStats) {
	for _, ts := range stats {
		attrs := []any{
			"test", ts.Name,
			"epsilon", ts.Epsilon,
			"runs", ts.Runs,
			"mean_total_reward", ts.MeanTotalReward,
			"stdev_total_reward", ts.StdevTotalReward,
		}
		if n := len(ts.AverageRewards); n > 0 {
			attrs = append(attrs, "final_avg_reward", ts.AverageRewards[n-1])
		}
		if n := len(ts.OptimalRate); n > 0 {
			attrs = append(attrs, "final_optimal_rate", ts.OptimalRate[n-1])
		}
		logger.Info("test statistics", attrs...)
	}
}
