package results

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/boristopalov/bandits/pkg/experiment"
)

// RenderChart writes an HTML page with the average reward per step of every
// test and, when known, the rate at which the optimal arm was picked.
func RenderChart(w io.Writer, title string, stats []experiment.TestStats) error {
	if len(stats) == 0 {
		return ErrNoRuns
	}

	page := components.NewPage()
	page.PageTitle = title

	page.AddCharts(lineChart(
		title, "Average reward per step",
		stats, func(ts experiment.TestStats) []float64 { return ts.AverageRewards },
	))

	if stats[0].OptimalRate != nil {
		page.AddCharts(lineChart(
			title, "Optimal arm selection rate",
			stats, func(ts experiment.TestStats) []float64 { return ts.OptimalRate },
		))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func lineChart(title, subtitle string, stats []experiment.TestStats, series func(experiment.TestStats) []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeInfographic,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)

	numSteps := 0
	for _, ts := range stats {
		if n := len(series(ts)); n > numSteps {
			numSteps = n
		}
	}
	steps := make([]string, numSteps)
	for i := range steps {
		steps[i] = strconv.Itoa(i + 1)
	}
	line.SetXAxis(steps)

	for _, ts := range stats {
		values := series(ts)
		items := make([]opts.LineData, 0, len(values))
		for _, v := range values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(ts.Name, items)
	}
	return line
}
