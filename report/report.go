// Package report renders HTML line charts of solver convergence and rollout
// returns.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func newLine(title, xName, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func xAxis(n int) []string {
	steps := make([]string, n)
	for i := range steps {
		steps[i] = fmt.Sprintf("%d", i+1)
	}
	return steps
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}
	return items
}

// Convergence plots the delta of every evaluation sweep.
func Convergence(title string, deltas []float64) *charts.Line {
	line := newLine(title, "sweep", "delta")
	line.SetXAxis(xAxis(len(deltas))).AddSeries("delta", lineData(deltas))
	return line
}

// Returns plots one series of episode returns per experiment. Series are
// added in name order.
func Returns(title string, series map[string][]float64) *charts.Line {
	line := newLine(title, "episode", "return")
	names := make([]string, 0, len(series))
	longest := 0
	for name, values := range series {
		names = append(names, name)
		if len(values) > longest {
			longest = len(values)
		}
	}
	sort.Strings(names)
	line.SetXAxis(xAxis(longest))
	for _, name := range names {
		line.AddSeries(name, lineData(series[name]))
	}
	return line
}

// Render writes the charts as a single page.
func Render(w io.Writer, lines ...*charts.Line) error {
	page := components.NewPage()
	for _, l := range lines {
		page.AddCharts(l)
	}
	return page.Render(w)
}

// Save renders the charts into the file at path, creating parent directories.
func Save(path string, lines ...*charts.Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Render(file, lines...)
}
