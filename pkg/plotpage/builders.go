package plotpage

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// BarSeries defines the properties and data for a single bar chart series.
type BarSeries struct {
	Name  string
	Data  []int
	Color string // Optional, uses theme accent if empty.
}

// BuildBarChart constructs a themed go-echarts Bar chart. The legend is shown
// only for more than one series. A nil cOpts selects the dark theme.
func BuildBarChart(cOpts *ChartOpts, title string, labels []string, series []BarSeries, xLabel, yLabel string) *charts.Bar {
	if cOpts == nil {
		cOpts = NewChartOpts(ThemeDark)
	}

	legend := cOpts.NoLegend()
	if len(series) > 1 {
		legend = cOpts.Legend()
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init()),
		charts.WithTitleOpts(cOpts.Title(title, "")),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithGridOpts(cOpts.Grid()),
		charts.WithXAxisOpts(cOpts.XAxis(xLabel)),
		charts.WithYAxisOpts(cOpts.YAxis(yLabel)),
		charts.WithLegendOpts(legend),
	)

	bar.SetXAxis(labels)

	for _, s := range series {
		barData := make([]opts.BarData, len(s.Data))
		for i, v := range s.Data {
			barData[i] = opts.BarData{Value: v}
		}

		color := s.Color
		if color == "" {
			color = cOpts.theme.Accent
		}

		bar.AddSeries(s.Name, barData, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}

	return bar
}
