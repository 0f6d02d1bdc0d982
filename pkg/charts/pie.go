package charts

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
)

const (
	pieTitle  = "Percentage of Edits by User"
	pieSeries = "Edits"
)

var pieRadius = []string{"35%", "65%"}

// UserPie charts each user's share of the edits.
func UserPie(counts aggregate.UserEditCounts, cfg Config) *charts.Pie {
	co := cfg.chartOpts()
	palette := co.Theme().Palette

	data := make([]opts.PieData, len(counts))
	for i, uc := range counts {
		data[i] = opts.PieData{
			Name:      uc.User,
			Value:     uc.Count,
			ItemStyle: &opts.ItemStyle{Color: palette[i%len(palette)]},
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init()),
		charts.WithTitleOpts(co.Title(pieTitle, "")),
		charts.WithTooltipOpts(co.Tooltip("item")),
		charts.WithLegendOpts(co.Legend()),
	)

	pie.AddSeries(pieSeries, data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c} ({d}%)",
				Color:     co.Theme().ChartTextMuted,
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: pieRadius,
			}),
		)

	return pie
}
