// Package charts builds the go-echarts visualizations of a revision history
// and assembles them into a plotpage dashboard.
package charts

import (
	"fmt"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/plotpage"
)

// DefaultHistogramBins is the number of size buckets when none is configured.
const DefaultHistogramBins = 20

const (
	histogramTitle = "Distribution of Edit Sizes in Bytes"
	histogramXAxis = "Size (bytes)"
	histogramYAxis = "Edits"
)

// Bin is one equal-width bucket of revision sizes, bounds inclusive.
type Bin struct {
	Low   int `json:"low"   yaml:"low"`
	High  int `json:"high"  yaml:"high"`
	Count int `json:"count" yaml:"count"`
}

// Label renders the bucket bounds for an axis.
func (b Bin) Label() string {
	if b.Low == b.High {
		return fmt.Sprintf("%d", b.Low)
	}

	return fmt.Sprintf("%d..%d", b.Low, b.High)
}

// BinSizes distributes sizes over at most bins equal-width integer buckets
// spanning the observed minimum to the observed maximum. Every size falls in
// exactly one bucket. Non-positive bins selects DefaultHistogramBins.
func BinSizes(sizes []int, bins int) []Bin {
	if len(sizes) == 0 {
		return []Bin{}
	}

	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	lo, hi := slices.Min(sizes), slices.Max(sizes)
	span := hi - lo + 1
	width := (span + bins - 1) / bins
	count := (span + width - 1) / width

	out := make([]Bin, count)
	for i := range out {
		out[i].Low = lo + i*width
		out[i].High = min(out[i].Low+width-1, hi)
	}

	for _, size := range sizes {
		out[(size-lo)/width].Count++
	}

	return out
}

// SizeHistogram charts how many revisions fall in each size bucket.
func SizeHistogram(series aggregate.SizeSeries, cfg Config) *charts.Bar {
	bins := BinSizes(series.Values(), cfg.HistogramBins)

	labels := make([]string, len(bins))
	counts := make([]int, len(bins))

	for i, b := range bins {
		labels[i] = b.Label()
		counts[i] = b.Count
	}

	return plotpage.BuildBarChart(
		cfg.chartOpts(),
		histogramTitle,
		labels,
		[]plotpage.BarSeries{{Name: histogramYAxis, Data: counts}},
		histogramXAxis,
		histogramYAxis,
	)
}
