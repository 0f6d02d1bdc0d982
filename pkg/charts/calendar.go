package charts

import (
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

const (
	calendarTitle  = "Distribution of Edits over Time"
	calendarSeries = "Edits"
	weekLayout     = "2006-01-02"
	daysPerWeek    = 7
	hoursPerDay    = 24
)

// Weekdays labels the calendar rows, Sunday first like time.Weekday.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// CalendarCell is one day of the calendar grid.
type CalendarCell struct {
	Week    int
	Weekday time.Weekday
	Day     revision.Day
	Count   int
}

// Calendar is the week by weekday layout of a date histogram.
type Calendar struct {
	// Weeks holds the Sunday that starts each column.
	Weeks []string
	// Cells covers every day from the first to the last edit, including
	// days without edits.
	Cells []CalendarCell
	Max   int
}

// LayoutCalendar places every day between the earliest and latest edit on a
// grid of week columns and weekday rows. Counts for a day that appears more
// than once in hist are summed. Unparseable days are skipped.
func LayoutCalendar(hist aggregate.DateHistogram) Calendar {
	counts := make(map[time.Time]int, len(hist))

	var first, last time.Time

	for _, dc := range hist {
		t := dc.Day.Time()
		if t.IsZero() {
			continue
		}

		counts[t] += dc.Count

		if first.IsZero() || t.Before(first) {
			first = t
		}

		if t.After(last) {
			last = t
		}
	}

	if len(counts) == 0 {
		return Calendar{Weeks: []string{}, Cells: []CalendarCell{}}
	}

	start := first.AddDate(0, 0, -int(first.Weekday()))
	cal := Calendar{}

	for day := start; !day.After(last); day = day.AddDate(0, 0, 1) {
		week := daysBetween(start, day) / daysPerWeek
		if week == len(cal.Weeks) {
			cal.Weeks = append(cal.Weeks, day.Format(weekLayout))
		}

		if day.Before(first) {
			continue
		}

		count := counts[day]
		cal.Max = max(cal.Max, count)
		cal.Cells = append(cal.Cells, CalendarCell{
			Week:    week,
			Weekday: day.Weekday(),
			Day:     revision.Day(day.Format(weekLayout)),
			Count:   count,
		})
	}

	return cal
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours()) / hoursPerDay
}

// EditCalendar charts edits per day as a calendar heatmap.
func EditCalendar(hist aggregate.DateHistogram, cfg Config) *charts.HeatMap {
	co := cfg.chartOpts()
	theme := co.Theme()
	cal := LayoutCalendar(hist)

	data := make([]opts.HeatMapData, len(cal.Cells))
	for i, cell := range cal.Cells {
		data[i] = opts.HeatMapData{
			Name:  cell.Day.String(),
			Value: []any{cell.Week, int(cell.Weekday), cell.Count},
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(co.Init()),
		charts.WithTitleOpts(co.Title(calendarTitle, "")),
		charts.WithTooltipOpts(co.Tooltip("item")),
		charts.WithDataZoomOpts(co.DataZoom()...),
		charts.WithGridOpts(co.Grid()),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      cal.Weeks,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{Color: theme.ChartTextMuted},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      Weekdays,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{Color: theme.ChartTextMuted},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max(cal.Max, 1)),
			InRange:    &opts.VisualMapInRange{Color: theme.HeatmapRange},
			Orient:     "horizontal",
			Left:       "center",
			Bottom:     "2%",
			TextStyle:  &opts.TextStyle{Color: theme.ChartTextMuted},
		}),
	)
	hm.AddSeries(calendarSeries, data)

	return hm
}
