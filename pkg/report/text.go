package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

const (
	percentageValue = 100
	graphHeight     = 8
	graphWidth      = 64
	minGraphPoints  = 2
	sizeBins        = 10
)

// TextWriter renders a load for a terminal.
type TextWriter struct {
	opts Options
}

// NewTextWriter creates a text writer.
func NewTextWriter(opts Options) *TextWriter {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	return &TextWriter{opts: opts}
}

// Write prints the status line and, for a found article, the summary, the
// top editors, the size buckets and a daily edits graph.
func (tw *TextWriter) Write(w io.Writer, snap session.Snapshot) error {
	var sb strings.Builder

	tw.statusColor(snap.Status.Kind).Fprintln(&sb, snap.Status.Message)

	if snap.Set.Truncated {
		tw.paint(color.FgYellow).Fprintf(&sb, "Only the most recent %s revisions were fetched.\n",
			humanize.Comma(int64(snap.Set.Len())))
	}

	if snap.Set.Len() > 0 {
		sb.WriteString("\n")
		sb.WriteString(summaryTable(Summarize(snap.Set)))
		sb.WriteString("\n\n")
		sb.WriteString(tw.usersTable(snap.Tables.Users))
		sb.WriteString("\n\n")
		sb.WriteString(tw.sizesTable(snap.Tables.Sizes))
		sb.WriteString("\n")

		graph := dailyGraph(snap.Tables.Dates)
		if graph != "" {
			sb.WriteString("\n")
			sb.WriteString(graph)
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	return nil
}

func (tw *TextWriter) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if tw.opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c
}

func (tw *TextWriter) statusColor(kind session.Kind) *color.Color {
	switch kind {
	case session.KindFound:
		return tw.paint(color.FgGreen)
	case session.KindNotFound, session.KindInvalid:
		return tw.paint(color.FgYellow)
	case session.KindTransport, session.KindMalformed:
		return tw.paint(color.FgRed)
	default:
		return tw.paint(color.FgCyan)
	}
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func summaryTable(sum Summary) string {
	tbl := newTable()
	tbl.SetTitle("Summary")
	tbl.AppendRows([]table.Row{
		{"Revisions", humanize.Comma(int64(sum.Revisions))},
		{"Editors", humanize.Comma(int64(sum.Editors))},
		{"Active days", humanize.Comma(int64(sum.Days))},
		{"Largest revision", charts.FormatSize(sum.Largest)},
		{"Smallest revision", charts.FormatSize(sum.Smallest)},
		{"Period", fmt.Sprintf("%s to %s", sum.First, sum.Last)},
	})

	return tbl.Render()
}

func (tw *TextWriter) usersTable(users aggregate.UserEditCounts) string {
	ranked := slices.Clone(users)
	slices.SortStableFunc(ranked, func(a, b aggregate.UserCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	total := users.Total()

	tbl := newTable()
	tbl.SetTitle("Top editors")
	tbl.AppendHeader(table.Row{"User", "Edits", "Share"})

	for _, uc := range ranked[:min(len(ranked), tw.opts.MaxRows)] {
		share := 0.0
		if total > 0 {
			share = float64(uc.Count) * percentageValue / float64(total)
		}

		tbl.AppendRow(table.Row{uc.User, humanize.Comma(int64(uc.Count)), fmt.Sprintf("%.1f%%", share)})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d users", len(users)), humanize.Comma(int64(total)), ""})

	return tbl.Render()
}

func (tw *TextWriter) sizesTable(sizes aggregate.SizeSeries) string {
	bins := tw.opts.Charts.HistogramBins
	if bins <= 0 {
		bins = sizeBins
	}

	tbl := newTable()
	tbl.SetTitle("Edit sizes (bytes)")
	tbl.AppendHeader(table.Row{"Range", "Edits"})

	for _, b := range charts.BinSizes(sizes.Values(), bins) {
		tbl.AppendRow(table.Row{b.Label(), humanize.Comma(int64(b.Count))})
	}

	return tbl.Render()
}

// dailyGraph plots edits per calendar day from the first to the last edit,
// days without edits included. Fewer than two days yield "".
func dailyGraph(dates aggregate.DateHistogram) string {
	cal := charts.LayoutCalendar(dates)
	if len(cal.Cells) < minGraphPoints {
		return ""
	}

	data := make([]float64, len(cal.Cells))
	for i, cell := range cal.Cells {
		data[i] = float64(cell.Count)
	}

	return asciigraph.Plot(data,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(fmt.Sprintf("Edits per day, %s to %s", cal.Cells[0].Day, cal.Cells[len(cal.Cells)-1].Day)),
	)
}
