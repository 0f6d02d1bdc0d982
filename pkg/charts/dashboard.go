package charts

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/plotpage"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

// Tab identifiers of the dashboard.
const (
	TabHistogram = "histogram"
	TabCalendar  = "calendar"
	TabPie       = "pie"
)

// TabIDs lists the dashboard tabs in display order.
var TabIDs = []string{TabHistogram, TabCalendar, TabPie}

const (
	tabGroupID    = "charts"
	pageTitle     = "Wikipedia Revision History"
	pageDesc      = "Edit sizes, edit dates and editors of one article"
	statsColumns  = 4
	titleParam    = "title"
	titleHint     = "Article title, e.g. Go (programming language)"
	submitLabel   = "Load"
	noDataMessage = "There are no revisions to chart."
)

// ValidTab reports whether id names a dashboard tab.
func ValidTab(id string) bool {
	return slices.Contains(TabIDs, id)
}

// Config controls how the dashboard is drawn.
type Config struct {
	Theme         plotpage.Theme
	ActiveTab     string
	HistogramBins int
	Style         plotpage.Style
	// FormAction is the URL the title form submits to; empty omits the form.
	FormAction string
	// Logger receives debug notes such as an ignored ActiveTab. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the dark theme with the histogram tab active.
func DefaultConfig() Config {
	return Config{
		Theme:         plotpage.ThemeDark,
		ActiveTab:     TabHistogram,
		HistogramBins: DefaultHistogramBins,
		Style:         plotpage.DefaultStyle(),
	}
}

func (c Config) chartOpts() *plotpage.ChartOpts {
	theme := c.Theme
	if theme == "" {
		theme = plotpage.ThemeDark
	}

	style := c.Style
	if style.Width == "" || style.Height == "" {
		style = plotpage.DefaultStyle()
	}

	return plotpage.NewChartOpts(theme).WithStyle(style)
}

// Dashboard builds the single-page view of one load: the title form, a
// status banner, summary figures and one tab per chart. Unknown ActiveTab
// values leave the first tab active.
func Dashboard(set revision.ArticleRevisionSet, tables aggregate.Tables, status session.Status, cfg Config) *plotpage.Page {
	page := plotpage.NewPage(pageTitle, pageDesc)
	if cfg.Theme != "" {
		page.WithTheme(cfg.Theme)
	}

	if cfg.FormAction != "" {
		page.AddHeader(&plotpage.Form{
			Action:      cfg.FormAction,
			Name:        titleParam,
			Value:       set.Title,
			Placeholder: titleHint,
			Button:      submitLabel,
		})
	}

	page.AddHeader(statusAlert(status))

	if set.Truncated {
		page.AddHeader(plotpage.NewAlert("Partial history",
			fmt.Sprintf("Only the most recent %s revisions were fetched.", humanize.Comma(int64(set.Len()))),
			plotpage.ToneWarning))
	}

	if set.Found() && set.Len() > 0 {
		page.AddHeader(summaryGrid(set, tables))
	}

	tabs := plotpage.NewTabs(tabGroupID,
		plotpage.TabItem{ID: TabHistogram, Label: "Edit Sizes", Content: chartOrPlaceholder(len(tables.Sizes), func() plotpage.Renderable {
			return plotpage.WrapChart(SizeHistogram(tables.Sizes, cfg))
		})},
		plotpage.TabItem{ID: TabCalendar, Label: "Edit Dates", Content: chartOrPlaceholder(len(tables.Dates), func() plotpage.Renderable {
			return plotpage.WrapChart(EditCalendar(tables.Dates, cfg))
		})},
		plotpage.TabItem{ID: TabPie, Label: "Editors", Content: chartOrPlaceholder(len(tables.Users), func() plotpage.Renderable {
			return plotpage.WrapChart(UserPie(tables.Users, cfg))
		})},
	)

	if cfg.ActiveTab != "" {
		err := tabs.Select(cfg.ActiveTab)
		if err != nil {
			observability.LoggerOrDefault(cfg.Logger).Debug("keeping first dashboard tab", "tab", cfg.ActiveTab, "error", err)
		}
	}

	page.Add(plotpage.Section{
		Title: set.Title,
		Chart: tabs,
		Hint: plotpage.Hint{
			Title: "Reading the charts",
			Items: []string{
				"Edit Sizes bins each revision by its page size in bytes after the edit.",
				"Edit Dates shows one cell per day; darker cells had more edits.",
				"Editors shows each user's share of the fetched revisions.",
			},
		},
	})

	return page
}

func chartOrPlaceholder(rows int, build func() plotpage.Renderable) plotpage.Renderable {
	if rows == 0 {
		return plotpage.NewAlert("No data", noDataMessage, plotpage.ToneInfo)
	}

	return build()
}

func statusAlert(status session.Status) *plotpage.Alert {
	switch status.Kind {
	case session.KindFound:
		return plotpage.NewAlert("Loaded", status.Message, plotpage.ToneSuccess)
	case session.KindNotFound:
		return plotpage.NewAlert("Not found", status.Message, plotpage.ToneWarning)
	case session.KindInvalid:
		return plotpage.NewAlert("Missing title", status.Message, plotpage.ToneWarning)
	case session.KindTransport, session.KindMalformed:
		return plotpage.NewAlert("Load failed", status.Message, plotpage.ToneError)
	default:
		return plotpage.NewAlert("Welcome", status.Message, plotpage.ToneInfo)
	}
}

func summaryGrid(set revision.ArticleRevisionSet, tables aggregate.Tables) *plotpage.Grid {
	editors := make(map[string]struct{}, len(tables.Users))
	largest := set.Revisions[0].Size

	for _, rev := range set.Revisions {
		editors[rev.User] = struct{}{}
		largest = max(largest, rev.Size)
	}

	newest := set.Revisions[0].Day()
	oldest := set.Revisions[len(set.Revisions)-1].Day()

	return plotpage.NewGrid(statsColumns,
		plotpage.NewStat("Revisions", humanize.Comma(int64(set.Len()))),
		plotpage.NewStat("Editors", humanize.Comma(int64(len(editors)))),
		plotpage.NewStat("Largest revision", FormatSize(largest)),
		plotpage.NewStat("Period", fmt.Sprintf("%s to %s", oldest, newest)),
	)
}

// FormatSize renders a revision size in bytes as a human-readable figure.
// Negative sizes, which only appear in malformed histories, stay raw.
func FormatSize(size int) string {
	if size < 0 {
		return fmt.Sprintf("%d B", size)
	}

	return humanize.Bytes(uint64(size)) //nolint:gosec // size is non-negative here.
}
