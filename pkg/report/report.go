package report

import (
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

// DefaultMaxRows caps the per-user table of text output.
const DefaultMaxRows = 10

// Options controls report output.
type Options struct {
	// Color enables ANSI colours in text output.
	Color bool
	// MaxRows limits text tables; non-positive selects DefaultMaxRows.
	MaxRows int
	// Charts configures html output and the size buckets of text output.
	Charts charts.Config
}

// Summary holds headline figures of one revision set.
type Summary struct {
	Revisions int          `json:"revisions"           yaml:"revisions"`
	Editors   int          `json:"editors"             yaml:"editors"`
	Days      int          `json:"days"                yaml:"days"`
	Largest   int          `json:"largest_size"        yaml:"largest_size"`
	Smallest  int          `json:"smallest_size"       yaml:"smallest_size"`
	First     revision.Day `json:"first_day,omitempty" yaml:"first_day,omitempty"`
	Last      revision.Day `json:"last_day,omitempty"  yaml:"last_day,omitempty"`
}

// Summarize computes the headline figures. Revisions are expected newest
// first, as the wiki delivers them.
func Summarize(set revision.ArticleRevisionSet) Summary {
	if set.Len() == 0 {
		return Summary{}
	}

	editors := make(map[string]struct{})
	days := make(map[revision.Day]struct{})
	sum := Summary{
		Revisions: set.Len(),
		Largest:   set.Revisions[0].Size,
		Smallest:  set.Revisions[0].Size,
		Last:      set.Revisions[0].Day(),
		First:     set.Revisions[set.Len()-1].Day(),
	}

	for _, rev := range set.Revisions {
		editors[rev.User] = struct{}{}
		days[rev.Day()] = struct{}{}
		sum.Largest = max(sum.Largest, rev.Size)
		sum.Smallest = min(sum.Smallest, rev.Size)
	}

	sum.Editors = len(editors)
	sum.Days = len(days)

	return sum
}

// Document is the machine-readable form of a load. Tables use the
// [label, value] row interchange.
type Document struct {
	Title     string          `json:"title"     yaml:"title"`
	PageID    int             `json:"page_id"   yaml:"page_id"`
	Found     bool            `json:"found"     yaml:"found"`
	Truncated bool            `json:"truncated" yaml:"truncated"`
	Status    session.Status  `json:"status"    yaml:"status"`
	Summary   Summary         `json:"summary"   yaml:"summary"`
	Sizes     []aggregate.Row `json:"sizes"     yaml:"sizes"`
	Dates     []aggregate.Row `json:"dates"     yaml:"dates"`
	Users     []aggregate.Row `json:"users"     yaml:"users"`
}

// NewDocument builds the machine-readable form of snap.
func NewDocument(snap session.Snapshot) Document {
	return Document{
		Title:     snap.Set.Title,
		PageID:    snap.Set.PageID,
		Found:     snap.Set.Found(),
		Truncated: snap.Set.Truncated,
		Status:    snap.Status,
		Summary:   Summarize(snap.Set),
		Sizes:     snap.Tables.Sizes.Rows(),
		Dates:     snap.Tables.Dates.Rows(),
		Users:     snap.Tables.Users.Rows(),
	}
}

// Write renders snap to w in the given format.
func Write(w io.Writer, format string, snap session.Snapshot, opts Options) error {
	normalized, err := ValidateFormat(format)
	if err != nil {
		return err
	}

	switch normalized {
	case FormatJSON:
		return NewJSONEncoder().Encode(w, NewDocument(snap))
	case FormatYAML:
		return YAMLEncoder{}.Encode(w, NewDocument(snap))
	case FormatHTML:
		page := charts.Dashboard(snap.Set, snap.Tables, snap.Status, opts.Charts)

		err = page.Render(w)
		if err != nil {
			return fmt.Errorf("render dashboard: %w", err)
		}

		return nil
	default:
		return NewTextWriter(opts).Write(w, snap)
	}
}
