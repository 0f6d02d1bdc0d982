// Package aggregate turns a revision history into the three chart-ready
// tables: per-revision sizes, edits per day, and edits per user.
//
// All builders are pure: they never modify their input and return an empty,
// non-nil table for an empty history.
package aggregate

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

// SingleEditsLabel names the synthetic bucket that holds every user with
// exactly one edit when Options.CollapseSingleEdits is set. Square brackets
// are not allowed in MediaWiki user names, so no real editor carries it.
const SingleEditsLabel = "[Single Edits]"

// Options tunes the aggregation.
type Options struct {
	// CollapseSingleEdits folds all one-edit users into a single leading
	// SingleEditsLabel bucket of UserEditCounts.
	CollapseSingleEdits bool `json:"collapse_single_edits" yaml:"collapse_single_edits" mapstructure:"collapse_single_edits"`
}

// SizePoint is one revision's author and byte size.
type SizePoint struct {
	User string `json:"user" yaml:"user"`
	Size int    `json:"size" yaml:"size"`
}

// DayCount is the number of revisions made on one calendar day.
type DayCount struct {
	Day   revision.Day `json:"day"   yaml:"day"`
	Count int          `json:"count" yaml:"count"`
}

// UserCount is the number of revisions made by one user.
type UserCount struct {
	User  string `json:"user"  yaml:"user"`
	Count int    `json:"count" yaml:"count"`
	// Synthetic marks the collapsed single-edits bucket.
	Synthetic bool `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

// SizeSeries lists every revision's size in input order.
type SizeSeries []SizePoint

// DateHistogram lists edit counts per day in input order.
type DateHistogram []DayCount

// UserEditCounts lists edit counts per user in user-name order.
type UserEditCounts []UserCount

// Tables bundles the three aggregates of one revision set.
type Tables struct {
	Sizes SizeSeries     `json:"sizes" yaml:"sizes"`
	Dates DateHistogram  `json:"dates" yaml:"dates"`
	Users UserEditCounts `json:"users" yaml:"users"`
}

// Build computes all three tables for a revision set.
func Build(set revision.ArticleRevisionSet, opts Options) Tables {
	return Tables{
		Sizes: BuildSizeSeries(set.Revisions),
		Dates: BuildDateHistogram(set.Revisions),
		Users: BuildUserEditCounts(set.Revisions, opts),
	}
}

// BuildSizeSeries maps each revision to its (user, size) pair.
func BuildSizeSeries(revs []revision.Record) SizeSeries {
	series := make(SizeSeries, len(revs))

	for i, rev := range revs {
		series[i] = SizePoint{User: rev.User, Size: rev.Size}
	}

	return series
}

// BuildDateHistogram run-length encodes revision days in the given order.
// Only contiguous same-day runs are merged and the input is never re-sorted,
// so newest-first and oldest-first histories both group by day.
func BuildDateHistogram(revs []revision.Record) DateHistogram {
	hist := make(DateHistogram, 0)

	for _, rev := range revs {
		day := rev.Day()

		if n := len(hist); n > 0 && hist[n-1].Day == day {
			hist[n-1].Count++

			continue
		}

		hist = append(hist, DayCount{Day: day, Count: 1})
	}

	return hist
}

// SortedByUser returns a copy of revs stably sorted by user name using
// byte-wise comparison. Revisions by the same user keep their input order.
func SortedByUser(revs []revision.Record) []revision.Record {
	sorted := slices.Clone(revs)
	if sorted == nil {
		sorted = []revision.Record{}
	}

	slices.SortStableFunc(sorted, func(a, b revision.Record) int {
		return strings.Compare(a.User, b.User)
	})

	return sorted
}

// BuildUserEditCounts counts edits per user: the revisions are sorted by
// user name and consecutive equal names are run-length encoded.
func BuildUserEditCounts(revs []revision.Record, opts Options) UserEditCounts {
	counts := make(UserEditCounts, 0)

	for _, rev := range SortedByUser(revs) {
		if n := len(counts); n > 0 && counts[n-1].User == rev.User {
			counts[n-1].Count++

			continue
		}

		counts = append(counts, UserCount{User: rev.User, Count: 1})
	}

	if opts.CollapseSingleEdits {
		return collapseSingleEdits(counts)
	}

	return counts
}

func collapseSingleEdits(counts UserEditCounts) UserEditCounts {
	single := 0
	multi := make(UserEditCounts, 0, len(counts))

	for _, uc := range counts {
		if uc.Count == 1 {
			single++

			continue
		}

		multi = append(multi, uc)
	}

	if single == 0 {
		return multi
	}

	return append(UserEditCounts{{User: SingleEditsLabel, Count: single, Synthetic: true}}, multi...)
}
