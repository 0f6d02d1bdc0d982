package aggregate

import (
	"strconv"

	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

// syntheticTimestampSuffix completes a Day into a timestamp for Expand.
const syntheticTimestampSuffix = "T00:00:00Z"

// epochTimestamp stamps reconstructed user revisions, whose dates are lost.
const epochTimestamp = "1970-01-01" + syntheticTimestampSuffix

// Row is one [label, value] pair of the tabular interchange format.
type Row = [2]any

// Rows returns the series as [user, size] pairs.
func (s SizeSeries) Rows() []Row {
	rows := make([]Row, len(s))
	for i, p := range s {
		rows[i] = Row{p.User, p.Size}
	}

	return rows
}

// Labels returns the user of every point.
func (s SizeSeries) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.User
	}

	return out
}

// Values returns the size of every point.
func (s SizeSeries) Values() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = p.Size
	}

	return out
}

// Expand rebuilds one revision per point. Timestamps are not recoverable.
func (s SizeSeries) Expand() []revision.Record {
	out := make([]revision.Record, len(s))
	for i, p := range s {
		out[i] = revision.Record{User: p.User, Size: p.Size, Timestamp: epochTimestamp}
	}

	return out
}

// Rows returns the histogram as [day, count] pairs.
func (h DateHistogram) Rows() []Row {
	rows := make([]Row, len(h))
	for i, dc := range h {
		rows[i] = Row{string(dc.Day), dc.Count}
	}

	return rows
}

// Labels returns every bucket's day.
func (h DateHistogram) Labels() []string {
	out := make([]string, len(h))
	for i, dc := range h {
		out[i] = string(dc.Day)
	}

	return out
}

// Values returns every bucket's count.
func (h DateHistogram) Values() []int {
	out := make([]int, len(h))
	for i, dc := range h {
		out[i] = dc.Count
	}

	return out
}

// Total sums the counts.
func (h DateHistogram) Total() int {
	total := 0
	for _, dc := range h {
		total += dc.Count
	}

	return total
}

// Expand rebuilds one synthetic revision per counted edit, keeping bucket
// order. Users and sizes are not recoverable and are left empty.
func (h DateHistogram) Expand() []revision.Record {
	out := make([]revision.Record, 0, h.Total())

	for _, dc := range h {
		for range dc.Count {
			out = append(out, revision.Record{Timestamp: string(dc.Day) + syntheticTimestampSuffix})
		}
	}

	return out
}

// Rows returns the counts as [user, count] pairs.
func (u UserEditCounts) Rows() []Row {
	rows := make([]Row, len(u))
	for i, uc := range u {
		rows[i] = Row{uc.User, uc.Count}
	}

	return rows
}

// Labels returns every user.
func (u UserEditCounts) Labels() []string {
	out := make([]string, len(u))
	for i, uc := range u {
		out[i] = uc.User
	}

	return out
}

// Values returns every user's count.
func (u UserEditCounts) Values() []int {
	out := make([]int, len(u))
	for i, uc := range u {
		out[i] = uc.Count
	}

	return out
}

// Total sums the counts.
func (u UserEditCounts) Total() int {
	total := 0
	for _, uc := range u {
		total += uc.Count
	}

	return total
}

// Expand rebuilds one synthetic revision per counted edit. The synthetic
// single-edits bucket expands into distinct placeholder users so that
// re-aggregating with the same options yields the same table.
func (u UserEditCounts) Expand() []revision.Record {
	out := make([]revision.Record, 0, u.Total())

	for _, uc := range u {
		if uc.Synthetic {
			for i := range uc.Count {
				out = append(out, revision.Record{
					User:      SingleEditsLabel + " #" + strconv.Itoa(i),
					Timestamp: epochTimestamp,
				})
			}

			continue
		}

		for range uc.Count {
			out = append(out, revision.Record{User: uc.User, Timestamp: epochTimestamp})
		}
	}

	return out
}
