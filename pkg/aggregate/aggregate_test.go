package aggregate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

func rec(user string, size int, ts string) revision.Record {
	return revision.Record{User: user, Size: size, Timestamp: ts}
}

func exampleRevisions() []revision.Record {
	return []revision.Record{
		rec("A", 100, "2020-01-01T10:00:00Z"),
		rec("A", 150, "2020-01-01T12:00:00Z"),
		rec("B", 80, "2020-01-02T09:00:00Z"),
	}
}

// history is reverse-chronological, like the wiki delivers it.
func history() []revision.Record {
	return []revision.Record{
		rec("Zed", 10, "2021-05-03T08:00:00Z"),
		rec("alice", -4, "2021-05-03T07:00:00Z"),
		rec("Bob", 300, "2021-05-02T23:59:59Z"),
		rec("Zed", 12, "2021-05-02T01:00:00+09:00"),
		rec("Bob", 0, "2021-04-30T12:00:00Z"),
		rec("Carol", 77, "2021-04-29T12:00:00Z"),
		rec("Bob", 5, "2021-04-29T11:00:00Z"),
	}
}

func TestBuild_Example(t *testing.T) {
	t.Parallel()

	tables := aggregate.Build(revision.ArticleRevisionSet{Title: "T", PageID: 1, Revisions: exampleRevisions()}, aggregate.Options{})

	wantDates := aggregate.DateHistogram{{Day: "2020-01-01", Count: 2}, {Day: "2020-01-02", Count: 1}}
	wantUsers := aggregate.UserEditCounts{{User: "A", Count: 2}, {User: "B", Count: 1}}
	wantSizes := aggregate.SizeSeries{{User: "A", Size: 100}, {User: "A", Size: 150}, {User: "B", Size: 80}}

	if diff := cmp.Diff(wantDates, tables.Dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(wantUsers, tables.Users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(wantSizes, tables.Sizes); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_NotFound(t *testing.T) {
	t.Parallel()

	tables := aggregate.Build(revision.NotFound(), aggregate.Options{CollapseSingleEdits: true})

	require.NotNil(t, tables.Sizes)
	require.NotNil(t, tables.Dates)
	require.NotNil(t, tables.Users)
	assert.Empty(t, tables.Sizes)
	assert.Empty(t, tables.Dates)
	assert.Empty(t, tables.Users)
}

func TestBuilders_NilInput(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, aggregate.BuildSizeSeries(nil))
	assert.NotNil(t, aggregate.BuildDateHistogram(nil))
	assert.NotNil(t, aggregate.BuildUserEditCounts(nil, aggregate.Options{}))
	assert.NotNil(t, aggregate.SortedByUser(nil))
}

func TestBuildSizeSeries_PreservesLengthAndOrder(t *testing.T) {
	t.Parallel()

	revs := history()
	series := aggregate.BuildSizeSeries(revs)

	require.Len(t, series, len(revs))

	for i, r := range revs {
		assert.Equal(t, r.User, series[i].User)
		assert.Equal(t, r.Size, series[i].Size)
	}
}

func TestBuildDateHistogram_Properties(t *testing.T) {
	t.Parallel()

	revs := history()
	hist := aggregate.BuildDateHistogram(revs)

	assert.Equal(t, len(revs), hist.Total())

	for i := 1; i < len(hist); i++ {
		assert.NotEqual(t, hist[i-1].Day, hist[i].Day)
	}

	want := aggregate.DateHistogram{
		{Day: "2021-05-03", Count: 2},
		{Day: "2021-05-02", Count: 2},
		{Day: "2021-04-30", Count: 1},
		{Day: "2021-04-29", Count: 2},
	}
	if diff := cmp.Diff(want, hist); diff != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDateHistogram_DoesNotRegroup(t *testing.T) {
	t.Parallel()

	revs := []revision.Record{
		rec("A", 1, "2020-01-01T00:00:00Z"),
		rec("A", 1, "2020-01-02T00:00:00Z"),
		rec("A", 1, "2020-01-01T05:00:00Z"),
	}

	hist := aggregate.BuildDateHistogram(revs)
	assert.Equal(t, []string{"2020-01-01", "2020-01-02", "2020-01-01"}, hist.Labels())
	assert.Equal(t, []int{1, 1, 1}, hist.Values())
}

func TestBuildDateHistogram_OldestFirst(t *testing.T) {
	t.Parallel()

	revs := []revision.Record{
		rec("A", 1, "2020-01-01T00:00:00Z"),
		rec("B", 1, "2020-01-01T09:00:00Z"),
		rec("A", 1, "2020-01-03T00:00:00Z"),
	}

	hist := aggregate.BuildDateHistogram(revs)
	assert.Equal(t, []string{"2020-01-01", "2020-01-03"}, hist.Labels())
	assert.Equal(t, []int{2, 1}, hist.Values())
}

func TestBuildUserEditCounts_Properties(t *testing.T) {
	t.Parallel()

	revs := history()
	counts := aggregate.BuildUserEditCounts(revs, aggregate.Options{})

	assert.Equal(t, len(revs), counts.Total())

	distinct := map[string]bool{}
	for _, r := range revs {
		distinct[r.User] = true
	}

	got := map[string]bool{}
	for _, uc := range counts {
		assert.False(t, got[uc.User], "user %q emitted twice", uc.User)
		got[uc.User] = true
	}

	assert.Equal(t, distinct, got)

	// Byte-wise order puts upper case before lower case.
	assert.Equal(t, []string{"Bob", "Carol", "Zed", "alice"}, counts.Labels())
	assert.Equal(t, []int{3, 1, 2, 1}, counts.Values())
}

func TestSortedByUser_Stable(t *testing.T) {
	t.Parallel()

	revs := []revision.Record{
		rec("B", 1, "2020-01-03T00:00:00Z"),
		rec("A", 2, "2020-01-03T00:00:00Z"),
		rec("B", 3, "2020-01-02T00:00:00Z"),
		rec("A", 4, "2020-01-01T00:00:00Z"),
		rec("A", 5, "2020-01-01T00:00:00Z"),
	}
	before := append([]revision.Record(nil), revs...)

	sorted := aggregate.SortedByUser(revs)

	sizes := make([]int, len(sorted))
	for i, r := range sorted {
		sizes[i] = r.Size
	}

	assert.Equal(t, []int{2, 4, 5, 1, 3}, sizes)
	assert.Equal(t, before, revs, "input must not be modified")
}

func TestBuildUserEditCounts_CollapseSingleEdits(t *testing.T) {
	t.Parallel()

	counts := aggregate.BuildUserEditCounts(history(), aggregate.Options{CollapseSingleEdits: true})

	want := aggregate.UserEditCounts{
		{User: aggregate.SingleEditsLabel, Count: 2, Synthetic: true},
		{User: "Bob", Count: 3},
		{User: "Zed", Count: 2},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("collapsed counts mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildUserEditCounts_CollapseWithoutSingles(t *testing.T) {
	t.Parallel()

	revs := []revision.Record{
		rec("A", 1, "2020-01-01T00:00:00Z"),
		rec("A", 1, "2020-01-01T00:00:00Z"),
	}

	counts := aggregate.BuildUserEditCounts(revs, aggregate.Options{CollapseSingleEdits: true})
	assert.Equal(t, aggregate.UserEditCounts{{User: "A", Count: 2}}, counts)
}

func TestExpand_Idempotent(t *testing.T) {
	t.Parallel()

	revs := history()

	hist := aggregate.BuildDateHistogram(revs)
	if diff := cmp.Diff(hist, aggregate.BuildDateHistogram(hist.Expand())); diff != "" {
		t.Errorf("date histogram not idempotent (-want +got):\n%s", diff)
	}

	for _, opts := range []aggregate.Options{{}, {CollapseSingleEdits: true}} {
		counts := aggregate.BuildUserEditCounts(revs, opts)
		again := aggregate.BuildUserEditCounts(counts.Expand(), opts)

		if diff := cmp.Diff(counts, again); diff != "" {
			t.Errorf("user counts not idempotent with %+v (-want +got):\n%s", opts, diff)
		}
	}

	series := aggregate.BuildSizeSeries(revs)
	if diff := cmp.Diff(series, aggregate.BuildSizeSeries(series.Expand())); diff != "" {
		t.Errorf("size series not idempotent (-want +got):\n%s", diff)
	}
}

func TestUserEditCounts_LabelLikeRealUser(t *testing.T) {
	t.Parallel()

	revs := []revision.Record{
		rec("Single Edits", 1, "2020-01-02T00:00:00Z"),
		rec("Single Edits", 2, "2020-01-01T00:00:00Z"),
		rec("X", 3, "2020-01-01T00:00:00Z"),
	}

	plain := aggregate.BuildUserEditCounts(revs, aggregate.Options{})
	assert.Equal(t, aggregate.UserEditCounts{{User: "Single Edits", Count: 2}, {User: "X", Count: 1}}, plain)

	if diff := cmp.Diff(plain, aggregate.BuildUserEditCounts(plain.Expand(), aggregate.Options{})); diff != "" {
		t.Errorf("plain counts not idempotent (-want +got):\n%s", diff)
	}

	collapsed := aggregate.BuildUserEditCounts(revs, aggregate.Options{CollapseSingleEdits: true})
	assert.Equal(t, []string{aggregate.SingleEditsLabel, "Single Edits"}, collapsed.Labels())
	assert.Equal(t, []int{1, 2}, collapsed.Values())
}

func TestUserEditCounts_BracketedUserNotExpandedAsBucket(t *testing.T) {
	t.Parallel()

	counts := aggregate.UserEditCounts{{User: aggregate.SingleEditsLabel, Count: 2}}

	for _, r := range counts.Expand() {
		assert.Equal(t, aggregate.SingleEditsLabel, r.User)
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	tables := aggregate.Build(revision.ArticleRevisionSet{PageID: 1, Revisions: exampleRevisions()}, aggregate.Options{})

	assert.Equal(t, []aggregate.Row{{"A", 100}, {"A", 150}, {"B", 80}}, tables.Sizes.Rows())
	assert.Equal(t, []aggregate.Row{{"2020-01-01", 2}, {"2020-01-02", 1}}, tables.Dates.Rows())
	assert.Equal(t, []aggregate.Row{{"A", 2}, {"B", 1}}, tables.Users.Rows())
	assert.Equal(t, []int{100, 150, 80}, tables.Sizes.Values())
	assert.Equal(t, []string{"A", "A", "B"}, tables.Sizes.Labels())
}
