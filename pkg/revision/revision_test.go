package revision_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

const foundResponse = `{
  "batchcomplete": "",
  "query": {
    "pageids": ["736"],
    "pages": {
      "736": {
        "pageid": 736,
        "ns": 0,
        "title": "Albert Einstein",
        "revisions": [
          {"user": "Alice", "timestamp": "2020-01-02T09:00:00Z", "size": 80},
          {"user": "Bob", "timestamp": "2020-01-01T12:00:00Z", "size": -150},
          {"userhidden": "", "timestamp": "2020-01-01T10:00:00Z", "size": 100}
        ]
      }
    }
  }
}`

func TestNewRecord(t *testing.T) {
	t.Parallel()

	rec, err := revision.NewRecord("A", 100, "2020-01-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, revision.Day("2020-01-01"), rec.Day())

	for _, ts := range []string{"", "2020-01", "20-01-01T00:00:00Z", "2020/01/01", "yyyy-mm-ddT00:00:00Z"} {
		_, err = revision.NewRecord("A", 1, ts)
		require.ErrorIs(t, err, revision.ErrMalformedInput, "timestamp %q", ts)
	}
}

func TestRecordDay_IgnoresOffset(t *testing.T) {
	t.Parallel()

	rec, err := revision.NewRecord("A", 1, "2021-03-04T23:59:59+05:00")
	require.NoError(t, err)
	assert.Equal(t, revision.Day("2021-03-04"), rec.Day())
	assert.Equal(t, time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC), rec.Day().Time())
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	set := revision.NotFound()
	assert.False(t, set.Found())
	assert.Equal(t, revision.NotFoundPageID, set.PageID)
	assert.Empty(t, set.Title)
	assert.Equal(t, 0, set.Len())
	assert.NotNil(t, set.Revisions)
}

func TestDecode_Found(t *testing.T) {
	t.Parallel()

	set, err := revision.Decode(strings.NewReader(foundResponse))
	require.NoError(t, err)

	assert.True(t, set.Found())
	assert.Equal(t, "Albert Einstein", set.Title)
	assert.Equal(t, 736, set.PageID)
	require.Equal(t, 3, set.Len())
	assert.Equal(t, revision.Record{User: "Alice", Size: 80, Timestamp: "2020-01-02T09:00:00Z"}, set.Revisions[0])
	assert.Equal(t, -150, set.Revisions[1].Size)
	assert.Equal(t, revision.HiddenUser, set.Revisions[2].User)
	assert.False(t, set.Truncated)
}

func TestDecode_Missing(t *testing.T) {
	t.Parallel()

	body := `{"query":{"pageids":["-1"],"pages":{"-1":{"ns":0,"title":"Nope","missing":""}}}}`

	set, err := revision.DecodeBytes([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, revision.NotFound(), set)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	body := `{"query":{"pageids":["-1"],"pages":{"-1":{"title":"<>","invalidreason":"bad","invalid":true}}}}`

	set, err := revision.DecodeBytes([]byte(body))
	require.NoError(t, err)
	assert.False(t, set.Found())
}

func TestDecode_Truncated(t *testing.T) {
	t.Parallel()

	body := `{"continue":{"rvcontinue":"20200101|1","continue":"||"},` +
		`"query":{"pageids":["5"],"pages":{"5":{"pageid":5,"title":"T",` +
		`"revisions":[{"user":"A","timestamp":"2020-01-01T00:00:00Z","size":1}]}}}}`

	set, err := revision.DecodeBytes([]byte(body))
	require.NoError(t, err)
	assert.True(t, set.Truncated)
}

func TestDecode_NoRevisions(t *testing.T) {
	t.Parallel()

	body := `{"query":{"pageids":["5"],"pages":{"5":{"pageid":5,"title":"Empty"}}}}`

	set, err := revision.DecodeBytes([]byte(body))
	require.NoError(t, err)
	assert.True(t, set.Found())
	assert.Equal(t, 0, set.Len())
}

func TestDecode_MalformedInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        `<html>`,
		"no query":        `{"batchcomplete":""}`,
		"empty pageids":   `{"query":{"pageids":[],"pages":{}}}`,
		"bad timestamp":   `{"query":{"pageids":["5"],"pages":{"5":{"pageid":5,"title":"T","revisions":[{"user":"A","timestamp":"yesterday","size":1}]}}}}`,
		"string size":     `{"query":{"pageids":["5"],"pages":{"5":{"pageid":5,"title":"T","revisions":[{"user":"A","timestamp":"2020-01-01T00:00:00Z","size":"1"}]}}}}`,
		"missing size":    `{"query":{"pageids":["5"],"pages":{"5":{"pageid":5,"title":"T","revisions":[{"user":"A","timestamp":"2020-01-01T00:00:00Z"}]}}}}`,
		"numeric pageids": `{"query":{"pageids":[5],"pages":{}}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := revision.DecodeBytes([]byte(body))
			require.ErrorIs(t, err, revision.ErrMalformedInput)
		})
	}
}

func TestDecode_APIError(t *testing.T) {
	t.Parallel()

	body := `{"error":{"code":"ratelimited","info":"slow down"}}`

	_, err := revision.DecodeBytes([]byte(body))
	require.ErrorIs(t, err, revision.ErrAPI)
	assert.NotErrorIs(t, err, revision.ErrMalformedInput)
	assert.Contains(t, err.Error(), "ratelimited")
}
