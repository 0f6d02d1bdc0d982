// Package revision defines the normalized revision records of a wiki article
// and decodes them from MediaWiki API responses.
package revision

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundPageID is the page id carried by the not-found sentinel set.
const NotFoundPageID = -1

// HiddenUser labels revisions whose author was suppressed by the wiki.
const HiddenUser = "(username hidden)"

// dayLayout is the literal date prefix every timestamp must start with.
const dayLayout = "2006-01-02"

// dayLen is len("YYYY-MM-DD").
const dayLen = len(dayLayout)

// ErrMalformedInput is returned when revision data cannot be normalized.
var ErrMalformedInput = errors.New("malformed revision input")

// Day is a calendar date in YYYY-MM-DD form, taken verbatim from a timestamp.
type Day string

// Time returns the day as UTC midnight.
func (d Day) Time() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}

	return t
}

// String implements fmt.Stringer.
func (d Day) String() string { return string(d) }

// Record is one historical edit of an article.
type Record struct {
	User      string `json:"user"      yaml:"user"`
	Size      int    `json:"size"      yaml:"size"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// NewRecord builds a record, rejecting timestamps without a date prefix.
func NewRecord(user string, size int, timestamp string) (Record, error) {
	if !hasDayPrefix(timestamp) {
		return Record{}, fmt.Errorf("%w: timestamp %q has no YYYY-MM-DD date", ErrMalformedInput, timestamp)
	}

	return Record{User: user, Size: size, Timestamp: timestamp}, nil
}

// Day returns the literal date components of the timestamp. Time of day and
// any timezone offset are ignored.
func (r Record) Day() Day {
	if len(r.Timestamp) < dayLen {
		return Day(r.Timestamp)
	}

	return Day(r.Timestamp[:dayLen])
}

// ArticleRevisionSet is the revision history of one article as returned by a
// single fetch. A negative PageID marks an article that was not found.
type ArticleRevisionSet struct {
	Title     string   `json:"title"     yaml:"title"`
	PageID    int      `json:"page_id"   yaml:"page_id"`
	Revisions []Record `json:"revisions" yaml:"revisions"`
	// Truncated is set when the wiki holds more revisions than one page returned.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// NotFound returns the sentinel set for an article that does not exist.
func NotFound() ArticleRevisionSet {
	return ArticleRevisionSet{
		PageID:    NotFoundPageID,
		Revisions: []Record{},
	}
}

// Found reports whether the set describes an existing article.
func (s ArticleRevisionSet) Found() bool {
	return s.PageID >= 0
}

// Len returns the number of revisions.
func (s ArticleRevisionSet) Len() int {
	return len(s.Revisions)
}

func hasDayPrefix(ts string) bool {
	if len(ts) < dayLen {
		return false
	}

	for i := range dayLen {
		c := ts[i]

		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}

	return true
}
