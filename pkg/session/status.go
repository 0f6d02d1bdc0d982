package session

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/wikirevs/pkg/mediawiki"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

// Kind classifies the outcome of a load.
type Kind string

// Load outcomes.
const (
	KindIdle      Kind = "idle"
	KindFound     Kind = "found"
	KindNotFound  Kind = "not_found"
	KindTransport Kind = "transport_error"
	KindMalformed Kind = "malformed_response"
	KindInvalid   Kind = "invalid_request"
)

const (
	msgIdle      = "No article loaded yet."
	msgNotFound  = "Article not found. Is the title spelled correctly?"
	msgEmpty     = "Enter an article title."
	msgTransport = "Could not reach Wikipedia: %v"
	msgMalformed = "Wikipedia returned an unexpected response: %v"
)

// Status is the user-facing summary of a load. It is derived from the
// revision set fields and the error class only.
type Status struct {
	Kind      Kind   `json:"kind"                yaml:"kind"`
	Title     string `json:"title,omitempty"     yaml:"title,omitempty"`
	Revisions int    `json:"revisions"           yaml:"revisions"`
	Truncated bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Message   string `json:"message"             yaml:"message"`
}

// OK reports whether the status describes a loaded article.
func (s Status) OK() bool {
	return s.Kind == KindFound
}

// IdleStatus is the status before any load completed.
func IdleStatus() Status {
	return Status{Kind: KindIdle, Message: msgIdle}
}

// StatusFor summarizes a fetch result. A non-nil err takes precedence.
func StatusFor(set revision.ArticleRevisionSet, err error) Status {
	switch {
	case err == nil && set.Found():
		return Status{
			Kind:      KindFound,
			Title:     set.Title,
			Revisions: set.Len(),
			Truncated: set.Truncated,
			Message:   fmt.Sprintf("Displaying data for the last %d edits to article \"%s.\"", set.Len(), set.Title),
		}
	case err == nil:
		return Status{Kind: KindNotFound, Message: msgNotFound}
	case errors.Is(err, mediawiki.ErrEmptyTitle):
		return Status{Kind: KindInvalid, Message: msgEmpty}
	case errors.Is(err, revision.ErrMalformedInput), errors.Is(err, revision.ErrAPI):
		return Status{Kind: KindMalformed, Message: fmt.Sprintf(msgMalformed, err)}
	default:
		return Status{Kind: KindTransport, Message: fmt.Sprintf(msgTransport, err)}
	}
}
