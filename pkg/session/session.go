// Package session holds the currently displayed article and guards it
// against out-of-order fetch completions.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

// ErrStale is returned by Load when a newer load was issued while this one
// was in flight. The newer load owns the session.
var ErrStale = errors.New("load superseded by a newer request")

// Fetcher retrieves the revision history of an article.
type Fetcher interface {
	FetchRevisions(ctx context.Context, title string) (revision.ArticleRevisionSet, error)
}

// Options configures a Session.
type Options struct {
	Aggregate aggregate.Options
	Logger    *slog.Logger
	Metrics   *observability.FetchMetrics
	// Now overrides the clock used for LoadedAt.
	Now func() time.Time
}

// Snapshot is one committed load: the revision set, its tables and status.
type Snapshot struct {
	Seq      uint64                      `json:"seq"       yaml:"seq"`
	Query    string                      `json:"query"     yaml:"query"`
	Set      revision.ArticleRevisionSet `json:"set"       yaml:"set"`
	Tables   aggregate.Tables            `json:"tables"    yaml:"tables"`
	Status   Status                      `json:"status"    yaml:"status"`
	LoadedAt time.Time                   `json:"loaded_at" yaml:"loaded_at"`
}

// Session is the process-wide holder of the current snapshot.
type Session struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
	seq     atomic.Uint64

	mu      sync.RWMutex
	current *Snapshot
	status  Status
}

// New creates an empty session backed by fetcher.
func New(fetcher Fetcher, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		fetcher: fetcher,
		opts:    opts,
		logger:  observability.LoggerOrDefault(opts.Logger),
		status:  IdleStatus(),
	}
}

// AggregateOptions returns the options tables are built with.
func (s *Session) AggregateOptions() aggregate.Options {
	return s.opts.Aggregate
}

// Load fetches title and, unless a newer Load was issued meanwhile, makes the
// result current. Not-found articles are committed like any other result.
// On a fetch error the current snapshot is kept, the latest status reports
// the failure and the error is returned with a snapshot carrying that status.
func (s *Session) Load(ctx context.Context, title string) (Snapshot, error) {
	seq := s.seq.Add(1)

	set, fetchErr := s.fetcher.FetchRevisions(ctx, title)

	status := StatusFor(set, fetchErr)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq.Load() {
		s.opts.Metrics.RecordStale(ctx)
		s.logger.DebugContext(ctx, "discarding stale load", "title", title, "seq", seq, "latest", s.seq.Load())

		return Snapshot{Seq: seq, Query: title, Status: status}, ErrStale
	}

	s.status = status

	if fetchErr != nil {
		s.logger.InfoContext(ctx, "load failed", "title", title, "seq", seq, "kind", status.Kind, "error", fetchErr)

		return Snapshot{Seq: seq, Query: title, Status: status}, fetchErr
	}

	snap := Snapshot{
		Seq:      seq,
		Query:    title,
		Set:      set,
		Tables:   aggregate.Build(set, s.opts.Aggregate),
		Status:   status,
		LoadedAt: s.opts.Now(),
	}
	s.current = &snap

	s.logger.InfoContext(ctx, "article loaded",
		"title", title, "seq", seq, "kind", status.Kind, "revisions", set.Len())

	return snap, nil
}

// Current returns the committed snapshot, if any.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Snapshot{}, false
	}

	return *s.current, true
}

// LastStatus returns the status of the latest non-stale load, which may be
// a failure that left Current unchanged.
func (s *Session) LastStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Issued returns the sequence number of the latest load started.
func (s *Session) Issued() uint64 {
	return s.seq.Load()
}
