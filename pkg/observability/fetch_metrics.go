package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFetchTotal     = "wikirevs.fetch.total"
	metricFetchDuration  = "wikirevs.fetch.duration.seconds"
	metricFetchRevisions = "wikirevs.fetch.revisions.total"
	metricCacheHits      = "wikirevs.cache.hits.total"
	metricCacheMisses    = "wikirevs.cache.misses.total"
	metricStaleDiscarded = "wikirevs.session.stale.total"

	attrOutcome = "outcome"
)

// Fetch outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// FetchMetrics counts wiki fetches, response cache efficiency and stale
// session loads.
type FetchMetrics struct {
	fetchTotal     metric.Int64Counter
	fetchDuration  metric.Float64Histogram
	fetchRevisions metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	staleDiscarded metric.Int64Counter
}

// NewFetchMetrics creates the fetch instruments from the given meter.
func NewFetchMetrics(mt metric.Meter) (*FetchMetrics, error) {
	b := newMetricBuilder(mt)

	fm := &FetchMetrics{
		fetchTotal:     b.counter(metricFetchTotal, "Wiki revision fetches by outcome", "{fetch}"),
		fetchDuration:  b.histogram(metricFetchDuration, "Wiki round trip duration in seconds", "s", durationBucketBoundaries...),
		fetchRevisions: b.counter(metricFetchRevisions, "Revisions received from the wiki", "{revision}"),
		cacheHits:      b.counter(metricCacheHits, "Response cache hits", "{hit}"),
		cacheMisses:    b.counter(metricCacheMisses, "Response cache misses", "{miss}"),
		staleDiscarded: b.counter(metricStaleDiscarded, "Session loads discarded because a newer load was issued", "{load}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return fm, nil
}

// RecordFetch records one completed wiki round trip. It is safe on a nil receiver.
func (fm *FetchMetrics) RecordFetch(ctx context.Context, outcome string, revisions int, duration time.Duration) {
	if fm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))

	fm.fetchTotal.Add(ctx, 1, attrs)
	fm.fetchDuration.Record(ctx, duration.Seconds(), attrs)

	if revisions > 0 {
		fm.fetchRevisions.Add(ctx, int64(revisions))
	}
}

// RecordCache records a response cache lookup. It is safe on a nil receiver.
func (fm *FetchMetrics) RecordCache(ctx context.Context, hit bool) {
	if fm == nil {
		return
	}

	if hit {
		fm.cacheHits.Add(ctx, 1)

		return
	}

	fm.cacheMisses.Add(ctx, 1)
}

// RecordStale records a session load whose result was discarded. It is safe
// on a nil receiver.
func (fm *FetchMetrics) RecordStale(ctx context.Context) {
	if fm == nil {
		return
	}

	fm.staleDiscarded.Add(ctx, 1)
}
