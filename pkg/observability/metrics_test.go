package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
)

func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumInt64(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	red.RecordRequest(ctx, "load", observability.StatusOK, 100*time.Millisecond)
	red.RecordRequest(ctx, "load", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumInt64(t, findMetric(rm, "wikirevs.requests.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "wikirevs.errors.total")))
	require.NotNil(t, findMetric(rm, "wikirevs.request.duration.seconds"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "load")
	assert.Equal(t, int64(1), sumInt64(t, findMetric(collectMetrics(t, reader), "wikirevs.inflight.requests")))

	done()
	assert.Equal(t, int64(0), sumInt64(t, findMetric(collectMetrics(t, reader), "wikirevs.inflight.requests")))
}

func TestFetchMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeter(t)

	fm, err := observability.NewFetchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	fm.RecordFetch(ctx, observability.OutcomeFound, 42, 20*time.Millisecond)
	fm.RecordFetch(ctx, observability.OutcomeNotFound, 0, 10*time.Millisecond)
	fm.RecordCache(ctx, true)
	fm.RecordCache(ctx, false)
	fm.RecordCache(ctx, false)
	fm.RecordStale(ctx)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumInt64(t, findMetric(rm, "wikirevs.fetch.total")))
	assert.Equal(t, int64(42), sumInt64(t, findMetric(rm, "wikirevs.fetch.revisions.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "wikirevs.cache.hits.total")))
	assert.Equal(t, int64(2), sumInt64(t, findMetric(rm, "wikirevs.cache.misses.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "wikirevs.session.stale.total")))
}

func TestFetchMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var fm *observability.FetchMetrics

	assert.NotPanics(t, func() {
		fm.RecordFetch(context.Background(), observability.OutcomeError, 0, time.Second)
		fm.RecordCache(context.Background(), true)
		fm.RecordStale(context.Background())
	})
}
