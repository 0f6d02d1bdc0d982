package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/config"
	"github.com/Sumatoshi-tech/wikirevs/pkg/mediawiki"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/server"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

const einsteinBody = `{"batchcomplete":"","query":{"pageids":["736"],"pages":{"736":{"pageid":736,"ns":0,` +
	`"title":"Albert Einstein","revisions":[` +
	`{"user":"B","timestamp":"2020-01-02T09:00:00Z","size":80},` +
	`{"user":"A","timestamp":"2020-01-01T12:00:00Z","size":150},` +
	`{"user":"C","timestamp":"2020-01-01T10:00:00Z","size":100}]}}}}`

const missingBody = `{"batchcomplete":"","query":{"pageids":["-1"],"pages":{"-1":{"ns":0,"title":"Nope","missing":""}}}}`

// fakeWiki answers "Albert Einstein", reports everything else missing and
// fails with 503 for "Outage".
func fakeWiki(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		switch hr.URL.Query().Get("titles") {
		case "Albert Einstein":
			_, _ = io.WriteString(rw, einsteinBody)
		case "Outage":
			rw.WriteHeader(http.StatusServiceUnavailable)
		case "Garbage":
			_, _ = io.WriteString(rw, `{"query":`)
		default:
			_, _ = io.WriteString(rw, missingBody)
		}
	}))
	t.Cleanup(srv.Close)

	return srv.URL + "/w/api.php"
}

type harness struct {
	srv     *server.Server
	session *session.Session
	spans   *tracetest.InMemoryExporter
}

func newHarness(t *testing.T, opts server.Options) *harness {
	t.Helper()

	client, err := mediawiki.NewClient(mediawiki.Options{Endpoint: fakeWiki(t), Timeout: 5 * time.Second})
	require.NoError(t, err)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	sess := session.New(client, session.Options{})
	opts.Session = sess
	opts.Tracer = tp.Tracer("test")

	if opts.Charts.ActiveTab == "" {
		opts.Charts = charts.DefaultConfig()
	}

	return &harness{srv: server.New(opts), session: sess, spans: exporter}
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequestWithContext(context.Background(), method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestDashboard_Idle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	rec := h.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "No article loaded yet.")
	assert.Contains(t, rec.Body.String(), `action="/"`)
	assert.NotEmpty(t, rec.Header().Get(observability.RequestIDHeader))
}

func TestDashboard_LoadsTitleQuery(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	rec := h.do(t, http.MethodGet, "/?title=Albert+Einstein&tab=calendar", "")

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Displaying data for the last 3 edits")
	assert.Contains(t, body, `id="charts-panel-calendar" data-tab-panel="calendar"
    class="tab-panel active`)

	snap, ok := h.session.Current()
	require.True(t, ok)
	assert.Equal(t, "Albert Einstein", snap.Set.Title)
}

func TestDashboard_TransportErrorKeepsCurrent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	h.do(t, http.MethodGet, "/?title=Albert+Einstein", "")

	rec := h.do(t, http.MethodGet, "/?title=Outage", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not reach Wikipedia")
	assert.Contains(t, rec.Body.String(), "Percentage of Edits by User", "previous charts stay visible")
}

func TestAPILoad(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		body string
		code int
		kind session.Kind
	}{
		"found":       {`{"title":"Albert Einstein"}`, http.StatusOK, session.KindFound},
		"not found":   {`{"title":"Nope"}`, http.StatusNotFound, session.KindNotFound},
		"empty title": {`{"title":"  "}`, http.StatusBadRequest, session.KindInvalid},
		"transport":   {`{"title":"Outage"}`, http.StatusBadGateway, session.KindTransport},
		"malformed":   {`{"title":"Garbage"}`, http.StatusBadGateway, session.KindMalformed},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, server.Options{})
			rec := h.do(t, http.MethodPost, "/api/load", tc.body)
			require.Equal(t, tc.code, rec.Code, rec.Body.String())

			status, ok := decode(t, rec)["status"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, string(tc.kind), status["kind"])
		})
	}
}

func TestAPILoad_FoundDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	rec := h.do(t, http.MethodPost, "/api/load", `{"title":"Albert Einstein"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, rec.Header().Get(observability.RequestIDHeader), out["request_id"])

	doc, ok := out["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Albert Einstein", doc["title"])
	assert.Len(t, doc["users"], 3)
}

func TestAPILoad_BadBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	rec := h.do(t, http.MethodPost, "/api/load", `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPITables(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})

	rec := h.do(t, http.MethodGet, "/api/tables", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing loaded yet")

	h.do(t, http.MethodPost, "/api/load", `{"title":"Albert Einstein"}`)

	rec = h.do(t, http.MethodGet, "/api/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, []any{[]any{"2020-01-02", float64(1)}, []any{"2020-01-01", float64(2)}}, out["dates"])
	assert.Equal(t, []any{[]any{"A", float64(1)}, []any{"B", float64(1)}, []any{"C", float64(1)}}, out["users"])

	rec = h.do(t, http.MethodGet, "/api/tables?collapse_single_edits=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{[]any{aggregate.SingleEditsLabel, float64(3)}}, decode(t, rec)["users"])

	rec = h.do(t, http.MethodGet, "/api/tables?collapse_single_edits=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIStatus(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})

	assert.Equal(t, "idle", decode(t, h.do(t, http.MethodGet, "/api/status", ""))["kind"])

	h.do(t, http.MethodPost, "/api/load", `{"title":"Nope"}`)

	out := decode(t, h.do(t, http.MethodGet, "/api/status", ""))
	assert.Equal(t, "not_found", out["kind"])
	assert.Equal(t, "Article not found. Is the title spelled correctly?", out["message"])
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{
		ReadyChecks: []observability.ReadyCheck{func(context.Context) error { return errors.New("warming up") }},
	})

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/metrics", "").Code, "no metrics handler configured")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	mp, handler, err := observability.PrometheusProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	h := newHarness(t, server.Options{RED: red, MetricsHandler: handler})
	h.do(t, http.MethodGet, "/api/status", "")

	rec := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wikirevs_requests_total")
	assert.Contains(t, rec.Body.String(), `op="GET /api/status"`)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{CORSOrigins: []string{"https://example.org"}})

	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/status", http.NoBody)
	req.Header.Set("Origin", "https://example.org")

	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTracing_OneServerSpanPerRequest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})
	h.do(t, http.MethodGet, "/api/status", "")

	spans := h.spans.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/status", spans[0].Name)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, server.Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- h.srv.Serve(ctx, ln, config.ServerConfig{
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		})
	}()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+ln.Addr().String()+"/healthz", http.NoBody)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		resp, doErr := http.DefaultClient.Do(req)
		if doErr != nil {
			return false
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
