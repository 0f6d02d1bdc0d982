// Package mediawiki fetches article revision histories from a MediaWiki
// api.php endpoint such as https://en.wikipedia.org/w/api.php.
package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
)

const (
	// DefaultEndpoint is the English Wikipedia API.
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

	// DefaultTimeout bounds one round trip including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the wiki operators.
	DefaultUserAgent = "wikirevs/dev (https://github.com/Sumatoshi-tech/wikirevs)"

	// maxResponseBytes caps the body read; rvlimit=max answers stay far below.
	maxResponseBytes = 32 << 20

	spanFetchRevisions = "mediawiki.fetch_revisions"
)

var (
	// ErrTransport wraps every failure to obtain a response body: dial errors,
	// timeouts, non-2xx statuses and truncated reads.
	ErrTransport = errors.New("mediawiki transport failure")

	// ErrEmptyTitle is returned for a blank title; no request is made.
	ErrEmptyTitle = errors.New("article title is empty")

	// ErrInvalidEndpoint is returned by NewClient for a non-http(s) endpoint.
	ErrInvalidEndpoint = errors.New("invalid mediawiki endpoint")
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Endpoint   string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Cache, when set, answers repeated titles without a round trip.
	Cache   *ResponseCache
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.FetchMetrics
}

// Client fetches revision histories. It is safe for concurrent use.
type Client struct {
	endpoint  *url.URL
	userAgent string
	http      *http.Client
	cache     *ResponseCache
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.FetchMetrics
	group     singleflight.Group
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	raw := opts.Endpoint
	if raw == "" {
		raw = DefaultEndpoint
	}

	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("mediawiki")
	}

	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      httpClient,
		cache:     opts.Cache,
		logger:    observability.LoggerOrDefault(opts.Logger),
		tracer:    tracer,
		metrics:   opts.Metrics,
	}, nil
}

// Endpoint returns the API URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// FetchRevisions returns the revision history of title, newest first. A title
// the wiki does not know yields revision.NotFound and a nil error.
// Concurrent calls for the same title share one round trip.
func (c *Client) FetchRevisions(ctx context.Context, title string) (revision.ArticleRevisionSet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return revision.ArticleRevisionSet{}, ErrEmptyTitle
	}

	key := NormalizeTitle(title)

	if c.cache != nil {
		set, ok := c.cache.Get(key)
		c.metrics.RecordCache(ctx, ok)

		if ok {
			c.logger.DebugContext(ctx, "revision cache hit", "title", key, "revisions", set.Len())

			return set, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		return c.fetch(context.WithoutCancel(ctx), title, key)
	})

	select {
	case <-ctx.Done():
		return revision.ArticleRevisionSet{}, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return revision.ArticleRevisionSet{}, res.Err
		}

		set, _ := res.Val.(revision.ArticleRevisionSet)

		return cloneSet(set), nil
	}
}

func (c *Client) fetch(ctx context.Context, title, key string) (revision.ArticleRevisionSet, error) {
	ctx, span := c.tracer.Start(ctx, spanFetchRevisions,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("wiki.title", key)),
	)
	defer span.End()

	start := time.Now()

	set, err := c.roundTrip(ctx, title)

	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordFetch(ctx, observability.OutcomeError, 0, elapsed)
		c.logger.WarnContext(ctx, "revision fetch failed", "title", key, "error", err, "elapsed", elapsed)

		return revision.ArticleRevisionSet{}, err
	}

	outcome := observability.OutcomeFound
	if !set.Found() {
		outcome = observability.OutcomeNotFound
	}

	span.SetAttributes(
		attribute.String("wiki.outcome", outcome),
		attribute.Int("wiki.revisions", set.Len()),
		attribute.Bool("wiki.truncated", set.Truncated),
	)
	c.metrics.RecordFetch(ctx, outcome, set.Len(), elapsed)
	c.logger.DebugContext(ctx, "revisions fetched",
		"title", key, "outcome", outcome, "revisions", set.Len(), "truncated", set.Truncated, "elapsed", elapsed)

	if c.cache != nil {
		c.cache.Put(key, set)
	}

	return set, nil
}

func (c *Client) roundTrip(ctx context.Context, title string) (revision.ArticleRevisionSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(title), http.NoBody)
	if err != nil {
		return revision.ArticleRevisionSet{}, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return revision.ArticleRevisionSet{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

		return revision.ArticleRevisionSet{}, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return revision.ArticleRevisionSet{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	set, err := revision.DecodeBytes(body)
	if err != nil {
		return revision.ArticleRevisionSet{}, fmt.Errorf("decode %q: %w", title, err)
	}

	return set, nil
}

func (c *Client) requestURL(title string) string {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "revisions")
	q.Set("indexpageids", "1")
	q.Set("titles", title)
	q.Set("rvprop", "user|timestamp|size")
	q.Set("rvlimit", "max")
	q.Set("format", "json")

	u := *c.endpoint
	u.RawQuery = q.Encode()

	return u.String()
}

// NormalizeTitle maps equivalent spellings of a title to one cache key the
// way MediaWiki does: underscores become spaces, runs of spaces collapse and
// the first letter is upper-cased.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(strings.ReplaceAll(title, "_", " ")), " ")
	if title == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(title)

	return string(unicode.ToUpper(r)) + title[size:]
}
