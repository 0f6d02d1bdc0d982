package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/report"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

// Tool name constants.
const (
	ToolNameLoad       = "wiki_load_revisions"
	ToolNameAggregates = "wiki_aggregates"
	ToolNameStatus     = "wiki_status"
)

// ErrNoArticle indicates no article has been loaded into the session yet.
var ErrNoArticle = errors.New("no article loaded; pass a title")

// LoadInput is the input schema for the wiki_load_revisions tool.
type LoadInput struct {
	Title string `json:"title" jsonschema:"article title, e.g. Albert Einstein"`
}

// AggregatesInput is the input schema for the wiki_aggregates tool.
type AggregatesInput struct {
	Title               string `json:"title,omitempty"                 jsonschema:"optional article to load first (default: current article)"`
	CollapseSingleEdits *bool  `json:"collapse_single_edits,omitempty" jsonschema:"merge users with exactly one edit into a single bucket"`
}

// StatusInput is the input schema for the wiki_status tool.
type StatusInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// LoadResult is returned by wiki_load_revisions.
type LoadResult struct {
	RequestID string         `json:"request_id"`
	Status    session.Status `json:"status"`
	Summary   report.Summary `json:"summary"`
}

// AggregatesResult is returned by wiki_aggregates.
type AggregatesResult struct {
	Title string          `json:"title"`
	Sizes []aggregate.Row `json:"sizes"`
	Dates []aggregate.Row `json:"dates"`
	Users []aggregate.Row `json:"users"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// load runs a session load and reports failures as tool errors carrying the
// status message.
func (s *Server) load(ctx context.Context, title string) (session.Snapshot, error) {
	snap, err := s.session.Load(ctx, title)
	if err != nil {
		s.logger.DebugContext(ctx, "mcp load failed", "title", title, "error", err)

		if errors.Is(err, session.ErrStale) {
			return snap, err
		}

		return snap, fmt.Errorf("%s: %w", snap.Status.Message, err)
	}

	return snap, nil
}

func (s *Server) handleLoad(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input LoadInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	snap, err := s.load(ctx, input.Title)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(LoadResult{
		RequestID: observability.NewRequestID(),
		Status:    snap.Status,
		Summary:   report.Summarize(snap.Set),
	})
}

func (s *Server) handleAggregates(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AggregatesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	var snap session.Snapshot

	if input.Title != "" {
		loaded, err := s.load(ctx, input.Title)
		if err != nil {
			return errorResult(err)
		}

		snap = loaded
	} else {
		current, ok := s.session.Current()
		if !ok {
			return errorResult(ErrNoArticle)
		}

		snap = current
	}

	users := snap.Tables.Users
	if input.CollapseSingleEdits != nil {
		users = aggregate.BuildUserEditCounts(snap.Set.Revisions,
			aggregate.Options{CollapseSingleEdits: *input.CollapseSingleEdits})
	}

	return jsonResult(AggregatesResult{
		Title: snap.Set.Title,
		Sizes: snap.Tables.Sizes.Rows(),
		Dates: snap.Tables.Dates.Rows(),
		Users: users.Rows(),
	})
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ StatusInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.session.LastStatus())
}
