package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/mediawiki"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/report"
	"github.com/Sumatoshi-tech/wikirevs/pkg/revision"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	collapseParam   = "collapse_single_edits"
)

type loadRequest struct {
	Title string `json:"title"`
}

type loadResponse struct {
	RequestID string          `json:"request_id"`
	Status    session.Status  `json:"status"`
	Document  report.Document `json:"document"`
}

type tablesResponse struct {
	Title string          `json:"title"`
	Sizes []aggregate.Row `json:"sizes"`
	Dates []aggregate.Row `json:"dates"`
	Users []aggregate.Row `json:"users"`
}

type errorResponse struct {
	Error  string         `json:"error"`
	Status session.Status `json:"status"`
}

// httpStatus maps a load outcome to a response code.
func httpStatus(snap session.Snapshot, err error) int {
	switch {
	case err == nil && snap.Status.Kind == session.KindNotFound:
		return http.StatusNotFound
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.Is(err, mediawiki.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.Is(err, mediawiki.ErrTransport),
		errors.Is(err, revision.ErrMalformedInput),
		errors.Is(err, revision.ErrAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	if title, ok := c.GetQuery("title"); ok {
		_, err := s.session.Load(ctx, title)
		if err != nil {
			s.logger.DebugContext(ctx, "dashboard load failed", "title", title, "error", err)
		}
	}

	set := revision.ArticleRevisionSet{Revisions: []revision.Record{}}
	tables := aggregate.Build(set, s.session.AggregateOptions())

	if snap, ok := s.session.Current(); ok {
		set, tables = snap.Set, snap.Tables
	}

	cfg := s.charts
	cfg.Logger = s.logger

	if tab := c.Query("tab"); charts.ValidTab(tab) {
		cfg.ActiveTab = tab
	}

	var buf bytes.Buffer

	err := charts.Dashboard(set, tables, s.session.LastStatus(), cfg).Render(&buf)
	if err != nil {
		s.logger.ErrorContext(ctx, "render dashboard", "error", err)
		c.String(http.StatusInternalServerError, "render dashboard: %v", err)

		return
	}

	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) handleLoad(c *gin.Context) {
	var req loadRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Status: s.session.LastStatus()})

		return
	}

	ctx := c.Request.Context()
	snap, loadErr := s.session.Load(ctx, req.Title)
	code := httpStatus(snap, loadErr)

	if loadErr != nil {
		c.JSON(code, errorResponse{Error: loadErr.Error(), Status: snap.Status})

		return
	}

	c.JSON(code, loadResponse{
		RequestID: observability.RequestIDFrom(ctx),
		Status:    snap.Status,
		Document:  report.NewDocument(snap),
	})
}

func (s *Server) handleTables(c *gin.Context) {
	snap, ok := s.session.Current()
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no article loaded", Status: s.session.LastStatus()})

		return
	}

	users := snap.Tables.Users

	if raw, set := c.GetQuery(collapseParam); set {
		collapse, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: collapseParam + " must be a boolean", Status: snap.Status})

			return
		}

		users = aggregate.BuildUserEditCounts(snap.Set.Revisions, aggregate.Options{CollapseSingleEdits: collapse})
	}

	c.JSON(http.StatusOK, tablesResponse{
		Title: snap.Set.Title,
		Sizes: snap.Tables.Sizes.Rows(),
		Dates: snap.Tables.Dates.Rows(),
		Users: users.Rows(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.LastStatus())
}
