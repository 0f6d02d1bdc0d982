package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
)

const unmatchedRoute = "unmatched"

func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return c.Request.Method + " " + path
	}

	return unmatchedRoute
}

// redMetrics records one request, its duration and in-flight count per
// route pattern. Server errors count as errors.
func redMetrics(red *observability.REDMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		op := routeOf(c)
		start := time.Now()

		done := red.TrackInflight(ctx, op)
		defer done()

		c.Next()

		status := observability.StatusOK
		if c.Writer.Status() >= http.StatusInternalServerError {
			status = observability.StatusError
		}

		red.RecordRequest(ctx, op, status, time.Since(start))
	}
}

// requestLogger logs every request at debug level and failures at warn.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed", time.Since(start),
		)
	}
}
