package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
)

// PageViewEntry describes one successful read of a portal API page.
type PageViewEntry struct {
	Actor     string
	Role      string
	Path      string
	RequestID string
	Status    int
	Timestamp time.Time
}

// PageViewRecorder persists page views, typically into the audit trail.
type PageViewRecorder interface {
	RecordPageView(entry PageViewEntry) error
}

// PageViewRecorderFunc is a function adapter for PageViewRecorder.
type PageViewRecorderFunc func(entry PageViewEntry) error

func (f PageViewRecorderFunc) RecordPageView(entry PageViewEntry) error {
	return f(entry)
}

// PageView records successful GET requests under /api/v1/. Paths with one of
// the skip prefixes are ignored.
func PageView(logger zerolog.Logger, recorder PageViewRecorder, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if req.Method != http.MethodGet || !strings.HasPrefix(path, "/api/v1/") || hasPrefix(path, skip) {
				return next(c)
			}

			err := next(c)
			status := c.Response().Status
			if err != nil || status >= http.StatusBadRequest {
				return err
			}

			ctx := req.Context()
			entry := PageViewEntry{
				Actor:     auth.ActorFromContext(ctx),
				Path:      path,
				Status:    status,
				Timestamp: time.Now().UTC(),
			}
			if roles := auth.RolesFromContext(ctx); len(roles) > 0 {
				entry.Role = roles[0]
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if recorder != nil {
				if recErr := recorder.RecordPageView(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record page view")
				}
			}
			return nil
		}
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
