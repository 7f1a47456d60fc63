package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func serveLogged(t *testing.T, target string, h echo.HandlerFunc) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLog(zerolog.New(&buf)))
	e.GET("/api/auth/confirm-email", h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestRequestLog_OmitsQueryString(t *testing.T) {
	entry := serveLogged(t, "/api/auth/confirm-email?userId=1&token=s3cret", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if entry["path"] != "/api/auth/confirm-email" || entry["route"] != "/api/auth/confirm-email" {
		t.Fatalf("unexpected path fields: %v", entry)
	}
	if entry["status"] != float64(http.StatusOK) || entry["level"] != "info" {
		t.Fatalf("unexpected status or level: %v", entry)
	}
	raw, _ := json.Marshal(entry)
	if strings.Contains(string(raw), "s3cret") {
		t.Fatalf("token leaked into the log: %s", raw)
	}
}

func TestRequestLog_LevelFollowsStatus(t *testing.T) {
	entry := serveLogged(t, "/api/auth/confirm-email", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})
	if entry["level"] != "warn" || entry["status"] != float64(http.StatusBadRequest) {
		t.Fatalf("expected warn/400, got %v", entry)
	}

	entry = serveLogged(t, "/api/auth/confirm-email", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})
	if entry["level"] != "error" {
		t.Fatalf("expected error level, got %v", entry)
	}
}
