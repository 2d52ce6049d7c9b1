package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Output: &buf, Component: ComponentStats}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_Component(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.Info("hello", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "component=stats") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentRefresh).Warn("switched")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=refresh") {
		t.Fatalf("expected a single refresh component, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)
	logger.Info("dropped")
	logger.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}
	logger.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected error output, got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("expected fallback logger, got component %q", got)
	}
	logger, _ := newBufferLogger(slog.LevelInfo)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the stored logger")
	}
}

func TestMiddlewareChain(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	h := Middleware(logger)(ComponentMiddleware(ComponentProxy)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		}))))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sheets", nil))
	out := buf.String()
	for _, want := range []string{"component=proxy", "request_id=req_1", "inside"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestStructuredLogger(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)
	sl := NewStructuredLogger(logger)
	req := httptest.NewRequest(http.MethodGet, "/api/stats/ytd?start_year=2024", nil)

	sl.LogHTTPEnd(context.Background(), req, "req_2", http.StatusServiceUnavailable, 12, "10.0.0.1")
	out := buf.String()
	for _, want := range []string{"level=ERROR", "status_code=503", "request_id=req_2", "component=http", "query=\"start_year=2024\""} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	sl.LogError(context.Background(), "refresh failed", errors.New("boom"), ComponentRefresh, OpRefresh, NewFields().WithDataset(3, "unavailable", 10))
	out = buf.String()
	for _, want := range []string{"component=refresh", "error=boom", "operation=refresh", "version=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
