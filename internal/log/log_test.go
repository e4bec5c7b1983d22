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

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithUser("u1").
		WithPurchase("p1", 3).
		WithPeriod(2024, 0).
		WithError(errors.New("boom"))

	if f[FieldUserID] != "u1" || f[FieldPurchaseID] != "p1" || f[FieldRecordCount] != 3 {
		t.Errorf("fields = %v", f)
	}
	if _, ok := f[FieldMonth]; ok {
		t.Error("month 0 should be omitted")
	}
	if f[FieldError] != "boom" {
		t.Errorf("error field = %v, want boom", f[FieldError])
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice() len = %d, want %d", got, 2*len(f))
	}
}

func TestContextLogger(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("FromContext(empty).Component() = %q, want unknown", got)
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext() did not return the stored logger")
	}

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("log output %q missing request id", buf.String())
	}
}

func TestStructuredLogger_LogHTTPEnd_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{500, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(newBufferLogger(&buf))
			sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/x", nil), tt.status, 3, "127.0.0.1")
			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("output %q missing %s", buf.String(), tt.level)
			}
		})
	}
}

func TestStructuredLogger_LogMutation(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf).WithComponent(ComponentHTTP))
	sl.LogMutation(context.Background(), ComponentExpense, OpCreate, "u1", NewFields().WithPurchase("p1", 2))

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Errorf("output %q has %d component fields, want 1", out, n)
	}
	for _, want := range []string{"component=expense", "user_id=u1", "operation=create", "purchase_id=p1", "count=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestStructuredLogger_LogError_SingleComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentHTTP).WithComponent(ComponentIncome)
	NewStructuredLogger(logger).LogError(context.Background(), "write failed", errors.New("disk full"),
		logger.Component(), OpUpdate, nil)

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Errorf("output %q has %d component fields, want 1", out, n)
	}
	if !strings.Contains(out, "component=income") {
		t.Errorf("output %q missing component=income", out)
	}
}
