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

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Handler:   slog.NewTextHandler(buf, nil),
		Component: component,
	})
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP})

	var got *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/records", nil))
	if got != logger {
		t.Error("FromContext must return the logger the middleware injected")
	}
}

func TestFromContextFallback(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil || got.Logger == nil {
		t.Fatal("FromContext without an injected logger must return a usable default")
	}
}

func TestLogErrorIncludesOperation(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))

	sl.LogError(context.Background(), "CSV export failed mid-stream",
		errors.New("disk full"), ComponentHTTP, OpExport, NewFields())

	out := buf.String()
	if !strings.Contains(out, "operation=export") {
		t.Errorf("log line missing operation field: %s", out)
	}
	if !strings.Contains(out, "disk full") {
		t.Errorf("log line missing error detail: %s", out)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
		req := httptest.NewRequest(http.MethodGet, "/records", nil)

		sl.LogHTTPEnd(context.Background(), req, tt.status, 3, "10.0.0.1")
		if out := buf.String(); !strings.Contains(out, tt.level) {
			t.Errorf("status %d logged as %s, want %s", tt.status, out, tt.level)
		}
	}
}

func TestLogRecordCreatedFields(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentLedger))

	sl.LogRecordCreated(context.Background(), 7, "groceries", "42.50", "Food", "must")

	out := buf.String()
	for _, want := range []string{"record_id=7", "category=Food", "amount=42.50", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
