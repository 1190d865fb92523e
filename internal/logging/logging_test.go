package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput points the global logger at a buffer for the duration of f.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	old := defaultLogger
	defaultLogger = New(&buf, LevelDebug, FormatJSON)
	defer func() { defaultLogger = old }()

	f()
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("TEXT") != FormatText {
		t.Error("ParseFormat(TEXT) should be FormatText")
	}
	if ParseFormat("yaml") != FormatJSON {
		t.Error("unknown format should fall back to JSON")
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn, FormatText)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing")
	}
}

func TestNewTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelInfo, FormatJSON).Info("tick")

	out := buf.String()
	i := strings.Index(out, `"time":"`)
	if i < 0 {
		t.Fatalf("no time field in %s", out)
	}
	stamp := out[i+len(`"time":"`):]
	stamp = stamp[:strings.Index(stamp, `"`)]
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("time %q is not RFC3339: %v", stamp, err)
	}
}

func TestInitLoggerSetsDefault(t *testing.T) {
	var buf bytes.Buffer
	old := defaultLogger
	defer func() {
		defaultLogger = old
		slog.SetDefault(old)
	}()

	InitLogger(&buf, LevelInfo, FormatJSON)
	slog.Info("through slog")
	if !strings.Contains(buf.String(), "through slog") {
		t.Error("slog default should route to InitLogger writer")
	}
	if GetLogger() != defaultLogger {
		t.Error("GetLogger should return the global logger")
	}
}

func TestLoggerFromContext(t *testing.T) {
	out := captureLogOutput(func() {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithJobID(ctx, "job-9")
		InfoContext(ctx, "hello")
	})

	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"job_id":"job-9"`) {
		t.Errorf("context ids missing: %s", out)
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestProviderAttempt(t *testing.T) {
	out := captureLogOutput(func() {
		ProviderAttempt(context.Background(), "bibleapi", "gn:1:nvi", "ok", 120*time.Millisecond, nil)
	})
	if !strings.Contains(out, `"level":"DEBUG"`) || !strings.Contains(out, `"provider":"bibleapi"`) {
		t.Errorf("unexpected success log: %s", out)
	}

	out = captureLogOutput(func() {
		ProviderAttempt(context.Background(), "abibliadigital", "gn:1:nvi", "error", time.Second, errors.New("boom"))
	})
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("unexpected failure log: %s", out)
	}
}

func TestDomainEvents(t *testing.T) {
	out := captureLogOutput(func() {
		CacheEvent(context.Background(), "memory", "hit", "sl:23:nvi")
		CacheWriteFailed("sl:23:nvi", errors.New("disk full"))
		JobEvent("j1", "warm", "completed", "succeeded", 3)
		WebSocketEvent("connect", 2)
		ServerStartup("api", "http", 8080)
		SecurityEvent("auth_failed", "api", "remote_addr", "10.0.0.1")
	})

	for _, want := range []string{
		`"msg":"cache_event"`, `"tier":"memory"`,
		`"msg":"cache_write_failed"`, `"error":"disk full"`,
		`"msg":"job_event"`, `"succeeded":3`,
		`"msg":"websocket_event"`,
		`"msg":"server_startup"`, `"port":8080`,
		`"msg":"security_event"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rw.statusCode)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("recorder code = %d, want 404", rec.Code)
	}
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack on a recorder should fail")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Errorf("generated request id %q is not a UUID", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Error("response header should echo the request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "given" {
		t.Errorf("request id = %q, want given", seen)
	}
}

func TestCombinedMiddleware(t *testing.T) {
	out := captureLogOutput(func() {
		h := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chapters/gn/1", nil))
	})

	for _, want := range []string{`"msg":"http_request"`, `"status_code":418`, `"path":"/chapters/gn/1"`, `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
