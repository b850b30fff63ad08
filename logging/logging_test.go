package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetWeekKey(t *testing.T) {
	got := getWeekKey(time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC))
	if got != "2026-W01" {
		t.Errorf("getWeekKey = %q, want 2026-W01", got)
	}
}

func TestRotatingLoggerWritesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 0)
	defer rl.Close()

	if _, err := rl.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := filepath.Join(dir, filePrefix+getWeekKey(time.Now())+".log")
	content, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("expected log file %s: %v", expected, err)
	}
	if string(content) != "hello\n" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 16)
	defer rl.Close()

	for i := 0; i < 4; i++ {
		if _, err := rl.Write([]byte("0123456789\n")); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	if len(matches) < 2 {
		t.Errorf("expected size rotation to create numbered files, got %v", matches)
	}
}

func TestRotatingLoggerWeekChange(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 0)
	defer rl.Close()

	current := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }
	rl.Write([]byte("week one\n"))

	current = current.AddDate(0, 0, 7)
	rl.Write([]byte("week two\n"))

	for _, week := range []string{"2026-W10", "2026-W11"} {
		if _, err := os.Stat(filepath.Join(dir, filePrefix+week+".log")); err != nil {
			t.Errorf("expected file for %s: %v", week, err)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 0)

	oldFile := filepath.Join(dir, filePrefix+"2020-W01.log")
	keepFile := filepath.Join(dir, filePrefix+"2026-W01.log")
	otherFile := filepath.Join(dir, "unrelated.log")
	for _, f := range []string{oldFile, keepFile, otherFile} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	os.Chtimes(oldFile, old, old)
	os.Chtimes(otherFile, old, old)

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("expected old log file to be removed")
	}
	if _, err := os.Stat(keepFile); err != nil {
		t.Error("expected recent log file to be kept")
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Error("expected unrelated file to be kept")
	}
}

func TestInitLoggerConsoleOnly(t *testing.T) {
	InitLogger("")
	defer func() { DefaultLoggingService = nil }()

	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		t.Fatal("expected logger to be initialised")
	}
	if DefaultLoggingService.rotating != nil {
		t.Error("expected no rotating file without a directory")
	}
	if err := CleanupOldLogs(); err != nil {
		t.Errorf("CleanupOldLogs without files should be a no-op: %v", err)
	}
}

func TestInitLoggerWithDirectory(t *testing.T) {
	dir := t.TempDir()
	InitLoggerWithOptions(Options{Dir: dir, Level: "debug", RetentionWeeks: 2})
	defer func() {
		Close()
		DefaultLoggingService = nil
	}()

	Info("composer started", "port", "8000")

	matches, _ := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	content, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(content), `"msg":"composer started"`) {
		t.Errorf("expected JSON record in file, got %s", content)
	}
}

func TestPackageHelpersFallback(t *testing.T) {
	DefaultLoggingService = nil
	// must not panic without initialisation
	Info("info")
	Warn("warn")
	Error("error")
	Debug("debug")
}

func TestLoggingMiddleware(t *testing.T) {
	var out strings.Builder
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
			return
		case "/conflict":
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))

	t.Run("health is not logged", func(t *testing.T) {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		if out.Len() != 0 {
			t.Errorf("expected no log for /health, got %s", out.String())
		}
	})

	t.Run("request is logged with status and id", func(t *testing.T) {
		out.Reset()
		req := httptest.NewRequest(http.MethodPost, "/api/cart?x=1", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		logs := out.String()
		for _, want := range []string{"request_id=req-1", "status_code=201", "bytes_written=2", `query="x=1"`, "level=INFO"} {
			if !strings.Contains(logs, want) {
				t.Errorf("expected %q in %s", want, logs)
			}
		}
	})

	t.Run("suggestion lookups are debug only", func(t *testing.T) {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/suggestions?q=am", nil))
		if out.Len() != 0 {
			t.Errorf("expected no info log for suggestions, got %s", out.String())
		}
	})

	t.Run("declined confirmations are logged at warn level", func(t *testing.T) {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/conflict", nil))
		if !strings.Contains(out.String(), "level=WARN") {
			t.Errorf("expected warn level, got %s", out.String())
		}
	})

	t.Run("server errors are logged at error level", func(t *testing.T) {
		out.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
		if !strings.Contains(out.String(), "level=ERROR") {
			t.Errorf("expected error level, got %s", out.String())
		}
	})
}

func TestMultiHandler(t *testing.T) {
	var a, b strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info enabled by first handler")
	}

	logger := slog.New(h).With("component", "cart").WithGroup("g")
	logger.Info("added", "n", 1)

	if !strings.Contains(a.String(), "component=cart") || !strings.Contains(a.String(), "g.n=1") {
		t.Errorf("unexpected first handler output %q", a.String())
	}
	if b.Len() != 0 {
		t.Errorf("error-level handler should not receive info records, got %q", b.String())
	}
}
