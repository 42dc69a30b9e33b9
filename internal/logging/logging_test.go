package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for level, want := range map[Level]string{
		LevelDebug: "debug",
		LevelInfo:  "info",
		LevelWarn:  "warn",
		LevelError: "error",
		Level(42):  "info",
	} {
		if got := LevelString(level); got != want {
			t.Errorf("LevelString(%v) = %q, want %q", level, got, want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected stderr output, got %s", cfg.Output)
	}
	if !strings.HasSuffix(cfg.FilePath, "glyphkey.log") {
		t.Errorf("unexpected log path %s", cfg.FilePath)
	}
}

func newBufferLogger(t *testing.T, level Level, format Format) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Writer = &buf

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, &buf
}

func TestLoggerWithComponent(t *testing.T) {
	l, buf := newBufferLogger(t, LevelInfo, FormatText)

	l.WithComponent("engine").Info("started")

	if !strings.Contains(buf.String(), "component=engine") {
		t.Errorf("component missing from %q", buf.String())
	}
}

func TestLoggerWithSession(t *testing.T) {
	l, buf := newBufferLogger(t, LevelInfo, FormatText)

	l.WithSession("abc").Info("key")

	if !strings.Contains(buf.String(), "session_id=abc") {
		t.Errorf("session missing from %q", buf.String())
	}
}

func TestRedactTypedText(t *testing.T) {
	l, buf := newBufferLogger(t, LevelInfo, FormatText)

	l.Info("commit", "text", "ɑ", "input", "af", "rule", "date")

	out := buf.String()
	if strings.Contains(out, "ɑ") || strings.Contains(out, "input=af") {
		t.Errorf("typed text leaked: %q", out)
	}
	if !strings.Contains(out, "rule=date") {
		t.Errorf("unrelated attribute redacted: %q", out)
	}
}

func TestDebugKeepsTypedText(t *testing.T) {
	l, buf := newBufferLogger(t, LevelDebug, FormatText)

	l.Debug("commit", "text", "ɑ")

	if !strings.Contains(buf.String(), "text=ɑ") {
		t.Errorf("expected text at debug level, got %q", buf.String())
	}
}

func TestShouldRedact(t *testing.T) {
	for key, want := range map[string]bool{
		"input":    true,
		"Text":     true,
		"code":     true,
		"sequence": true,
		"rule":     false,
		"error":    false,
	} {
		if got := shouldRedact(key); got != want {
			t.Errorf("shouldRedact(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := newBufferLogger(t, LevelInfo, FormatJSON)

	l.Info("hello", "count", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "glyphkey" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, LevelWarn, FormatText)

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "glyphkey.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("to file")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestFileRotatorRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyphkey.log")
	r, err := NewFileRotator(&Config{FilePath: path, MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer r.Close()

	chunk := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 4; i++ {
		if _, err := r.Write(chunk); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	files := r.Files()
	if len(files) != 3 {
		t.Fatalf("expected current file and 2 backups, got %v", files)
	}
	if _, err := os.Stat(path + ".3"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("backup beyond MaxBackups kept: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("current file size = %d, want %d", info.Size(), len(chunk))
	}
}

func TestFileRotatorRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileRotator(&Config{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestCrashHandler(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	var seen []CrashReport

	h := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  dir,
		Version:   "test",
		Component: "engine",
		Stderr:    &stderr,
		OnCrash:   func(r CrashReport) { seen = append(seen, r) },
	})
	h.SetSessionID("session-1")

	if !h.Recover(func() { panic("boom") }) {
		t.Fatal("Recover did not report the panic")
	}
	if h.Recover(func() {}) {
		t.Error("Recover reported a panic for a clean run")
	}

	reports, err := h.Reports()
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(reports) != 1 || len(seen) != 1 {
		t.Fatalf("expected one report, got %d on disk and %d callbacks", len(reports), len(seen))
	}

	r := reports[0]
	if r.PanicValue != "boom" || r.SessionID != "session-1" || r.Component != "engine" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.ID != seen[0].ID {
		t.Errorf("callback saw %s, disk has %s", seen[0].ID, r.ID)
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("stderr notice missing: %q", stderr.String())
	}
}

func TestCrashHandlerRecoverGoroutine(t *testing.T) {
	h := NewCrashHandler(&CrashHandlerConfig{CrashDir: t.TempDir(), Stderr: &bytes.Buffer{}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer h.RecoverGoroutine()
		panic("in goroutine")
	}()
	<-done

	reports, err := h.Reports()
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(reports) != 1 || reports[0].Context["type"] != "goroutine" {
		t.Errorf("unexpected reports %+v", reports)
	}
}

func TestCrashHandlerCleanupOld(t *testing.T) {
	dir := t.TempDir()
	h := NewCrashHandler(&CrashHandlerConfig{CrashDir: dir, Stderr: &bytes.Buffer{}})
	h.HandlePanic("old", nil)

	files, _ := filepath.Glob(filepath.Join(dir, "crash-*.json"))
	if len(files) != 1 {
		t.Fatalf("expected one dump, got %v", files)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(files[0], old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if err := h.CleanupOldCrashReports(24 * time.Hour); err != nil {
		t.Fatalf("CleanupOldCrashReports: %v", err)
	}
	reports, _ := h.Reports()
	if len(reports) != 0 {
		t.Errorf("expected old report removed, %d left", len(reports))
	}
}
