package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTextHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("stage finished", "stage", "traversal", "files", 42)

	output := buf.String()
	for _, want := range []string{"[info]", "stage finished", " | ", "stage=traversal", "files=42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestTextHandler_QuotesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).WithGroup("graph")

	logger.Debug("resolved", "name", "two words", slog.Group("refs", "hinted", 3))

	output := buf.String()
	if !strings.Contains(output, `graph.name="two words"`) {
		t.Errorf("expected quoted grouped key, got: %s", output)
	}
	if !strings.Contains(output, "graph.refs.hinted=3") {
		t.Errorf("expected flattened group attr, got: %s", output)
	}
}

func TestTextHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be included: %s", output)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo, "json"))
	logger.Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", Silent},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		base      slog.Level
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{slog.LevelWarn, 0, false, slog.LevelWarn},
		{slog.LevelWarn, 1, false, slog.LevelInfo},
		{slog.LevelDebug, 1, false, slog.LevelDebug},
		{slog.LevelWarn, 2, false, slog.LevelDebug},
		{slog.LevelInfo, 0, true, Silent},
		{slog.LevelInfo, 5, true, Silent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.base, tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%v, %d, %v) = %v, want %v",
				tt.base, tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestTeeHandlerWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "overdoc.log")
	fh, f, err := NewFileHandler(path, slog.LevelWarn)
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}

	logger := slog.New(NewTeeHandler(NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}), fh))
	logger.Info("info message")
	logger.Warn("warn message")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "info message") || !strings.Contains(buf.String(), "warn message") {
		t.Errorf("console handler missing records: %s", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "info message") || !strings.Contains(string(data), "warn message") {
		t.Errorf("file handler should only hold warn: %s", data)
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("dropped")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
