package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fewshot/internal/config"
	"fewshot/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("vocabulary built", logging.Int("n_words", 42))

	path := logging.LogFilePath(&cfg)
	if filepath.Dir(path) != cfg.Paths.LogDir {
		t.Fatalf("unexpected log file path %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", content, err)
	}
	if payload["msg"] != "vocabulary built" || payload["n_words"] != float64(42) {
		t.Fatalf("unexpected log payload: %v", payload)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerPrefixesCorpusAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithCorpus(context.Background(), "books")
	ctx = logging.WithRunID(ctx, "run-1")
	scoped := logging.NewComponentLogger(logging.WithContext(ctx, logger), "vocab")
	scoped.Info("pass complete", logging.String("note", "two words"))

	line := buf.String()
	if !strings.Contains(line, "[books] vocab: pass complete") {
		t.Fatalf("expected corpus and component prefix, got %q", line)
	}
	if !strings.Contains(line, "run_id=run-1") {
		t.Fatalf("expected run_id attribute, got %q", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
}

func TestJSONLoggerRenamesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("sampled", logging.Int("tasks", 5))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "debug" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if src, _ := payload["source"].(string); !strings.Contains(src, ".go:") {
		t.Fatalf("expected short source for debug logs, got %v", payload["source"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "author excluded", "author_excluded", logging.String(logging.FieldImpact, "author never sampled"))

	line := buf.String()
	for _, want := range []string{"event_type=author_excluded", "error_hint=", `impact="author never sampled"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "ignored")
}
