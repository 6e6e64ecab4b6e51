package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"fewshot/internal/config"
	"fewshot/internal/corpus"
	"fewshot/internal/testsupport"
)

var fixtureWords = []string{"It", "was", "the", "best", "of", "times,", "worst"}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("FEWSHOT_CORPUS_DIR", "")
	t.Setenv("FEWSHOT_GLOVE_PATH", "")

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	for _, author := range []string{"austen", "bronte", "dickens", "twain"} {
		testsupport.WriteBook(t, cfg.Corpus.BooksDir, author, "collected", testsupport.AuthorText(fixtureWords, 70))
	}
	testsupport.WriteGloVe(t, cfg.Embedding.GloVePath, cfg.Embedding.Dim, "it", "was", "the")

	configPath := filepath.Join(testsupport.BaseDir(cfg), "fewshot.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func vocabFixture() *corpus.Raw {
	return corpus.NewRaw("test", []string{"a"}, map[string]string{"a": "good dog"})
}
