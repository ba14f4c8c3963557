package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig writes YAML content to a temp file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".wikirun")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("full config parsed", func(t *testing.T) {
		t.Parallel()
		path := writeTempConfig(t, `
embedding:
  endpoint: http://embed.internal:9000/v1/embeddings
  model: custom-model
  batchSize: 64
defaults:
  baseURL: https://de.wikipedia.org/wiki/
  workers: 8
  maxLinks: 200
  topN: 12
  maxSteps: 50
  stepDelay: 500ms
  respectRobots: true
`)

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Embedding.Endpoint != "http://embed.internal:9000/v1/embeddings" {
			t.Errorf("unexpected endpoint %q", cf.Embedding.Endpoint)
		}
		if cf.Embedding.Model != "custom-model" {
			t.Errorf("unexpected model %q", cf.Embedding.Model)
		}
		if cf.Embedding.BatchSize != 64 {
			t.Errorf("unexpected batch size %d", cf.Embedding.BatchSize)
		}
		if cf.Defaults.Workers != 8 {
			t.Errorf("unexpected workers %d", cf.Defaults.Workers)
		}
		if cf.Defaults.StepDelay != 500*time.Millisecond {
			t.Errorf("unexpected step delay %v", cf.Defaults.StepDelay)
		}
		if !cf.Defaults.RespectRobots {
			t.Error("expected respectRobots true")
		}
	})

	t.Run("empty file yields zero config", func(t *testing.T) {
		t.Parallel()
		cf, err := LoadConfigFile(writeTempConfig(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Embedding.Endpoint != "" || cf.Defaults.Workers != 0 {
			t.Errorf("expected zero config, got %+v", cf)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(writeTempConfig(t, "defaults: [not: a: map"))
		if err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path returned", func(t *testing.T) {
		t.Parallel()
		path := writeTempConfig(t, "")
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "absent.yaml")
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cf := &File{
			Embedding: EmbeddingConfig{
				Endpoint: "http://other:1234/v1/embeddings",
				Model:    "other-model",
			},
			Defaults: RunDefaults{
				Workers:   16,
				StepDelay: time.Second,
			},
		}

		cf.Apply(cfg)

		if cfg.EmbedEndpoint != "http://other:1234/v1/embeddings" {
			t.Errorf("endpoint not applied: %q", cfg.EmbedEndpoint)
		}
		if cfg.EmbedModel != "other-model" {
			t.Errorf("model not applied: %q", cfg.EmbedModel)
		}
		if cfg.WorkerCount != 16 {
			t.Errorf("workers not applied: %d", cfg.WorkerCount)
		}
		if cfg.StepDelay != time.Second {
			t.Errorf("step delay not applied: %v", cfg.StepDelay)
		}
	})

	t.Run("unset values leave defaults alone", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		(&File{}).Apply(cfg)

		if cfg.WorkerCount != DefaultWorkerCount {
			t.Errorf("empty file changed workers to %d", cfg.WorkerCount)
		}
		if cfg.EmbedEndpoint != DefaultEmbedEndpoint {
			t.Errorf("empty file changed endpoint to %q", cfg.EmbedEndpoint)
		}
		if cfg.TopN != DefaultTopN {
			t.Errorf("empty file changed topN to %d", cfg.TopN)
		}
	})

}

// No t.Parallel here: t.Setenv mutates process state.
func TestFileApplyAPIKeyFromEnv(t *testing.T) {
	t.Setenv("WIKIRUN_TEST_EMBED_KEY", "sk-test-123")

	cfg := NewConfig()
	cf := &File{Embedding: EmbeddingConfig{APIKeyEnv: "WIKIRUN_TEST_EMBED_KEY"}}
	cf.Apply(cfg)

	if cfg.EmbedAPIKey != "sk-test-123" {
		t.Errorf("expected key from env, got %q", cfg.EmbedAPIKey)
	}
}
