package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wikirun"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .wikirun configuration file.
type File struct {
	// Embedding configures the embedding service.
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`

	// Defaults override built-in traversal defaults. CLI flags still win
	// over both.
	Defaults RunDefaults `yaml:"defaults,omitempty"`
}

// EmbeddingConfig holds embedding service settings from the config file.
type EmbeddingConfig struct {
	// Endpoint is the embeddings API URL.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Model is the model name sent with each request.
	Model string `yaml:"model,omitempty"`

	// BatchSize caps inputs per request.
	BatchSize int `yaml:"batchSize,omitempty"`

	// APIKeyEnv names an environment variable holding the API key.
	// The key itself never lives in the config file.
	APIKeyEnv string `yaml:"apiKeyEnv,omitempty"`
}

// RunDefaults holds traversal settings from the config file.
type RunDefaults struct {
	// BaseURL selects the wiki, e.g. "https://de.wikipedia.org/wiki/".
	BaseURL string `yaml:"baseURL,omitempty"`

	// Workers is the prefetch pool size.
	Workers int `yaml:"workers,omitempty"`

	// MaxLinks caps candidates per step.
	MaxLinks int `yaml:"maxLinks,omitempty"`

	// TopN is the speculative ranking breadth.
	TopN int `yaml:"topN,omitempty"`

	// MaxSteps bounds the walk.
	MaxSteps int `yaml:"maxSteps,omitempty"`

	// StepDelay paces the traversal, e.g. "200ms".
	StepDelay time.Duration `yaml:"stepDelay,omitempty"`

	// RespectRobots enables the robots.txt check.
	RespectRobots bool `yaml:"respectRobots,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist it returns ErrConfigNotFound; callers decide
// whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in order:
// the explicit path, the current directory, the XDG config directory,
// and finally the home directory. Returns "" if nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Apply overlays file settings onto a config. Only values actually set in
// the file are applied, so flag handling can run afterwards and win.
func (cf *File) Apply(cfg *Config) {
	if cf.Embedding.Endpoint != "" {
		cfg.EmbedEndpoint = cf.Embedding.Endpoint
	}
	if cf.Embedding.Model != "" {
		cfg.EmbedModel = cf.Embedding.Model
	}
	if cf.Embedding.BatchSize > 0 {
		cfg.EmbedBatchSize = cf.Embedding.BatchSize
	}
	if cf.Embedding.APIKeyEnv != "" {
		if key := os.Getenv(cf.Embedding.APIKeyEnv); key != "" {
			cfg.EmbedAPIKey = key
		}
	}

	if cf.Defaults.BaseURL != "" {
		cfg.BaseURL = cf.Defaults.BaseURL
	}
	if cf.Defaults.Workers > 0 {
		cfg.WorkerCount = cf.Defaults.Workers
	}
	if cf.Defaults.MaxLinks > 0 {
		cfg.MaxLinksPerPage = cf.Defaults.MaxLinks
	}
	if cf.Defaults.TopN > 0 {
		cfg.TopN = cf.Defaults.TopN
	}
	if cf.Defaults.MaxSteps > 0 {
		cfg.MaxSteps = cf.Defaults.MaxSteps
	}
	if cf.Defaults.StepDelay > 0 {
		cfg.StepDelay = cf.Defaults.StepDelay
	}
	if cf.Defaults.RespectRobots {
		cfg.RespectRobots = true
	}
}
