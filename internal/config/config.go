package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The traversal defaults mirror what works well against the live English
// Wikipedia: pages are large, link-dense, and served fast.
const (
	// DefaultBaseURL is the article URL prefix for the English Wikipedia.
	DefaultBaseURL = "https://en.wikipedia.org/wiki/"

	// DefaultFetchTimeout bounds a single page download. Wikipedia
	// responds in well under a second normally; 10 seconds covers slow
	// mirrors and transient congestion without stalling a run for long.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultWaitTimeout bounds how long a step waits on an in-flight
	// prefetch before re-fetching synchronously. Slightly above the fetch
	// timeout so a healthy prefetch always has a chance to finish first.
	DefaultWaitTimeout = 15 * time.Second

	// DefaultWorkerCount is the prefetch pool size. Four workers cover
	// the top-ranked candidates of a step before the next step needs
	// them; more mostly wastes Wikipedia's bandwidth on pages that are
	// never visited.
	DefaultWorkerCount = 4

	// DefaultMaxLinksPerPage caps the candidates scored per step.
	// Link-dense pages (year articles, lists) can carry thousands of
	// links; scoring all of them slows every step for marginal gain.
	DefaultMaxLinksPerPage = 150

	// DefaultTopN is how many ranked candidates are reported and
	// speculatively prefetched each step.
	DefaultTopN = 8

	// DefaultMaxSteps bounds a run. A greedy walk that hasn't converged
	// in 100 hops is circling; human players finish most races in under
	// ten.
	DefaultMaxSteps = 100

	// DefaultStepDelay paces the traversal as a politeness setting.
	DefaultStepDelay = 200 * time.Millisecond

	// DefaultRequestsPerSecond caps outgoing fetches across all workers.
	DefaultRequestsPerSecond = 10.0

	// DefaultEmbedEndpoint is the embeddings route of a local inference
	// server. Any endpoint speaking the standard embeddings API works.
	DefaultEmbedEndpoint = "http://localhost:8080/v1/embeddings"

	// DefaultEmbedModel matches the model the default endpoint serves.
	DefaultEmbedModel = "bge-small-en-v1.5"

	// DefaultEmbedBatchSize caps inputs per embedding request.
	DefaultEmbedBatchSize = 128

	// DefaultEmbedTimeout bounds one embedding API call. A batch of 128
	// short snippets embeds in a few seconds even on CPU.
	DefaultEmbedTimeout = 30 * time.Second

	// EmbedAPIKeyEnv is the environment variable read for the embedding
	// API key. Taken from the environment or a .env file, never from
	// flags, so it cannot leak into shell history.
	EmbedAPIKeyEnv = "WIKIRUN_EMBED_API_KEY"

	// DefaultMaxBodySize limits how much of a page is read. Wikipedia
	// articles rarely exceed 2MB of HTML.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "wikirun"
)

// Config holds all options for a run.
// Populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than living in
// global state.
type Config struct {
	// StartPage and TargetPage are canonical article titles.
	// The CLI normalizes URLs and human-entered titles before validation.
	StartPage  string
	TargetPage string

	// BaseURL is the article URL prefix, selecting the wiki and language.
	BaseURL string

	// FetchTimeout bounds a single page download.
	FetchTimeout time.Duration

	// WaitTimeout bounds waiting on an in-flight prefetch before the
	// engine falls back to a synchronous fetch.
	WaitTimeout time.Duration

	// WorkerCount is the prefetch pool size.
	WorkerCount int

	// MaxLinksPerPage caps candidates scored per step.
	MaxLinksPerPage int

	// TopN is the breadth of speculative ranking and prefetch.
	TopN int

	// MaxSteps bounds the walk; exceeding it ends the run with the
	// budget-exceeded status.
	MaxSteps int

	// StepDelay is the pause between steps.
	StepDelay time.Duration

	// RequestsPerSecond caps outgoing page fetches. Zero disables the cap.
	RequestsPerSecond float64

	// RespectRobots enables a robots.txt check before each fetch.
	RespectRobots bool

	// EmbedEndpoint, EmbedModel, and EmbedAPIKey configure the embedding
	// service. The key may be empty for local servers.
	EmbedEndpoint string
	EmbedModel    string
	EmbedAPIKey   string

	// EmbedBatchSize caps inputs per embedding request.
	EmbedBatchSize int

	// EmbedTimeout bounds one embedding API call.
	EmbedTimeout time.Duration

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONReport and MarkdownReport select the output format.
	// Mutually exclusive; plain text is the default.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile, when set, receives the report instead of stdout.
	ReportFile string

	// DBDir is the directory for the run-history database. Empty
	// disables persistence.
	DBDir string

	// SaveToDB indicates whether to record the run in the history
	// database. Set automatically when DBDir is configured.
	SaveToDB bool
}

// NewConfig returns a Config with all defaults applied.
//
// Design decision: A constructor rather than zero values because almost
// every default is non-zero, and the constructor doubles as documentation
// of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		FetchTimeout:      DefaultFetchTimeout,
		WaitTimeout:       DefaultWaitTimeout,
		WorkerCount:       DefaultWorkerCount,
		MaxLinksPerPage:   DefaultMaxLinksPerPage,
		TopN:              DefaultTopN,
		MaxSteps:          DefaultMaxSteps,
		StepDelay:         DefaultStepDelay,
		RequestsPerSecond: DefaultRequestsPerSecond,
		EmbedEndpoint:     DefaultEmbedEndpoint,
		EmbedModel:        DefaultEmbedModel,
		EmbedBatchSize:    DefaultEmbedBatchSize,
		EmbedTimeout:      DefaultEmbedTimeout,
	}
}

// XDGDataDir returns the XDG data directory for wikirun.
// On Linux: ~/.local/share/wikirun
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikirun.
// On Linux: ~/.config/wikirun
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Called once after flag parsing, before any network work begins.
// We return the first error rather than collecting all of them because
// fixing one often makes the rest irrelevant.
func (c *Config) Validate() error {
	if c.StartPage == "" || c.TargetPage == "" {
		return ErrMissingPages
	}
	if c.StartPage == c.TargetPage {
		return ErrSamePage
	}
	if c.FetchTimeout <= 0 || c.WaitTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.WorkerCount <= 0 {
		return ErrInvalidWorkerCount
	}
	if c.MaxLinksPerPage <= 0 {
		return ErrInvalidMaxLinks
	}
	if c.TopN <= 0 {
		return ErrInvalidTopN
	}
	if c.MaxSteps <= 0 {
		return ErrInvalidMaxSteps
	}
	if c.StepDelay < 0 {
		return ErrInvalidStepDelay
	}
	if c.EmbedEndpoint == "" || c.EmbedModel == "" {
		return ErrMissingEmbedConfig
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
