package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/155xp/WikiSpeedrun-Solver/internal/config"
	"github.com/155xp/WikiSpeedrun-Solver/internal/database"
	"github.com/155xp/WikiSpeedrun-Solver/internal/embed"
	"github.com/155xp/WikiSpeedrun-Solver/internal/log"
	"github.com/155xp/WikiSpeedrun-Solver/internal/prefetch"
	"github.com/155xp/WikiSpeedrun-Solver/internal/report"
	"github.com/155xp/WikiSpeedrun-Solver/internal/score"
	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
	"github.com/155xp/WikiSpeedrun-Solver/internal/wiki"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <start> <target>",
		Short: "Race from one Wikipedia article to another",
		Long: `Run navigates from the start article to the target article by greedily
following the most semantically promising hyperlink on each page.

Arguments accept full article URLs or plain titles; spaces and
underscores are interchangeable.

Examples:
  # Race between two articles by title
  wikirun run "Albert Einstein" "Video game"

  # Full URLs work too
  wikirun run https://en.wikipedia.org/wiki/Coffee https://en.wikipedia.org/wiki/Moon

  # Use a different language wiki
  wikirun run --base-url https://de.wikipedia.org/wiki/ Kaffee Mond

  # Output JSON instead of the plain report
  wikirun run --json Coffee Moon

Configuration file (.wikirun) example:
  embedding:
    endpoint: http://localhost:8080/v1/embeddings
    model: bge-small-en-v1.5
    apiKeyEnv: WIKIRUN_EMBED_API_KEY
  defaults:
    workers: 4
    topN: 8
    stepDelay: 200ms`,
		Args: cobra.ExactArgs(2),
		RunE: runRunCmd,
	}

	// Traversal flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkerCount,
		"Number of concurrent prefetch workers")
	cmd.Flags().IntP("top-n", "n", config.DefaultTopN,
		"Ranked candidates reported and prefetched per step")
	cmd.Flags().IntP("max-links", "l", config.DefaultMaxLinksPerPage,
		"Maximum candidate links scored per page")
	cmd.Flags().IntP("max-steps", "s", config.DefaultMaxSteps,
		"Maximum hops before giving up")
	cmd.Flags().Duration("step-delay", config.DefaultStepDelay,
		"Pause between steps")

	// Network flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each page download")
	cmd.Flags().Duration("wait-timeout", config.DefaultWaitTimeout,
		"How long to wait on an in-flight prefetch before re-fetching")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Article URL prefix (selects the wiki and language)")
	cmd.Flags().Float64("rps", config.DefaultRequestsPerSecond,
		"Maximum page requests per second (0 disables the limit)")
	cmd.Flags().Bool("robots", false,
		"Check robots.txt before fetching pages")

	// Embedding flags
	cmd.Flags().String("embed-endpoint", config.DefaultEmbedEndpoint,
		"Embeddings API endpoint (OpenAI-compatible)")
	cmd.Flags().String("embed-model", config.DefaultEmbedModel,
		"Model name sent with embedding requests")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikirun in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags and the optional config file
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runRace(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Precedence, lowest to highest: built-in defaults, config file, flags
// the user actually set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Best effort: a .env file in the working directory may hold the
	// embedding API key.
	_ = godotenv.Load() //nolint:errcheck // Missing .env is the normal case

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	found := config.FindConfigFile(configPath)
	if found != "" {
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cf.Apply(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	// Flags the user set override the file.
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	// The API key comes from the environment only, never from flags.
	if cfg.EmbedAPIKey == "" {
		cfg.EmbedAPIKey = os.Getenv(config.EmbedAPIKeyEnv)
	}

	// Always save runs to the history database in the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments: start and target, as titles or full URLs
	cfg.StartPage = wiki.Normalize(wiki.TitleFromURL(args[0]))
	cfg.TargetPage = wiki.Normalize(wiki.TitleFromURL(args[1]))

	return cfg, nil
}

// applyFlags copies flag values the user actually set onto the config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("workers") {
		if cfg.WorkerCount, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("top-n") {
		if cfg.TopN, err = flags.GetInt("top-n"); err != nil {
			return err
		}
	}
	if flags.Changed("max-links") {
		if cfg.MaxLinksPerPage, err = flags.GetInt("max-links"); err != nil {
			return err
		}
	}
	if flags.Changed("max-steps") {
		if cfg.MaxSteps, err = flags.GetInt("max-steps"); err != nil {
			return err
		}
	}
	if flags.Changed("step-delay") {
		if cfg.StepDelay, err = flags.GetDuration("step-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("wait-timeout") {
		if cfg.WaitTimeout, err = flags.GetDuration("wait-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if flags.Changed("rps") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return err
		}
	}
	if flags.Changed("robots") {
		if cfg.RespectRobots, err = flags.GetBool("robots"); err != nil {
			return err
		}
	}
	if flags.Changed("embed-endpoint") {
		if cfg.EmbedEndpoint, err = flags.GetString("embed-endpoint"); err != nil {
			return err
		}
	}
	if flags.Changed("embed-model") {
		if cfg.EmbedModel, err = flags.GetString("embed-model"); err != nil {
			return err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	return nil
}

// runRace wires the components together and executes the traversal.
func runRace(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting race",
		"start", cfg.StartPage,
		"target", cfg.TargetPage,
		"workers", cfg.WorkerCount,
		"topN", cfg.TopN,
	)

	// Open database connection if saving is enabled
	var db *database.RunDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			// A broken history database should not stop a race.
			logger.Warn("run history disabled", "error", err)
		} else {
			defer db.Close()
			logger.Info("database opened", "dir", cfg.DBDir)
		}
	}

	// Page fetcher with rate limiting and optional robots.txt policy
	client := wiki.NewClient(
		wiki.DefaultHTTPClient(cfg.FetchTimeout),
		wiki.WithBaseURL(cfg.BaseURL),
		wiki.WithRequestsPerSecond(cfg.RequestsPerSecond),
	)
	if cfg.RespectRobots {
		if err := client.LoadRobotsPolicy(ctx); err != nil {
			logger.Warn("could not load robots.txt, continuing without it", "error", err)
		}
	}

	// Speculative prefetch cache backed by a worker pool
	cache := prefetch.NewCache(client,
		prefetch.WithWorkers(cfg.WorkerCount),
		prefetch.WithWaitTimeout(cfg.WaitTimeout),
	)
	defer cache.Close()

	// Embedding client and memoizing scorer
	embedOpts := []embed.HTTPEmbedderOption{
		embed.WithBatchSize(cfg.EmbedBatchSize),
	}
	if cfg.EmbedAPIKey != "" {
		embedOpts = append(embedOpts, embed.WithAPIKey(cfg.EmbedAPIKey))
	}
	embedder := embed.NewHTTPEmbedder(
		&http.Client{Timeout: cfg.EmbedTimeout},
		cfg.EmbedEndpoint,
		cfg.EmbedModel,
		embedOpts...,
	)
	scorer := score.NewScorer(embedder)

	// The target embedding anchors every similarity comparison.
	targetEmbedding, err := embedder.Embed(ctx, wiki.Display(cfg.TargetPage))
	if err != nil {
		return fmt.Errorf("failed to embed target %q (is the embedding server at %s running?): %w",
			wiki.Display(cfg.TargetPage), cfg.EmbedEndpoint, err)
	}

	engine := solver.NewEngine(cache, scorer,
		solver.WithMaxLinks(cfg.MaxLinksPerPage),
		solver.WithTopN(cfg.TopN),
		solver.WithMaxSteps(cfg.MaxSteps),
		solver.WithStepDelay(cfg.StepDelay),
		solver.WithLogger(logger),
		solver.WithProgress(printProgress),
	)

	fmt.Printf("Racing from %q to %q...\n\n",
		wiki.Display(cfg.StartPage), wiki.Display(cfg.TargetPage))

	result, err := engine.Run(ctx, cfg.StartPage, cfg.TargetPage, targetEmbedding)
	if err != nil {
		return err
	}

	fmt.Println()

	// Generate and output report
	if err := outputReport(cfg, result); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	// Save to database if enabled
	if db != nil {
		runID, err := db.SaveRun(ctx, result)
		if err != nil {
			logger.Error("failed to save run", "error", err)
		} else {
			logger.Info("run saved", "id", runID)
		}
	}

	return nil
}

// printProgress prints one line per committed hop.
func printProgress(step solver.Step) {
	detail := fmt.Sprintf("score: %.3f", step.Score)
	if step.DirectHit {
		detail = "direct hit"
	}
	fmt.Printf("-> %s (%s) [%s]\n",
		wiki.Display(step.Page), detail, step.Elapsed.Round(10*time.Millisecond))
}

// outputReport outputs the result in the requested format.
func outputReport(cfg *config.Config, result *solver.Result) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output, report.WithMarkdownPageURLs(cfg.BaseURL))
	default:
		writer = report.NewSimpleWriter(output, report.WithPageURLs(cfg.BaseURL))
	}

	_, err := writer.Write(result)
	return err
}
