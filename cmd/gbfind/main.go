// Package main provides the gbfind CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/gbcite/internal/config"
	"github.com/matsen/gbcite/internal/googlebooks"
	"github.com/matsen/gbcite/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags
var (
	humanOutput  bool
	verboseFlag  bool
	quietFlag    bool
	apiKeyFlag   string
	booksURLFlag string
)

// logger is built from --verbose/--quiet before any command runs.
var logger = zap.NewNop()

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gbfind",
	Short: "Google Books deep links for LaTeX citations",
	Long: `gbfind finds Google Books IDs for the books in a bibliography and
turns the citations of a built document into page-level deep links.

Workflow:
  1. gbfind augment refs.bib        add googlebooksid fields to @book entries
  2. build the document             the LaTeX package records <job>.gbaux
  3. gbfind make-links --job paper  write <job>.gblinks.tex
  4. build again                    citations become clickable links

All commands output JSON by default. Use --human for readable output.

Configuration is read from ~/.config/gbfind/config.yml, a .env file and
GBFIND_* environment variables (see 'gbfind config show').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.LevelFor(verboseFlag, quietFlag))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Google Books API key (overrides GBFIND_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&booksURLFlag, "books-url", "", "Base URL for deep links (overrides books_base_url)")
	rootCmd.Version = Version
}

// loadConfig layers file, environment and flag settings and resolves them.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	return cfg.Merge(config.Config{
		APIKey:       apiKeyFlag,
		BooksBaseURL: booksURLFlag,
	}).Resolve()
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() config.Config {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newClient builds a Google Books client from resolved configuration.
func newClient(cfg config.Config) *googlebooks.Client {
	return googlebooks.NewClient(
		googlebooks.WithAPIKey(cfg.APIKey),
		googlebooks.WithBaseURL(cfg.APIBaseURL),
		googlebooks.WithRateLimit(cfg.RateLimit),
		googlebooks.WithTimeout(cfg.Timeout),
		googlebooks.WithMaxResults(cfg.MaxResults),
		googlebooks.WithLang(cfg.SearchLang()),
		googlebooks.WithLogger(logger),
	)
}

// commandContext returns a context canceled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
