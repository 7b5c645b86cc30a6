package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/config"
)

var configInitForce bool

// ConfigResponse is the JSON output for gbfind config show.
type ConfigResponse struct {
	Path         string  `json:"path"`
	APIKey       string  `json:"api_key,omitempty"` // Masked
	APIBaseURL   string  `json:"api_base_url"`
	BooksBaseURL string  `json:"books_base_url"`
	RateLimit    float64 `json:"rate_limit"`
	Timeout      string  `json:"timeout"`
	MaxResults   int     `json:"max_results"`
	Lang         string  `json:"lang"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the gbfind configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration (API key masked)",
	Long: `Print the configuration after layering, in increasing priority:
built-in defaults, ~/.config/gbfind/config.yml, .env, GBFIND_* variables
and command-line flags.

Environment variables:
  GBFIND_API_KEY         Google Books API key (optional, raises the quota)
  GBFIND_API_BASE_URL    Google Books API endpoint
  GBFIND_BOOKS_BASE_URL  Base URL deep links are built on
  GBFIND_RATE_LIMIT      Requests per second
  GBFIND_TIMEOUT         Request timeout, e.g. 10s
  GBFIND_MAX_RESULTS     Search results per query (1-40)
  GBFIND_LANG            Language restriction, "any" for none`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	Run:   runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	resp := configResponse(config.GlobalConfigPath(), cfg)

	if humanOutput {
		outputHuman("Config file:     %s\n", resp.Path)
		outputHuman("API key:         %s\n", valueOr(resp.APIKey, "(none)"))
		outputHuman("API base URL:    %s\n", resp.APIBaseURL)
		outputHuman("Books base URL:  %s\n", resp.BooksBaseURL)
		outputHuman("Rate limit:      %g req/s\n", resp.RateLimit)
		outputHuman("Timeout:         %s\n", resp.Timeout)
		outputHuman("Max results:     %d\n", resp.MaxResults)
		outputHuman("Language:        %s\n", resp.Lang)
		return
	}
	outputJSON(resp)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := config.GlobalConfigPath()
	if path == "" {
		exitWithError(ExitConfigError, "cannot determine config directory")
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		exitWithError(ExitConfigError, "%s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(path, config.Defaults()); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", path)
		return
	}
	outputJSON(StatusResponse{Status: "created", Path: path})
}

// configResponse converts a resolved config for output, masking the key.
func configResponse(path string, cfg config.Config) ConfigResponse {
	m := cfg.Masked()
	return ConfigResponse{
		Path:         path,
		APIKey:       m.APIKey,
		APIBaseURL:   m.APIBaseURL,
		BooksBaseURL: m.BooksBaseURL,
		RateLimit:    m.RateLimit,
		Timeout:      m.Timeout.String(),
		MaxResults:   m.MaxResults,
		Lang:         m.Lang,
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
