package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/googlebooks"
	"github.com/matsen/gbcite/internal/latex"
)

var (
	searchAuthor string
	searchTitle  string
	searchYear   int
	searchKey    string
	searchMax    int
	searchCopy   bool
)

// SearchResponse is the JSON output for gbfind search.
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []googlebooks.Volume `json:"results"`
	Command string               `json:"command,omitempty"` // Preamble command for the top hit when --key is given
	Copied  bool                 `json:"copied,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search Google Books by author and title",
	Long: `Search Google Books for a volume by author and/or title.

Results are ranked by Google Books. With --year, editions published more
than 5 years away are dropped. With --key, the preamble command for the
top hit is printed as well.

Examples:
  gbfind search --author "Arthur Schopenhauer" --title "World as Will" --year 1969
  gbfind search --title "Critique of Pure Reason" --max 5 --human
  gbfind search --author Darwin --title "Origin of Species" --key darwin1859 --copy`,
	Args: cobra.NoArgs,
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "Author name")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "Book title")
	searchCmd.Flags().IntVar(&searchYear, "year", 0, "Publication year")
	searchCmd.Flags().StringVar(&searchKey, "key", "", "BibTeX citation key for the preamble command")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "Maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchCopy, "copy", false, "Copy the preamble command to the clipboard (requires --key)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	if searchAuthor == "" && searchTitle == "" {
		exitWithError(ExitError, "must provide at least --author or --title")
	}
	if searchCopy && searchKey == "" {
		exitWithError(ExitError, "--copy requires --key")
	}

	copyWanted := searchCopy && checkClipboard()

	cfg := mustLoadConfig()
	client := newClient(cfg)

	ctx, cancel := commandContext()
	defer cancel()

	results, err := client.Search(ctx, googlebooks.Query{
		Author:     searchAuthor,
		Title:      searchTitle,
		Year:       searchYear,
		MaxResults: searchMax,
	})
	if err != nil {
		exitWithError(apiExitCode(err), "searching Google Books: %v", err)
	}

	resp := SearchResponse{
		Query:   googlebooks.BuildQuery(searchAuthor, searchTitle),
		Results: results,
	}

	var clipboardWarning string
	if searchKey != "" && len(results) > 0 {
		resp.Command = latex.Command(searchKey, results[0].ID)
		if copyWanted {
			resp.Copied, clipboardWarning = copyCommands([]string{resp.Command})
		}
	}

	if humanOutput {
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			os.Exit(ExitError)
		}
		for i, v := range results {
			outputHuman("\n%s", formatVolumeHuman(v, i+1))
		}
		if resp.Command != "" {
			outputHuman("\nLaTeX command:\n  %s\n", resp.Command)
		}
		if resp.Copied {
			fmt.Fprintln(os.Stderr, "Copied to clipboard")
		}
	} else {
		outputJSON(resp)
	}
	if clipboardWarning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", clipboardWarning)
	}

	if len(results) == 0 {
		os.Exit(ExitError)
	}
}
