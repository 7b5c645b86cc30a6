package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/googlebooks"
	"github.com/matsen/gbcite/internal/latex"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Find a Google Books ID step by step",
	Long: `Prompt for an author, a title and an optional year, list the matching
volumes, and print the preamble command for the one you pick.`,
	Args: cobra.NoArgs,
	Run:  runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	client := newClient(cfg)

	ctx, cancel := commandContext()
	defer cancel()

	code := interactiveSession(ctx, os.Stdin, os.Stdout, os.Stderr, client)
	_ = logger.Sync()
	os.Exit(code)
}

// interactiveSession runs one prompt/search/select round and returns the
// exit code. Prompts and results go to out, problems to errOut.
func interactiveSession(ctx context.Context, in io.Reader, out, errOut io.Writer, client volumeSearcher) int {
	r := bufio.NewReader(in)
	ask := func(prompt string) string {
		fmt.Fprint(out, prompt)
		line, _ := r.ReadString('\n')
		return strings.TrimSpace(line)
	}

	fmt.Fprintln(out, "=== Google Books ID Finder ===")
	fmt.Fprintln(out, "Find Google Books IDs for your bibliography entries.")
	fmt.Fprintln(out)

	au := ask("Author name: ")
	title := ask("Book title: ")
	yearText := ask("Publication year (optional): ")

	if au == "" && title == "" {
		fmt.Fprintln(errOut, "Error: Must provide at least author or title.")
		return ExitError
	}
	year := 0
	if yearText != "" {
		y, err := strconv.Atoi(yearText)
		if err != nil {
			fmt.Fprintf(errOut, "Error: invalid year %q\n", yearText)
			return ExitError
		}
		year = y
	}

	fmt.Fprintf(out, "\nSearching for: %s - %s", au, title)
	if year != 0 {
		fmt.Fprintf(out, " (%d)", year)
	}
	fmt.Fprintf(out, "\n%s\n", rule("-"))

	results, err := client.Search(ctx, googlebooks.Query{Author: au, Title: title, Year: year})
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return apiExitCode(err)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return ExitError
	}

	fmt.Fprintf(out, "Found %d result(s):\n", len(results))
	for i, v := range results {
		fmt.Fprintf(out, "\n%s", formatVolumeHuman(v, i+1))
	}
	fmt.Fprintln(out, rule("-"))

	choice := ask(fmt.Sprintf("\nSelect result [1-%d] or 'q' to quit: ", len(results)))
	if strings.EqualFold(choice, "q") {
		return ExitSuccess
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		fmt.Fprintln(errOut, "Invalid input.")
		return ExitError
	}
	if n < 1 || n > len(results) {
		fmt.Fprintln(errOut, "Invalid selection.")
		return ExitError
	}

	selected := results[n-1]
	fmt.Fprintf(out, "\nSelected: %s\n", selected.Title)
	fmt.Fprintf(out, "Google Books ID: %s\n", selected.ID)

	key := ask("\nBibTeX citation key (e.g., Kant1785): ")
	if key != "" {
		fmt.Fprintf(out, "\nLaTeX command:\n  %s\n", latex.Command(key, selected.ID))
		fmt.Fprintln(out, `Add this to your document preamble (before \begin{document}).`)
	}
	return ExitSuccess
}
