package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/latex"
)

var (
	batchOutput string
	batchCopy   bool
)

// BatchResponse is the JSON output for gbfind batch.
type BatchResponse struct {
	Bibliography string      `json:"bibliography"`
	Entries      []BookMatch `json:"entries"`
	Commands     []string    `json:"commands"`
	Output       string      `json:"output,omitempty"`
	Copied       bool        `json:"copied,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <bib-file>",
	Short: "Find IDs for every @book entry and print preamble commands",
	Long: `Search Google Books for every @book entry with an author and title,
and emit a \SetGoogleBooksID command for each top hit.

The bibliography is not modified; see 'gbfind augment' for that.

Examples:
  gbfind batch references.bib
  gbfind batch references.bib --output google-books-ids.tex --human
  gbfind batch references.bib --copy`,
	Args: cobra.ExactArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Write the preamble commands to this file")
	batchCmd.Flags().BoolVar(&batchCopy, "copy", false, "Copy the preamble commands to the clipboard")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	bibPath := args[0]
	books := readBooks(bibPath)
	copyWanted := batchCopy && checkClipboard()

	cfg := mustLoadConfig()
	client := newClient(cfg)

	ctx, cancel := commandContext()
	defer cancel()

	var progress func(BookMatch)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "Processing bibliography: %s\nFound %d book entries.\n\n", bibPath, len(books))
		progress = printProgress
	}

	matches, err := lookupBooks(ctx, client, books, progress)
	if err != nil {
		exitWithError(ExitError, "batch interrupted: %v", err)
	}

	resp := BatchResponse{
		Bibliography: bibPath,
		Entries:      matches,
		Commands:     []string{},
	}
	for _, m := range matches {
		if m.Match != nil {
			resp.Commands = append(resp.Commands, latex.Command(m.Key, m.Match.ID))
		}
	}

	if batchOutput != "" && len(resp.Commands) > 0 {
		if err := latex.WriteFile(batchOutput, resp.Commands); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		resp.Output = batchOutput
	}

	var clipboardWarning string
	if copyWanted {
		resp.Copied, clipboardWarning = copyCommands(resp.Commands)
	}
	if clipboardWarning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", clipboardWarning)
	}

	if humanOutput {
		if len(resp.Commands) > 0 {
			outputHuman("%s\nLaTeX commands for your preamble:\n\n", rule("="))
			for _, c := range resp.Commands {
				outputHuman("%s\n", c)
			}
		}
		if resp.Output != "" {
			outputHuman("\nCommands saved to: %s\n", resp.Output)
		}
		if resp.Copied {
			fmt.Fprintln(os.Stderr, "Copied to clipboard")
		}
		return
	}
	outputJSON(resp)
}
