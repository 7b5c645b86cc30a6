package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/linkgen"
)

var (
	augmentDryRun   bool
	augmentYes      bool
	augmentNoURL    bool
	augmentNoBackup bool
)

// AugmentResponse is the JSON output for gbfind augment.
type AugmentResponse struct {
	Bibliography string                `json:"bibliography"`
	Entries      []BookMatch           `json:"entries"`
	Planned      map[string]string     `json:"planned"` // citation key -> ID
	DryRun       bool                  `json:"dry_run,omitempty"`
	Aborted      bool                  `json:"aborted,omitempty"`
	Report       *bibtex.AugmentReport `json:"report,omitempty"`
}

var augmentCmd = &cobra.Command{
	Use:   "augment <bib-file>",
	Short: "Add googlebooksid fields to the @book entries of a bibliography",
	Long: `Search Google Books for every @book entry that has no googlebooksid yet
and write the top hit into the entry, together with a url field.

The file is rewritten atomically and the original is kept as
<bib-file>.backup unless --no-backup is given. Entries that already carry
a googlebooksid are left alone.

Examples:
  gbfind augment references.bib --dry-run --human
  gbfind augment references.bib --yes
  gbfind augment references.bib --yes --no-url --no-backup`,
	Args: cobra.ExactArgs(1),
	Run:  runAugment,
}

func init() {
	augmentCmd.Flags().BoolVar(&augmentDryRun, "dry-run", false, "Show what would be done without modifying files")
	augmentCmd.Flags().BoolVarP(&augmentYes, "yes", "y", false, "Apply without asking for confirmation")
	augmentCmd.Flags().BoolVar(&augmentNoURL, "no-url", false, "Do not add a url field")
	augmentCmd.Flags().BoolVar(&augmentNoBackup, "no-backup", false, "Do not keep a .backup copy")
	rootCmd.AddCommand(augmentCmd)
}

func runAugment(cmd *cobra.Command, args []string) {
	bibPath := args[0]

	var pending []bibtex.Book
	for _, b := range readBooks(bibPath) {
		if b.ID == "" {
			pending = append(pending, b)
		}
	}

	resp := AugmentResponse{
		Bibliography: bibPath,
		Entries:      []BookMatch{},
		Planned:      map[string]string{},
		DryRun:       augmentDryRun,
	}

	if len(pending) > 0 {
		cfg := mustLoadConfig()
		client := newClient(cfg)

		ctx, cancel := commandContext()
		defer cancel()

		var progress func(BookMatch)
		if humanOutput {
			fmt.Fprintf(os.Stderr, "Augmenting bibliography: %s\n", bibPath)
			fmt.Fprintf(os.Stderr, "Found %d book entries without googlebooksid.\n\n", len(pending))
			progress = printProgress
		}

		matches, err := lookupBooks(ctx, client, pending, progress)
		if err != nil {
			exitWithError(ExitError, "augment interrupted: %v", err)
		}
		resp.Entries = matches
		for _, m := range matches {
			if m.Match != nil {
				resp.Planned[m.Key] = m.Match.ID
			}
		}

		if len(resp.Planned) > 0 && !augmentDryRun {
			if !augmentYes && !confirm(os.Stdin, os.Stderr, fmt.Sprintf("Ready to update %d entries in %s. Proceed?", len(resp.Planned), bibPath)) {
				resp.Aborted = true
			} else {
				report, err := bibtex.AugmentFile(bibPath, resp.Planned, augmentOptions(cfg.BooksBaseURL))
				if err != nil {
					exitWithError(ExitDataError, "%v", err)
				}
				resp.Report = &report
			}
		}
	}

	if humanOutput {
		printAugmentHuman(resp)
		return
	}
	outputJSON(resp)
}

// augmentOptions builds the injection options from the flags.
func augmentOptions(booksBaseURL string) bibtex.AugmentOptions {
	opts := bibtex.AugmentOptions{Backup: !augmentNoBackup}
	if !augmentNoURL {
		engine := linkgen.NewEngine(linkgen.WithBaseURL(booksBaseURL))
		opts.URLFor = func(id string) string {
			return engine.BuildURL(id, 0, false)
		}
	}
	return opts
}

// confirm asks a yes/no question; only "y" or "yes" agrees.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printAugmentHuman(resp AugmentResponse) {
	switch {
	case len(resp.Planned) == 0:
		outputHuman("No updates to apply.\n")
	case resp.DryRun:
		outputHuman("%s\n", rule("="))
		keys := make([]string, 0, len(resp.Planned))
		for key := range resp.Planned {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			outputHuman("%s: googlebooksid = {%s}\n", key, resp.Planned[key])
		}
		outputHuman("\n[DRY RUN] No changes made. Remove --dry-run to apply.\n")
	case resp.Aborted:
		outputHuman("Aborted.\n")
	case resp.Report != nil:
		outputHuman("✓ Updated %d entries\n", len(resp.Report.Updated))
		if len(resp.Report.AlreadySet) > 0 {
			outputHuman("  Already set: %s\n", strings.Join(resp.Report.AlreadySet, ", "))
		}
		if resp.Report.BackupPath != "" {
			outputHuman("✓ Backup saved to %s\n", resp.Report.BackupPath)
		}
	}
}
