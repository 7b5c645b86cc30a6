package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/linkgen"
	"github.com/matsen/gbcite/internal/occurrence"
)

var linksJob string

var makeLinksCmd = &cobra.Command{
	Use:   "make-links [<occurrence-log> <bib-file> <output>]",
	Short: "Write the deep-link macro file for the next build pass",
	Long: `Read the citation occurrences recorded by the last document build,
look up each cited key's googlebooksid in the bibliography, and write one
link macro per distinct (key, page) pair.

Page annotations resolve to their first number, so "pp.~45-67" links to
page 45. Citations of keys without a googlebooksid are left unlinked.
The output file is replaced atomically.

Examples:
  gbfind make-links --job thesis      # thesis.gbaux thesis.bib thesis.gblinks.tex
  gbfind make-links build/paper.gbaux refs.bib build/paper.gblinks.tex`,
	Args: func(cmd *cobra.Command, args []string) error {
		if linksJob != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	Run: runMakeLinks,
}

func init() {
	makeLinksCmd.Flags().StringVar(&linksJob, "job", "", "LaTeX job name; derives all three paths")
	rootCmd.AddCommand(makeLinksCmd)
}

func runMakeLinks(cmd *cobra.Command, args []string) {
	logPath, bibPath, outPath := makeLinksPaths(linksJob, args)

	cfg := mustLoadConfig()
	engine := linkgen.NewEngine(
		linkgen.WithBaseURL(cfg.BooksBaseURL),
		linkgen.WithLogger(logger),
	)

	report, err := engine.Run(logPath, bibPath, outPath)
	if err != nil {
		code, msg := makeLinksError(err)
		exitWithError(code, "%s", msg)
	}

	if humanOutput {
		outputHuman("Wrote %d links to %s (%d citations)\n", report.Links, report.Output, report.Occurrences)
		if len(report.Unresolved) > 0 {
			outputHuman("No googlebooksid for: %s\n", strings.Join(report.Unresolved, ", "))
		}
		if len(report.MissingIDs) > 0 {
			outputHuman("Book entries still without a googlebooksid: %s (see gbfind augment)\n",
				strings.Join(report.MissingIDs, ", "))
		}
		if report.SkippedRecords > 0 {
			fmt.Fprintf(os.Stderr, "warning: skipped %d malformed bibliography records (use --verbose for details)\n", report.SkippedRecords)
		}
		return
	}
	outputJSON(report)
}

// makeLinksPaths returns the three paths from --job or the positional arguments.
func makeLinksPaths(job string, args []string) (logPath, bibPath, outPath string) {
	if job != "" {
		return linkgen.JobPaths(job)
	}
	return args[0], args[1], args[2]
}

// makeLinksError maps an engine failure to an exit code and message.
// Malformed logs, unreadable bibliographies and write failures are data
// errors; a missing log means the document has not been built yet.
func makeLinksError(err error) (int, string) {
	if occurrence.IsNotFound(err) {
		return ExitMissingLog, fmt.Sprintf("%v\n\nRun the document build first so the LaTeX package records its citations.", err)
	}
	return ExitDataError, err.Error()
}
