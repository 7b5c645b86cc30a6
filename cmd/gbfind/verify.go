package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/verify"
)

var (
	verifyID   string
	verifyKey  string
	verifyPage string
)

// VerifyResponse is the JSON output for gbfind verify.
type VerifyResponse struct {
	Results  []verify.Result `json:"results"`
	Valid    int             `json:"valid"`
	Mismatch int             `json:"mismatch"`
	Invalid  int             `json:"invalid"`
}

var verifyCmd = &cobra.Command{
	Use:   "verify [<bib-file>]",
	Short: "Check that googlebooksid fields point at the right books",
	Long: `Fetch every googlebooksid in a bibliography from Google Books and
compare the volume's author, title and year with the entry.

Titles match when one contains the other or most words overlap; years
match within 3. With --id, a single ID is checked instead; add --page to
get the deep link for a page.

Exits 3 when any ID is invalid or does not match its entry.

Examples:
  gbfind verify references.bib --human
  gbfind verify references.bib --key schopenhauer1969
  gbfind verify --id ZV9QAAAAMAAJ --page "p.~47"`,
	Args: cobra.MaximumNArgs(1),
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyID, "id", "", "Verify a single Google Books ID")
	verifyCmd.Flags().StringVar(&verifyKey, "key", "", "Only verify this citation key")
	verifyCmd.Flags().StringVar(&verifyPage, "page", "", "Page to link to with --id (e.g. 47 or p.~47)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	if (verifyID == "") == (len(args) == 0) {
		exitWithError(ExitError, "give either a bibliography file or --id")
	}
	if verifyPage != "" && verifyID == "" {
		exitWithError(ExitError, "--page requires --id")
	}

	var targets []verify.Target
	if len(args) == 1 {
		targets = verifyTargets(args[0], verifyKey)
	}

	cfg := mustLoadConfig()
	verifier := verify.NewVerifier(newClient(cfg),
		verify.WithBooksBaseURL(cfg.BooksBaseURL),
		verify.WithLogger(logger),
	)

	ctx, cancel := commandContext()
	defer cancel()

	var results []verify.Result
	if verifyID != "" {
		if verifyPage != "" {
			page, err := verify.ParsePage(verifyPage)
			if err != nil {
				exitWithError(ExitError, "%v", err)
			}
			results = []verify.Result{verifier.VerifyPage(ctx, verifyID, page)}
		} else {
			results = []verify.Result{verifier.VerifyID(ctx, verifyID, verify.Expected{})}
		}
	} else {
		var err error
		results, err = verifier.VerifyAll(ctx, targets)
		if err != nil {
			exitWithError(ExitError, "verification interrupted: %v", err)
		}
	}

	resp := summarizeVerify(results)
	if humanOutput {
		printVerifyHuman(resp)
	} else {
		outputJSON(resp)
	}
	if resp.Invalid > 0 || resp.Mismatch > 0 {
		_ = logger.Sync()
		os.Exit(ExitDataError)
	}
}

// verifyTargets reads the entries to verify from a bibliography.
func verifyTargets(path, key string) []verify.Target {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			exitWithError(ExitError, "file not found: %s", path)
		}
		exitWithError(ExitDataError, "reading bibliography: %v", err)
	}

	entries, errs := bibtex.Parse(string(data))
	for _, e := range errs {
		logger.Debug("skipping malformed bibliography record", zap.String("bib", path), zap.Error(e))
	}

	targets := verify.Targets(entries)
	if key != "" {
		for _, t := range targets {
			if t.Key == key {
				return []verify.Target{t}
			}
		}
		exitWithError(ExitError, "no googlebooksid for key %s in %s", key, path)
	}
	if len(targets) == 0 {
		exitWithError(ExitDataError, "no entries with a googlebooksid in %s", path)
	}
	return targets
}

func summarizeVerify(results []verify.Result) VerifyResponse {
	resp := VerifyResponse{Results: results}
	for _, r := range results {
		switch {
		case !r.Valid:
			resp.Invalid++
		case !r.Matches:
			resp.Mismatch++
		default:
			resp.Valid++
		}
	}
	return resp
}

func printVerifyHuman(resp VerifyResponse) {
	for _, r := range resp.Results {
		label := r.ID
		if r.Key != "" {
			label = r.Key + " (" + r.ID + ")"
		}
		switch {
		case !r.Valid:
			outputHuman("✗ %s: %s\n", label, r.Error)
		case !r.Matches:
			outputHuman("⚠ %s: %s", label, truncateString(r.Title, BatchTitleMaxLen))
			for _, field := range []string{"author", "title", "year"} {
				if ok, checked := r.MatchDetails[field]; checked && !ok {
					outputHuman(" [%s differs]", field)
				}
			}
			outputHuman("\n")
		default:
			outputHuman("✓ %s: %s\n", label, truncateString(r.Title, BatchTitleMaxLen))
		}
		outputHuman("    %s\n", r.URL)
		if r.Note != "" {
			outputHuman("    %s\n", r.Note)
		}
	}
	outputHuman("\n%d valid, %d mismatched, %d invalid\n", resp.Valid, resp.Mismatch, resp.Invalid)
}
