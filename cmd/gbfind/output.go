package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/gbcite/internal/clipboard"
	"github.com/matsen/gbcite/internal/googlebooks"
)

// Constants for output formatting.
const (
	BatchTitleMaxLen = 50 // Used in batch/augment progress lines
	RuleWidth        = 60 // Width of separator rules
)

// clipboardUnavailableMsg is the standard warning when clipboard is not available.
const clipboardUnavailableMsg = "clipboard unavailable (install wl-clipboard, xclip or xsel on Linux)"

// checkClipboard warns up front when --copy cannot work, so a long
// search is not wasted on it. It reports whether copying should go ahead.
func checkClipboard() bool {
	if clipboard.IsAvailable() {
		return true
	}
	fmt.Fprintf(os.Stderr, "warning: %s\n", clipboardUnavailableMsg)
	return false
}

// copyCommands puts preamble commands on the clipboard. It returns a
// warning for stderr when copying failed.
func copyCommands(commands []string) (copied bool, warning string) {
	if len(commands) == 0 {
		return false, ""
	}
	if err := clipboard.CopyLines(commands); err != nil {
		if errors.Is(err, clipboard.ErrClipboardUnavailable) {
			return false, clipboardUnavailableMsg
		}
		return false, fmt.Sprintf("clipboard error: %v", err)
	}
	return true, ""
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	_ = logger.Sync()
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// apiExitCode maps a Google Books client error to an exit code.
func apiExitCode(err error) int {
	if googlebooks.IsNotFound(err) {
		return ExitError
	}
	return ExitAPIError
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatAuthors joins volume authors, "Unknown" when there are none.
func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	return strings.Join(authors, ", ")
}

// formatVolumeHuman formats a search result for display.
func formatVolumeHuman(v googlebooks.Volume, index int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s\n", index, v.Title)
	fmt.Fprintf(&sb, "    Authors: %s\n", formatAuthors(v.Authors))
	fmt.Fprintf(&sb, "    Date: %s\n", v.PublishedDate)
	if v.PageCount > 0 {
		fmt.Fprintf(&sb, "    Pages: %d\n", v.PageCount)
	}
	fmt.Fprintf(&sb, "    Status: %s\n", v.AccessStatus())
	fmt.Fprintf(&sb, "    Google Books ID: %s\n", v.ID)
	if v.WebReaderLink != "" {
		fmt.Fprintf(&sb, "    URL: %s\n", v.WebReaderLink)
	}
	return sb.String()
}

// accessMark is the short status shown next to a batch match.
func accessMark(v googlebooks.Volume) string {
	if v.FullyViewable() {
		return "✓"
	}
	return "⚠ Limited access"
}

func rule(ch string) string {
	return strings.Repeat(ch, RuleWidth)
}
