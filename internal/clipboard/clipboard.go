// Package clipboard copies generated preamble commands to the system
// clipboard through the platform's copy tool.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no copy tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tools lists the copy commands tried per GOOS, in order of preference.
var tools = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"freebsd": {{"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip"}},
}

// findTool returns the first installed copy command for goos.
func findTool(goos string, lookPath func(string) (string, error)) ([]string, error) {
	for _, argv := range tools[goos] {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := findTool(runtime.GOOS, exec.LookPath)
	return err == nil
}

// Copy copies text to the system clipboard.
// Returns ErrClipboardUnavailable if no copy tool is installed.
func Copy(text string) error {
	argv, err := findTool(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}

// CopyLines copies lines joined by newlines, with a trailing newline so
// pasted commands end on their own line.
func CopyLines(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	return Copy(strings.Join(lines, "\n") + "\n")
}
