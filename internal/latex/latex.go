// Package latex renders the preamble commands that register Google Books
// IDs with the document.
package latex

import (
	"fmt"
	"strings"

	"github.com/matsen/gbcite/internal/atomicfile"
)

// FileHeader opens a generated preamble file.
const FileHeader = "% Google Books IDs\n% Add these to your document preamble\n"

// Command returns the preamble command registering id for key.
func Command(key, id string) string {
	return fmt.Sprintf(`\SetGoogleBooksID{%s}{%s}`, key, id)
}

// File renders commands as a preamble file: the header, a blank line,
// then one command per line.
func File(commands []string) string {
	var b strings.Builder
	b.WriteString(FileHeader)
	b.WriteString("\n")
	for _, c := range commands {
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes the preamble file for commands to path atomically.
func WriteFile(path string, commands []string) error {
	if err := atomicfile.WriteFile(path, []byte(File(commands)), 0o644); err != nil {
		return fmt.Errorf("writing preamble commands: %w", err)
	}
	return nil
}
