// Package bibtex parses BibTeX bibliographies and edits them in place.
package bibtex

import (
	"fmt"
	"strings"
)

// IDField is the field holding a Google Books volume ID.
const IDField = "googlebooksid"

// URLField is the field holding the plain (page-less) book URL.
const URLField = "url"

// Entry is one parsed BibTeX record.
type Entry struct {
	Type   string            // Lowercased entry type, e.g. "book"
	Key    string            // Citation key, case preserved
	Fields map[string]string // Lowercased field name -> value, whitespace collapsed
	Order  []string          // Field names in document order
	Line   int               // 1-based line of the '@'
	Start  int               // Byte offset of the '@'
	End    int               // Byte offset just past the closing delimiter
}

// Field returns a field value by case-insensitive name.
func (e Entry) Field(name string) (string, bool) {
	v, ok := e.Fields[strings.ToLower(name)]
	return v, ok
}

// GoogleBooksID returns the entry's Google Books ID, if set and non-empty.
func (e Entry) GoogleBooksID() (string, bool) {
	v, ok := e.Field(IDField)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// SyntaxError describes a record that could not be parsed.
type SyntaxError struct {
	Line int
	Key  string // Empty when the key itself could not be read
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("line %d: entry %s: %s", e.Line, e.Key, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}
