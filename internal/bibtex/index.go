package bibtex

import (
	"fmt"
	"os"
	"sort"
)

// BookTypes are the entry types that can carry a Google Books ID.
var BookTypes = map[string]bool{
	"book":         true,
	"mvbook":       true,
	"inbook":       true,
	"bookinbook":   true,
	"collection":   true,
	"incollection": true,
}

// Index maps citation keys to Google Books IDs.
type Index struct {
	// IDs maps citation keys to Google Books IDs. Keys without an ID are absent.
	IDs map[string]string
	// Keys records every book-type citation key seen, with or without an ID.
	Keys map[string]bool
	// Skipped holds the records that could not be parsed.
	Skipped []error
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		IDs:  make(map[string]string),
		Keys: make(map[string]bool),
	}
}

// BuildIndex indexes the book entries of a bibliography.
//
// Malformed records are skipped (see Skipped). When several entries share
// a key the last one in document order decides the mapping, including
// removing an ID an earlier duplicate carried.
func BuildIndex(text string) *Index {
	idx := NewIndex()
	entries, errs := Parse(text)
	idx.Skipped = errs

	for _, e := range entries {
		if !BookTypes[e.Type] {
			continue
		}
		idx.Keys[e.Key] = true
		if id, ok := e.GoogleBooksID(); ok {
			idx.IDs[e.Key] = id
		} else {
			delete(idx.IDs, e.Key)
		}
	}
	return idx
}

// ParseFile builds an index from a .bib file.
func ParseFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return BuildIndex(string(data)), nil
}

// Lookup returns the Google Books ID for a citation key.
func (idx *Index) Lookup(key string) (string, bool) {
	id, ok := idx.IDs[key]
	return id, ok
}

// UnresolvedKeys returns book keys that have no ID yet, sorted.
func (idx *Index) UnresolvedKeys() []string {
	var keys []string
	for k := range idx.Keys {
		if _, ok := idx.IDs[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
