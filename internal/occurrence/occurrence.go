// Package occurrence reads the citation occurrences a document build
// records in its .gbaux file.
package occurrence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LogExt is the extension of the occurrence log written by the LaTeX package.
const LogExt = ".gbaux"

// ErrLogNotFound means the occurrence log does not exist yet, i.e. the
// document has not been built with the gbcite package loaded.
var ErrLogNotFound = errors.New("occurrence log not found")

// Occurrence is one use of a citation key during a document build.
type Occurrence struct {
	Key  string `json:"key"`
	Page string `json:"page,omitempty"` // Raw annotation such as "p.~312"; empty when absent
}

// HasPage reports whether a page annotation was given.
func (o Occurrence) HasPage() bool {
	return o.Page != ""
}

// FormatError reports an occurrence log that exists but is not a JSON
// list of {"key", "page"} records.
type FormatError struct {
	Path   string
	Record int // 1-based record number; 0 when the document as a whole is malformed
	Err    error
}

func (e *FormatError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("malformed occurrence log %s: record %d: %v", e.Path, e.Record, e.Err)
	}
	return fmt.Sprintf("malformed occurrence log %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err means the occurrence log is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLogNotFound)
}

// rawRecord mirrors the JSON so missing, null and non-string fields can be told apart.
type rawRecord struct {
	Key  *string         `json:"key"`
	Page json.RawMessage `json:"page"`
}

// Read reads the occurrence log at path, preserving record order and duplicates.
func Read(path string) ([]Occurrence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, path)
		}
		return nil, fmt.Errorf("reading occurrence log: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes occurrence log content. path is used in errors only.
func Parse(path string, data []byte) ([]Occurrence, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &FormatError{Path: path, Err: errors.New("empty file")}
	}
	// null would decode to an empty list.
	if trimmed[0] != '[' {
		return nil, &FormatError{Path: path, Err: errors.New("not a list of records")}
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}

	occs := make([]Occurrence, 0, len(raw))
	for i, r := range raw {
		if r.Key == nil || *r.Key == "" {
			return nil, &FormatError{Path: path, Record: i + 1, Err: errors.New("missing key")}
		}
		page, err := decodePage(r.Page)
		if err != nil {
			return nil, &FormatError{Path: path, Record: i + 1, Err: err}
		}
		occs = append(occs, Occurrence{Key: *r.Key, Page: page})
	}
	return occs, nil
}

// decodePage accepts an absent field, null, or a string.
func decodePage(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var page string
	if err := json.Unmarshal(raw, &page); err != nil {
		return "", errors.New("page must be a string")
	}
	return page, nil
}
