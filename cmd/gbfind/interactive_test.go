package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/googlebooks"
)

// fakeSearcher returns canned volumes and records the queries it saw.
type fakeSearcher struct {
	results map[string][]googlebooks.Volume // keyed by title
	err     error
	queries []googlebooks.Query
}

func (f *fakeSearcher) Search(_ context.Context, q googlebooks.Query) ([]googlebooks.Volume, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q.Title], nil
}

var schopenhauer = googlebooks.Volume{
	ID:            "will1969",
	Title:         "The World as Will and Representation",
	Authors:       []string{"Arthur Schopenhauer"},
	PublishedDate: "1969",
	Viewability:   googlebooks.ViewPartial,
}

func TestInteractiveSession(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]googlebooks.Volume{
		"World as Will": {schopenhauer},
	}}

	tests := []struct {
		name     string
		input    string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{
			name:     "select and print command",
			input:    "Schopenhauer\nWorld as Will\n1969\n1\nschopenhauer1969\n",
			wantCode: ExitSuccess,
			wantOut:  `\SetGoogleBooksID{schopenhauer1969}{will1969}`,
		},
		{
			name:     "quit at selection",
			input:    "Schopenhauer\nWorld as Will\n\nq\n",
			wantCode: ExitSuccess,
			wantOut:  "[1] The World as Will and Representation",
		},
		{
			name:     "empty author and title",
			input:    "\n\n\n",
			wantCode: ExitError,
			wantErr:  "Must provide at least author or title",
		},
		{
			name:     "selection out of range",
			input:    "Schopenhauer\nWorld as Will\n\n7\n",
			wantCode: ExitError,
			wantErr:  "Invalid selection",
		},
		{
			name:     "selection not a number",
			input:    "Schopenhauer\nWorld as Will\n\nfirst\n",
			wantCode: ExitError,
			wantErr:  "Invalid input",
		},
		{
			name:     "no results",
			input:    "Nobody\nNothing\n\n",
			wantCode: ExitError,
			wantOut:  "No results found.",
		},
		{
			name:     "bad year",
			input:    "Schopenhauer\nWorld as Will\nnineteen\n",
			wantCode: ExitError,
			wantErr:  "invalid year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := interactiveSession(context.Background(), strings.NewReader(tt.input), &out, &errOut, searcher)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, out.String(), errOut.String())
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, out.String())
			}
			if tt.wantErr != "" && !strings.Contains(errOut.String(), tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, errOut.String())
			}
		})
	}
}

func TestInteractiveSession_SearchError(t *testing.T) {
	searcher := &fakeSearcher{err: googlebooks.ErrRateLimited}
	var out, errOut bytes.Buffer

	code := interactiveSession(context.Background(), strings.NewReader("Kant\nCritique\n\n"), &out, &errOut, searcher)
	if code != ExitAPIError {
		t.Errorf("code = %d, want %d", code, ExitAPIError)
	}
}

func TestLookupBooks(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]googlebooks.Volume{
		"The World as Will and Representation": {schopenhauer},
	}}
	books := []bibtex.Book{
		{Key: "schopenhauer1969", Author: "Schopenhauer, Arthur", Title: "The World as Will and Representation", Year: "1969"},
		{Key: "unknown", Author: "Nobody", Title: "Nothing"},
	}

	var seen []string
	matches, err := lookupBooks(context.Background(), searcher, books, func(m BookMatch) {
		seen = append(seen, m.Key)
	})
	if err != nil {
		t.Fatalf("lookupBooks() error = %v", err)
	}

	if len(matches) != 2 || len(seen) != 2 {
		t.Fatalf("got %d matches, %d progress calls, want 2 each", len(matches), len(seen))
	}
	if matches[0].Match == nil || matches[0].Match.ID != "will1969" {
		t.Errorf("matches[0] = %+v, want will1969", matches[0])
	}
	if matches[1].Match != nil {
		t.Errorf("matches[1].Match = %+v, want nil", matches[1].Match)
	}

	q := searcher.queries[0]
	if q.Author != "Arthur Schopenhauer" || q.Year != 1969 {
		t.Errorf("query = %+v, want author in display order and year 1969", q)
	}
	if searcher.queries[1].Year != 0 {
		t.Errorf("missing year should not filter, got %d", searcher.queries[1].Year)
	}
}

func TestLookupBooks_ErrorsContinue(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("network down")}
	books := []bibtex.Book{{Key: "a", Author: "A", Title: "T1"}, {Key: "b", Author: "B", Title: "T2"}}

	matches, err := lookupBooks(context.Background(), searcher, books, nil)
	if err != nil {
		t.Fatalf("lookupBooks() error = %v", err)
	}
	for _, m := range matches {
		if m.Error != "network down" {
			t.Errorf("%s: Error = %q, want network down", m.Key, m.Error)
		}
	}
}

func TestLookupBooks_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, err := lookupBooks(ctx, &fakeSearcher{}, []bibtex.Book{{Key: "a", Title: "T"}}, nil)
	if err == nil {
		t.Error("lookupBooks() with canceled context should fail")
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0", len(matches))
	}
}
