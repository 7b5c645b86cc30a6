package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/matsen/gbcite/internal/author"
	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/googlebooks"
)

// volumeSearcher is the part of the Google Books client batch lookups need.
type volumeSearcher interface {
	Search(ctx context.Context, q googlebooks.Query) ([]googlebooks.Volume, error)
}

// BookMatch is the top search hit for one bibliography entry.
type BookMatch struct {
	Key    string              `json:"key"`
	Author string              `json:"author"`
	Title  string              `json:"title"`
	Year   string              `json:"year,omitempty"`
	Match  *googlebooks.Volume `json:"match,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// lookupBooks searches Google Books for each book in turn and keeps the
// top hit. A failed search is recorded on the entry and the batch goes on;
// a canceled context stops it.
func lookupBooks(ctx context.Context, client volumeSearcher, books []bibtex.Book, progress func(BookMatch)) ([]BookMatch, error) {
	matches := make([]BookMatch, 0, len(books))
	for _, b := range books {
		if err := ctx.Err(); err != nil {
			return matches, err
		}

		year, _ := strconv.Atoi(b.Year)
		m := BookMatch{Key: b.Key, Author: b.Author, Title: b.Title, Year: b.Year}

		results, err := client.Search(ctx, googlebooks.Query{
			Author: author.SearchTerm(b.Author),
			Title:  b.Title,
			Year:   year,
		})
		switch {
		case err != nil:
			logger.Warn("search failed", zap.String("key", b.Key), zap.Error(err))
			m.Error = err.Error()
		case len(results) > 0:
			top := results[0]
			m.Match = &top
		}

		if progress != nil {
			progress(m)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// readBooks reads the searchable @book entries of a bibliography.
func readBooks(path string) []bibtex.Book {
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
	books := bibtex.Books(entries)
	if len(books) == 0 {
		exitWithError(ExitDataError, "no book entries found in %s", path)
	}
	return books
}

// printProgress is the human-mode progress line for one lookup.
func printProgress(m BookMatch) {
	fmt.Fprintf(os.Stderr, "Searching: %s\n", m.Key)
	fmt.Fprintf(os.Stderr, "  %s - %s (%s)\n", m.Author, m.Title, m.Year)
	switch {
	case m.Error != "":
		fmt.Fprintf(os.Stderr, "  → Error: %s\n\n", m.Error)
	case m.Match == nil:
		fmt.Fprint(os.Stderr, "  → No results found\n\n")
	default:
		fmt.Fprintf(os.Stderr, "  → Found: %s [%s]\n", truncateString(m.Match.Title, BatchTitleMaxLen), accessMark(*m.Match))
		fmt.Fprintf(os.Stderr, "     Google Books ID: %s\n\n", m.Match.ID)
	}
}
