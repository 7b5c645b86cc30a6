package bibtex

import (
	"regexp"
	"strings"
)

// Book holds the fields used to search for a @book entry.
type Book struct {
	Key    string `json:"key"`
	Author string `json:"author"`
	Title  string `json:"title"`
	Year   string `json:"year,omitempty"`
	ID     string `json:"googlebooksid,omitempty"` // Existing ID, if any
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Year returns the four-digit publication year from the year field, or
// from a biblatex date such as {1969-05-01}. It is "" when neither holds one.
func (e Entry) Year() string {
	year, _ := e.Field("year")
	if year == "" {
		year, _ = e.Field("date")
	}
	return yearPattern.FindString(year)
}

// Books returns the @book entries that have both an author and a title,
// in document order.
func Books(entries []Entry) []Book {
	var books []Book
	for _, e := range entries {
		if e.Type != "book" {
			continue
		}
		author, _ := e.Field("author")
		title, _ := e.Field("title")
		author = StripBraces(author)
		title = StripBraces(title)
		if author == "" || title == "" {
			continue
		}

		id, _ := e.GoogleBooksID()

		books = append(books, Book{
			Key:    e.Key,
			Author: author,
			Title:  title,
			Year:   e.Year(),
			ID:     id,
		})
	}
	return books
}

// StripBraces removes the case-protecting braces BibTeX titles carry,
// e.g. "The {World} as {Will}" -> "The World as Will".
func StripBraces(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return collapseSpace(s)
}
