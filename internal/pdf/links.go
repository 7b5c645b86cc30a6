// Package pdf reads the link annotations of a compiled document, to check
// that a build pass produced clickable book links.
package pdf

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/gbcite/internal/pagerange"
)

// Link is one URI link annotation.
type Link struct {
	Page int    `json:"page"` // 1-based page the annotation sits on
	URI  string `json:"uri"`
}

// ExtractLinks returns the URI link annotations of every page, in page order.
func ExtractLinks(filePath string) ([]Link, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return linksFrom(r), nil
}

// ExtractLinksReader returns the URI link annotations from a PDF reader.
func ExtractLinksReader(r io.ReaderAt, size int64) ([]Link, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	return linksFrom(pdfReader), nil
}

func linksFrom(r *pdf.Reader) []Link {
	var links []Link
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		annots := page.V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			a := annots.Index(j)
			if a.Key("Subtype").Name() != "Link" {
				continue
			}
			action := a.Key("A")
			if action.Key("S").Name() != "URI" {
				continue
			}
			if uri := action.Key("URI").RawString(); uri != "" {
				links = append(links, Link{Page: i, URI: uri})
			}
		}
	}
	return links
}

// BookLink is a link annotation that points into a Google Books volume.
type BookLink struct {
	Link
	ID         string `json:"id"`
	PageNumber int    `json:"page_number,omitempty"` // 0 when the link has no pg anchor
}

// FilterBooks keeps the links under base (e.g. https://books.google.com/books)
// that carry a volume id, decoding the id and the PA page anchor.
func FilterBooks(links []Link, base string) []BookLink {
	base = strings.TrimRight(base, "/")
	var books []BookLink
	for _, l := range links {
		prefix, query, ok := strings.Cut(l.URI, "?")
		if !ok || strings.TrimRight(prefix, "/") != base {
			continue
		}
		values, err := url.ParseQuery(query)
		if err != nil {
			continue
		}
		id := values.Get("id")
		if id == "" {
			continue
		}

		bl := BookLink{Link: l, ID: id}
		if pg := values.Get("pg"); strings.HasPrefix(pg, "PA") {
			if n, ok := pagerange.Parse(pg); ok {
				bl.PageNumber = n
			}
		}
		books = append(books, bl)
	}
	return books
}
