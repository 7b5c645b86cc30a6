// Package verify checks Google Books IDs against the bibliography
// metadata they were recorded for.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/gbcite/internal/author"
	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/googlebooks"
	"github.com/matsen/gbcite/internal/linkgen"
	"github.com/matsen/gbcite/internal/pagerange"
)

const (
	// DefaultThreshold is the word-overlap ratio FuzzyMatch requires.
	DefaultThreshold = 0.6

	// YearTolerance is how far the volume year may be from the expected one.
	YearTolerance = 3

	// PageNote accompanies page-level results.
	PageNote = "Book exists; page-level access depends on preview availability"
)

// VolumeGetter fetches a single volume. *googlebooks.Client implements it.
type VolumeGetter interface {
	GetVolume(ctx context.Context, id string) (*googlebooks.Volume, error)
}

// Expected holds the bibliography metadata an ID should match. Zero
// values are not checked.
type Expected struct {
	Author string
	Title  string
	Year   int
}

// Result is the outcome of verifying one ID.
type Result struct {
	Key          string          `json:"key,omitempty"`
	ID           string          `json:"id"`
	Valid        bool            `json:"valid"`
	Matches      bool            `json:"matches"`
	Title        string          `json:"title,omitempty"`
	Authors      []string        `json:"authors,omitempty"`
	Year         int             `json:"year,omitempty"`
	MatchDetails map[string]bool `json:"match_details,omitempty"`
	URL          string          `json:"url"`
	Error        string          `json:"error,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// Target is one bibliography entry to verify.
type Target struct {
	Key      string
	ID       string
	Expected Expected
}

// Verifier checks IDs through a VolumeGetter.
type Verifier struct {
	client VolumeGetter
	engine *linkgen.Engine
	logger *zap.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithBooksBaseURL sets the base URL used for the reported links.
func WithBooksBaseURL(u string) Option {
	return func(v *Verifier) {
		v.engine = linkgen.NewEngine(linkgen.WithBaseURL(u))
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier creates a Verifier.
func NewVerifier(client VolumeGetter, opts ...Option) *Verifier {
	v := &Verifier{
		client: client,
		engine: linkgen.NewEngine(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyID fetches id and compares it with exp.
//
// A missing volume or a failed request gives Valid=false with Error set;
// it is not returned as an error so batch verification can continue.
func (v *Verifier) VerifyID(ctx context.Context, id string, exp Expected) Result {
	res := Result{
		ID:  id,
		URL: v.engine.BuildURL(id, 0, false),
	}

	vol, err := v.client.GetVolume(ctx, id)
	if err != nil {
		v.logger.Debug("volume lookup failed", zap.String("id", id), zap.Error(err))
		if googlebooks.IsNotFound(err) {
			res.Error = "ID not found (404)"
		} else {
			res.Error = err.Error()
		}
		return res
	}

	res.Valid = true
	res.Matches = true
	res.Title = vol.Title
	res.Authors = vol.Authors
	res.Year = vol.Year()
	res.MatchDetails = make(map[string]bool)

	if exp.Author != "" {
		ok := authorMatches(exp.Author, vol.Authors)
		res.MatchDetails["author"] = ok
		res.Matches = res.Matches && ok
	}
	if exp.Title != "" {
		ok := FuzzyMatch(exp.Title, vol.Title, DefaultThreshold)
		res.MatchDetails["title"] = ok
		res.Matches = res.Matches && ok
	}
	if exp.Year != 0 {
		ok := res.Year != 0 && abs(res.Year-exp.Year) <= YearTolerance
		res.MatchDetails["year"] = ok
		res.Matches = res.Matches && ok
	}
	return res
}

// VerifyPage checks that id exists and reports the deep link for page.
// Page-level preview access cannot be confirmed through the API.
func (v *Verifier) VerifyPage(ctx context.Context, id string, page int) Result {
	res := v.VerifyID(ctx, id, Expected{})
	if !res.Valid {
		return res
	}
	res.URL = v.engine.BuildURL(id, page, true)
	res.Note = PageNote
	return res
}

// VerifyAll verifies each target in order. Requests are paced by the
// client's rate limiter. A canceled context stops early and returns the
// results gathered so far with the context error.
func (v *Verifier) VerifyAll(ctx context.Context, targets []Target) ([]Result, error) {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := v.VerifyID(ctx, t.ID, t.Expected)
		res.Key = t.Key
		results = append(results, res)
	}
	return results, nil
}

// Targets collects the book-like entries that carry a Google Books ID,
// sorted by key. Duplicate keys keep the last entry, as the index does.
func Targets(entries []bibtex.Entry) []Target {
	byKey := make(map[string]Target)
	for _, e := range entries {
		if !bibtex.BookTypes[e.Type] {
			continue
		}
		id, ok := e.GoogleBooksID()
		if !ok {
			delete(byKey, e.Key)
			continue
		}
		au, _ := e.Field("author")
		title, _ := e.Field("title")
		year, _ := strconv.Atoi(e.Year())
		byKey[e.Key] = Target{
			Key: e.Key,
			ID:  id,
			Expected: Expected{
				Author: au,
				Title:  bibtex.StripBraces(title),
				Year:   year,
			},
		}
	}

	targets := make([]Target, 0, len(byKey))
	for _, t := range byKey {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Key < targets[j].Key })
	return targets
}

// ParsePage accepts a page argument in the forms the document uses
// ("47", "p.~47", "pp. 45-67") and returns the number to link to.
func ParsePage(arg string) (int, error) {
	n, ok := pagerange.Parse(arg)
	if !ok {
		return 0, fmt.Errorf("no page number in %q", arg)
	}
	return n, nil
}

// authorMatches compares a BibTeX author field with the volume's authors:
// structured name matching first, then fuzzy matching on display names.
func authorMatches(field string, volumeAuthors []string) bool {
	if author.AnyMatch(field, volumeAuthors) {
		return true
	}
	for _, name := range author.ParseList(field) {
		for _, va := range volumeAuthors {
			if FuzzyMatch(name.Display(), va, DefaultThreshold) {
				return true
			}
		}
	}
	return false
}

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalize lowercases s, removes punctuation and collapses whitespace.
func Normalize(s string) string {
	s = punctuation.ReplaceAllString(strings.ToLower(s), "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FuzzyMatch reports whether a and b are similar: one normalized string
// contains the other, or the shared words make up at least threshold of
// the shorter string's words. An empty string matches nothing.
func FuzzyMatch(a, b string, threshold float64) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	wa, wb := wordSet(na), wordSet(nb)
	overlap := 0
	for w := range wa {
		if wb[w] {
			overlap++
		}
	}
	return float64(overlap)/float64(min(len(wa), len(wb))) >= threshold
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
