// Package linkgen turns recorded citation occurrences into Google Books
// deep links and writes them as TeX macros for the next build pass.
package linkgen

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matsen/gbcite/internal/bibtex"
	"github.com/matsen/gbcite/internal/occurrence"
	"github.com/matsen/gbcite/internal/pagerange"
	"go.uber.org/zap"
)

// DefaultBooksBaseURL is the Google Books web reader endpoint.
const DefaultBooksBaseURL = "https://books.google.com/books"

// LinksExt is the extension of the generated macro file.
const LinksExt = ".gblinks.tex"

// IDLookup resolves citation keys to Google Books IDs.
// *bibtex.Index implements it.
type IDLookup interface {
	Lookup(key string) (string, bool)
}

// Link is one resolved deep link, identified by (Key, Page).
type Link struct {
	Key        string `json:"key"`
	Page       string `json:"page,omitempty"`        // Raw annotation
	PageNumber *int   `json:"page_number,omitempty"` // Nil when Page is absent or has no digits
	ID         string `json:"googlebooksid"`
	URL        string `json:"url"`
}

// pair is the emission identity of a link.
type pair struct {
	key  string
	page string
}

// Engine resolves occurrences against a bibliography.
type Engine struct {
	baseURL string
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaseURL sets the web reader base URL deep links are built on.
func WithBaseURL(u string) Option {
	return func(e *Engine) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "?")
		}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		baseURL: DefaultBooksBaseURL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildURL returns the deep link for a volume, anchored at page when
// hasPage is true: <base>?id=<id>[&pg=PA<page>].
func (e *Engine) BuildURL(id string, page int, hasPage bool) string {
	u := e.baseURL + "?id=" + url.QueryEscape(id)
	if hasPage {
		u += "&pg=" + pagerange.Format(page)
	}
	return u
}

// Resolve joins occurrences with the ID lookup.
//
// Occurrences whose key has no ID are dropped. Repeated (key, page) pairs
// collapse to the first one, and links keep first-occurrence order, so the
// same input always yields the same sequence. The returned count is the
// number of links.
func (e *Engine) Resolve(occs []occurrence.Occurrence, ids IDLookup) ([]Link, int) {
	seen := make(map[pair]bool)
	unresolved := make(map[string]bool)
	var links []Link

	for _, occ := range occs {
		p := pair{key: occ.Key, page: occ.Page}
		if seen[p] {
			continue
		}

		id, ok := ids.Lookup(occ.Key)
		if !ok {
			if !unresolved[occ.Key] {
				unresolved[occ.Key] = true
				e.logger.Debug("no googlebooksid for citation key", zap.String("key", occ.Key))
			}
			continue
		}
		seen[p] = true

		link := Link{Key: occ.Key, Page: occ.Page, ID: id}
		page, hasPage := pagerange.Parse(occ.Page)
		if hasPage {
			link.PageNumber = &page
		} else if occ.HasPage() {
			e.logger.Debug("page annotation has no page number",
				zap.String("key", occ.Key), zap.String("page", occ.Page))
		}
		link.URL = e.BuildURL(id, page, hasPage)
		links = append(links, link)
	}

	return links, len(links)
}

// UnresolvedKeys returns the distinct keys in occs that ids cannot
// resolve, in first-occurrence order.
func UnresolvedKeys(occs []occurrence.Occurrence, ids IDLookup) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, occ := range occs {
		if seen[occ.Key] {
			continue
		}
		seen[occ.Key] = true
		if _, ok := ids.Lookup(occ.Key); !ok {
			keys = append(keys, occ.Key)
		}
	}
	return keys
}

// Report summarizes one generation run.
type Report struct {
	Links          int      `json:"links"`
	Occurrences    int      `json:"occurrences"`
	Unresolved     []string `json:"unresolved,omitempty"`
	SkippedRecords int      `json:"skipped_records,omitempty"`
	Output         string   `json:"output"`
	MissingIDs     []string `json:"missing_ids,omitempty"` // Book entries without a googlebooksid, cited or not
}

// Run reads the occurrence log and bibliography, resolves links and
// writes the macro file. A missing log is returned unchanged (see
// occurrence.ErrLogNotFound) so callers can tell the user to build first.
func (e *Engine) Run(logPath, bibPath, outPath string) (*Report, error) {
	occs, err := occurrence.Read(logPath)
	if err != nil {
		return nil, err
	}

	idx, err := bibtex.ParseFile(bibPath)
	if err != nil {
		return nil, err
	}
	for _, skipped := range idx.Skipped {
		e.logger.Debug("skipping malformed bibliography record",
			zap.String("bib", bibPath), zap.Error(skipped))
	}

	links, count := e.Resolve(occs, idx)
	if err := Write(links, outPath); err != nil {
		return nil, err
	}

	e.logger.Info("wrote link macros",
		zap.String("output", outPath), zap.Int("links", count), zap.Int("occurrences", len(occs)))

	return &Report{
		Links:          count,
		Occurrences:    len(occs),
		Unresolved:     UnresolvedKeys(occs, idx),
		SkippedRecords: len(idx.Skipped),
		Output:         outPath,
		MissingIDs:     idx.UnresolvedKeys(),
	}, nil
}

// Generate is Run returning only the number of links written.
func (e *Engine) Generate(logPath, bibPath, outPath string) (int, error) {
	report, err := e.Run(logPath, bibPath, outPath)
	if err != nil {
		return 0, err
	}
	return report.Links, nil
}

// GenerateLinks writes the link macro file for a build with default settings
// and returns the number of links written.
func GenerateLinks(logPath, bibPath, outPath string) (int, error) {
	return NewEngine().Generate(logPath, bibPath, outPath)
}

// JobPaths returns the occurrence log, bibliography and output paths
// for a LaTeX job name such as "thesis".
func JobPaths(job string) (logPath, bibPath, outPath string) {
	job = strings.TrimSuffix(job, ".tex")
	return job + occurrence.LogExt, job + ".bib", job + LinksExt
}

// String formats a link for human-readable output.
func (l Link) String() string {
	if l.Page == "" {
		return fmt.Sprintf("%s -> %s", l.Key, l.URL)
	}
	return fmt.Sprintf("%s [%s] -> %s", l.Key, l.Page, l.URL)
}
