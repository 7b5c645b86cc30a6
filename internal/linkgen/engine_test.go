package linkgen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/gbcite/internal/occurrence"
)

// mapLookup is an IDLookup backed by a map.
type mapLookup map[string]string

func (m mapLookup) Lookup(key string) (string, bool) {
	id, ok := m[key]
	return id, ok
}

func TestBuildURL(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name    string
		id      string
		page    int
		hasPage bool
		want    string
	}{
		{name: "with page", id: "ABC123", page: 312, hasPage: true, want: "https://books.google.com/books?id=ABC123&pg=PA312"},
		{name: "without page", id: "ABC123", want: "https://books.google.com/books?id=ABC123"},
		{name: "page one", id: "X-y_Z", page: 1, hasPage: true, want: "https://books.google.com/books?id=X-y_Z&pg=PA1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.BuildURL(tt.id, tt.page, tt.hasPage); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithBaseURL(t *testing.T) {
	e := NewEngine(WithBaseURL("https://books.google.de/books"))
	if got := e.BuildURL("ID", 0, false); got != "https://books.google.de/books?id=ID" {
		t.Errorf("BuildURL() = %q", got)
	}
	if NewEngine(WithBaseURL("")).baseURL != DefaultBooksBaseURL {
		t.Error("empty base URL should keep the default")
	}
}

func TestResolve(t *testing.T) {
	ids := mapLookup{"Book1": "ABC123", "Book2": "XYZ789"}
	occs := []occurrence.Occurrence{
		{Key: "Book1", Page: "p.~312"},
		{Key: "Book2", Page: "pp.~45-67"},
	}

	links, count := NewEngine().Resolve(occs, ids)
	if count != 2 || len(links) != 2 {
		t.Fatalf("Resolve() count = %d, len = %d, want 2", count, len(links))
	}
	if !strings.Contains(links[0].URL, "id=ABC123&pg=PA312") {
		t.Errorf("links[0].URL = %q", links[0].URL)
	}
	if !strings.Contains(links[1].URL, "id=XYZ789&pg=PA45") {
		t.Errorf("links[1].URL = %q", links[1].URL)
	}
	if links[1].PageNumber == nil || *links[1].PageNumber != 45 {
		t.Errorf("links[1].PageNumber = %v, want 45", links[1].PageNumber)
	}
}

func TestResolve_Dedup(t *testing.T) {
	ids := mapLookup{"TestBook": "ABC123xyz"}
	occs := []occurrence.Occurrence{
		{Key: "TestBook", Page: "p.~312"},
		{Key: "TestBook", Page: "pp.~45-67"},
		{Key: "TestBook", Page: "p.~312"},
		{Key: "TestBook", Page: "p.~312"},
		{Key: "TestBook", Page: "p. 312"},
	}

	links, count := NewEngine().Resolve(occs, ids)
	if count != 3 {
		t.Fatalf("count = %d, want 3 distinct (key, page) pairs", count)
	}

	wantPages := []string{"p.~312", "pp.~45-67", "p. 312"}
	for i, want := range wantPages {
		if links[i].Page != want {
			t.Errorf("links[%d].Page = %q, want %q (first-occurrence order)", i, links[i].Page, want)
		}
	}
}

func TestResolve_DropsUnresolvedKeys(t *testing.T) {
	ids := mapLookup{"TestBook": "ABC123xyz"}
	occs := []occurrence.Occurrence{
		{Key: "NoID", Page: "p.~100"},
		{Key: "TestBook", Page: "p.~312"},
		{Key: "NoID", Page: "p.~101"},
	}

	links, count := NewEngine().Resolve(occs, ids)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if links[0].Key != "TestBook" {
		t.Errorf("links[0].Key = %q", links[0].Key)
	}

	if got := UnresolvedKeys(occs, ids); len(got) != 1 || got[0] != "NoID" {
		t.Errorf("UnresolvedKeys() = %v, want [NoID]", got)
	}
}

func TestResolve_NoPage(t *testing.T) {
	ids := mapLookup{"A": "IDA"}
	occs := []occurrence.Occurrence{
		{Key: "A"},
		{Key: "A", Page: "see note"},
	}

	links, count := NewEngine().Resolve(occs, ids)
	if count != 2 {
		t.Fatalf("count = %d, want 2 (absent and unparsable pages are distinct pairs)", count)
	}
	for _, l := range links {
		if l.URL != "https://books.google.com/books?id=IDA" {
			t.Errorf("URL for page %q = %q, want no page anchor", l.Page, l.URL)
		}
		if l.PageNumber != nil {
			t.Errorf("PageNumber for page %q = %d, want nil", l.Page, *l.PageNumber)
		}
	}
}

func TestResolve_Empty(t *testing.T) {
	links, count := NewEngine().Resolve(nil, mapLookup{})
	if count != 0 || len(links) != 0 {
		t.Errorf("Resolve(nil) = %v, %d", links, count)
	}
}

// writeFixtures writes the occurrence log and bibliography used by the
// end-to-end tests and returns their paths plus an output path.
func writeFixtures(t *testing.T, log, bib string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.gbaux")
	bibPath := filepath.Join(dir, "test.bib")
	if err := os.WriteFile(logPath, []byte(log), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bibPath, []byte(bib), 0644); err != nil {
		t.Fatal(err)
	}
	return logPath, bibPath, filepath.Join(dir, "test.gblinks.tex")
}

func TestGenerateLinks_EndToEnd(t *testing.T) {
	logPath, bibPath, outPath := writeFixtures(t,
		`[{"key": "Book1", "page": "p.~312"}, {"key": "Book2", "page": "pp.~45-67"}]`,
		`
@book{Book1,
  title = {Test},
  googlebooksid = {ABC123},
}

@book{Book2,
  title = {Other},
  googlebooksid = {XYZ789},
}
`)

	count, err := GenerateLinks(logPath, bibPath, outPath)
	if err != nil {
		t.Fatalf("GenerateLinks() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	for _, want := range []string{"id=ABC123&pg=PA312", "id=XYZ789&pg=PA45"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("output missing %q:\n%s", want, content)
		}
	}
}

func TestGenerateLinks_MissingID(t *testing.T) {
	logPath, bibPath, outPath := writeFixtures(t,
		`[
  {"key": "TestBook", "page": "p.~312"},
  {"key": "TestBook", "page": "pp.~45-67"},
  {"key": "NoID", "page": "p.~100"}
]`,
		`
@book{TestBook,
  author = {Test Author},
  title = {Test Title},
  year = {2000},
  googlebooksid = {ABC123xyz},
}

@book{NoID,
  author = {Other},
  title = {No ID},
  year = {2001},
}
`)

	count, err := GenerateLinks(logPath, bibPath, outPath)
	if err != nil {
		t.Fatalf("GenerateLinks() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	content, _ := os.ReadFile(outPath)
	got := string(content)
	for _, want := range []string{"gblink@TestBook@p.~312", "id=ABC123xyz&pg=PA312", "id=ABC123xyz&pg=PA45"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "NoID") {
		t.Errorf("output should not mention NoID:\n%s", got)
	}
}

func TestGenerateLinks_Idempotent(t *testing.T) {
	logPath, bibPath, outPath := writeFixtures(t,
		`[{"key": "A", "page": "p.~3"}, {"key": "B"}, {"key": "A", "page": "p.~3"}, {"key": "A", "page": "pp.~9-10"}]`,
		`@book{A, googlebooksid = {IDA}}
@book{B, googlebooksid = {IDB}}`)

	if _, err := GenerateLinks(logPath, bibPath, outPath); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(outPath)

	if _, err := GenerateLinks(logPath, bibPath, outPath); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(outPath)

	if string(first) != string(second) {
		t.Errorf("output changed between runs:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestGenerateLinks_MissingLog(t *testing.T) {
	dir := t.TempDir()
	bibPath := filepath.Join(dir, "test.bib")
	if err := os.WriteFile(bibPath, []byte(`@book{A, googlebooksid = {IDA}}`), 0644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "test.gblinks.tex")

	_, err := GenerateLinks(filepath.Join(dir, "test.gbaux"), bibPath, outPath)
	if !errors.Is(err, occurrence.ErrLogNotFound) {
		t.Fatalf("GenerateLinks() error = %v, want ErrLogNotFound", err)
	}
	var fe *occurrence.FormatError
	if errors.As(err, &fe) {
		t.Error("missing log reported as a parse error")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("no output should be written when the log is missing")
	}
}

func TestGenerateLinks_MalformedLog(t *testing.T) {
	logPath, bibPath, outPath := writeFixtures(t, `not json`, `@book{A, googlebooksid = {IDA}}`)

	_, err := GenerateLinks(logPath, bibPath, outPath)
	var fe *occurrence.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("GenerateLinks() error = %v, want *occurrence.FormatError", err)
	}
}

func TestGenerateLinks_UnwritableOutput(t *testing.T) {
	logPath, bibPath, _ := writeFixtures(t, `[{"key": "A"}]`, `@book{A, googlebooksid = {IDA}}`)
	outPath := filepath.Join(t.TempDir(), "missing-dir", "out.gblinks.tex")

	_, err := GenerateLinks(logPath, bibPath, outPath)
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("GenerateLinks() error = %v, want *WriteError", err)
	}
	if we.Path != outPath {
		t.Errorf("WriteError.Path = %q, want %q", we.Path, outPath)
	}
}

func TestRun_Report(t *testing.T) {
	logPath, bibPath, outPath := writeFixtures(t,
		`[{"key": "A", "page": "p.~1"}, {"key": "Missing"}, {"key": "A", "page": "p.~1"}]`,
		`@book{A, googlebooksid = {IDA}}
@book{Uncited, title = {No ID yet}}
@book{Broken, title {x}}`)

	report, err := NewEngine().Run(logPath, bibPath, outPath)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Links != 1 || report.Occurrences != 3 {
		t.Errorf("report = %+v, want 1 link from 3 occurrences", report)
	}
	if len(report.Unresolved) != 1 || report.Unresolved[0] != "Missing" {
		t.Errorf("Unresolved = %v", report.Unresolved)
	}
	if report.SkippedRecords != 1 {
		t.Errorf("SkippedRecords = %d, want 1", report.SkippedRecords)
	}
	if len(report.MissingIDs) != 1 || report.MissingIDs[0] != "Uncited" {
		t.Errorf("MissingIDs = %v, want [Uncited]", report.MissingIDs)
	}
}

func TestJobPaths(t *testing.T) {
	for _, job := range []string{"thesis", "thesis.tex"} {
		log, bib, out := JobPaths(job)
		if log != "thesis.gbaux" || bib != "thesis.bib" || out != "thesis.gblinks.tex" {
			t.Errorf("JobPaths(%q) = %s, %s, %s", job, log, bib, out)
		}
	}
}
