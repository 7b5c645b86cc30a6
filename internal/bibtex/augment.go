package bibtex

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/matsen/gbcite/internal/atomicfile"
)

// BackupSuffix is appended to the .bib path for the pre-augment copy.
const BackupSuffix = ".backup"

// AugmentOptions controls how IDs are injected.
type AugmentOptions struct {
	// URLFor builds the url field for an ID. Nil means no url field.
	URLFor func(id string) string
	// Backup writes the original file to path + BackupSuffix first.
	Backup bool
}

// AugmentReport lists what happened to each requested key.
type AugmentReport struct {
	Updated    []string `json:"updated"`
	AlreadySet []string `json:"already_set,omitempty"`
	NotFound   []string `json:"not_found,omitempty"`
	BackupPath string   `json:"backup_path,omitempty"`
}

// Augment adds googlebooksid (and optionally url) fields to the @book
// entries named in updates (citation key -> ID). Entries that already
// have a googlebooksid are left alone. The rest of the text is preserved
// byte for byte.
func Augment(text string, updates map[string]string, opts AugmentOptions) (string, AugmentReport) {
	var report AugmentReport

	entries, _ := Parse(text)
	byKey := make(map[string][]Entry)
	for _, e := range entries {
		if e.Type == "book" {
			byKey[e.Key] = append(byKey[e.Key], e)
		}
	}

	var targets []Entry
	for key := range updates {
		matches, ok := byKey[key]
		if !ok {
			report.NotFound = append(report.NotFound, key)
			continue
		}
		updated := false
		for _, e := range matches {
			if _, has := e.Field(IDField); has {
				continue
			}
			targets = append(targets, e)
			updated = true
		}
		if updated {
			report.Updated = append(report.Updated, key)
		} else {
			report.AlreadySet = append(report.AlreadySet, key)
		}
	}

	// Splice from the end so earlier offsets stay valid.
	sort.Slice(targets, func(i, j int) bool { return targets[i].Start > targets[j].Start })
	for _, e := range targets {
		text = text[:e.Start] + injectFields(text[e.Start:e.End], updates[e.Key], opts) + text[e.End:]
	}

	sort.Strings(report.Updated)
	sort.Strings(report.AlreadySet)
	sort.Strings(report.NotFound)
	return text, report
}

// injectFields inserts the new fields before the record's closing delimiter.
func injectFields(record, id string, opts AugmentOptions) string {
	closer := record[len(record)-1:]
	body := strings.TrimRight(record[:len(record)-1], " \t\r\n")
	if !strings.HasSuffix(body, ",") {
		body += ","
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString(fmt.Sprintf("\n  %s = {%s},", IDField, id))
	if opts.URLFor != nil {
		b.WriteString(fmt.Sprintf("\n  %-13s = {%s},", URLField, opts.URLFor(id)))
	}
	b.WriteString("\n")
	b.WriteString(closer)
	return b.String()
}

// AugmentFile applies Augment to a .bib file in place. The file is
// replaced atomically; with opts.Backup the original is kept beside it.
func AugmentFile(path string, updates map[string]string, opts AugmentOptions) (AugmentReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AugmentReport{}, fmt.Errorf("reading bibliography: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return AugmentReport{}, fmt.Errorf("checking bibliography: %w", err)
	}

	out, report := Augment(string(data), updates, opts)
	if len(report.Updated) == 0 {
		return report, nil
	}

	if opts.Backup {
		backup := path + BackupSuffix
		if err := atomicfile.WriteFile(backup, data, info.Mode().Perm()); err != nil {
			return report, fmt.Errorf("writing backup: %w", err)
		}
		report.BackupPath = backup
	}

	if err := atomicfile.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return report, fmt.Errorf("writing bibliography: %w", err)
	}
	return report, nil
}
