package linkgen

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/gbcite/internal/atomicfile"
)

// MacroNamespace prefixes every generated macro name.
const MacroNamespace = "gblink"

// Header opens every generated file.
const Header = `% Generated by gbfind make-links -- do not edit.
% Regenerate after each build pass: gbfind make-links --job <name>
`

// WriteError reports that the macro file could not be written. The
// previous file, if any, is left as it was.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing link macros to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// MacroName returns the control sequence name for a (key, page) pair,
// e.g. "gblink@Kant1785@p.~312". The page annotation is used verbatim,
// so distinct annotations for one key never share a name.
func MacroName(key, page string) string {
	return MacroNamespace + "@" + key + "@" + page
}

// bodyEscaper protects the TeX special characters a URL can contain.
var bodyEscaper = strings.NewReplacer(`%`, `\%`, `#`, `\#`)

// Statement returns the macro definition for one link:
//
//	\expandafter\gdef\csname\detokenize{gblink@Key@p.~312}\endcsname{https://...}
//
// \detokenize keeps active characters such as ~ in the annotation from
// expanding inside \csname.
func Statement(l Link) string {
	return fmt.Sprintf(`\expandafter\gdef\csname\detokenize{%s}\endcsname{%s}`,
		MacroName(l.Key, l.Page), bodyEscaper.Replace(l.URL))
}

// Emit renders the complete macro file: the header followed by one
// statement per link, in order.
func Emit(links []Link) string {
	var b strings.Builder
	writeMacros(&b, links)
	return b.String()
}

func writeMacros(w io.Writer, links []Link) error {
	if _, err := io.WriteString(w, Header+"\n"); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := io.WriteString(w, Statement(l)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes the macro file atomically: either the complete file
// replaces path or path is untouched.
func Write(links []Link, path string) error {
	err := atomicfile.Write(path, 0644, func(w io.Writer) error {
		return writeMacros(w, links)
	})
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
