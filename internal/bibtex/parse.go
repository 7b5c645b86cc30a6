package bibtex

import (
	"fmt"
	"sort"
	"strings"
)

// record is the raw span of one @type{...} or @type(...) record.
type record struct {
	typ        string // Lowercased
	body       string // Text between the outer delimiters
	bodyOffset int
	start      int
	end        int
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(s string) lineIndex {
	var idx lineIndex
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

func (li lineIndex) line(offset int) int {
	return sort.SearchInts(li, offset) + 1
}

func isTypeByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

// Parse reads every entry in text.
//
// Records that cannot be parsed are skipped and reported in the returned
// errors (all *SyntaxError, in line order); the remaining entries are
// still returned. @comment and @preamble records are ignored. @string
// definitions are collected and substituted into later field values.
func Parse(text string) ([]Entry, []error) {
	lines := newLineIndex(text)
	recs, errs := splitRecords(text, lines)

	macros := make(map[string]string)
	var entries []Entry
	for _, rec := range recs {
		switch rec.typ {
		case "comment", "preamble":
			continue
		case "string":
			if err := parseStringDef(rec, macros, lines); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		e, err := parseEntry(rec, macros, lines)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errLine(errs[i]) < errLine(errs[j])
	})
	return entries, errs
}

func errLine(err error) int {
	if se, ok := err.(*SyntaxError); ok {
		return se.Line
	}
	return 0
}

// splitRecords finds record boundaries. Text outside records is comment
// text and is ignored.
func splitRecords(text string, lines lineIndex) ([]record, []error) {
	var recs []record
	var errs []error

	i := 0
	for i < len(text) {
		at := strings.IndexByte(text[i:], '@')
		if at < 0 {
			break
		}
		start := i + at

		j := start + 1
		for j < len(text) && isBlank(text[j]) {
			j++
		}
		typeStart := j
		for j < len(text) && isTypeByte(text[j]) {
			j++
		}
		if j == typeStart {
			// A stray @ in comment text, e.g. an email address.
			i = start + 1
			continue
		}
		typ := strings.ToLower(text[typeStart:j])

		for j < len(text) && (isBlank(text[j]) || text[j] == '\n') {
			j++
		}
		if j >= len(text) || (text[j] != '{' && text[j] != '(') {
			if !startsLine(text, start) {
				// Comment text such as "mail me at someone@example.org".
				i = start + 1
				continue
			}
			errs = append(errs, &SyntaxError{
				Line: lines.line(start),
				Msg:  fmt.Sprintf("@%s is not followed by { or (", typ),
			})
			i = j
			continue
		}

		end, resume, ok := matchRecord(text, j)
		if !ok {
			errs = append(errs, &SyntaxError{
				Line: lines.line(start),
				Key:  peekKey(text[j+1 : resume]),
				Msg:  "unterminated entry",
			})
			i = resume
			continue
		}

		recs = append(recs, record{
			typ:        typ,
			body:       text[j+1 : end],
			bodyOffset: j + 1,
			start:      start,
			end:        end + 1,
		})
		i = end + 1
	}

	return recs, errs
}

// matchRecord finds the delimiter closing the record opened at open.
//
// A line beginning with '@' while still at the record's top level (not
// inside a value) marks the start of the next record: the current one is
// unterminated and scanning resumes there. On failure resume is the
// offset to continue from.
func matchRecord(text string, open int) (end, resume int, ok bool) {
	paren := text[open] == '('
	depth := 1
	lineStart := false

	for k := open + 1; k < len(text); k++ {
		c := text[k]
		if c == '\n' {
			lineStart = true
			continue
		}
		if isBlank(c) {
			continue
		}
		if lineStart && c == '@' && depth == 1 {
			return -1, k, false
		}
		lineStart = false

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if !paren {
					return k, k + 1, true
				}
				return -1, k + 1, false
			}
		case ')':
			if paren && depth == 1 {
				return k, k + 1, true
			}
		}
	}
	return -1, len(text), false
}

// peekKey returns what looks like the citation key at the start of a body,
// for error messages about records that could not be delimited.
func peekKey(body string) string {
	t := newLexer(body).next()
	if t.kind == tokIdent {
		return t.text
	}
	return ""
}

// parseEntry parses "key, name = value, ..." into an Entry.
func parseEntry(rec record, macros map[string]string, lines lineIndex) (Entry, error) {
	line := lines.line(rec.start)
	lx := newLexer(rec.body)

	t := lx.next()
	if t.kind != tokIdent {
		return Entry{}, &SyntaxError{Line: line, Msg: "missing citation key"}
	}

	e := Entry{
		Type:   rec.typ,
		Key:    t.text,
		Fields: make(map[string]string),
		Line:   line,
		Start:  rec.start,
		End:    rec.end,
	}
	fail := func(t token, format string, args ...any) (Entry, error) {
		return Entry{}, &SyntaxError{
			Line: lines.line(rec.bodyOffset + t.offset),
			Key:  e.Key,
			Msg:  fmt.Sprintf(format, args...),
		}
	}

	switch t = lx.next(); t.kind {
	case tokEOF:
		return e, nil
	case tokComma:
	default:
		return fail(t, "expected ',' after citation key")
	}

	for {
		t = lx.next()
		if t.kind == tokEOF {
			return e, nil // trailing comma
		}
		if t.kind != tokIdent {
			return fail(t, "expected field name")
		}
		name := strings.ToLower(t.text)

		if eq := lx.next(); eq.kind != tokEquals {
			return fail(eq, "expected '=' after field %s", name)
		}

		value, err := parseValue(lx, macros)
		if err != nil {
			return fail(t, "field %s: %v", name, err)
		}
		if _, seen := e.Fields[name]; !seen {
			e.Order = append(e.Order, name)
		}
		e.Fields[name] = value

		switch t = lx.next(); t.kind {
		case tokEOF:
			return e, nil
		case tokComma:
		default:
			return fail(t, "expected ',' after field %s", name)
		}
	}
}

// parseStringDef records @string{name = value} macro definitions.
func parseStringDef(rec record, macros map[string]string, lines lineIndex) error {
	line := lines.line(rec.start)
	lx := newLexer(rec.body)

	for {
		t := lx.next()
		if t.kind == tokEOF {
			return nil
		}
		if t.kind != tokIdent {
			return &SyntaxError{Line: line, Msg: "@string: expected macro name"}
		}
		name := strings.ToLower(t.text)
		if lx.next().kind != tokEquals {
			return &SyntaxError{Line: line, Msg: fmt.Sprintf("@string: expected '=' after %s", name)}
		}
		value, err := parseValue(lx, macros)
		if err != nil {
			return &SyntaxError{Line: line, Msg: fmt.Sprintf("@string %s: %v", name, err)}
		}
		macros[name] = value

		if t = lx.next(); t.kind != tokComma && t.kind != tokEOF {
			return &SyntaxError{Line: line, Msg: "@string: expected ',' or end of record"}
		}
	}
}

// parseValue reads a value: braced, quoted, a number or a macro name,
// optionally joined with '#'.
func parseValue(lx *lexer, macros map[string]string) (string, error) {
	var b strings.Builder
	for {
		t := lx.next()
		switch t.kind {
		case tokValue:
			b.WriteString(t.text)
		case tokIdent:
			if v, ok := macros[strings.ToLower(t.text)]; ok {
				b.WriteString(v)
			} else {
				// Numbers and undefined macros (month names) stand for themselves.
				b.WriteString(t.text)
			}
		case tokInvalid:
			return "", fmt.Errorf("%s", t.text)
		default:
			return "", fmt.Errorf("missing value")
		}

		if lx.peek().kind != tokHash {
			return collapseSpace(b.String()), nil
		}
		lx.next()
	}
}

// startsLine reports whether only blanks precede offset on its line.
func startsLine(text string, offset int) bool {
	for k := offset - 1; k >= 0; k-- {
		switch {
		case text[k] == '\n':
			return true
		case !isBlank(text[k]):
			return false
		}
	}
	return true
}
