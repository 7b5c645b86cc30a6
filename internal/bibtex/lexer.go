package bibtex

import (
	"strings"
)

// tokenKind identifies a lexical token inside an entry body.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokComma
	tokEquals
	tokHash
	tokValue
	tokInvalid
)

// token is a single lexical unit inside an entry body.
type token struct {
	kind   tokenKind
	text   string
	offset int // byte offset into the body
}

// lexer splits the body of an entry (the text between its outer
// delimiters) into tokens. Braced and quoted values are returned whole
// as tokValue with their outer delimiters removed.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// isSpaceByte reports ASCII whitespace only. Bytes >= 0x80 belong to
// UTF-8 sequences and are part of keys and values (0xA0 is the second
// byte of "à", not a no-break space).
func isSpaceByte(b byte) bool {
	return isBlank(b) || b == '\n' || b == '\f' || b == '\v'
}

// isIdentByte reports whether b can appear in a key, field name or bare value.
func isIdentByte(b byte) bool {
	switch b {
	case '{', '}', '(', ')', ',', '=', '"', '#':
		return false
	}
	return !isSpaceByte(b)
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpaceByte(l.src[l.pos]) {
		l.pos++
	}
}

// peek returns the next token without consuming it.
func (l *lexer) peek() token {
	pos := l.pos
	t := l.next()
	l.pos = pos
	return t
}

// next returns the next token. Unbalanced values produce tokInvalid.
func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, offset: l.pos}
	}

	start := l.pos
	switch c := l.src[l.pos]; c {
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", offset: start}
	case '=':
		l.pos++
		return token{kind: tokEquals, text: "=", offset: start}
	case '#':
		l.pos++
		return token{kind: tokHash, text: "#", offset: start}
	case '{':
		end, ok := matchBrace(l.src, l.pos)
		if !ok {
			l.pos = len(l.src)
			return token{kind: tokInvalid, text: "unbalanced braces in value", offset: start}
		}
		l.pos = end + 1
		return token{kind: tokValue, text: l.src[start+1 : end], offset: start}
	case '"':
		end, ok := matchQuote(l.src, l.pos)
		if !ok {
			l.pos = len(l.src)
			return token{kind: tokInvalid, text: "unterminated quoted value", offset: start}
		}
		l.pos = end + 1
		return token{kind: tokValue, text: l.src[start+1 : end], offset: start}
	default:
		if !isIdentByte(c) {
			l.pos++
			return token{kind: tokInvalid, text: "unexpected " + string(c), offset: start}
		}
		for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], offset: start}
	}
}

// matchBrace returns the index of the brace closing the one at open.
// As in BibTeX itself, every brace counts, including \{ and \}.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}

// matchQuote returns the index of the quote closing the one at open.
// Quotes nested inside braces do not terminate the value.
func matchQuote(s string, open int) (int, bool) {
	depth := 0
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}

// collapseSpace folds runs of whitespace, including line breaks inside
// multi-line values, into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
