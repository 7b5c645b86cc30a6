// Package author parses BibTeX author lists and matches them against
// the author names Google Books reports.
package author

import (
	"strings"
)

// Name is one parsed author name.
type Name struct {
	First string // Given name(s), may be empty
	Last  string // Family name
}

// Display returns the name in "First Last" order.
func (n Name) Display() string {
	if n.First == "" {
		return n.Last
	}
	return n.First + " " + n.Last
}

var braceStripper = strings.NewReplacer("{", "", "}", "")

// ParseName parses a single author name.
//
// Supported formats:
//   - "Darwin"           → last="Darwin"
//   - "Charles Darwin"   → first="Charles", last="Darwin"
//   - "Darwin, Charles"  → first="Charles", last="Darwin"
//
// A fully braced name such as "{Royal Society}" is a corporate author and
// is kept whole as the last name. Other braces are removed.
func ParseName(input string) Name {
	input = strings.TrimSpace(input)
	if isBraceGroup(input) {
		return Name{Last: strings.TrimSpace(braceStripper.Replace(input))}
	}
	input = braceStripper.Replace(input)
	if input == "" {
		return Name{}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		last := strings.TrimSpace(input[:idx])
		first := strings.TrimSpace(input[idx+1:])
		// "Last, Jr, First" keeps the suffix out of the given name.
		if j := strings.Index(first, ","); j >= 0 {
			first = strings.TrimSpace(first[j+1:])
		}
		return Name{First: strings.Join(strings.Fields(first), " "), Last: last}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		return Name{Last: parts[0]}
	}

	// "Charles Robert Darwin" → first="Charles Robert", last="Darwin"
	last := parts[len(parts)-1]
	first := strings.Join(parts[:len(parts)-1], " ")
	return Name{First: first, Last: last}
}

// isBraceGroup reports whether s is a single {...} group.
func isBraceGroup(s string) bool {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// ParseList splits a BibTeX author field on " and " separators outside
// braces and parses each name. "others" (as in "and others") is dropped.
func ParseList(field string) []Name {
	var names []Name
	for _, part := range splitAnd(field) {
		if strings.EqualFold(strings.TrimSpace(part), "others") {
			continue
		}
		if n := ParseName(part); n.Last != "" {
			names = append(names, n)
		}
	}
	return names
}

// splitAnd splits on the word "and" at brace depth zero.
func splitAnd(field string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t', '\n':
			if depth != 0 || i+4 >= len(field) {
				continue
			}
			if strings.EqualFold(field[i+1:i+4], "and") && isSpace(field[i+4]) {
				parts = append(parts, field[start:i])
				start = i + 5
				i += 4
			}
		}
	}
	return append(parts, field[start:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// SearchTerm returns the name to send as an inauthor: query for a BibTeX
// author field: the first author's display name.
func SearchTerm(field string) string {
	names := ParseList(field)
	if len(names) == 0 {
		return strings.TrimSpace(braceStripper.Replace(field))
	}
	return names[0].Display()
}

// Matches checks if n matches the author name candidate.
//
// Matching rules:
//   - Last name: case-insensitive exact match (required)
//   - First name: case-insensitive prefix match on the first given name,
//     so "C." and "Charles" both match "Charles Robert"
//
// A missing first name on either side matches any first name.
func (n Name) Matches(candidate Name) bool {
	if !strings.EqualFold(n.Last, candidate.Last) {
		return false
	}

	a, b := firstGiven(n.First), firstGiven(candidate.First)
	if a == "" || b == "" {
		return true
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func firstGiven(first string) string {
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimRight(fields[0], "."))
}

// MatchesAny checks if n matches any of the candidate display names, such
// as the authors list of a Google Books volume.
func (n Name) MatchesAny(candidates []string) bool {
	for _, c := range candidates {
		if n.Matches(ParseName(c)) {
			return true
		}
	}
	return false
}

// AnyMatch reports whether at least one name in the BibTeX author field
// matches one of the candidates.
func AnyMatch(field string, candidates []string) bool {
	for _, n := range ParseList(field) {
		if n.MatchesAny(candidates) {
			return true
		}
	}
	return false
}
