// Package pagerange turns human-written page annotations into page numbers.
package pagerange

import (
	"regexp"
	"strconv"
	"strings"
)

// digitRun matches a contiguous run of decimal digits.
var digitRun = regexp.MustCompile(`[0-9]+`)

// Parse extracts the page a deep link should open at from an annotation
// such as "p.~312" or "pp.~45-67".
//
// The first run of digits wins, so a range resolves to its start page.
// Prefixes ("p.", "pp.", "S.") are ignored. Returns false when the
// annotation is empty or contains no digits; that is a citation without
// a page, not an error.
func Parse(annotation string) (int, bool) {
	annotation = strings.TrimSpace(annotation)
	if annotation == "" {
		return 0, false
	}

	run := digitRun.FindString(annotation)
	if run == "" {
		return 0, false
	}

	// Leading zeros carry no meaning in a page number.
	trimmed := strings.TrimLeft(run, "0")
	if trimmed == "" {
		return 0, true
	}

	page, err := strconv.Atoi(trimmed)
	if err != nil {
		// Longer than an int can hold; no real book has that page.
		return 0, false
	}
	return page, true
}

// Format renders a page as the Google Books page token ("PA312").
func Format(page int) string {
	return "PA" + strconv.Itoa(page)
}
