package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/gbcite/internal/pdf"
)

var checkPDFAll bool

// CheckPDFResponse is the JSON output for gbfind check-pdf.
type CheckPDFResponse struct {
	PDF       string         `json:"pdf"`
	BookLinks []pdf.BookLink `json:"book_links"`
	Other     []pdf.Link     `json:"other_links,omitempty"`
}

var checkPDFCmd = &cobra.Command{
	Use:   "check-pdf <pdf-file>",
	Short: "List the Google Books links in a compiled document",
	Long: `Read the link annotations of a compiled PDF and list those that point
into Google Books, with the page each one opens.

Use it after the second build pass to confirm citations became links.

Examples:
  gbfind check-pdf thesis.pdf --human
  gbfind check-pdf thesis.pdf --all`,
	Args: cobra.ExactArgs(1),
	Run:  runCheckPDF,
}

func init() {
	checkPDFCmd.Flags().BoolVar(&checkPDFAll, "all", false, "Also list links that are not Google Books links")
	rootCmd.AddCommand(checkPDFCmd)
}

func runCheckPDF(cmd *cobra.Command, args []string) {
	path := args[0]
	cfg := mustLoadConfig()

	links, err := pdf.ExtractLinks(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	resp := CheckPDFResponse{
		PDF:       path,
		BookLinks: pdf.FilterBooks(links, cfg.BooksBaseURL),
	}
	if resp.BookLinks == nil {
		resp.BookLinks = []pdf.BookLink{}
	}
	if checkPDFAll {
		resp.Other = otherLinks(links, resp.BookLinks)
	}

	if humanOutput {
		outputHuman("%d Google Books links in %s\n", len(resp.BookLinks), path)
		for _, l := range resp.BookLinks {
			if l.PageNumber > 0 {
				outputHuman("  p. %d: %s, page %d\n", l.Page, l.ID, l.PageNumber)
			} else {
				outputHuman("  p. %d: %s\n", l.Page, l.ID)
			}
		}
		for _, l := range resp.Other {
			outputHuman("  p. %d: %s (other)\n", l.Page, l.URI)
		}
		return
	}
	outputJSON(resp)
}

// otherLinks returns the links that are not book links, in order.
func otherLinks(all []pdf.Link, books []pdf.BookLink) []pdf.Link {
	isBook := make(map[pdf.Link]bool, len(books))
	for _, b := range books {
		isBook[b.Link] = true
	}
	var other []pdf.Link
	for _, l := range all {
		if !isBook[l] {
			other = append(other, l)
		}
	}
	return other
}
