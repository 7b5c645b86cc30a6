// Package googlebooks provides a client for the Google Books volumes API.
package googlebooks

import (
	"strconv"
	"strings"
)

// Viewability values reported in accessInfo.
const (
	ViewAllPages = "ALL_PAGES"
	ViewPartial  = "PARTIAL"
	ViewNoPages  = "NO_PAGES"
)

// Volume is the subset of a Google Books volume this tool uses.
type Volume struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"published_date,omitempty"`
	Viewability   string   `json:"viewability"`
	PublicDomain  bool     `json:"public_domain"`
	WebReaderLink string   `json:"web_reader_link,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
}

// Year returns the four-digit publication year, or 0 when unknown.
func (v Volume) Year() int {
	if len(v.PublishedDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(v.PublishedDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// FullyViewable reports whether every page can be opened from a deep link.
func (v Volume) FullyViewable() bool {
	return v.PublicDomain || v.Viewability == ViewAllPages
}

// AccessStatus describes how much of the volume can be read online.
func (v Volume) AccessStatus() string {
	var status []string
	if v.PublicDomain {
		status = append(status, "PUBLIC DOMAIN")
	}
	switch v.Viewability {
	case ViewAllPages:
		status = append(status, "Full view")
	case ViewPartial:
		status = append(status, "Partial view")
	case ViewNoPages:
		status = append(status, "No preview")
	}
	if len(status) == 0 {
		return "Limited access"
	}
	return strings.Join(status, " | ")
}

// Query describes a volume search.
type Query struct {
	Author     string
	Title      string
	Year       int // 0 disables the year filter
	MaxResults int // 0 uses the client default
	Lang       string
}

// apiVolume mirrors the volume resource returned by the API.
type apiVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		PublishedDate       string   `json:"publishedDate"`
		CanonicalVolumeLink string   `json:"canonicalVolumeLink"`
		PageCount           int      `json:"pageCount"`
	} `json:"volumeInfo"`
	AccessInfo *struct {
		Viewability  string `json:"viewability"`
		PublicDomain bool   `json:"publicDomain"`
	} `json:"accessInfo"`
}

// searchResponse is the response from the volumes list endpoint.
type searchResponse struct {
	TotalItems int         `json:"totalItems"`
	Items      []apiVolume `json:"items"`
}

// errorResponse is the error envelope the API returns with 4xx/5xx codes.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// toVolume converts the API resource into a Volume.
func (a apiVolume) toVolume() Volume {
	v := Volume{
		ID:            a.ID,
		Title:         a.VolumeInfo.Title,
		Authors:       a.VolumeInfo.Authors,
		PublishedDate: a.VolumeInfo.PublishedDate,
		WebReaderLink: a.VolumeInfo.CanonicalVolumeLink,
		PageCount:     a.VolumeInfo.PageCount,
		Viewability:   ViewNoPages,
	}
	if a.AccessInfo != nil {
		if a.AccessInfo.Viewability != "" {
			v.Viewability = a.AccessInfo.Viewability
		}
		v.PublicDomain = a.AccessInfo.PublicDomain
	}
	if v.Authors == nil {
		v.Authors = []string{}
	}
	return v
}
