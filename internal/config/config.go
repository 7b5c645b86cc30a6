// Package config handles gbfind configuration: a global YAML file,
// environment overrides and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matsen/gbcite/internal/googlebooks"
	"github.com/matsen/gbcite/internal/linkgen"
)

// AnyLang disables the search language restriction.
const AnyLang = "any"

// ErrInvalidConfig is returned when a resolved value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting. Zero values mean "not set" until Resolve
// fills in defaults.
//
// Environment names derive from the field names (APIKey -> GBFIND_API_KEY).
// There are no envconfig tags, which would also read unprefixed LANG or TIMEOUT.
type Config struct {
	APIKey       string        `yaml:"api_key,omitempty" split_words:"true" json:"api_key,omitempty"`
	APIBaseURL   string        `yaml:"api_base_url,omitempty" split_words:"true" json:"api_base_url"`
	BooksBaseURL string        `yaml:"books_base_url,omitempty" split_words:"true" json:"books_base_url"`
	RateLimit    float64       `yaml:"rate_limit,omitempty" split_words:"true" json:"rate_limit"`
	Timeout      time.Duration `yaml:"timeout,omitempty" split_words:"true" json:"timeout"`
	MaxResults   int           `yaml:"max_results,omitempty" split_words:"true" json:"max_results"`
	Lang         string        `yaml:"lang,omitempty" split_words:"true" json:"lang"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:   googlebooks.BaseURL,
		BooksBaseURL: linkgen.DefaultBooksBaseURL,
		RateLimit:    googlebooks.RateLimit,
		Timeout:      googlebooks.DefaultTimeout,
		MaxResults:   googlebooks.DefaultMaxResults,
		Lang:         googlebooks.DefaultLang,
	}
}

// Merge returns c with every set field of over applied on top.
func (c Config) Merge(over Config) Config {
	if over.APIKey != "" {
		c.APIKey = over.APIKey
	}
	if over.APIBaseURL != "" {
		c.APIBaseURL = over.APIBaseURL
	}
	if over.BooksBaseURL != "" {
		c.BooksBaseURL = over.BooksBaseURL
	}
	if over.RateLimit != 0 {
		c.RateLimit = over.RateLimit
	}
	if over.Timeout != 0 {
		c.Timeout = over.Timeout
	}
	if over.MaxResults != 0 {
		c.MaxResults = over.MaxResults
	}
	if over.Lang != "" {
		c.Lang = over.Lang
	}
	return c
}

// Resolve fills unset fields with defaults and validates the result.
func (c Config) Resolve() (Config, error) {
	r := Defaults().Merge(c)
	r.APIBaseURL = strings.TrimRight(r.APIBaseURL, "/")
	r.BooksBaseURL = strings.TrimRight(r.BooksBaseURL, "/")

	if r.RateLimit <= 0 {
		return r, fmt.Errorf("%w: rate_limit must be positive, got %g", ErrInvalidConfig, r.RateLimit)
	}
	if r.Timeout <= 0 {
		return r, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, r.Timeout)
	}
	if r.MaxResults < 1 || r.MaxResults > googlebooks.MaxResultsLimit {
		return r, fmt.Errorf("%w: max_results must be between 1 and %d, got %d",
			ErrInvalidConfig, googlebooks.MaxResultsLimit, r.MaxResults)
	}
	for name, u := range map[string]string{"api_base_url": r.APIBaseURL, "books_base_url": r.BooksBaseURL} {
		if err := checkURL(u); err != nil {
			return r, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return r, nil
}

// SearchLang returns the language restriction to send, "" for none.
func (c Config) SearchLang() string {
	if strings.EqualFold(c.Lang, AnyLang) {
		return ""
	}
	return c.Lang
}

// Masked returns a copy safe to print: the API key is reduced to its last
// four characters.
func (c Config) Masked() Config {
	if c.APIKey == "" {
		return c
	}
	if len(c.APIKey) <= 4 {
		c.APIKey = "****"
		return c
	}
	c.APIKey = strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
	return c
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
