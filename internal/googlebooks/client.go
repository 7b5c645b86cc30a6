package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Google Books API base URL.
	BaseURL = "https://www.googleapis.com/books/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is the default request rate in requests per second.
	RateLimit = 2.0

	// DefaultMaxResults is the default number of search results.
	DefaultMaxResults = 10

	// MaxResultsLimit is the largest maxResults the API accepts.
	MaxResultsLimit = 40

	// DefaultLang restricts searches to English editions.
	DefaultLang = "en"

	// YearTolerance is how far a result's year may be from the requested one.
	YearTolerance = 5

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client is a rate-limited HTTP client for the Google Books API.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration // Applied to a copy of httpClient; 0 keeps its own
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	lang       string
	maxResults int
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key. Google Books works without one at a lower quota.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout sets the per-request timeout. The HTTP client passed to
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxResults sets the default number of search results.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		c.maxResults = n
	}
}

// WithLang sets the default language restriction ("" disables it).
func WithLang(lang string) ClientOption {
	return func(c *Client) {
		c.lang = lang
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new Google Books API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		lang:       DefaultLang,
		maxResults: DefaultMaxResults,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// BuildQuery builds the q parameter for an author/title search:
// inauthor:"<author>" intitle:"<title>".
func BuildQuery(author, title string) string {
	var parts []string
	if author = strings.TrimSpace(author); author != "" {
		parts = append(parts, fmt.Sprintf("inauthor:%q", author))
	}
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, fmt.Sprintf("intitle:%q", title))
	}
	return strings.Join(parts, " ")
}

// Search finds volumes by author and title, ranked by the API.
//
// An empty author and title returns no results without a request. With
// q.Year set, volumes whose publication year is known and differs by more
// than YearTolerance are dropped.
func (c *Client) Search(ctx context.Context, q Query) ([]Volume, error) {
	query := BuildQuery(q.Author, q.Title)
	if query == "" {
		return []Volume{}, nil
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}
	lang := q.Lang
	if lang == "" {
		lang = c.lang
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("printType", "books")
	if lang != "" {
		params.Set("langRestrict", lang)
	}

	var resp searchResponse
	if err := c.get(ctx, "/volumes", params, &resp); err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(resp.Items))
	for _, item := range resp.Items {
		volumes = append(volumes, item.toVolume())
	}
	return FilterByYear(volumes, q.Year, YearTolerance), nil
}

// GetVolume fetches a single volume by ID.
func (c *Client) GetVolume(ctx context.Context, id string) (*Volume, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty volume ID", ErrNotFound)
	}

	var item apiVolume
	err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &item)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.VolumeID = id
		}
		return nil, err
	}
	if item.ID == "" {
		return nil, fmt.Errorf("%w: volume %s has no id", ErrInvalidResponse, id)
	}

	v := item.toVolume()
	return &v, nil
}

// FilterByYear drops volumes published more than tolerance years from
// year. Volumes without a known year are kept. year <= 0 keeps everything.
func FilterByYear(volumes []Volume, year, tolerance int) []Volume {
	if year <= 0 {
		return volumes
	}
	kept := volumes[:0:0]
	for _, v := range volumes {
		vy := v.Year()
		if vy != 0 && abs(vy-year) > tolerance {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// get performs a rate-limited GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("google books request", zap.String("path", path), zap.String("query", params.Encode()))

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := checkHTTPErrors(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, body []byte) error {
	if resp.StatusCode < 400 {
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		// Quota exhaustion is reported as 403 with a rate limit reason.
		if strings.Contains(strings.ToLower(msg), "quota") || strings.Contains(strings.ToLower(msg), "rate limit") {
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return fmt.Errorf("%w: %s", ErrAuthError, msg)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
