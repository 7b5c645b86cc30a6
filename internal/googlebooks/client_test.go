package googlebooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const searchFixture = `{
  "totalItems": 3,
  "items": [
    {
      "id": "ZV9QAAAAMAAJ",
      "volumeInfo": {"title": "On the Origin of Species", "authors": ["Charles Darwin"], "publishedDate": "1859"},
      "accessInfo": {"viewability": "ALL_PAGES", "publicDomain": true}
    },
    {
      "id": "modern1",
      "volumeInfo": {"title": "On the Origin of Species (Annotated)", "authors": ["Charles Darwin"], "publishedDate": "2009-03-01"},
      "accessInfo": {"viewability": "PARTIAL", "publicDomain": false}
    },
    {
      "id": "undated",
      "volumeInfo": {"title": "Origin of Species"}
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()

	if c.baseURL != BaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, BaseURL)
	}
	if c.maxResults != DefaultMaxResults {
		t.Errorf("maxResults = %d, want %d", c.maxResults, DefaultMaxResults)
	}
	if c.lang != DefaultLang {
		t.Errorf("lang = %s, want %s", c.lang, DefaultLang)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	c := NewClient(
		WithBaseURL("http://example.test/books/"),
		WithAPIKey("secret"),
		WithMaxResults(5),
		WithLang(""),
		WithTimeout(3*time.Second),
	)

	if c.baseURL != "http://example.test/books" {
		t.Errorf("baseURL = %s, want trailing slash trimmed", c.baseURL)
	}
	if c.apiKey != "secret" {
		t.Errorf("apiKey = %s, want secret", c.apiKey)
	}
	if c.maxResults != 5 {
		t.Errorf("maxResults = %d, want 5", c.maxResults)
	}
	if c.lang != "" {
		t.Errorf("lang = %q, want empty", c.lang)
	}
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.httpClient.Timeout)
	}
}

func TestWithTimeout_CopiesHTTPClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := NewClient(WithHTTPClient(shared), WithTimeout(3*time.Second))

	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout = %v, want it left at 1m", shared.Timeout)
	}
	if c.httpClient == shared {
		t.Error("client should use a copy of the shared HTTP client")
	}
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.httpClient.Timeout)
	}
}

func TestWithTimeout_OptionOrder(t *testing.T) {
	hc := &http.Client{}
	for name, opts := range map[string][]ClientOption{
		"timeout first": {WithTimeout(2 * time.Second), WithHTTPClient(hc)},
		"timeout last":  {WithHTTPClient(hc), WithTimeout(2 * time.Second)},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewClient(opts...)
			if c.httpClient.Timeout != 2*time.Second {
				t.Errorf("timeout = %v, want 2s", c.httpClient.Timeout)
			}
			if hc.Timeout != 0 {
				t.Errorf("caller's client timeout = %v, want 0", hc.Timeout)
			}
		})
	}
}

func TestWithHTTPClient_Nil(t *testing.T) {
	c := NewClient(WithHTTPClient(nil), WithTimeout(time.Second))
	if c.httpClient == nil || c.httpClient.Timeout != time.Second {
		t.Errorf("httpClient = %+v, want a client with a 1s timeout", c.httpClient)
	}
}

func TestWithHTTPClient_KeepsOwnTimeout(t *testing.T) {
	hc := &http.Client{Timeout: 7 * time.Second}
	c := NewClient(WithHTTPClient(hc))
	if c.httpClient != hc {
		t.Error("without WithTimeout the caller's client should be used as is")
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		author, title string
		want          string
	}{
		{"Darwin", "Origin of Species", `inauthor:"Darwin" intitle:"Origin of Species"`},
		{"Darwin", "", `inauthor:"Darwin"`},
		{"", "Origin of Species", `intitle:"Origin of Species"`},
		{"  ", "  ", ""},
	}

	for _, tt := range tests {
		got := BuildQuery(tt.author, tt.title)
		if got != tt.want {
			t.Errorf("BuildQuery(%q, %q) = %q, want %q", tt.author, tt.title, got, tt.want)
		}
	}
}

func TestSearch_Params(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes" {
			t.Errorf("path = %s, want /volumes", r.URL.Path)
		}
		q := r.URL.Query()
		got = map[string]string{
			"q":            q.Get("q"),
			"maxResults":   q.Get("maxResults"),
			"printType":    q.Get("printType"),
			"langRestrict": q.Get("langRestrict"),
			"key":          q.Get("key"),
		}
		w.Write([]byte(`{"totalItems": 0}`))
	})
	c.apiKey = "k123"

	vols, err := c.Search(context.Background(), Query{Author: "Darwin", Title: "Origin", MaxResults: 99})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(vols) != 0 {
		t.Errorf("len(vols) = %d, want 0", len(vols))
	}

	want := map[string]string{
		"q":            `inauthor:"Darwin" intitle:"Origin"`,
		"maxResults":   "40",
		"printType":    "books",
		"langRestrict": "en",
		"key":          "k123",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestSearch_EmptyQuerySkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	vols, err := c.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if called {
		t.Error("Search() with empty query made a request")
	}
	if vols == nil || len(vols) != 0 {
		t.Errorf("Search() = %v, want empty non-nil slice", vols)
	}
}

func TestSearch_YearFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchFixture))
	})

	tests := []struct {
		name    string
		year    int
		wantIDs []string
	}{
		{"no year", 0, []string{"ZV9QAAAAMAAJ", "modern1", "undated"}},
		{"exact", 1859, []string{"ZV9QAAAAMAAJ", "undated"}},
		{"within tolerance", 1864, []string{"ZV9QAAAAMAAJ", "undated"}},
		{"outside tolerance", 1865, []string{"undated"}},
		{"modern", 2010, []string{"modern1", "undated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vols, err := c.Search(context.Background(), Query{Title: "Origin", Year: tt.year})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(vols) != len(tt.wantIDs) {
				t.Fatalf("got %d volumes, want %d", len(vols), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if vols[i].ID != id {
					t.Errorf("vols[%d].ID = %s, want %s", i, vols[i].ID, id)
				}
			}
		})
	}
}

func TestSearch_VolumeFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchFixture))
	})

	vols, err := c.Search(context.Background(), Query{Title: "Origin"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	first := vols[0]
	if !first.PublicDomain || !first.FullyViewable() {
		t.Errorf("first volume should be public domain and fully viewable: %+v", first)
	}
	if first.AccessStatus() != "PUBLIC DOMAIN | Full view" {
		t.Errorf("AccessStatus() = %q", first.AccessStatus())
	}
	if vols[1].AccessStatus() != "Partial view" {
		t.Errorf("AccessStatus() = %q, want Partial view", vols[1].AccessStatus())
	}
	undated := vols[2]
	if undated.Viewability != ViewNoPages || undated.Year() != 0 || undated.Authors == nil {
		t.Errorf("undated volume defaults wrong: %+v", undated)
	}
}

func TestGetVolume(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/volumes/ZV9QAAAAMAAJ":
			w.Write([]byte(`{"id": "ZV9QAAAAMAAJ", "volumeInfo": {"title": "On the Origin of Species", "publishedDate": "1859", "pageCount": 502}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"code": 404, "message": "The volume ID could not be found."}}`))
		}
	})

	v, err := c.GetVolume(context.Background(), "ZV9QAAAAMAAJ")
	if err != nil {
		t.Fatalf("GetVolume() error = %v", err)
	}
	if v.Title != "On the Origin of Species" || v.PageCount != 502 || v.Year() != 1859 {
		t.Errorf("GetVolume() = %+v", v)
	}

	_, err = c.GetVolume(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVolume(missing) error = %v, want ErrNotFound", err)
	}

	_, err = c.GetVolume(context.Background(), "  ")
	if !IsNotFound(err) {
		t.Errorf("GetVolume(blank) error = %v, want not found", err)
	}
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": {"message": "API key not valid"}}`, IsAuthError},
		{"forbidden", http.StatusForbidden, `{}`, IsAuthError},
		{"quota", http.StatusForbidden, `{"error": {"message": "Daily Limit Exceeded. The quota will be reset at midnight"}}`, IsRateLimited},
		{"too many requests", http.StatusTooManyRequests, ``, IsRateLimited},
		{"server error", http.StatusInternalServerError, `oops`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Search(context.Background(), Query{Title: "x"})
			if err == nil {
				t.Fatal("Search() error = nil, want error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error classification: %v", err)
			}
		})
	}
}

func TestGetVolume_APIErrorCarriesVolumeID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GetVolume(context.Background(), "abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.VolumeID != "abc" {
		t.Errorf("VolumeID = %q, want abc", apiErr.VolumeID)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.Search(context.Background(), Query{Title: "x"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestSearch_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Search(ctx, Query{Title: "x"}); err == nil {
		t.Error("Search() with canceled context should fail")
	}
}
