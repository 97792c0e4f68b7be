package postback

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// Page is one fetched and parsed response.
type Page struct {
	// Doc is the parsed HTML document.
	Doc *goquery.Document

	// URL is the final URL after redirects. Pagination postbacks must
	// target this URL rather than the originally requested one: the
	// search form redirects on the first submit, and the server only
	// accepts follow-up postbacks at the URL it landed the client on.
	URL *url.URL
}

// Session is an HTTP client scoped to one unit of work (one search term or
// one identifier). The server correlates its anti-forgery tokens with the
// session cookie, so a session is never shared across units: each worker
// builds its own and lets it die with the task.
type Session struct {
	// client is the HTTP client holding the session's cookie jar.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SessionOption {
	return func(s *Session) {
		s.userAgent = ua
	}
}

// NewSession creates a Session with a fresh cookie jar.
//
// Design decision: the session builds its own client instead of accepting
// one because the cookie jar is the session's whole identity; sharing a
// jar-carrying client between workers would cross-contaminate server state
// between units of work.
func NewSession(opts ...SessionOption) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	s := &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Get fetches and parses a page.
func (s *Session) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build GET %s: %w", rawURL, err)
	}
	return s.do(req)
}

// PostForm submits a form body and parses the response, following
// redirects. The returned page's URL is where the redirect chain landed.
func (s *Session) PostForm(ctx context.Context, rawURL string, form url.Values) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build POST %s: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// do executes the request and parses the response body into a document.
func (s *Session) do(req *http.Request) (*Page, error) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RequestError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &RequestError{
			Method:     req.Method,
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
		}
	}

	// The site serves Windows-1252 on some pages; decode by declared
	// charset before handing the body to the HTML parser.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", resp.Request.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse response from %s: %w", resp.Request.URL, err)
	}

	return &Page{Doc: doc, URL: resp.Request.URL}, nil
}
