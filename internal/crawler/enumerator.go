package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/postback"
)

// Enumerator walks one search term's result pages and accumulates the
// identifiers it finds. It is safe for concurrent use: all per-term state
// lives in CollectTerm's frame, so one Enumerator serves every worker.
type Enumerator struct {
	// searchURL is the search form endpoint.
	searchURL string

	// schema locates the results grid, pagination control, and form
	// fields on the page.
	schema config.Schema

	// timeout bounds each individual request.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string

	// logger receives per-page progress at debug level.
	logger *slog.Logger
}

// EnumeratorOption configures an Enumerator.
type EnumeratorOption func(*Enumerator)

// WithEnumeratorLogger sets the logger used for per-page progress.
func WithEnumeratorLogger(logger *slog.Logger) EnumeratorOption {
	return func(e *Enumerator) {
		e.logger = logger
	}
}

// NewEnumerator creates an Enumerator from the configuration.
func NewEnumerator(cfg *config.Config, opts ...EnumeratorOption) *Enumerator {
	e := &Enumerator{
		searchURL: cfg.SearchURL,
		schema:    cfg.Schema,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CollectTerm enumerates every result page for one search term.
//
// The loop is strictly sequential: each page's identifiers are recorded,
// then the next-page postback is built from that same page's hidden fields.
// Errors never propagate: a failed term returns an empty set with the
// error recorded, so sibling terms keep running and a later run can retry
// the term from scratch.
func (e *Enumerator) CollectTerm(ctx context.Context, term string) model.TermResult {
	start := time.Now()
	result := model.TermResult{
		Term:  term,
		Found: make(map[string]struct{}),
	}

	session, err := postback.NewSession(
		postback.WithTimeout(e.timeout),
		postback.WithUserAgent(e.userAgent),
	)
	if err != nil {
		return e.fail(result, start, err)
	}

	page, err := e.search(ctx, session, term)
	if err != nil {
		return e.fail(result, start, err)
	}

	pageNum := 1
	for {
		found := Identifiers(page.Doc, e.schema)

		// Count before merging: "newly found" is relative to the
		// running set, and the stall check below keys on it.
		newly := 0
		for id := range found {
			if _, seen := result.Found[id]; !seen {
				result.Found[id] = struct{}{}
				newly++
			}
		}
		result.Pages = pageNum

		e.logger.Debug("scraped results page",
			"term", term,
			"page", pageNum,
			"new", newly,
			"total", len(result.Found))

		target, ok := NextPageTarget(page.Doc, e.schema)
		if !ok {
			result.Terminal = model.TerminalExhausted
			break
		}

		// Past the first page, a page with nothing new means the grid
		// is re-serving its last page instead of disabling the button.
		if newly == 0 && pageNum > 1 {
			e.logger.Debug("pagination stalled", "term", term, "page", pageNum)
			result.Terminal = model.TerminalStalled
			break
		}

		payload, err := postback.BuildPayload(page.Doc, map[string]string{
			postback.FieldEventTarget: target,
		})
		if err != nil {
			return e.fail(result, start, fmt.Errorf("page %d of term %q: %w", pageNum, term, err))
		}

		// Post back to where the previous response landed, not the
		// original search URL: the server redirects the first submit
		// and only honors tokens at the URL that issued them.
		page, err = session.PostForm(ctx, page.URL.String(), payload)
		if err != nil {
			return e.fail(result, start, fmt.Errorf("page %d of term %q: %w", pageNum+1, term, err))
		}
		pageNum++
	}

	result.Duration = time.Since(start)
	return result
}

// search fetches the landing form and submits the term.
func (e *Enumerator) search(ctx context.Context, session *postback.Session, term string) (*postback.Page, error) {
	landing, err := session.Get(ctx, e.searchURL)
	if err != nil {
		return nil, fmt.Errorf("fetch search form: %w", err)
	}

	payload, err := postback.BuildPayload(landing.Doc, map[string]string{
		e.schema.LastNameField:     term,
		e.schema.SearchButtonField: e.schema.SearchButtonValue,
	})
	if err != nil {
		return nil, fmt.Errorf("build search payload: %w", err)
	}

	page, err := session.PostForm(ctx, e.searchURL, payload)
	if err != nil {
		return nil, fmt.Errorf("submit search for term %q: %w", term, err)
	}
	return page, nil
}

// fail finalizes a TermResult for an aborted term. Identifiers from
// earlier pages are discarded so a retry of the term starts clean.
func (e *Enumerator) fail(result model.TermResult, start time.Time, err error) model.TermResult {
	e.logger.Warn("term enumeration failed", "term", result.Term, "error", err)

	result.Found = make(map[string]struct{})
	result.Terminal = model.TerminalFailed
	result.Duration = time.Since(start)
	result.Err = err
	return result
}
