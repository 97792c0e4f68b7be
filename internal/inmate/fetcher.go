package inmate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/model"
	"github.com/aisharvest/aisharvest/internal/postback"
)

// Fetcher resolves AIS numbers to detail records. It is safe for
// concurrent use: all per-lookup state lives in Process's frame, so one
// Fetcher serves every worker.
type Fetcher struct {
	// searchURL is the search form endpoint where lookups start.
	searchURL string

	// detailsURL is the endpoint the detail postback targets. The site
	// validates the detail postback there even though its tokens come
	// from the results page.
	detailsURL string

	// schema locates the form fields, the detail link, and the
	// detail-page tables.
	schema config.Schema

	// timeout bounds each individual request.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string

	// logger receives per-lookup progress at debug level.
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets the logger used for per-lookup progress.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher from the configuration.
func NewFetcher(cfg *config.Config, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		searchURL:  cfg.SearchURL,
		detailsURL: cfg.DetailsURL,
		schema:     cfg.Schema,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Process looks up one AIS number and returns its flattened records.
//
// Errors never propagate: a failed lookup returns a single record whose
// Status column names the failure, so sibling lookups keep running and
// the output file stays accountable for every identifier. An identifier
// the site reports no match for yields its not-found record the same way.
func (f *Fetcher) Process(ctx context.Context, ais string) []model.Record {
	start := time.Now()

	records, err := f.lookup(ctx, ais)
	if err != nil {
		f.logger.Warn("detail lookup failed", "ais", ais, "error", err)
		return []model.Record{model.NewErrorRecord(ais, postback.Kind(err), err)}
	}

	f.logger.Debug("detail lookup complete",
		"ais", ais,
		"records", len(records),
		"elapsed", time.Since(start))
	return records
}

// lookup runs the three-step conversation: fetch the landing form, submit
// the identifier search, then post back through the result's detail link.
func (f *Fetcher) lookup(ctx context.Context, ais string) ([]model.Record, error) {
	session, err := postback.NewSession(
		postback.WithTimeout(f.timeout),
		postback.WithUserAgent(f.userAgent),
	)
	if err != nil {
		return nil, err
	}

	landing, err := session.Get(ctx, f.searchURL)
	if err != nil {
		return nil, fmt.Errorf("fetch search form: %w", err)
	}

	payload, err := postback.BuildPayload(landing.Doc, map[string]string{
		f.schema.AISField:          ais,
		f.schema.SearchButtonField: f.schema.SearchButtonValue,
	})
	if err != nil {
		return nil, fmt.Errorf("build search payload: %w", err)
	}

	results, err := session.PostForm(ctx, f.searchURL, payload)
	if err != nil {
		return nil, fmt.Errorf("search for %s: %w", ais, err)
	}

	// A results page without a detail link is the site's way of saying
	// the number is not on file. The same goes for a link whose href is
	// not a __doPostBack call: there is nothing to post back to.
	target, ok := detailTarget(results.Doc, f.schema)
	if !ok {
		return []model.Record{model.NewNotFoundRecord(ais)}, nil
	}

	payload, err = postback.BuildPayload(results.Doc, map[string]string{
		postback.FieldEventTarget: target,
	})
	if err != nil {
		return nil, fmt.Errorf("build detail payload: %w", err)
	}

	details, err := session.PostForm(ctx, f.detailsURL, payload)
	if err != nil {
		return nil, fmt.Errorf("fetch details for %s: %w", ais, err)
	}

	return ParseDetailsPage(details.Doc, ais, f.schema), nil
}

// detailTarget finds the first detail link in the results grid and parses
// the control name out of its __doPostBack href.
func detailTarget(doc *goquery.Document, schema config.Schema) (string, bool) {
	link := doc.Find(schema.DetailLinkSelector()).First()
	if link.Length() == 0 {
		return "", false
	}
	return postback.ParseEventTarget(link.AttrOr("href", ""))
}
