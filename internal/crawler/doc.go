// Package crawler implements phase 1: enumerating identifiers from the
// paginated search form.
//
// # Architecture
//
// The package is designed around the Enumerator type, which walks one
// search term's result pages. Each term gets its own postback session
// (fresh cookies and tokens); pages are requested strictly in sequence
// because page N's request can only be built from page N-1's response.
//
// Design decision: We implement pagination ourselves rather than using a
// crawling framework because the target is not a link graph. There is
// nothing to follow: every "next page" is a postback whose body must be
// rebuilt from the previous response's hidden fields, which is a protocol
// conversation, not a crawl frontier.
//
// # Termination
//
// A term's loop ends in one of three states:
//   - exhausted: the next-page control disappeared or is disabled
//   - stalled: a page past the first contributed no new identifiers,
//     which some grids produce by re-serving their last page forever
//     instead of disabling the button
//   - failed: a request or protocol error aborted the term
//
// # Usage
//
//	enum := crawler.NewEnumerator(cfg)
//	result := enum.CollectTerm(ctx, "a")
//
// Failures never propagate: they are recorded on the TermResult so one
// term cannot abort its siblings.
package crawler
