package model

import "time"

// TerminalState describes why enumeration of a search term stopped.
type TerminalState string

// Terminal state constants.
const (
	// TerminalUnknown means enumeration never reached a terminal page.
	TerminalUnknown TerminalState = ""
	// TerminalExhausted means the next-page control disappeared or was
	// disabled: the server had no further pages.
	TerminalExhausted TerminalState = "exhausted"
	// TerminalStalled means a page past the first contributed no new
	// identifiers. Some result grids keep re-serving their last page for
	// every subsequent postback instead of disabling the button.
	TerminalStalled TerminalState = "stalled"
	// TerminalFailed means a request or protocol error aborted the term.
	TerminalFailed TerminalState = "failed"
)

// String returns the string representation of the TerminalState.
func (s TerminalState) String() string {
	if s == TerminalUnknown {
		return "unknown"
	}
	return string(s)
}

// TermResult is the outcome of enumerating one search term.
// A failed term contributes an empty Found set; the error is reported but
// never aborts sibling terms.
type TermResult struct {
	// Term is the seed search term (typically a single letter).
	Term string

	// Found holds every identifier seen across the term's result pages.
	// Nil and empty are equivalent.
	Found map[string]struct{}

	// Pages is the number of result pages visited.
	Pages int

	// Terminal records why pagination stopped.
	Terminal TerminalState

	// Duration is the wall-clock time the term took.
	Duration time.Duration

	// Err is non-nil when the term aborted before reaching a terminal
	// page. Identifiers found on earlier pages are discarded so a retry
	// of the term starts clean.
	Err error
}

// Count returns the number of identifiers the term found.
func (t TermResult) Count() int {
	return len(t.Found)
}
