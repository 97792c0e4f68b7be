package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrInvalidSearchURL is returned when the search endpoint is empty
	// or not an absolute http(s) URL.
	ErrInvalidSearchURL = errors.New("invalid search URL: must be an absolute http(s) URL")

	// ErrInvalidDetailsURL is returned when the details endpoint is empty
	// or not an absolute http(s) URL.
	ErrInvalidDetailsURL = errors.New("invalid details URL: must be an absolute http(s) URL")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// Every request must be bounded; a zero timeout disables the bound.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkerCount is returned when a worker count is negative.
	// Use 0 to select the phase's default pool size.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be non-negative")

	// ErrMissingCheckpointPath is returned when the checkpoint list path is empty.
	ErrMissingCheckpointPath = errors.New("missing checkpoint file path")

	// ErrMissingOutputPath is returned when the CSV output path is empty.
	ErrMissingOutputPath = errors.New("missing output file path")

	// ErrNoSearchTerms is returned by the collect command when the seed
	// term list is empty. Enumeration with no seeds would be a no-op that
	// silently truncates the checkpoint list.
	ErrNoSearchTerms = errors.New("no search terms: the seed term list is empty")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrIncompleteSchema is returned when a required page-schema entry
	// is empty. The error message names the missing entry.
	ErrIncompleteSchema = errors.New("incomplete page schema")
)
