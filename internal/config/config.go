package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the request shape a desktop browser produces against the
// target site, which is what the server-side form expects.
const (
	// DefaultSearchURL is the paginated search form. Every session starts
	// with a GET here to capture fresh server state tokens.
	DefaultSearchURL = "https://doc.alabama.gov/inmatesearch.aspx"

	// DefaultDetailsURL is the endpoint the detail postback targets. The
	// results grid's row links post back to this page, not to the search
	// page that rendered them.
	DefaultDetailsURL = "https://doc.alabama.gov/InmateInfo.aspx"

	// DefaultTimeout bounds every HTTP request. 30 seconds is generous
	// for a single page render while still guaranteeing a stuck request
	// cannot hang a worker forever.
	DefaultTimeout = 30 * time.Second

	// DefaultCollectWorkers caps phase-1 concurrency. Enumeration is one
	// goroutine per seed term, so with the default a-z seeds every term
	// runs in parallel; more workers than terms would idle.
	DefaultCollectWorkers = 26

	// DefaultProcessWorkers is the phase-2 pool size. Detail fetches are
	// three small requests each, so a wider pool keeps throughput up
	// without holding many large responses in memory at once.
	DefaultProcessWorkers = 50

	// DefaultUserAgent is a desktop browser signature. The form serves
	// the same markup to any client, but an obviously non-browser agent
	// risks being filtered by edge infrastructure in front of the site.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36"

	// DefaultCheckpointFile is where phase 1 writes the deduplicated
	// identifier list and where phase 2 reads it from.
	DefaultCheckpointFile = "ais_numbers_checkpoint.txt"

	// DefaultOutputFile is the CSV file phase 2 appends records to. Its
	// identifier column doubles as the resume key.
	DefaultOutputFile = "alabama_inmates_database.csv"

	// AppName is the application name used for XDG directory paths.
	AppName = "aisharvest"
)

// DefaultTerms returns the default seed search terms: one per letter.
// The target form matches last-name prefixes, so the 26 single letters
// partition the roster (every last name starts with exactly one of them).
func DefaultTerms() []string {
	terms := make([]string, 0, 26)
	for ch := 'a'; ch <= 'z'; ch++ {
		terms = append(terms, string(ch))
	}
	return terms
}

// Config holds all configuration options for aisharvest.
// This struct is populated from defaults, the optional YAML file, and CLI
// flags, then passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CollectConfig, ProcessConfig) for simplicity. The two phases share
// most options, and nesting would add complexity without significant
// benefit. The page schema is the exception: it is a coherent unit that
// components receive as one value.
type Config struct {
	// SearchURL is the paginated search form endpoint.
	SearchURL string

	// DetailsURL is the endpoint detail postbacks target.
	DetailsURL string

	// Terms are the seed search terms for phase 1. Each term is
	// enumerated independently; the results are unioned.
	Terms []string

	// CollectWorkers is the phase-1 pool size.
	// Zero means one worker per term, capped at DefaultCollectWorkers.
	CollectWorkers int

	// ProcessWorkers is the phase-2 pool size.
	// Zero means DefaultProcessWorkers.
	ProcessWorkers int

	// Timeout bounds each individual HTTP request, not a whole phase.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// CheckpointFile is the phase-1 output / phase-2 input list path.
	CheckpointFile string

	// OutputFile is the phase-2 CSV output path.
	OutputFile string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .aisharvest.yaml in the current
	// directory and then in the XDG config directory.
	ConfigFilePath string

	// Schema maps the target site's DOM structure to output fields.
	Schema Schema

	// DBDir is the directory path for storing the run-ledger SQLite
	// database. When set, run summaries are saved for the history
	// command. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to record run summaries in the ledger.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// JSONReport switches the end-of-run summary from plain text to JSON.
	JSONReport bool

	// MarkdownReport switches the end-of-run summary from plain text to
	// GitHub Flavored Markdown.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to the target site's current endpoints and layout.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because almost every default is non-zero (endpoints, seeds,
// timeout). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		SearchURL:      DefaultSearchURL,
		DetailsURL:     DefaultDetailsURL,
		Terms:          DefaultTerms(),
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		CheckpointFile: DefaultCheckpointFile,
		OutputFile:     DefaultOutputFile,
		Schema:         DefaultSchema(),
	}
}

// CollectConcurrency returns the effective phase-1 pool size.
// When CollectWorkers is zero the pool is one worker per seed term, capped
// at DefaultCollectWorkers; a pool wider than the term list would idle.
func (c *Config) CollectConcurrency() int {
	if c.CollectWorkers > 0 {
		return c.CollectWorkers
	}
	n := len(c.Terms)
	if n > DefaultCollectWorkers {
		return DefaultCollectWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}

// ProcessConcurrency returns the effective phase-2 pool size.
func (c *Config) ProcessConcurrency() int {
	if c.ProcessWorkers > 0 {
		return c.ProcessWorkers
	}
	return DefaultProcessWorkers
}

// XDGDataDir returns the XDG data directory for aisharvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/aisharvest
// On macOS: ~/Library/Application Support/aisharvest
// On Windows: %LOCALAPPDATA%\aisharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for aisharvest.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/aisharvest
// On macOS: ~/Library/Application Support/aisharvest
// On Windows: %APPDATA%\aisharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if !isHTTPURL(c.SearchURL) {
		return ErrInvalidSearchURL
	}
	if !isHTTPURL(c.DetailsURL) {
		return ErrInvalidDetailsURL
	}

	// Timeout must be positive; an unbounded request can hang a worker
	// for the lifetime of the process.
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Worker counts must be non-negative; zero selects the defaults.
	if c.CollectWorkers < 0 || c.ProcessWorkers < 0 {
		return ErrInvalidWorkerCount
	}

	if c.CheckpointFile == "" {
		return ErrMissingCheckpointPath
	}
	if c.OutputFile == "" {
		return ErrMissingOutputPath
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return c.Schema.Validate()
}

// isHTTPURL reports whether s parses as an absolute http(s) URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
