package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".aisharvest.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .aisharvest.yaml configuration file.
// Every entry is optional: zero values keep the compiled-in default, so a
// config file only needs to spell out what it changes.
type File struct {
	// SearchURL overrides the search form endpoint.
	SearchURL string `yaml:"searchURL,omitempty"`

	// DetailsURL overrides the details postback endpoint.
	DetailsURL string `yaml:"detailsURL,omitempty"`

	// Terms overrides the seed search terms.
	Terms []string `yaml:"terms,omitempty"`

	// CollectWorkers overrides the phase-1 pool size.
	CollectWorkers int `yaml:"collectWorkers,omitempty"`

	// ProcessWorkers overrides the phase-2 pool size.
	ProcessWorkers int `yaml:"processWorkers,omitempty"`

	// Timeout overrides the per-request timeout.
	// Accepts Go duration strings such as "30s" or "1m".
	Timeout string `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// CheckpointFile overrides the identifier list path.
	CheckpointFile string `yaml:"checkpointFile,omitempty"`

	// OutputFile overrides the CSV output path.
	OutputFile string `yaml:"outputFile,omitempty"`

	// Schema overrides individual page-schema entries. Entries left
	// empty keep their defaults, so a single selector change stays a
	// one-line file.
	Schema Schema `yaml:"schema,omitempty"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// ApplyTo overlays the file's non-zero entries onto cfg.
// Returns an error when an entry is present but unparseable (for example a
// malformed timeout), because silently keeping the default would hide the
// typo until a request hangs longer than the user expects.
func (f *File) ApplyTo(cfg *Config) error {
	if f.SearchURL != "" {
		cfg.SearchURL = f.SearchURL
	}
	if f.DetailsURL != "" {
		cfg.DetailsURL = f.DetailsURL
	}
	if len(f.Terms) > 0 {
		cfg.Terms = f.Terms
	}
	if f.CollectWorkers != 0 {
		cfg.CollectWorkers = f.CollectWorkers
	}
	if f.ProcessWorkers != 0 {
		cfg.ProcessWorkers = f.ProcessWorkers
	}
	if f.Timeout != "" {
		timeout, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in config file: %w", f.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.CheckpointFile != "" {
		cfg.CheckpointFile = f.CheckpointFile
	}
	if f.OutputFile != "" {
		cfg.OutputFile = f.OutputFile
	}
	cfg.Schema = cfg.Schema.merge(f.Schema)

	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .aisharvest.yaml in the current directory
// 3. Look for .aisharvest.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
