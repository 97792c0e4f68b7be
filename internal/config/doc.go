// Package config provides configuration structures and utilities for
// aisharvest. It defines the crawl endpoints, seed terms, concurrency and
// timeout settings, output paths, and the page schema that maps the target
// site's DOM structure to output field names.
package config
