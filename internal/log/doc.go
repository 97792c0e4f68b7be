// Package log provides logging with oversized-value truncation, built on
// top of the standard slog package.
//
// This package extends slog to provide:
//   - Elision of ASP.NET postback token blobs (__VIEWSTATE and friends)
//   - Truncation of any other long attribute value
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Truncation
//
// The TruncatingHandler keeps debug output readable when call sites log
// form payloads or response fragments:
//   - Token keys (__VIEWSTATE, __VIEWSTATEGENERATOR, __EVENTVALIDATION)
//     are replaced with a byte-count marker; their content is opaque state
//     the server round-trips and never worth reading
//   - Any other string value longer than the cap is cut at the cap with
//     the elided byte count appended
//
// # Usage
//
//	// Create a logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("postback sent",
//	    "__viewstate", viewState, // logged as "(18432 bytes elided)"
//	    "url", "https://doc.state.al.us/inmatesearch.aspx",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
