package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// tokenKeys contains attribute keys whose values are opaque postback state.
// ASP.NET pages round-trip __VIEWSTATE blobs that run to tens of kilobytes
// of base64; their content is never useful in a log line, only their size.
var tokenKeys = map[string]bool{
	"__viewstate":          true,
	"__viewstategenerator": true,
	"__eventvalidation":    true,
	"viewstate":            true,
	"viewstategenerator":   true,
	"eventvalidation":      true,
}

// DefaultMaxValueLen is the length cap applied to string attribute values.
const DefaultMaxValueLen = 256

// TruncatingHandler wraps an slog.Handler to cap oversized attribute values.
// It intercepts log records, elides postback token blobs entirely, and
// truncates any other long string value before passing the record to the
// underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites can log form payloads and response bodies without
//     worrying about flooding the output
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler

	// maxLen is the longest string value passed through unmodified.
	maxLen int
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given handler.
// If handler is nil, the returned TruncatingHandler uses slog.Default().Handler().
// If maxLen is not positive, DefaultMaxValueLen is used.
func NewTruncatingHandler(handler slog.Handler, maxLen int) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}
	return &TruncatingHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle caps the record's attributes and passes it to the underlying handler.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.capAttr(a))
		return true
	})

	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are capped before being added.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cappedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cappedAttrs[i] = h.capAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(cappedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// capAttr caps a single attribute, recursively handling groups.
func (h *TruncatingHandler) capAttr(a slog.Attr) slog.Attr {
	// Handle groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cappedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cappedAttrs[i] = h.capAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cappedAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	value := a.Value.String()

	// Token blobs are elided entirely; only their size matters.
	if tokenKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, fmt.Sprintf("(%d bytes elided)", len(value)))
	}

	if len(value) > h.maxLen {
		return slog.String(a.Key, fmt.Sprintf("%s...(+%d bytes)", value[:h.maxLen], len(value)-h.maxLen))
	}

	return a
}

// NewLogger creates a new slog.Logger with oversized values capped.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	truncatingHandler := NewTruncatingHandler(textHandler, DefaultMaxValueLen)

	return slog.New(truncatingHandler)
}
