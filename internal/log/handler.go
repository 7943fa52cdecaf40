package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys contains attribute keys whose values are always masked.
// These come from per-site configuration (cookies, auth headers) and must
// never leak into logs that may be shared.
var sensitiveKeys = map[string]bool{
	"cookie":              true,
	"set-cookie":          true,
	"authorization":       true,
	"proxy-authorization": true,
	"password":            true,
	"token":               true,
	"secret":              true,
	"session":             true,
}

// sensitiveParams contains query parameter names that are redacted when a
// URL-valued attribute is logged. Matching is case-insensitive.
var sensitiveParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"auth":         true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"password":     true,
	"session":      true,
	"sessionid":    true,
	"session_id":   true,
}

// RedactHandler wraps an slog.Handler and sanitizes attribute values
// before passing records on.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because it composes with any underlying handler (text, JSON) and works
// with standard slog APIs, including slog.SetDefault.
type RedactHandler struct {
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and delegates to the wrapped
// handler.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added,
// sanitized first.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *RedactHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] {
		return slog.String(a.Key, MaskValue)
	}

	// URL-valued attributes get their credentials and sensitive query
	// parameters stripped rather than being masked wholesale: the URL
	// itself is the most useful debugging datum a crawler logs.
	if a.Value.Kind() == slog.KindString {
		if v := a.Value.String(); looksLikeURL(v) {
			return slog.String(a.Key, SanitizeURL(v))
		}
	}

	return a
}

// looksLikeURL reports whether a string is plausibly an absolute URL.
func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SanitizeURL strips userinfo and redacts sensitive query parameters from
// a URL for safe logging. Unparsable input is returned unchanged; losing
// the value entirely would make logs useless for debugging.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.User = nil

	if u.RawQuery != "" {
		query := u.Query()
		modified := false
		for key := range query {
			if sensitiveParams[strings.ToLower(key)] {
				query.Set(key, MaskValue)
				modified = true
			}
		}
		if modified {
			u.RawQuery = query.Encode()
		}
	}

	return u.String()
}

// NewLogger creates a slog.Logger with redaction, writing human-readable
// text to w. Verbose selects Debug level; otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewRedactHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger creates a slog.Logger with redaction that outputs JSON.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	return slog.New(NewRedactHandler(slog.NewJSONHandler(w, opts)))
}
