package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
// Most of them are HTTP headers a site configuration may inject.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"token":               true,
	"secret":              true,
	"session":             true,
	"sessionid":           true,
	"session_id":          true,
}

// sensitiveKeywords mask any key that contains them, e.g. "csrf_token".
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "cookie",
}

// sensitivePatterns mask string values regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// emailPattern finds addresses inside arbitrary attribute values.
// It matches the crawler's extraction pattern, with the local part captured.
var emailPattern = regexp.MustCompile(`([a-zA-Z0-9._%+\-]+)(@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)

// RedactingHandler wraps an slog.Handler and masks sensitive attribute
// values before passing records on.
type RedactingHandler struct {
	handler    slog.Handler
	maskEmails bool
}

// NewRedactingHandler creates a RedactingHandler around handler.
// A nil handler falls back to slog.Default().Handler().
// When maskEmails is true, every email address found in a string value
// keeps its first character and domain, e.g. "a***@example.com".
func NewRedactingHandler(handler slog.Handler, maskEmails bool) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler, maskEmails: maskEmails}
}

// Enabled delegates to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and forwards it.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redact(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a handler with the redacted attributes attached.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted), maskEmails: h.maskEmails}
}

// WithGroup returns a handler that nests attributes under name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name), maskEmails: h.maskEmails}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = h.redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if h.maskEmails {
			return slog.String(a.Key, MaskEmails(s))
		}
	case slog.KindAny:
		if !h.maskEmails {
			break
		}
		switch v := a.Value.Any().(type) {
		case []string:
			// e.g. the emails found on a page
			masked := make([]string, len(v))
			for i, s := range v {
				masked[i] = MaskEmails(s)
			}
			return slog.Any(a.Key, masked)
		case error:
			return slog.String(a.Key, MaskEmails(v.Error()))
		}
	}

	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// MaskEmails replaces the local part of every email address in s with its
// first character followed by "***".
func MaskEmails(s string) string {
	return emailPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := emailPattern.FindStringSubmatch(match)
		return parts[1][:1] + "***" + parts[2]
	})
}

// Options configures NewLogger.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool

	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool

	// MaskEmails masks the local part of email addresses in log values.
	MaskEmails bool
}

// NewLogger creates a *slog.Logger writing to w through a RedactingHandler.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, handlerOpts)
	} else {
		base = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewRedactingHandler(base, opts.MaskEmails))
}
