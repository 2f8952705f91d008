package observability

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces sensitive values in log output.
const MaskValue = "[REDACTED]"

// sensitiveKeys are attribute keys and URL query parameters whose values are
// never logged. Provider API keys travel as query parameters.
var sensitiveKeys = map[string]bool{
	"appid":         true,
	"apikey":        true,
	"api_key":       true,
	"api-key":       true,
	"key":           true,
	"token":         true,
	"access_token":  true,
	"authorization": true,
	"password":      true,
	"secret":        true,
}

// RedactingHandler masks sensitive attributes and strips credentials from
// URL-valued attributes before delegating to the wrapped handler.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps h.
func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: h}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, ga := range group {
			clean[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindString:
		return slog.String(a.Key, RedactURL(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, RedactURL(err.Error()))
		}
	}
	return a
}

// RedactURL masks sensitive query parameters in any URL embedded in s.
// Strings without a query are returned unchanged.
func RedactURL(s string) string {
	if !strings.Contains(s, "?") || !strings.Contains(s, "://") {
		return s
	}

	fields := strings.Fields(s)
	changed := false
	for i, f := range fields {
		trimmed := strings.Trim(f, `"'():,`)
		u, err := url.Parse(trimmed)
		if err != nil || u.RawQuery == "" || u.Host == "" {
			continue
		}
		q := u.Query()
		dirty := false
		for k := range q {
			if sensitiveKeys[strings.ToLower(k)] {
				q.Set(k, MaskValue)
				dirty = true
			}
		}
		if !dirty {
			continue
		}
		u.RawQuery = q.Encode()
		fields[i] = strings.Replace(f, trimmed, u.String(), 1)
		changed = true
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}
