package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// meta is the per-update logging context. Every With* call stores a copy, so
// parents never observe fields added by children.
type meta struct {
	log        *slog.Logger
	rid        string
	updateType string
	userID     int64
	chatID     int64
	handler    string
	traceID    string
	spanID     string
}

type metaKey struct{}

func metaFrom(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	m, _ := ctx.Value(metaKey{}).(meta)
	return m
}

func withMeta(ctx context.Context, edit func(*meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, metaKey{}, m)
}

// WithLogger makes log the logger returned by FromContext.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return withMeta(ctx, func(*meta) {})
	}
	return withMeta(ctx, func(m *meta) { m.log = log })
}

// FromContext returns the logger stored with WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := metaFrom(ctx).log; l != nil {
		return l
	}
	return L
}

// WithRID sets the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *meta) { m.rid = rid })
}

func RIDFrom(ctx context.Context) string { return metaFrom(ctx).rid }

// WithUpdateMeta records the update type and the user and chat it concerns.
func WithUpdateMeta(ctx context.Context, updateType string, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.updateType, m.userID, m.chatID = updateType, userID, chatID
	})
}

func UpdateTypeFrom(ctx context.Context) string { return metaFrom(ctx).updateType }

func UserIDFrom(ctx context.Context) int64 { return metaFrom(ctx).userID }

func ChatIDFrom(ctx context.Context) int64 { return metaFrom(ctx).chatID }

// WithHandler names the handler serving the update. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return withMeta(ctx, func(*meta) {})
	}
	return withMeta(ctx, func(m *meta) { m.handler = handler })
}

func HandlerFrom(ctx context.Context) string { return metaFrom(ctx).handler }

// WithTrace sets the trace and span ids; empty values keep the current ones.
func WithTrace(ctx context.Context, traceID, spanID string) context.Context {
	return withMeta(ctx, func(m *meta) {
		if traceID != "" {
			m.traceID = traceID
		}
		if spanID != "" {
			m.spanID = spanID
		}
	})
}

func TraceIDFrom(ctx context.Context) string { return metaFrom(ctx).traceID }

func SpanIDFrom(ctx context.Context) string { return metaFrom(ctx).spanID }

// Sanitize drops control and format runes except newline and tab.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and cuts it to max runes, marking the cut with "…".
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	clean := Sanitize(s)
	n := 0
	for i := range clean {
		if n == max {
			return clean[:i] + "…"
		}
		n++
	}
	return clean
}

// BuildRID joins the update timestamp, chat id and user id as "ts:chat:user".
// MAX updates carry no id of their own.
func BuildRID(timestamp, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", timestamp, chatID, userID)
}

// CompactRID rewrites a "ts:chat:user" id as dot-separated base36 numbers.
// Anything else is returned trimmed but otherwise unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
