package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level  slog.Leveler
	writer *asyncWriter
	// errWriter receives a copy of every record at ERROR or above.
	errWriter *asyncWriter
	format    logFormat
	keyOrder  []string
}

// structuredHandler renders records as one JSON object or one key=value line
// with a fixed leading key order.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	isJSON := h.cfg.format == formatJSON

	f := make(fields, 16)
	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = r.Level.String()
	if isJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		f.add(prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(prefix, a)
		return true
	})
	f.fromContext(ctx)
	f.compactRID(isJSON)

	event := r.Message
	if event == "" {
		event = "unknown"
	}
	f.fallback("event", event)
	f.fallback("component", "app")
	f.normalize()

	line, err := f.encode(h.cfg.format, h.cfg.keyOrder)
	if err != nil {
		return err
	}
	if h.cfg.errWriter != nil && r.Level >= slog.LevelError {
		if err := h.cfg.errWriter.Write(line); err != nil {
			return err
		}
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// fields is one record flattened to dotted keys.
type fields map[string]any

// add flattens a (possibly grouped) attribute under prefix.
func (f fields) add(prefix string, a slog.Attr) {
	key := a.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := convert(key, v); ok {
		f[k] = val
	}
}

// fallback sets key only when it is missing or empty.
func (f fields) fallback(key string, v any) {
	if s, ok := f.str(key); !ok || s == "" {
		f[key] = v
	}
}

func (f fields) str(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case fmt.Stringer:
		return x.String(), true
	}
	return fmt.Sprint(v), true
}

// contextFields are copied from the ctx unless an attribute already set them.
var contextFields = []struct {
	key string
	get func(context.Context) any
}{
	{"rid", func(ctx context.Context) any { return RIDFrom(ctx) }},
	{"trace_id", func(ctx context.Context) any { return TraceIDFrom(ctx) }},
	{"span_id", func(ctx context.Context) any { return SpanIDFrom(ctx) }},
	{"update_type", func(ctx context.Context) any { return UpdateTypeFrom(ctx) }},
	{"user_id", func(ctx context.Context) any { return UserIDFrom(ctx) }},
	{"chat_id", func(ctx context.Context) any { return ChatIDFrom(ctx) }},
	{"handler", func(ctx context.Context) any { return HandlerFrom(ctx) }},
}

func (f fields) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	for _, cf := range contextFields {
		if _, set := f[cf.key]; set {
			continue
		}
		switch v := cf.get(ctx).(type) {
		case string:
			if v != "" {
				f[cf.key] = v
			}
		case int64:
			if v != 0 {
				f[cf.key] = v
			}
		}
	}
}

// compactRID shortens the request id; JSON output keeps the original as rid_full.
func (f fields) compactRID(keepFull bool) {
	rid, ok := f.str("rid")
	if !ok || rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == "" || compact == rid {
		return
	}
	if keepFull {
		if _, seen := f["rid_full"]; !seen {
			f["rid_full"] = rid
		}
	}
	f["rid"] = compact
}

// normalize canonicalizes level, status and outcome and drops empty values.
// Unknown statuses are kept as given; unknown outcomes are dropped.
func (f fields) normalize() {
	if level, ok := f.str("level"); ok {
		f["level"] = normalizeLevel(level)
	}
	if s, ok := f.str("status"); ok && s != "" {
		if canon, valid := normalizeStatus(s); valid {
			f["status"] = canon
		}
	}
	if o, ok := f.str("outcome"); ok && o != "" {
		if canon, valid := normalizeOutcome(o); valid {
			f["outcome"] = canon
		} else {
			delete(f, "outcome")
		}
	}
	for k, v := range f {
		switch x := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if x == "" {
				delete(f, k)
			}
		case fmt.Stringer:
			if x.String() == "" {
				delete(f, k)
			}
		}
	}
}

// keys lists order first, then the remaining keys sorted.
func (f fields) keys(order []string) []string {
	out := make([]string, 0, len(f))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := f[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	n := len(out)
	for k := range f {
		if !seen[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out[n:])
	return out
}

// encode renders the record followed by a newline.
func (f fields) encode(format logFormat, order []string) ([]byte, error) {
	var b bytes.Buffer
	if format == formatJSON {
		b.WriteByte('{')
	}
	for i, k := range f.keys(order) {
		if format == formatJSON {
			data, err := json.Marshal(f[k])
			if err != nil {
				return nil, fmt.Errorf("logger: encode %s: %w", k, err)
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			b.Write(data)
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(f[k]))
	}
	if format == formatJSON {
		b.WriteByte('}')
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// convert maps a slog value to its logged form. Durations become integer
// milliseconds under a *_ms key.
func convert(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_duration"):
		return strings.TrimSuffix(key, "_duration") + "_duration_ms"
	case !strings.HasSuffix(key, "_ms"):
		return key + "_ms"
	}
	return key
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		s = fmt.Sprint(x)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
