package logger

import "strings"

// Level names as written to the level field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// levelNames maps accepted level spellings to their canonical form.
var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

// statusValues and outcomeValues are the canonical values of the status and
// outcome fields.
var (
	statusValues  = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "timeout", "error")
	outcomeValues = set("ok", "fail", "cancelled", "rate_limited")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if canon, ok := levelNames[strings.ToLower(level)]; ok {
		return canon
	}
	return strings.ToUpper(level)
}

// canonical lower-cases v and reports whether it is one of values.
func canonical(values map[string]struct{}, v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := values[v]
	return v, ok && v != ""
}

func normalizeStatus(status string) (string, bool) { return canonical(statusValues, status) }

func normalizeOutcome(outcome string) (string, bool) { return canonical(outcomeValues, outcome) }

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"trace_id",
	"span_id",
	"ts_unix_nano",
	"update_type",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"operation",
	"op",
	"method",
	"path",
	"cb_key",
	"callback_id",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"marker",
	"batch",
	"state",
	"from_state",
	"to_state",
	"sessions",
	"callbacks",
	"payload",
	"lang",
	"username",
	"mode",
	"store",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempt",
	"attempts",
	"max_retries",
	"backoff_ms",
	"rate_limited",
	"collapsed",
	"repeats",
	"pending_count",
}
