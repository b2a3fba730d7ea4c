package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/m3rciful/maxbot/core/buildinfo"
	coreconfig "github.com/m3rciful/maxbot/core/config"
)

// Component names shared by packages that log through Info/Warn/Error/Debug.
const (
	CompAPI     = "max.api"
	CompPoll    = "max.poll"
	CompBot     = "bot"
	CompRouter  = "bot.router"
	CompWire    = "bot.wire"
	CompFSM     = "fsm"
	CompSession = "session"
	CompDB      = "db"
	CompMigrate = "db.migrate"
	CompSender  = "svc.sender"
	CompWebhook = "svc.webhook"
)

var (
	initOnce sync.Once

	shutdownMu sync.Mutex
	shutDown   bool
	writers    []*asyncWriter
	closers    []io.Closer

	levelVar     slog.LevelVar
	debugSampler = newCountingSampler(defaultDebugRatio)
	traceAll     bool

	// L is the process logger. Packages log through the ctx-aware helpers.
	L *slog.Logger
)

// settings is the resolved logging section.
type settings struct {
	format  logFormat
	order   []string
	level   slog.Level
	sample  sampleRatio
	profile string
	trace   bool
}

// resolve applies defaults to the logging section. Debug and dev profiles
// default to key=value output; everything else to JSON.
func resolve(cfg *coreconfig.Config) settings {
	s := settings{
		format:  formatJSON,
		order:   append([]string(nil), defaultKeyOrder...),
		level:   slog.LevelInfo,
		sample:  defaultDebugRatio,
		profile: "prod",
		trace:   envFlag("TRACE") || envFlag("LOG_TRACE"),
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}

	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			s.order = order
		}
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}

	if r, err := parseSampleRatio(lc.DebugSample); err == nil {
		s.sample = r
	}
	return s
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// InitLogger installs the structured logger as L and as slog's default.
// Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		s := resolve(cfg)
		levelVar.Set(s.level)
		debugSampler.Store(s.sample)
		traceAll = s.trace

		all, errOnly, cl := openSinks(cfg)
		closers = cl
		out := newAsyncWriter(all, 64*1024)
		writers = append(writers, out)
		var errW *asyncWriter
		if len(errOnly) > 0 {
			errW = newAsyncWriter(errOnly, 16*1024)
			writers = append(writers, errW)
		}

		L = slog.New(newStructuredHandler(handlerConfig{
			level:     &levelVar,
			writer:    out,
			errWriter: errW,
			format:    s.format,
			keyOrder:  s.order,
		}))
		slog.SetDefault(L)
		logStartup(cfg, s)
	})
	return nil
}

func logStartup(cfg *coreconfig.Config, s settings) {
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
	}
	if cfg != nil {
		attrs = append(attrs,
			slog.String("mode", cfg.Bot.RunMode),
			slog.String("store", cfg.Session.Store),
		)
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// openSinks returns stdout plus the rotated bot file for every record, and
// the rotated errors file for ERROR records. Files live under logging.dir.
func openSinks(cfg *coreconfig.Config) (all, errOnly []io.Writer, cl []io.Closer) {
	all = []io.Writer{os.Stdout}
	if cfg == nil || strings.TrimSpace(cfg.Logging.Dir) == "" {
		return all, nil, nil
	}
	lc := cfg.Logging
	dir := strings.TrimSpace(lc.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create log dir %s: %v", dir, err)
		return all, nil, nil
	}
	open := func(name string) *lumberjack.Logger {
		size := lc.MaxSizeMB
		if size <= 0 {
			size = 50
		}
		f := &lumberjack.Logger{
			Filename:   filepath.Join(dir, name),
			MaxSize:    size,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		cl = append(cl, f)
		return f
	}
	if name := strings.TrimSpace(lc.BotFile); name != "" {
		all = append(all, open(name))
	}
	if name := strings.TrimSpace(lc.ErrorsFile); name != "" {
		errOnly = append(errOnly, open(name))
	}
	return all, errOnly, cl
}

// Shutdown flushes pending lines and closes the log files. Later calls are no-ops.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutDown {
		return nil
	}
	shutDown = true

	var errs []error
	for _, w := range writers {
		errs = append(errs, w.Flush(), w.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Background returns context.Background().
func Background() context.Context {
	return context.Background()
}

// LogEvent writes a record whose first attribute is event. A nil logg falls
// back to the ctx logger and then to L.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs event at level under component.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug detail should be
// logged. TRACE=1 or LOG_TRACE=1 lets every one through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}

// TraceEnabled reports whether TRACE or LOG_TRACE forced full debug output.
func TraceEnabled() bool {
	return traceAll
}
