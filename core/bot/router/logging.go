package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/logger"
)

// statusSkip marks updates that no handler took.
const statusSkip = "skip"

// handleWithSummary runs fn with handlerName on the ctx and logs one
// "handler.handled" line for it.
func handleWithSummary(c *bot.Context, handlerName string, start time.Time, fn func() error, extras ...slog.Attr) error {
	c.SetContext(logger.WithHandler(c.Context(), handlerName))
	err := fn()
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logHandlerSummary(c, handlerName, start, status, err, extras...)
	return err
}

func logHandlerSummary(c *bot.Context, handlerName string, start time.Time, status string, err error, extras ...slog.Attr) {
	msgs, kb := c.Replies()
	attrs := make([]slog.Attr, 0, 7+len(extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.Info(logger.WithHandler(c.Context(), handlerName), logger.CompRouter, "handler.handled", attrs...)
}

// normalizeHandlerName turns "/Start now" into "start_now".
func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(name), "_")
}

// deriveErrorCode prefers a Code() method anywhere in the chain, then the
// name of the first error type that is not a plain errors/fmt wrapper.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		switch t.PkgPath() {
		case "errors", "fmt":
			continue
		}
		if t.Name() != "" {
			return strings.ToUpper(t.Name())
		}
	}
	return "UNKNOWN_ERROR"
}
