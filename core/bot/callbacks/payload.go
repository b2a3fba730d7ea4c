// Package callbacks parses callback payloads of the form "key|arg".
package callbacks

import (
	"strings"

	"github.com/m3rciful/maxbot/core/bot"
)

// Key returns the route key of the current callback payload.
func Key(c *bot.Context) string {
	k, _ := bot.SplitPayload(c.Data())
	return k
}

// Arg returns the part of the payload after the first '|'.
func Arg(c *bot.Context) string {
	_, a := bot.SplitPayload(c.Data())
	return a
}

// Join builds a payload from a key and its arguments.
func Join(key string, args ...string) string {
	if len(args) == 0 {
		return key
	}
	return key + "|" + strings.Join(args, "|")
}
