// Package format holds text helpers for MAX message markup.
package format

import (
	"regexp"
	"strings"
)

var mdSpecials = regexp.MustCompile("([\\\\*_~`\\[\\]()])")

// EscapeMarkdown escapes characters that MAX markdown treats as markup.
func EscapeMarkdown(text string) string {
	return mdSpecials.ReplaceAllString(text, `\$1`)
}

// Bold wraps escaped text in bold markers.
func Bold(text string) string { return "**" + EscapeMarkdown(text) + "**" }

// Code wraps text in an inline code span. Backticks inside are dropped.
func Code(text string) string { return "`" + strings.ReplaceAll(text, "`", "") + "`" }

// Block wraps text in a fenced code block.
func Block(text string) string { return "```\n" + strings.ReplaceAll(text, "```", "'''") + "\n```" }

// DerefString safely dereferences a *string and returns a default value if nil.
func DerefString(s *string, defaultVal string) string {
	if s != nil {
		return *s
	}
	return defaultVal
}
