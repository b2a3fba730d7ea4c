// Package echo repeats every text message back to its chat.
package echo

import (
	"strings"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/format"
	"github.com/m3rciful/maxbot/core/bot/router"
)

// Prefix starts every echoed message.
const Prefix = "You wrote: "

// Setup installs the echo handler on b and returns the root handler.
// Commands are echoed like any other text.
func Setup(b *bot.Bot) bot.HandlerFunc {
	b.Registry.SetTextFallback(Echo)
	return router.New(b.Registry, router.Options{})
}

// Echo answers a non-empty message text. Empty texts are ignored.
func Echo(c *bot.Context) error {
	text := c.Text()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.Send(Prefix + format.EscapeMarkdown(text))
}
