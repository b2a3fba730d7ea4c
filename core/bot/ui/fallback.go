// Package ui holds reusable bot-facing behaviours.
package ui

import "github.com/m3rciful/maxbot/core/bot"

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or expected attachments.
type FallbackProvider interface {
	UnknownText() bot.HandlerFunc
	UnknownCommand() bot.HandlerFunc
	UnknownCallback() bot.HandlerFunc
}

// Install registers the provider's non-nil handlers on reg.
func Install(reg *bot.Registry, p FallbackProvider) {
	if reg == nil || p == nil {
		return
	}
	if h := p.UnknownText(); h != nil {
		reg.SetTextFallback(h)
	}
	if h := p.UnknownCommand(); h != nil {
		reg.SetUnknownCommand(h)
	}
	if h := p.UnknownCallback(); h != nil {
		reg.SetCallbackNotFound(h)
	}
}
