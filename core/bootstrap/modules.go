package bootstrap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/maxbot/core/bot"
)

// SetupFunc registers a bot's commands and callbacks on b and returns its
// root handler.
type SetupFunc func(b *bot.Bot) bot.HandlerFunc

// Modules maps bot names to their setup functions.
type Modules map[string]SetupFunc

// Names returns the registered bot names in order.
func (m Modules) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the setup function for name.
func (m Modules) Lookup(name string) (SetupFunc, error) {
	setup, ok := m[strings.ToLower(strings.TrimSpace(name))]
	if !ok || setup == nil {
		return nil, fmt.Errorf("unknown bot %q; available: %s", name, strings.Join(m.Names(), ", "))
	}
	return setup, nil
}
