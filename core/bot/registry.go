package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
)

// Command describes a bot command with its handler and metadata.
type Command struct {
	Handler     HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

type prefixRoute struct {
	prefix  string
	handler HandlerFunc
}

// Registry holds commands, callbacks and per-update-type handlers.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]Command
	callbacks        map[string]HandlerFunc
	prefixes         []prefixRoute
	updates          map[maxapi.UpdateType]HandlerFunc
	callbackNotFound HandlerFunc
	unknownCommand   HandlerFunc
	textFallback     HandlerFunc
	attachments      HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]HandlerFunc),
		updates:   make(map[maxapi.UpdateType]HandlerFunc),
		callbackNotFound: func(c *Context) error {
			return c.Answer("Unknown action")
		},
	}
}

// RegisterCommand adds a command. Names must start with "/" and are matched
// case-insensitively. Invalid and duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	ctx := context.Background()
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(ctx, logger.CompWire, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.Warn(ctx, logger.CompWire, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		logger.Warn(ctx, logger.CompWire, "register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
}

// LookupCommand finds a command by name or alias and returns its canonical name.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", Command{}, false
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			alias = strings.ToLower(alias)
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// ListCommands returns commands sorted by name, optionally without hidden and admin-only ones.
func (r *Registry) ListCommands(visibleOnly bool) []maxapi.BotCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]maxapi.BotCommand, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, maxapi.BotCommand{Name: name, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// HelpText renders visible commands one per line as "prefix/cmd - description".
func (r *Registry) HelpText(prefix string) string {
	var b strings.Builder
	for i, cmd := range r.ListCommands(true) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s - %s", prefix, cmd.Name, cmd.Description)
	}
	return b.String()
}

// RegisterCallback maps an exact callback payload to a handler.
func (r *Registry) RegisterCallback(key string, handler HandlerFunc) error {
	if key == "" || handler == nil {
		logger.Warn(context.Background(), logger.CompWire, "register.callback.skip",
			slog.String("key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.Warn(context.Background(), logger.CompWire, "register.callback.duplicate", slog.String("key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// MustRegisterCallback is RegisterCallback for setup code; it panics on error.
func (r *Registry) MustRegisterCallback(key string, handler HandlerFunc) {
	if err := r.RegisterCallback(key, handler); err != nil {
		panic(fmt.Sprintf("bot: %v", err))
	}
}

// RegisterCallbackPrefix maps every payload starting with prefix to a handler.
// Exact registrations win; among prefixes the longest match wins.
func (r *Registry) RegisterCallbackPrefix(prefix string, handler HandlerFunc) error {
	if prefix == "" || handler == nil {
		return errors.New("invalid callback prefix registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prefixes {
		if p.prefix == prefix {
			return fmt.Errorf("callback prefix already registered: %s", prefix)
		}
	}
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: handler})
	sort.Slice(r.prefixes, func(i, j int) bool { return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix) })
	return nil
}

// GetCallback resolves a callback payload to its handler and route key.
func (r *Registry) GetCallback(payload string) (HandlerFunc, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, _ := SplitPayload(payload)
	if h, ok := r.callbacks[key]; ok {
		return h, key, true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(payload, p.prefix) {
			return p.handler, p.prefix + "*", true
		}
	}
	return nil, key, false
}

// ListCallbacks returns sorted keys (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks)+len(r.prefixes))
	for k := range r.callbacks {
		names = append(names, k)
	}
	for _, p := range r.prefixes {
		names = append(names, p.prefix+"*")
	}
	sort.Strings(names)
	return names
}

// On registers the handler for an update type other than message_created
// and message_callback, e.g. bot_started.
func (r *Registry) On(t maxapi.UpdateType, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		delete(r.updates, t)
		return
	}
	r.updates[t] = h
}

// UpdateHandler returns the handler registered with On.
func (r *Registry) UpdateHandler(t maxapi.UpdateType) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.updates[t]
	return h, ok
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() HandlerFunc { return r.callbackNotFound }

// SetUnknownCommand sets the handler for "/x" messages that match no command.
// Without one, unknown commands fall through to the text fallback.
func (r *Registry) SetUnknownCommand(h HandlerFunc) { r.unknownCommand = h }

// UnknownCommand returns the unknown command handler.
func (r *Registry) UnknownCommand() HandlerFunc { return r.unknownCommand }

// SetTextFallback sets the handler for messages no command or state claimed.
func (r *Registry) SetTextFallback(h HandlerFunc) { r.textFallback = h }

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() HandlerFunc { return r.textFallback }

// SetAttachmentHandler sets the handler for messages carrying attachments.
func (r *Registry) SetAttachmentHandler(h HandlerFunc) { r.attachments = h }

// AttachmentHandler returns the attachment handler.
func (r *Registry) AttachmentHandler() HandlerFunc { return r.attachments }

// SplitPayload splits "key|arg" callback payloads.
func SplitPayload(payload string) (key, arg string) {
	key, arg, _ = strings.Cut(payload, "|")
	return strings.TrimSpace(key), arg
}
