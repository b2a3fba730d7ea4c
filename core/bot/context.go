package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/maxbot/core/bot/sender"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

var (
	// ErrNoChat is returned by send helpers when the update has no resolvable chat.
	ErrNoChat = errors.New("bot: cannot identify chat")
	// ErrNoCallback is returned by Answer outside a callback update.
	ErrNoCallback = errors.New("bot: not a callback update")
)

// Context carries one update through middleware and handlers.
// It is not safe for concurrent use.
type Context struct {
	ctx    context.Context
	bot    *Bot
	update maxapi.Update
	userID int64
	chatID int64

	values   map[string]any
	replies  int
	keyboard bool
}

// NewContext builds the Context for u. User and chat ids are taken from the
// update itself; the callback router may refine the chat later.
func NewContext(ctx context.Context, b *Bot, u maxapi.Update) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		ctx:    ctx,
		bot:    b,
		update: u,
		userID: u.SenderID(),
		chatID: u.ChatIDHint(),
	}
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.ctx }

// SetContext replaces the request context, e.g. to add log fields.
func (c *Context) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

// Bot returns the owning Bot.
func (c *Context) Bot() *Bot { return c.bot }

// Update returns the update being handled.
func (c *Context) Update() *maxapi.Update { return &c.update }

// Type returns the update type.
func (c *Context) Type() maxapi.UpdateType { return c.update.UpdateType }

// Message returns the message of message_* updates or nil.
func (c *Context) Message() *maxapi.Message { return c.update.Message }

// Callback returns the callback of message_callback updates or nil.
func (c *Context) Callback() *maxapi.Callback { return c.update.Callback }

// Sender returns the acting user or nil.
func (c *Context) Sender() *maxapi.User {
	if cb := c.update.Callback; cb != nil || c.update.UpdateType == maxapi.UpdateMessageCallback {
		if cb != nil && cb.User != nil {
			return cb.User
		}
		return c.update.User
	}
	if m := c.update.Message; m != nil && m.Sender != nil {
		return m.Sender
	}
	return c.update.User
}

// UserID returns the acting user id or 0.
func (c *Context) UserID() int64 { return c.userID }

// ChatID returns the resolved chat id or 0.
func (c *Context) ChatID() int64 { return c.chatID }

// SetChatID overrides the chat replies are sent to.
func (c *Context) SetChatID(id int64) { c.chatID = id }

// Text returns the message text or "". Callbacks carry no user text.
func (c *Context) Text() string {
	if c.update.Callback != nil {
		return ""
	}
	return c.update.Message.Text()
}

// Data returns the callback payload or "".
func (c *Context) Data() string {
	if c.update.Callback == nil {
		return ""
	}
	return c.update.Callback.Payload
}

// Set stores a request-scoped value.
func (c *Context) Set(key string, v any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
}

// Get returns a request-scoped value or nil.
func (c *Context) Get(key string) any { return c.values[key] }

// Replies reports how many messages were sent and whether any carried a keyboard.
func (c *Context) Replies() (int, bool) { return c.replies, c.keyboard }

// Send sends a markdown text message to the current chat.
func (c *Context) Send(text string) error {
	return c.SendMessage(maxapi.SendMessageParams{Text: text, Format: maxapi.FormatMarkdown})
}

// SendKeyboard sends a markdown text message with an inline keyboard.
func (c *Context) SendKeyboard(text string, kb maxapi.Keyboard) error {
	return c.SendMessage(maxapi.NewKeyboardMessage(0, text, kb))
}

// Reply sends text as a reply to the incoming message.
func (c *Context) Reply(text string) error {
	p := maxapi.SendMessageParams{Text: text, Format: maxapi.FormatMarkdown}
	if m := c.update.Message; m != nil && m.Body.MID != "" {
		p.Link = maxapi.ReplyTo(m.Body.MID)
	}
	return c.SendMessage(p)
}

// SendMessage sends p, addressed to the current chat when p has no recipient.
func (c *Context) SendMessage(p maxapi.SendMessageParams) error {
	if p.ChatID == 0 && p.UserID == 0 {
		if c.chatID == 0 {
			return ErrNoChat
		}
		p.ChatID = c.chatID
	}
	hasKB := hasKeyboard(p.Attachments)
	run := func(ctx context.Context) error {
		_, err := c.bot.API.SendMessage(ctx, p)
		return err
	}
	if err := c.dispatch("send.message", run); err != nil {
		return err
	}
	c.replies++
	if hasKB {
		c.keyboard = true
	}
	return nil
}

// Answer acknowledges the current callback with a toast notification.
func (c *Context) Answer(notification string) error {
	return c.AnswerWith(maxapi.CallbackAnswer{Notification: notification})
}

// AnswerWith acknowledges the current callback with a full answer.
func (c *Context) AnswerWith(a maxapi.CallbackAnswer) error {
	cb := c.update.Callback
	if cb == nil || cb.CallbackID == "" {
		return ErrNoCallback
	}
	_, err := c.bot.API.AnswerCallback(c.ctx, cb.CallbackID, a)
	return err
}

// Typing shows the typing indicator in the current chat.
func (c *Context) Typing() error {
	if c.chatID == 0 {
		return ErrNoChat
	}
	_, err := c.bot.API.SendAction(c.ctx, c.chatID, maxapi.ActionTypingOn)
	return err
}

// Session returns the user's session, creating it on first contact.
func (c *Context) Session() (session.Session, error) {
	if c.bot.Sessions == nil {
		return session.Session{}, errors.New("bot: no session store")
	}
	return c.bot.Sessions.GetOrCreate(c.ctx, c.userID, c.chatID)
}

// UpdateSession applies fn to the user's session, creating it if needed.
func (c *Context) UpdateSession(fn func(*session.Session) error) (session.Session, error) {
	if _, err := c.Session(); err != nil {
		return session.Session{}, err
	}
	return c.bot.Sessions.Update(c.ctx, c.userID, fn)
}

// dispatch runs an outbound call through the Dispatcher when configured,
// falling back to a direct call if the queue cannot take it.
func (c *Context) dispatch(action string, run sender.RunFunc) error {
	d := c.bot.Dispatcher
	if d == nil {
		return run(c.ctx)
	}
	err := d.Enqueue(c.ctx, action, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(c.ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run(c.ctx)
	}
	return err
}

func hasKeyboard(atts []maxapi.AttachmentRequest) bool {
	for _, a := range atts {
		if a.Type == maxapi.AttachmentInlineKeyboard {
			return true
		}
	}
	return false
}

// IsCommand reports whether text looks like a bot command.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// CommandName extracts the lower-cased command from text: "/Start now" gives "/start".
func CommandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if i := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }); i >= 0 {
		text = text[:i]
	}
	if i := strings.IndexByte(text, '@'); i > 0 {
		text = text[:i]
	}
	return strings.ToLower(text)
}

// CommandArgs returns the text after the command name.
func CommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if i := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}
