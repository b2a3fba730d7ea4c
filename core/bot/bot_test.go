package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bot/bottest"
	"github.com/m3rciful/maxbot/core/bot/sender"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

func TestCommandParsing(t *testing.T) {
	assert.True(t, IsCommand(" /start"))
	assert.False(t, IsCommand("start"))
	assert.Equal(t, "/start", CommandName("/Start now"))
	assert.Equal(t, "/help", CommandName("/help@my_bot"))
	assert.Equal(t, "", CommandName("hello"))
	assert.Equal(t, "Moscow tomorrow", CommandArgs("/weather  Moscow tomorrow"))
	assert.Equal(t, "", CommandArgs("/weather"))
}

func TestContextSendUsesUpdateChat(t *testing.T) {
	api := &bottest.API{}
	b := New(api)
	c := NewContext(context.Background(), b, bottest.Message(7, 42, "hi"))

	require.NoError(t, c.Send("hello"))
	require.NoError(t, c.SendKeyboard("pick", maxapi.Keyboard{{{Text: "a", Payload: "a"}}}))

	require.Len(t, api.Sent, 2)
	assert.Equal(t, int64(42), api.Sent[0].ChatID)
	assert.Equal(t, maxapi.FormatMarkdown, api.Sent[0].Format)
	n, kb := c.Replies()
	assert.Equal(t, 2, n)
	assert.True(t, kb)
}

func TestContextSendWithoutChat(t *testing.T) {
	api := &bottest.API{}
	c := NewContext(context.Background(), New(api), bottest.Callback(7, 0, "cb1", "info"))
	assert.ErrorIs(t, c.Send("x"), ErrNoChat)
	assert.Empty(t, api.Sent)

	c.SetChatID(9)
	require.NoError(t, c.Send("x"))
	assert.Equal(t, int64(9), api.Last().ChatID)
}

func TestContextReplyLinksMessage(t *testing.T) {
	api := &bottest.API{}
	c := NewContext(context.Background(), New(api), bottest.Message(7, 42, "hi"))
	require.NoError(t, c.Reply("pong"))
	require.NotNil(t, api.Last().Link)
	assert.Equal(t, "mid.1", api.Last().Link.MID)
}

func TestContextCallbackActorIsPresser(t *testing.T) {
	c := NewContext(context.Background(), New(&bottest.API{}), bottest.Callback(7, 42, "cb1", "info"))
	require.NotNil(t, c.Message())
	assert.Equal(t, bottest.BotUserID, c.Message().Sender.UserID)

	assert.Equal(t, int64(7), c.UserID())
	require.NotNil(t, c.Sender())
	assert.Equal(t, int64(7), c.Sender().UserID)
	assert.Equal(t, int64(42), c.ChatID())
	assert.Equal(t, "", c.Text())

	anon := NewContext(context.Background(), New(&bottest.API{}), bottest.Callback(0, 42, "cb2", "info"))
	assert.Equal(t, int64(0), anon.UserID())
	assert.Nil(t, anon.Sender())
}

func TestContextAnswer(t *testing.T) {
	api := &bottest.API{}
	c := NewContext(context.Background(), New(api), bottest.Callback(7, 42, "cb1", "info"))
	require.NoError(t, c.Answer("done"))
	assert.Equal(t, []string{"done"}, api.Notifications())
	assert.Equal(t, "cb1", api.Answers[0].CallbackID)

	msg := NewContext(context.Background(), New(api), bottest.Message(7, 42, "hi"))
	assert.ErrorIs(t, msg.Answer("x"), ErrNoCallback)
}

func TestContextSessionRoundTrip(t *testing.T) {
	b := New(&bottest.API{})
	c := NewContext(context.Background(), b, bottest.Message(7, 42, "hi"))

	s, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, s.State)
	assert.Equal(t, int64(42), s.ChatID)

	s, err = c.UpdateSession(func(s *session.Session) error {
		s.State = "awaiting_city"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "awaiting_city", s.State)

	got, ok, err := b.Sessions.Get(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "awaiting_city", got.State)
}

func TestContextSendThroughDispatcher(t *testing.T) {
	api := &bottest.API{}
	b := New(api)
	b.Dispatcher = sender.NewDispatcher(sender.Options{Workers: 1})
	c := NewContext(context.Background(), b, bottest.Message(7, 42, "hi"))

	require.NoError(t, c.Send("queued"))
	b.Dispatcher.Close()
	assert.Equal(t, []string{"queued"}, api.Texts())

	require.NoError(t, c.Send("direct"))
	assert.Equal(t, []string{"queued", "direct"}, api.Texts())
}

func TestChainOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return Middleware{Name: name, Use: func(next HandlerFunc) HandlerFunc {
			return func(c *Context) error {
				trace = append(trace, name)
				return next(c)
			}
		}}
	}
	h := Chain(func(*Context) error {
		trace = append(trace, "handler")
		return nil
	}, mw("a"), Middleware{Name: "noop"}, mw("b"))

	require.NoError(t, h(NewContext(context.Background(), New(&bottest.API{}), bottest.Message(1, 1, ""))))
	assert.Equal(t, []string{"a", "b", "handler"}, trace)
}

func TestUpdateHandlerBuildsContext(t *testing.T) {
	b := New(&bottest.API{})
	boom := errors.New("boom")
	var seen int64
	h := b.UpdateHandler(func(c *Context) error {
		seen = c.UserID()
		return boom
	})
	err := h(context.Background(), bottest.Message(7, 42, "x"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(7), seen)
}
