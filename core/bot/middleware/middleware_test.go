package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/bottest"
	"github.com/m3rciful/maxbot/core/config"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
)

func newCtx(u maxapi.Update) (*bottest.API, *bot.Context) {
	api := &bottest.API{}
	return api, bot.NewContext(context.Background(), bot.New(api), u)
}

func TestRecoverConvertsPanic(t *testing.T) {
	_, c := newCtx(bottest.Message(1, 2, "x"))
	err := Recover(func(*bot.Context) error { panic("kaboom") })(c)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Equal(t, "PANIC", pe.Code())
}

func TestRecoverPassesErrors(t *testing.T) {
	_, c := newCtx(bottest.Message(1, 2, "x"))
	boom := errors.New("boom")
	assert.ErrorIs(t, Recover(func(*bot.Context) error { return boom })(c), boom)
}

func TestLoggerSetsRequestMetadata(t *testing.T) {
	_, c := newCtx(bottest.Message(7, 42, "x"))
	var rid string
	var chatID int64
	require.NoError(t, Logger(func(c *bot.Context) error {
		rid = logger.RIDFrom(c.Context())
		chatID = logger.ChatIDFrom(c.Context())
		return nil
	})(c))
	assert.Equal(t, "1700000000000:42:7", rid)
	assert.Equal(t, int64(42), chatID)
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(0, 0)
	var limited int
	mw := RateLimit(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{config.UpdateCallback: {}},
		OnLimited: func(*bot.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	var handled int
	h := mw(func(*bot.Context) error { handled++; return nil })

	call := func(u maxapi.Update) {
		_, c := newCtx(u)
		require.NoError(t, h(c))
	}

	call(bottest.Message(1, 2, "a"))
	call(bottest.Message(1, 2, "b"))
	call(bottest.Message(3, 2, "other user"))
	call(bottest.Callback(1, 2, "cb", "info"))
	now = now.Add(time.Second)
	call(bottest.Message(1, 2, "c"))

	assert.Equal(t, 4, handled)
	assert.Equal(t, 1, limited)
}

func TestAdminOnly(t *testing.T) {
	var rejected, passed int
	mw := AdminOnly(AdminOptions{AdminID: 9, OnReject: func(*bot.Context) error { rejected++; return nil }})
	h := mw(func(*bot.Context) error { passed++; return nil })

	_, c := newCtx(bottest.Message(1, 2, "/x"))
	require.NoError(t, h(c))
	_, c = newCtx(bottest.Message(9, 2, "/x"))
	require.NoError(t, h(c))
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, passed)

	open := WithAdminCheck(AdminOptions{}, bot.Command{Handler: func(*bot.Context) error { passed++; return nil }, AdminOnly: true})
	_, c = newCtx(bottest.Message(1, 2, "/x"))
	require.NoError(t, open(c))
	assert.Equal(t, 2, passed)
}

func TestTouchRefreshesExistingSession(t *testing.T) {
	_, c := newCtx(bottest.Message(7, 42, "x"))
	ctx := context.Background()
	st := c.Bot().Sessions

	require.NoError(t, Touch(func(*bot.Context) error { return nil })(c))
	_, ok, err := st.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "touch must not create sessions")

	s, err := st.GetOrCreate(ctx, 7, 42)
	require.NoError(t, err)
	before := s.LastActivity
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, Touch(func(*bot.Context) error { return nil })(c))
	s, _, err = st.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, s.LastActivity.After(before))
}

func TestDefaults(t *testing.T) {
	names := func(mws []bot.Middleware) []string {
		out := make([]string, len(mws))
		for i, m := range mws {
			out[i] = m.Name
		}
		return out
	}
	assert.Equal(t, []string{"recover", "logger", "metrics", "session"}, names(Defaults(nil, nil)))

	cfg := &config.Config{RateLimit: config.RateLimitConfig{IntervalMS: 500}}
	assert.Equal(t, []string{"recover", "logger", "rate_limit", "metrics", "session"}, names(Defaults(cfg, nil)))
}

func TestMetricsPassesThrough(t *testing.T) {
	api, c := newCtx(bottest.Message(1, 2, "x"))
	err := Metrics(func(c *bot.Context) error {
		return c.SendKeyboard("k", maxapi.Keyboard{{{Text: "a", Payload: "a"}}})
	})(c)
	require.NoError(t, err)
	assert.Len(t, api.Sent, 1)
}
