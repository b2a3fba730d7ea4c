package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/bottest"
	"github.com/m3rciful/maxbot/core/maxapi"
)

func TestEcho(t *testing.T) {
	api := &bottest.API{}
	b := bot.New(api)
	h := Setup(b)
	ctx := context.Background()

	require.NoError(t, h(bot.NewContext(ctx, b, bottest.Message(1, 42, "hello"))))
	require.NoError(t, h(bot.NewContext(ctx, b, bottest.Message(1, 42, "/start"))))
	require.NoError(t, h(bot.NewContext(ctx, b, bottest.Message(1, 42, "a_b"))))

	assert.Equal(t, []string{"You wrote: hello", "You wrote: /start", `You wrote: a\_b`}, api.Texts())
	assert.Equal(t, int64(42), api.Last().ChatID)
}

func TestEchoIgnoresEmptyAndOtherUpdates(t *testing.T) {
	api := &bottest.API{}
	b := bot.New(api)
	h := Setup(b)
	ctx := context.Background()

	require.NoError(t, h(bot.NewContext(ctx, b, bottest.Message(1, 42, ""))))
	require.NoError(t, h(bot.NewContext(ctx, b, bottest.Message(1, 42, "  "))))
	require.NoError(t, h(bot.NewContext(ctx, b, bottest.BotStarted(1, 42))))
	require.NoError(t, h(bot.NewContext(ctx, b, maxapi.Update{UpdateType: maxapi.UpdateMessageEdited})))

	assert.Empty(t, api.Sent)
}
