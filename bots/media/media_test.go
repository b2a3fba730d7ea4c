package media

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/bottest"
	"github.com/m3rciful/maxbot/core/maxapi"
)

func setup() (*bottest.API, *bot.Bot, bot.HandlerFunc) {
	api := &bottest.API{}
	b := bot.New(api)
	return api, b, Setup(b)
}

func run(t *testing.T, b *bot.Bot, h bot.HandlerFunc, u maxapi.Update) {
	t.Helper()
	require.NoError(t, h(bot.NewContext(context.Background(), b, u)))
}

func attachment(t maxapi.AttachmentType, payload string) maxapi.Attachment {
	return maxapi.Attachment{Type: t, Payload: json.RawMessage(payload)}
}

func TestDescribeImageWithToken(t *testing.T) {
	api, b, h := setup()
	u := bottest.WithAttachments(bottest.Message(1, 9, ""),
		attachment(maxapi.AttachmentImage, `{"photo_id":123,"token":"tok-1","url":"https://cdn.example/p.jpg"}`))
	run(t, b, h, u)

	texts := api.Texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "**Type:** image")
	assert.Contains(t, texts[0], "**photo\\_id:** `123`")
	assert.Contains(t, texts[0], "**token:** `tok-1`")
	assert.Contains(t, texts[0], "```json\n{\n  \"photo_id\": 123,")
	assert.Contains(t, texts[1], "Token found!")
	assert.Contains(t, texts[1], `maxapi.ImageAttachment("tok-1")`)
}

func TestDescribeFileIDWinsAndURLFallback(t *testing.T) {
	api, b, h := setup()
	u := bottest.WithAttachments(bottest.Message(1, 9, "caption"),
		attachment(maxapi.AttachmentFile, `{"token":"tok-2","file_id":"fid-2"}`),
		attachment(maxapi.AttachmentVideo, `{"url":"https://cdn.example/v.mp4"}`),
		attachment(maxapi.AttachmentSticker, `{"code":"x"}`),
	)
	run(t, b, h, u)

	texts := api.Texts()
	require.Len(t, texts, 5)
	assert.Contains(t, texts[1], `maxapi.FileAttachment("fid-2")`)
	assert.Contains(t, texts[3], "URL found!")
	assert.Contains(t, texts[3], `http.Get("https://cdn.example/v.mp4")`)
	assert.Contains(t, texts[4], "**Type:** sticker")
}

func TestDescribeEmptyPayload(t *testing.T) {
	api, b, h := setup()
	run(t, b, h, bottest.WithAttachments(bottest.Message(1, 9, ""), maxapi.Attachment{Type: maxapi.AttachmentLocation}))

	require.Len(t, api.Sent, 1)
	assert.Contains(t, api.Last().Text, "```json\n{}\n```")
}

func TestCommandsAndPrompt(t *testing.T) {
	api, b, h := setup()

	run(t, b, h, bottest.Message(1, 9, "/start"))
	assert.Equal(t, WelcomeText, api.Last().Text)
	kb, ok := bottest.Keyboard(api.Last())
	require.True(t, ok)
	assert.Equal(t, []string{PayloadHelp}, bottest.Payloads(kb))

	run(t, b, h, bottest.Message(1, 9, "/HELP"))
	assert.Equal(t, HelpText, api.Last().Text)

	run(t, b, h, bottest.Message(1, 9, "what?"))
	assert.Equal(t, PromptText, api.Last().Text)

	run(t, b, h, bottest.Message(1, 9, "/unknown"))
	assert.Equal(t, PromptText, api.Last().Text)
}

func TestHelpButton(t *testing.T) {
	api, b, h := setup()

	run(t, b, h, bottest.Callback(1, 9, "cb1", PayloadHelp))
	assert.Equal(t, []string{AckText}, api.Notifications())
	assert.Equal(t, HelpText, api.Last().Text)

	run(t, b, h, bottest.Callback(1, 9, "cb2", "other"))
	assert.Equal(t, []string{AckText, AckText}, api.Notifications())
	assert.Len(t, api.Sent, 1)
}
