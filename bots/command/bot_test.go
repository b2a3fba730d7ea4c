package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/bottest"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

const (
	userID = int64(7)
	chatID = int64(70)
)

var fixedNow = time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

func setup(t *testing.T) (*bottest.API, *bot.Bot, bot.HandlerFunc) {
	t.Helper()
	api := &bottest.API{}
	b := bot.New(api)
	cm := &Commander{
		Now:  func() time.Time { return fixedNow },
		Intn: func(int) int { return 0 },
	}
	return api, b, cm.Setup(b)
}

func send(t *testing.T, b *bot.Bot, h bot.HandlerFunc, u maxapi.Update) {
	t.Helper()
	require.NoError(t, h(bot.NewContext(context.Background(), b, u)))
}

func state(t *testing.T, b *bot.Bot) string {
	t.Helper()
	s, ok, err := b.Sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return s.State
}

func TestWelcome(t *testing.T) {
	api, b, h := setup(t)
	send(t, b, h, bottest.Message(userID, chatID, "/start"))

	last := api.Last()
	assert.Contains(t, last.Text, "`/weather` - Check the weather")
	kb, ok := bottest.Keyboard(last)
	require.True(t, ok)
	assert.Equal(t, []string{PayloadInfo, PayloadTime, PayloadDate, PayloadRandom, PayloadWeather, PayloadHelp}, bottest.Payloads(kb))

	api.Reset()
	send(t, b, h, bottest.BotStarted(userID, chatID))
	assert.Contains(t, api.Last().Text, "*Welcome!*")
}

func TestWeatherFlow(t *testing.T) {
	api, b, h := setup(t)

	send(t, b, h, bottest.Message(userID, chatID, "/weather"))
	assert.Equal(t, AskCityText, api.Last().Text)
	assert.Equal(t, StateAwaitingCity, state(t, b))

	send(t, b, h, bottest.Message(userID, chatID, "москва"))
	text := api.Last().Text
	assert.Contains(t, text, "Weather in Москва")
	assert.Contains(t, text, "-5°C")
	assert.Contains(t, text, "**💨 Wind:** 2 m/s")
	assert.Contains(t, text, "**💧 Humidity:** 45%")
	assert.Contains(t, text, "**📊 Pressure:** 740 mmHg")
	assert.Contains(t, text, "Updated: 09:05")
	assert.Equal(t, session.StateIdle, state(t, b))

	send(t, b, h, bottest.Message(userID, chatID, "just text"))
	assert.Equal(t, MenuText, api.Last().Text)
}

func TestWeatherUnknownCityViaButton(t *testing.T) {
	api, b, h := setup(t)

	send(t, b, h, bottest.Callback(userID, chatID, "cb1", PayloadWeather))
	assert.Equal(t, AskCityText, api.Last().Text)
	assert.Equal(t, []string{AckText}, api.Notifications())

	send(t, b, h, bottest.Message(userID, chatID, "Atlantis"))
	text := api.Last().Text
	assert.Contains(t, text, "City 'Atlantis' not found")
	assert.Contains(t, text, "• Сочи")
	assert.Equal(t, session.StateIdle, state(t, b))
}

func TestWeatherCityButton(t *testing.T) {
	api, b, h := setup(t)

	send(t, b, h, bottest.Message(userID, chatID, "/weather"))
	kb, ok := bottest.Keyboard(api.Last())
	require.True(t, ok)
	assert.Equal(t, []string{"weather|Москва", "weather|СПб", "weather|Казань", "weather|Екатеринбург"}, bottest.Payloads(kb))

	send(t, b, h, bottest.Callback(userID, chatID, "cb1", "weather|Казань"))
	assert.Contains(t, api.Last().Text, "Weather in Казань")
	assert.Contains(t, api.Last().Text, "-10°C")
	assert.Equal(t, session.StateIdle, state(t, b))
}

func TestCommandsWhileAwaitingCity(t *testing.T) {
	api, b, h := setup(t)
	send(t, b, h, bottest.Message(userID, chatID, "/weather"))

	send(t, b, h, bottest.Message(userID, chatID, "/stop"))
	assert.Equal(t, GoodbyeText, api.Last().Text)
	assert.Equal(t, session.StateIdle, state(t, b))

	send(t, b, h, bottest.Message(userID, chatID, "/weather"))
	send(t, b, h, bottest.Message(userID, chatID, "/foo"))
	assert.Contains(t, api.Last().Text, "*Unknown command:* `/foo`")
	assert.Equal(t, StateAwaitingCity, state(t, b))
}

func TestUnknownCommand(t *testing.T) {
	api, b, h := setup(t)
	send(t, b, h, bottest.Message(userID, chatID, "/Nope now"))
	assert.Contains(t, api.Last().Text, "`/nope`")
}

func TestButtons(t *testing.T) {
	api, b, h := setup(t)

	send(t, b, h, bottest.Callback(userID, chatID, "cb1", PayloadRandom))
	assert.Contains(t, api.Last().Text, "**Generated:** 1")
	assert.Contains(t, api.Last().Text, "**Parity:** odd")

	send(t, b, h, bottest.Callback(userID, chatID, "cb2", PayloadDate))
	assert.Contains(t, api.Last().Text, "**Weekday:** Sunday")
	assert.Contains(t, api.Last().Text, "**Day of year:** 60")
	assert.Contains(t, api.Last().Text, "01 March 2026")

	send(t, b, h, bottest.Callback(userID, chatID, "cb3", PayloadTime))
	assert.Contains(t, api.Last().Text, "**Full time:** 09:05:07")
	assert.Contains(t, api.Last().Text, "**Time zone:** UTC")

	send(t, b, h, bottest.Callback(userID, chatID, "cb4", PayloadInfo))
	assert.Contains(t, api.Last().Text, "**User ID:** `7`")
	assert.Contains(t, api.Last().Text, "**Chat ID:** `70`")

	send(t, b, h, bottest.Callback(userID, chatID, "cb5", PayloadMenu))
	assert.Equal(t, MenuText, api.Last().Text)

	send(t, b, h, bottest.Callback(userID, chatID, "cb6", PayloadHelp))
	assert.Contains(t, api.Last().Text, "Command reference")

	sent := len(api.Sent)
	send(t, b, h, bottest.Callback(userID, chatID, "cb7", "unknown"))
	assert.Len(t, api.Sent, sent)
	assert.Equal(t, "Unknown action", api.Notifications()[len(api.Notifications())-1])
}

func TestLookupForecast(t *testing.T) {
	f, ok := LookupForecast("  КАЗАНЬ ")
	require.True(t, ok)
	assert.Equal(t, -10, f.Temp)

	f, ok = LookupForecast("Moscow")
	require.True(t, ok)
	assert.Equal(t, "Москва", f.City)

	_, ok = LookupForecast("")
	assert.False(t, ok)

	assert.Len(t, Cities(), 10)
	assert.Equal(t, "Екатеринбург", capitalize("екатеринбург"))
}
