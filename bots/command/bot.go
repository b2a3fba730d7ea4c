// Package command is a menu bot: slash commands, an inline keyboard with
// info, time, date and random number buttons, and a canned weather lookup.
package command

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/callbacks"
	"github.com/m3rciful/maxbot/core/bot/format"
	"github.com/m3rciful/maxbot/core/bot/keyboard"
	"github.com/m3rciful/maxbot/core/bot/router"
	"github.com/m3rciful/maxbot/core/bot/ui"
	"github.com/m3rciful/maxbot/core/buildinfo"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

// StateAwaitingCity is stored in the session while a city name is expected.
const StateAwaitingCity = "awaiting_city"

// Callback payloads.
const (
	PayloadInfo    = "info"
	PayloadTime    = "time"
	PayloadDate    = "date"
	PayloadRandom  = "random"
	PayloadWeather = "weather"
	PayloadHelp    = "help"
	PayloadMenu    = "menu"
)

// Fixed texts.
const (
	AckText        = "Working on it..."
	MenuText       = "📋 *Main menu*\n\nChoose an action:"
	AskCityText    = "🌍 *Weather*\n\nEnter a city name:"
	GoodbyeText    = "👋 *Goodbye!*\n\nSend /start to begin again."
	welcomeHeading = "👋 *Welcome!*\n\nI am a helper bot. Glad to see you! 🎉\n\n📌 *Available commands:*\n"
)

// quickCities are offered as buttons under the city prompt.
const quickCities = 4

// commands keeps registration and listing order.
var commands = []struct{ name, desc string }{
	{"/start", "Start working with the bot"},
	{"/help", "Show help"},
	{"/menu", "Show the menu"},
	{"/weather", "Check the weather"},
	{"/stop", "Stop the bot"},
}

// Commander holds the bot's injectable clock and randomness.
type Commander struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Intn returns a value in [0,n). Defaults to math/rand.
	Intn func(n int) int
}

// Setup registers the command bot on b and returns its root handler.
func Setup(b *bot.Bot) bot.HandlerFunc {
	return (&Commander{}).Setup(b)
}

// Setup registers commands, buttons and fallbacks on b.Registry.
func (cm *Commander) Setup(b *bot.Bot) bot.HandlerFunc {
	reg := b.Registry
	handlers := map[string]bot.HandlerFunc{
		"/start":   welcome,
		"/help":    help,
		"/menu":    menu,
		"/weather": askCity,
		"/stop":    stop,
	}
	for _, c := range commands {
		reg.RegisterCommand(c.name, bot.Command{Handler: handlers[c.name], Description: c.desc})
	}

	reg.MustRegisterCallback(PayloadInfo, cm.info)
	reg.MustRegisterCallback(PayloadTime, cm.clock)
	reg.MustRegisterCallback(PayloadDate, cm.date)
	reg.MustRegisterCallback(PayloadRandom, cm.random)
	reg.MustRegisterCallback(PayloadWeather, cm.weather)
	reg.MustRegisterCallback(PayloadHelp, help)
	reg.MustRegisterCallback(PayloadMenu, menu)

	reg.On(maxapi.UpdateBotStarted, welcome)
	ui.Install(reg, cm)

	return router.New(reg, router.Options{FSM: cm, AckText: AckText})
}

// InProgress reports whether a city name is expected from the user.
func (cm *Commander) InProgress(c *bot.Context) bool {
	st := c.Bot().Sessions
	if st == nil || c.UserID() == 0 {
		return false
	}
	s, ok, err := st.Get(c.Context(), c.UserID())
	return err == nil && ok && s.State == StateAwaitingCity
}

// Handle answers the pending weather question and leaves the state.
func (cm *Commander) Handle(c *bot.Context) error {
	if bot.IsCommand(c.Text()) {
		return unknownCommand(c)
	}
	return cm.forecast(c, c.Text())
}

// UnknownText shows the menu for free text.
func (cm *Commander) UnknownText() bot.HandlerFunc { return menu }

// UnknownCommand answers unregistered slash commands.
func (cm *Commander) UnknownCommand() bot.HandlerFunc { return unknownCommand }

// UnknownCallback keeps the router's default answer.
func (cm *Commander) UnknownCallback() bot.HandlerFunc { return nil }

func (cm *Commander) forecast(c *bot.Context, city string) error {
	if err := setState(c, session.StateIdle); err != nil {
		return err
	}
	f, ok := LookupForecast(city)
	if !ok {
		return c.Send(unknownCityText(city))
	}
	return c.Send(weatherText(city, f, cm.intn, cm.now()))
}

// weather answers "weather|<city>" buttons directly and asks for a city
// otherwise.
func (cm *Commander) weather(c *bot.Context) error {
	if city := callbacks.Arg(c); city != "" {
		return cm.forecast(c, city)
	}
	return askCity(c)
}

func (cm *Commander) now() time.Time {
	if cm.Now != nil {
		return cm.Now()
	}
	return time.Now()
}

func (cm *Commander) intn(n int) int {
	if cm.Intn != nil {
		return cm.Intn(n)
	}
	return rand.Intn(n)
}

func setState(c *bot.Context, state string) error {
	_, err := c.UpdateSession(func(s *session.Session) error {
		s.State = state
		return nil
	})
	if err != nil {
		return fmt.Errorf("command: set state %s: %w", state, err)
	}
	return nil
}

// MainMenu is the navigation keyboard.
func MainMenu() maxapi.Keyboard {
	return keyboard.Rows(
		keyboard.Row(
			keyboard.Callback("ℹ️ Info", PayloadInfo),
			keyboard.Callback("🕒 Time", PayloadTime),
		),
		keyboard.Row(
			keyboard.Callback("📅 Date", PayloadDate),
			keyboard.Positive("🎲 Random number", PayloadRandom),
		),
		keyboard.Row(
			keyboard.Positive("🌦 Weather", PayloadWeather),
			keyboard.Callback("❓ Help", PayloadHelp),
		),
	)
}

func welcome(c *bot.Context) error {
	var b strings.Builder
	b.WriteString(welcomeHeading)
	for i, cmd := range commands {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "`%s` - %s", cmd.name, cmd.desc)
	}
	b.WriteString("\n\nUse the buttons below for quick navigation:")
	return c.SendKeyboard(b.String(), MainMenu())
}

func help(c *bot.Context) error {
	var b strings.Builder
	b.WriteString("📚 *Command reference*\n\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "• `%s` - %s\n", cmd.name, cmd.desc)
	}
	b.WriteString("\n✨ *Features:*\n" +
		"• Inline buttons for quick navigation\n" +
		"• Interactive input\n" +
		"• Weather lookup\n\n" +
		"Press /menu to open the main menu.")
	return c.Send(b.String())
}

func menu(c *bot.Context) error {
	return c.SendKeyboard(MenuText, MainMenu())
}

func askCity(c *bot.Context) error {
	if err := setState(c, StateAwaitingCity); err != nil {
		return err
	}
	return c.SendKeyboard(AskCityText, CityKeyboard())
}

// CityKeyboard offers the first few known cities as weather buttons.
func CityKeyboard() maxapi.Keyboard {
	cities := Cities()
	if len(cities) > quickCities {
		cities = cities[:quickCities]
	}
	buttons := make([]maxapi.Button, 0, len(cities))
	for _, city := range cities {
		buttons = append(buttons, keyboard.Callback(city, callbacks.Join(PayloadWeather, city)))
	}
	return keyboard.NPerRow(buttons, 2)
}

func stop(c *bot.Context) error {
	if err := setState(c, session.StateIdle); err != nil {
		return err
	}
	return c.Send(GoodbyeText)
}

func unknownCommand(c *bot.Context) error {
	return c.Send(fmt.Sprintf("❌ *Unknown command:* %s\n\nSend /help for the list of available commands.",
		format.Code(bot.CommandName(c.Text()))))
}

func (cm *Commander) info(c *bot.Context) error {
	now := cm.now()
	return c.Send(fmt.Sprintf("ℹ️ *About the bot*\n\n"+
		"**Version:** %s\n"+
		"**User ID:** %s\n"+
		"**Chat ID:** %s\n"+
		"**Server time:** %s\n"+
		"**Date:** %s\n\n"+
		"🛠 *Technical details:*\n"+
		"• Platform: MAX Bot API\n"+
		"• Build: %s",
		buildinfo.Version,
		format.Code(fmt.Sprint(c.UserID())),
		format.Code(fmt.Sprint(c.ChatID())),
		now.Format("15:04:05"),
		now.Format("02.01.2006"),
		buildinfo.Commit,
	))
}

func (cm *Commander) clock(c *bot.Context) error {
	now := cm.now()
	zone, _ := now.Zone()
	return c.Send(fmt.Sprintf("🕒 *Current time*\n\n"+
		"**Hours:** %s\n"+
		"**Minutes:** %s\n"+
		"**Seconds:** %s\n\n"+
		"**Full time:** %s\n"+
		"**Time zone:** %s",
		now.Format("15"), now.Format("04"), now.Format("05"), now.Format("15:04:05"), zone))
}

func (cm *Commander) date(c *bot.Context) error {
	now := cm.now()
	return c.Send(fmt.Sprintf("📅 *Current date*\n\n"+
		"**Day:** %s\n"+
		"**Month:** %s\n"+
		"**Year:** %d\n\n"+
		"**Weekday:** %s\n"+
		"**Full date:** %s\n"+
		"**Day of year:** %d",
		now.Format("02"), now.Month(), now.Year(), now.Weekday(), now.Format("02 January 2006"), now.YearDay()))
}

func (cm *Commander) random(c *bot.Context) error {
	n := cm.intn(1000) + 1
	parity := "odd"
	if n%2 == 0 {
		parity = "even"
	}
	return c.Send(fmt.Sprintf("🎲 *Random number*\n\n"+
		"**Generated:** %d\n"+
		"**Parity:** %s\n"+
		"**Range:** 1 to 1000\n\n"+
		"✨ A new number every time!", n, parity))
}
