// Package dialog is a registration bot: it collects name, age and city step
// by step, keeps the answers in the session store and accepts feedback.
package dialog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/router"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/metrics"
	"github.com/m3rciful/maxbot/core/session"
)

// Callback payloads.
const (
	PayloadStartRegistration = "start_registration"
	PayloadShowProfile       = "show_profile"
	PayloadStartFeedback     = "start_feedback"
	PayloadResetData         = "reset_data"
	PayloadConfirmYes        = "confirm_yes"
	PayloadConfirmNo         = "confirm_no"
	PayloadMainMenu          = "main_menu"
	PayloadShowHelp          = "show_help"
)

// AckText is the notification shown for every button press.
const AckText = "Working on it..."

// Dialog wires the Machine to a bot registry.
type Dialog struct {
	Machine Machine
	// Now defaults to time.Now.
	Now func() time.Time
}

// Setup registers the dialog bot on b and returns its root handler.
func Setup(b *bot.Bot) bot.HandlerFunc {
	return (&Dialog{}).Setup(b)
}

// Setup registers commands, buttons and fallbacks on b.Registry.
func (d *Dialog) Setup(b *bot.Bot) bot.HandlerFunc {
	reg := b.Registry
	reg.RegisterCommand("/start", bot.Command{Handler: d.step(ActionStart), Description: "Start the dialog"})
	reg.RegisterCommand("/reset", bot.Command{Handler: d.step(ActionReset), Description: "Reset your data"})
	reg.RegisterCommand("/profile", bot.Command{Handler: d.profile, Description: "Show your profile"})
	reg.RegisterCommand("/feedback", bot.Command{Handler: d.step(ActionFeedback), Description: "Leave feedback"})
	reg.RegisterCommand("/menu", bot.Command{Handler: menu, Description: "Main menu"})
	reg.RegisterCommand("/help", bot.Command{Handler: help, Description: "Show help"})

	callbacks := map[string]bot.HandlerFunc{
		PayloadStartRegistration: d.step(ActionStart),
		PayloadShowProfile:       d.profile,
		PayloadStartFeedback:     d.step(ActionFeedback),
		PayloadResetData:         d.step(ActionReset),
		PayloadConfirmYes:        d.step(ActionConfirmYes),
		PayloadConfirmNo:         d.step(ActionConfirmNo),
		PayloadMainMenu:          menu,
		PayloadShowHelp:          help,
	}
	for key, h := range callbacks {
		reg.MustRegisterCallback(key, h)
	}

	reg.On(maxapi.UpdateBotStarted, d.step(ActionStart))
	reg.SetUnknownCommand(unknownCommand)
	reg.SetTextFallback(d.Handle)

	return router.New(reg, router.Options{FSM: d, AckText: AckText})
}

// InProgress reports whether the user is inside the conversation.
func (d *Dialog) InProgress(c *bot.Context) bool {
	st := c.Bot().Sessions
	if st == nil || c.UserID() == 0 {
		return false
	}
	s, ok, err := st.Get(c.Context(), c.UserID())
	if err != nil {
		logger.Warn(c.Context(), logger.CompFSM, "session.get", slog.String("err", err.Error()))
		return false
	}
	return ok && State(s.State) != StateIdle
}

// Handle feeds the message text to the machine. Unregistered commands are
// answered as such instead of being taken as an answer.
func (d *Dialog) Handle(c *bot.Context) error {
	if bot.IsCommand(c.Text()) {
		return unknownCommand(c)
	}
	return d.apply(c, Text(c.Text()))
}

func (d *Dialog) step(a Action) bot.HandlerFunc {
	return func(c *bot.Context) error {
		return d.apply(c, Input{Action: a, Text: c.Text()})
	}
}

// apply runs one transition inside a single session update and sends its reply.
func (d *Dialog) apply(c *bot.Context, in Input) error {
	if c.UserID() == 0 {
		return c.Send(router.NoUserText)
	}
	now := d.now()
	var (
		from, next State
		eff        Effect
	)
	s, err := c.UpdateSession(func(s *session.Session) error {
		from = State(s.State)
		next, eff = d.Machine.Transition(from, in)
		eff.Apply(s, next, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("dialog: %s: %w", in.Action, err)
	}

	metrics.IncTransition(string(from), string(next))
	logger.Info(c.Context(), logger.CompFSM, "fsm.transition",
		slog.String("from", string(from)),
		slog.String("to", string(next)),
		slog.String("action", in.Action.String()),
	)
	if eff.Feedback != "" {
		logger.Info(c.Context(), logger.CompFSM, "feedback.received",
			slog.Int64("user_id", c.UserID()),
			slog.String("feedback", logger.SanitizeLimit(eff.Feedback, 256)),
		)
	}

	text, kb := render(eff.Reply, s)
	if kb != nil {
		return c.SendKeyboard(text, kb)
	}
	return c.Send(text)
}

func (d *Dialog) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dialog) profile(c *bot.Context) error {
	st := c.Bot().Sessions
	if st == nil {
		return errors.New("dialog: no session store")
	}
	s, ok, err := st.Get(c.Context(), c.UserID())
	if err != nil {
		return fmt.Errorf("dialog: profile: %w", err)
	}
	if !ok || s.Name == "" {
		return c.Send(ProfileEmptyText)
	}
	return c.SendKeyboard(profileText(s), profileKeyboard())
}

func menu(c *bot.Context) error {
	return c.SendKeyboard(MenuText, MainMenu())
}

func help(c *bot.Context) error {
	var b strings.Builder
	b.WriteString("📚 *Available commands*\n\n")
	for _, cmd := range c.Bot().Registry.ListCommands(true) {
		fmt.Fprintf(&b, "• `%s` - %s\n", cmd.Name, cmd.Description)
	}
	b.WriteString("\nYou can also use the menu buttons.")
	return c.Send(b.String())
}

func unknownCommand(c *bot.Context) error {
	return c.Send(fmt.Sprintf("❌ Unknown command: %s\n\nSend /help for the list of commands.", bot.CommandName(c.Text())))
}
