package dialog

import (
	"fmt"
	"strings"

	"github.com/m3rciful/maxbot/core/bot/format"
	"github.com/m3rciful/maxbot/core/bot/keyboard"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

// Fixed texts.
const (
	MenuText           = "🏠 *Main menu*\n\nChoose an action:"
	AskNameText        = "👋 *Welcome to registration!*\n\nLet's get acquainted.\n\n✏️ *What is your name?*"
	NameInvalidText    = "❌ The name must be at least 2 characters long. Try again:"
	AgeInvalidText     = "❌ Please enter a valid age (from 1 to 120):"
	AskCityText        = "🌍 *Which city are you from?*"
	CityInvalidText    = "❌ The city name must be at least 2 characters long. Try again:"
	RestartText        = "🔄 Let's start over.\n\n✏️ *What is your name?*"
	AskFeedbackText    = "💬 *Leave your feedback*\n\nTell us what you think about the bot:"
	FeedbackEmptyText  = "❌ Feedback cannot be empty. Write a few words:"
	FeedbackThanksText = "✅ Thank you for your feedback!\n\nWe will take it into account."
	ResetDoneText      = "🔄 *Your data has been reset*\n\nSend /start to begin again or use the menu below."
	ProfileEmptyText   = "❌ Your profile is not filled in. Send /start to register."
)

const activityLayout = "15:04 02.01.2006"

// render builds the message for r from the session after the transition.
func render(r Reply, s session.Session) (string, maxapi.Keyboard) {
	switch r {
	case ReplyAskName:
		return AskNameText, nil
	case ReplyNameInvalid:
		return NameInvalidText, nil
	case ReplyAskAge:
		return fmt.Sprintf("👋 Nice to meet you, %s!\n\n📅 *How old are you?*", format.EscapeMarkdown(s.Name)), nil
	case ReplyAgeInvalid:
		return AgeInvalidText, nil
	case ReplyAskCity:
		return AskCityText, nil
	case ReplyCityInvalid:
		return CityInvalidText, nil
	case ReplyConfirm:
		return "📋 *Check your details:*\n\n" + details(s) + "\n✅ Is everything correct?", ConfirmKeyboard()
	case ReplyCompleted:
		return "🎉 *Registration complete!*\n\nThank you for the information.\n\n📊 *Saved details:*\n" +
			details(s) + "\nUse the menu below to see your profile or leave feedback.", MainMenu()
	case ReplyRestart:
		return RestartText, nil
	case ReplyAskFeedback:
		return AskFeedbackText, nil
	case ReplyFeedbackEmpty:
		return FeedbackEmptyText, nil
	case ReplyFeedbackThanks:
		return FeedbackThanksText, MainMenu()
	case ReplyResetDone:
		return ResetDoneText, MainMenu()
	}
	return MenuText, MainMenu()
}

func details(s session.Session) string {
	return fmt.Sprintf("👤 **Name:** %s\n📅 **Age:** %d\n🌍 **City:** %s\n",
		format.EscapeMarkdown(s.Name), s.Age, format.EscapeMarkdown(s.City))
}

func profileText(s session.Session) string {
	var b strings.Builder
	b.WriteString("👤 *Your profile*\n\n")
	fmt.Fprintf(&b, "🆔 **ID:** %s\n", format.Code(fmt.Sprint(s.UserID)))
	b.WriteString(details(s))
	fmt.Fprintf(&b, "🕒 **Last activity:** %s", s.LastActivity.Format(activityLayout))
	if s.Feedback != "" {
		fmt.Fprintf(&b, "\n\n💬 **Your feedback:** %s", format.EscapeMarkdown(s.Feedback))
	}
	return b.String()
}

// MainMenu is the navigation keyboard.
func MainMenu() maxapi.Keyboard {
	return keyboard.Rows(
		keyboard.Row(keyboard.Positive("📝 Fill in profile", PayloadStartRegistration)),
		keyboard.Row(
			keyboard.Callback("👤 My profile", PayloadShowProfile),
			keyboard.Callback("💬 Feedback", PayloadStartFeedback),
		),
		keyboard.Row(
			keyboard.Negative("🔄 Reset data", PayloadResetData),
			keyboard.Callback("❓ Help", PayloadShowHelp),
		),
	)
}

// ConfirmKeyboard asks to confirm the collected details.
func ConfirmKeyboard() maxapi.Keyboard {
	return keyboard.Rows(keyboard.Row(
		keyboard.Positive("✅ Yes, correct", PayloadConfirmYes),
		keyboard.Negative("🔄 Refill", PayloadConfirmNo),
	))
}

func profileKeyboard() maxapi.Keyboard {
	return keyboard.Rows(keyboard.Row(
		keyboard.Positive("📝 Leave feedback", PayloadStartFeedback),
		keyboard.Callback("🏠 Main menu", PayloadMainMenu),
	))
}
