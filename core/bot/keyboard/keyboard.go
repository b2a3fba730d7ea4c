// Package keyboard builds MAX inline keyboards.
package keyboard

import "github.com/m3rciful/maxbot/core/maxapi"

const defaultCancelButtonText = "❌ Cancel"

// Callback returns a callback button with the default intent.
func Callback(text, payload string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonCallback, Text: text, Payload: payload}
}

// Positive returns a callback button rendered with the positive intent.
func Positive(text, payload string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonCallback, Text: text, Payload: payload, Intent: maxapi.IntentPositive}
}

// Negative returns a callback button rendered with the negative intent.
func Negative(text, payload string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonCallback, Text: text, Payload: payload, Intent: maxapi.IntentNegative}
}

// Link returns a button that opens url.
func Link(text, url string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonLink, Text: text, URL: url}
}

// Message returns a button that sends its text as a user message.
func Message(text string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonMessage, Text: text}
}

// RequestContact returns a button asking the user to share their contact.
func RequestContact(text string) maxapi.Button {
	return maxapi.Button{Type: maxapi.ButtonRequestContact, Text: text}
}

// Rows builds a keyboard from explicit rows.
func Rows(rows ...[]maxapi.Button) maxapi.Keyboard {
	kb := make(maxapi.Keyboard, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			kb = append(kb, r)
		}
	}
	return kb
}

// Row is a readability helper for Rows.
func Row(buttons ...maxapi.Button) []maxapi.Button { return buttons }

// Column places each button on its own row.
func Column(buttons ...maxapi.Button) maxapi.Keyboard {
	return NPerRow(buttons, 1)
}

// NPerRow splits a flat list of buttons into rows with up to n buttons per row.
// If n <= 1, each button gets its own row.
func NPerRow(buttons []maxapi.Button, n int) maxapi.Keyboard {
	if n < 1 {
		n = 1
	}
	kb := make(maxapi.Keyboard, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		row := make([]maxapi.Button, end-i)
		copy(row, buttons[i:end])
		kb = append(kb, row)
	}
	return kb
}

// Cancel returns a negative cancel button. Optional arguments override the
// payload (first value) and the label (second value).
func Cancel(options ...string) maxapi.Button {
	payload := "cancel"
	if len(options) > 0 && options[0] != "" {
		payload = options[0]
	}
	text := defaultCancelButtonText
	if len(options) > 1 && options[1] != "" {
		text = options[1]
	}
	return Negative(text, payload)
}

// SingleCancel returns a keyboard holding one cancel button.
func SingleCancel(options ...string) maxapi.Keyboard {
	return Rows(Row(Cancel(options...)))
}
