// Package bottest provides an in-memory API and update builders for handler tests.
package bottest

import (
	"context"
	"sync"

	"github.com/m3rciful/maxbot/core/maxapi"
)

// Answer is a recorded callback answer.
type Answer struct {
	CallbackID string
	Answer     maxapi.CallbackAnswer
}

// API records outbound calls. SendErr and AnswerErr, when set, are returned
// instead of recording.
type API struct {
	mu        sync.Mutex
	Sent      []maxapi.SendMessageParams
	Answers   []Answer
	Edits     []maxapi.EditMessageParams
	Actions   []maxapi.SenderAction
	SendErr   error
	AnswerErr error
}

// SendMessage implements bot.API.
func (a *API) SendMessage(_ context.Context, p maxapi.SendMessageParams) (*maxapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.SendErr != nil {
		return nil, a.SendErr
	}
	a.Sent = append(a.Sent, p)
	return &maxapi.Message{Recipient: maxapi.Recipient{ChatID: p.ChatID}, Body: maxapi.MessageBody{Text: p.Text}}, nil
}

// AnswerCallback implements bot.API.
func (a *API) AnswerCallback(_ context.Context, id string, ans maxapi.CallbackAnswer) (*maxapi.SimpleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.AnswerErr != nil {
		return nil, a.AnswerErr
	}
	a.Answers = append(a.Answers, Answer{CallbackID: id, Answer: ans})
	return &maxapi.SimpleResult{Success: true}, nil
}

// EditMessage implements bot.API.
func (a *API) EditMessage(_ context.Context, p maxapi.EditMessageParams) (*maxapi.SimpleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Edits = append(a.Edits, p)
	return &maxapi.SimpleResult{Success: true}, nil
}

// SendAction implements bot.API.
func (a *API) SendAction(_ context.Context, _ int64, action maxapi.SenderAction) (*maxapi.SimpleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Actions = append(a.Actions, action)
	return &maxapi.SimpleResult{Success: true}, nil
}

// Texts returns the text of every sent message in order.
func (a *API) Texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Sent))
	for i, p := range a.Sent {
		out[i] = p.Text
	}
	return out
}

// Last returns the last sent message or a zero value.
func (a *API) Last() maxapi.SendMessageParams {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Sent) == 0 {
		return maxapi.SendMessageParams{}
	}
	return a.Sent[len(a.Sent)-1]
}

// Notifications returns the notification of every callback answer in order.
func (a *API) Notifications() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Answers))
	for i, ans := range a.Answers {
		out[i] = ans.Answer.Notification
	}
	return out
}

// Reset forgets recorded calls.
func (a *API) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Sent, a.Answers, a.Edits, a.Actions = nil, nil, nil, nil
}

// Keyboard returns the inline keyboard attached to p, if any.
func Keyboard(p maxapi.SendMessageParams) (maxapi.Keyboard, bool) {
	for _, att := range p.Attachments {
		if att.Type != maxapi.AttachmentInlineKeyboard {
			continue
		}
		if kp, ok := att.Payload.(maxapi.KeyboardPayload); ok {
			return kp.Buttons, true
		}
	}
	return nil, false
}

// Payloads flattens the callback payloads of a keyboard.
func Payloads(kb maxapi.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			if b.Payload != "" {
				out = append(out, b.Payload)
			}
		}
	}
	return out
}

// Message builds a message_created update from userID in chatID.
func Message(userID, chatID int64, text string) maxapi.Update {
	return maxapi.Update{
		UpdateType: maxapi.UpdateMessageCreated,
		Timestamp:  1700000000000,
		Message: &maxapi.Message{
			Sender:    &maxapi.User{UserID: userID, Name: "Tester"},
			Recipient: maxapi.Recipient{ChatID: chatID},
			Body:      maxapi.MessageBody{MID: "mid.1", Text: text},
		},
	}
}

// WithAttachments adds inbound attachments to a message update.
func WithAttachments(u maxapi.Update, atts ...maxapi.Attachment) maxapi.Update {
	if u.Message != nil {
		u.Message.Body.Attachments = append(u.Message.Body.Attachments, atts...)
	}
	return u
}

// BotUserID is the sender of the keyboard message attached to Callback updates.
const BotUserID int64 = 999

// Callback builds a message_callback update carrying the bot's keyboard
// message, as the platform delivers it. A zero chatID leaves the chat
// unresolved on the update itself.
func Callback(userID, chatID int64, callbackID, payload string) maxapi.Update {
	u := maxapi.Update{
		UpdateType: maxapi.UpdateMessageCallback,
		Timestamp:  1700000000000,
		Callback: &maxapi.Callback{
			CallbackID: callbackID,
			Payload:    payload,
			ChatID:     chatID,
		},
		Message: &maxapi.Message{
			Sender:    &maxapi.User{UserID: BotUserID, Name: "bot", IsBot: true},
			Recipient: maxapi.Recipient{ChatID: chatID},
			Body:      maxapi.MessageBody{MID: "mid.kb", Text: "Choose an option"},
		},
	}
	if userID != 0 {
		u.Callback.User = &maxapi.User{UserID: userID, Name: "Tester"}
	}
	return u
}

// BotStarted builds a bot_started update.
func BotStarted(userID, chatID int64) maxapi.Update {
	return maxapi.Update{
		UpdateType: maxapi.UpdateBotStarted,
		Timestamp:  1700000000000,
		User:       &maxapi.User{UserID: userID, Name: "Tester"},
		ChatID:     chatID,
	}
}
