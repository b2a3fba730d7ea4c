package maxapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SendMessage posts a message and returns it as stored by the server.
func (c *Client) SendMessage(ctx context.Context, p SendMessageParams) (*Message, error) {
	q := url.Values{}
	setInt64(q, "chat_id", p.ChatID)
	setInt64(q, "user_id", p.UserID)
	if p.DisableLinkPreview {
		q.Set("disable_link_preview", "true")
	}
	var out struct {
		Message *Message `json:"message"`
	}
	err := c.do(ctx, call{op: "sendMessage", method: http.MethodPost, path: "/messages", query: q, body: p.body(), out: &out})
	if err != nil {
		return nil, err
	}
	return out.Message, nil
}

// SendText is a shorthand for SendMessage(NewTextMessage(chatID, text)).
func (c *Client) SendText(ctx context.Context, chatID int64, text string) (*Message, error) {
	return c.SendMessage(ctx, NewTextMessage(chatID, text))
}

// GetMessages lists messages of a chat or fetches them by id.
func (c *Client) GetMessages(ctx context.Context, p GetMessagesParams) ([]Message, error) {
	q := url.Values{}
	setInt64(q, "chat_id", p.ChatID)
	if len(p.MessageIDs) > 0 {
		q.Set("message_ids", strings.Join(p.MessageIDs, ","))
	}
	setInt64(q, "from", p.From)
	setInt64(q, "to", p.To)
	setInt(q, "count", p.Count)
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, call{op: "getMessages", method: http.MethodGet, path: "/messages", query: q, out: &out}); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// GetMessage fetches one message by mid.
func (c *Client) GetMessage(ctx context.Context, mid string) (*Message, error) {
	var out Message
	if err := c.do(ctx, call{op: "getMessage", method: http.MethodGet, path: "/messages/" + url.PathEscape(mid), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditMessage replaces text and/or attachments of a message sent by the bot.
func (c *Client) EditMessage(ctx context.Context, p EditMessageParams) (*SimpleResult, error) {
	q := url.Values{"message_id": {p.MessageID}}
	body := NewMessageBody{
		Text:        p.Text,
		Attachments: p.Attachments,
		Link:        p.Link,
		Notify:      p.Notify,
		Format:      p.Format,
	}
	return c.simple(ctx, "editMessage", http.MethodPut, "/messages", q, body)
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, mid string) (*SimpleResult, error) {
	q := url.Values{"message_id": {mid}}
	return c.simple(ctx, "deleteMessage", http.MethodDelete, "/messages", q, nil)
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string, a CallbackAnswer) (*SimpleResult, error) {
	q := url.Values{"callback_id": {callbackID}}
	return c.simple(ctx, "answerCallback", http.MethodPost, "/answers", q, a)
}

// GetMe returns information about the bot itself.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	var out BotInfo
	if err := c.do(ctx, call{op: "getMe", method: http.MethodGet, path: "/me", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns a user profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (*UserWithPhoto, error) {
	var out UserWithPhoto
	path := "/users/" + strconv.FormatInt(userID, 10)
	if err := c.do(ctx, call{op: "getUser", method: http.MethodGet, path: path, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetMyCommands replaces the command list advertised by the bot.
func (c *Client) SetMyCommands(ctx context.Context, cmds []BotCommand) (*BotInfo, error) {
	body := struct {
		Commands []BotCommand `json:"commands"`
	}{cmds}
	var out BotInfo
	if err := c.do(ctx, call{op: "editMyInfo", method: http.MethodPatch, path: "/me", body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
