package maxapi

import "encoding/json"

// Button is an inline keyboard button. A zero Type is sent as "callback".
type Button struct {
	Type      ButtonType `json:"type"`
	Text      string     `json:"text"`
	Payload   string     `json:"payload,omitempty"`
	URL       string     `json:"url,omitempty"`
	Intent    Intent     `json:"intent,omitempty"`
	Quick     bool       `json:"quick,omitempty"`
	WebApp    string     `json:"web_app,omitempty"`
	ContactID int64      `json:"contact_id,omitempty"`
}

// MarshalJSON fills the defaults the API expects for callback buttons.
func (b Button) MarshalJSON() ([]byte, error) {
	type plain Button
	if b.Type == "" {
		b.Type = ButtonCallback
	}
	if b.Type == ButtonCallback && b.Intent == "" {
		b.Intent = IntentDefault
	}
	return json.Marshal(plain(b))
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

// AttachmentRequest is an outbound attachment.
type AttachmentRequest struct {
	Type    AttachmentType `json:"type"`
	Payload any            `json:"payload"`
}

// TokenPayload references previously uploaded media.
type TokenPayload struct {
	Token string `json:"token,omitempty"`
}

// PhotoPayload references an image by upload token, file id or public URL.
type PhotoPayload struct {
	URL    string `json:"url,omitempty"`
	FileID string `json:"file_id,omitempty"`
	Token  string `json:"token,omitempty"`
}

// KeyboardPayload wraps the button grid of an inline keyboard.
type KeyboardPayload struct {
	Buttons Keyboard `json:"buttons"`
}

// ImageAttachment attaches an uploaded image by token.
func ImageAttachment(token string) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentImage, Payload: PhotoPayload{Token: token}}
}

// ImageURLAttachment attaches an image by public URL.
func ImageURLAttachment(u string) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentImage, Payload: PhotoPayload{URL: u}}
}

// FileAttachment attaches an uploaded file by token.
func FileAttachment(token string) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentFile, Payload: TokenPayload{Token: token}}
}

// VideoAttachment attaches an uploaded video by token.
func VideoAttachment(token string) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentVideo, Payload: TokenPayload{Token: token}}
}

// AudioAttachment attaches an uploaded audio clip by token.
func AudioAttachment(token string) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentAudio, Payload: TokenPayload{Token: token}}
}

// InlineKeyboardAttachment wraps kb as an attachment.
func InlineKeyboardAttachment(kb Keyboard) AttachmentRequest {
	return AttachmentRequest{Type: AttachmentInlineKeyboard, Payload: KeyboardPayload{Buttons: kb}}
}

// NewMessageLink makes the new message a reply to (or forward of) another one.
type NewMessageLink struct {
	Type string `json:"type"`
	MID  string `json:"mid"`
}

// ReplyTo links a new message as a reply to mid.
func ReplyTo(mid string) *NewMessageLink {
	return &NewMessageLink{Type: "reply", MID: mid}
}

// NewMessageBody is the JSON body of send and edit calls.
type NewMessageBody struct {
	Text        string              `json:"text,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
	Link        *NewMessageLink     `json:"link,omitempty"`
	Notify      *bool               `json:"notify,omitempty"`
	Format      Format              `json:"format,omitempty"`
}

// SendMessageParams addresses a message to a chat or a user. Exactly one of
// ChatID and UserID should be set. A nil Notify is sent as true.
type SendMessageParams struct {
	ChatID             int64
	UserID             int64
	DisableLinkPreview bool

	Text        string
	Attachments []AttachmentRequest
	Link        *NewMessageLink
	Notify      *bool
	Format      Format
}

func (p SendMessageParams) body() NewMessageBody {
	notify := p.Notify
	if notify == nil {
		notify = boolPtr(true)
	}
	return NewMessageBody{
		Text:        p.Text,
		Attachments: p.Attachments,
		Link:        p.Link,
		Notify:      notify,
		Format:      p.Format,
	}
}

// NewTextMessage builds a markdown text message for chatID.
func NewTextMessage(chatID int64, text string) SendMessageParams {
	return SendMessageParams{ChatID: chatID, Text: text, Format: FormatMarkdown}
}

// NewKeyboardMessage builds a markdown text message carrying an inline keyboard.
func NewKeyboardMessage(chatID int64, text string, kb Keyboard) SendMessageParams {
	p := NewTextMessage(chatID, text)
	p.Attachments = []AttachmentRequest{InlineKeyboardAttachment(kb)}
	return p
}

// EditMessageParams replaces the content of an existing message.
type EditMessageParams struct {
	MessageID   string
	Text        string
	Attachments []AttachmentRequest
	Link        *NewMessageLink
	Notify      *bool
	Format      Format
}

// GetMessagesParams filters GET /messages.
type GetMessagesParams struct {
	ChatID     int64
	MessageIDs []string
	From       int64
	To         int64
	Count      int
}

// CallbackAnswer is the body of POST /answers. Either field may be empty:
// Notification shows a one-time toast, Message replaces the pressed message.
type CallbackAnswer struct {
	Message      *NewMessageBody `json:"message,omitempty"`
	Notification string          `json:"notification,omitempty"`
}

// ChatPatch edits chat properties. Nil and empty fields are left unchanged.
type ChatPatch struct {
	Icon   *PhotoPayload `json:"icon,omitempty"`
	Title  string        `json:"title,omitempty"`
	Pin    string        `json:"pin,omitempty"`
	Notify *bool         `json:"notify,omitempty"`
}

// ChatAdmin grants permissions to a chat member.
type ChatAdmin struct {
	UserID      int64             `json:"user_id"`
	Permissions []AdminPermission `json:"permissions"`
	Alias       string            `json:"alias,omitempty"`
}

// GetMembersParams filters GET /chats/{id}/members.
type GetMembersParams struct {
	ChatID  int64
	UserIDs []int64
	Marker  int64
	Count   int
}

// GetUpdatesParams configures one long-poll request.
type GetUpdatesParams struct {
	Limit   int
	Timeout int
	Marker  *int64
	Types   []UpdateType
}

// SubscribeParams registers a webhook.
type SubscribeParams struct {
	URL         string       `json:"url"`
	UpdateTypes []UpdateType `json:"update_types,omitempty"`
	Version     string       `json:"version,omitempty"`
	Secret      string       `json:"secret,omitempty"`
}
