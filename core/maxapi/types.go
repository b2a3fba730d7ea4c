package maxapi

import "encoding/json"

// User is a MAX account as seen by the bot.
type User struct {
	UserID           int64  `json:"user_id"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Username         string `json:"username,omitempty"`
	IsBot            bool   `json:"is_bot,omitempty"`
	LastActivityTime int64  `json:"last_activity_time,omitempty"`
	Name             string `json:"name,omitempty"`
}

// DisplayName returns the most human-friendly name available.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	}
	return ""
}

// UserWithPhoto extends User with profile details.
type UserWithPhoto struct {
	User
	Description   string `json:"description,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	FullAvatarURL string `json:"full_avatar_url,omitempty"`
}

// BotCommand is a command advertised by the bot.
type BotCommand struct {
	Name        string `json:"command"`
	Description string `json:"description,omitempty"`
}

// BotInfo is returned by GET /me.
type BotInfo struct {
	UserWithPhoto
	Commands []BotCommand `json:"commands,omitempty"`
}

// ChatMember describes a participant of a group chat or channel.
type ChatMember struct {
	UserWithPhoto
	LastAccessTime int64             `json:"last_access_time,omitempty"`
	IsOwner        bool              `json:"is_owner,omitempty"`
	IsAdmin        bool              `json:"is_admin,omitempty"`
	JoinTime       int64             `json:"join_time,omitempty"`
	Permissions    []AdminPermission `json:"permissions,omitempty"`
	Alias          string            `json:"alias,omitempty"`
}

// Recipient identifies where a message was delivered.
type Recipient struct {
	ChatID   int64    `json:"chat_id,omitempty"`
	ChatType ChatType `json:"chat_type,omitempty"`
	UserID   int64    `json:"user_id,omitempty"`
}

// LinkedMessage is a forwarded or replied-to message.
type LinkedMessage struct {
	Type   string       `json:"type"`
	MID    string       `json:"mid,omitempty"`
	Sender *User        `json:"sender,omitempty"`
	ChatID int64        `json:"chat_id,omitempty"`
	Body   *MessageBody `json:"body,omitempty"`
}

// Markup is a formatting span within message text.
type Markup struct {
	Type   string `json:"type"`
	From   int    `json:"from"`
	Length int    `json:"length"`
}

// MessageBody carries the content of a message.
type MessageBody struct {
	MID         string       `json:"mid,omitempty"`
	Seq         int64        `json:"seq,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Markup      []Markup     `json:"markup,omitempty"`
}

// MessageStat holds channel post statistics.
type MessageStat struct {
	Views int `json:"views"`
}

// Message is a chat message.
type Message struct {
	Sender    *User          `json:"sender,omitempty"`
	Recipient Recipient      `json:"recipient"`
	Timestamp int64          `json:"timestamp"`
	Link      *LinkedMessage `json:"link,omitempty"`
	Body      MessageBody    `json:"body"`
	Stat      *MessageStat   `json:"stat,omitempty"`
	URL       string         `json:"url,omitempty"`
}

// SenderID returns the sender user id or 0.
func (m *Message) SenderID() int64 {
	if m == nil || m.Sender == nil {
		return 0
	}
	return m.Sender.UserID
}

// ChatID returns the recipient chat id or 0.
func (m *Message) ChatID() int64 {
	if m == nil {
		return 0
	}
	return m.Recipient.ChatID
}

// Text returns the message text or "".
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	return m.Body.Text
}

// Attachment is an inbound attachment. Payload is kept raw because its shape
// depends on Type; use the Decode* helpers or Fields to inspect it.
type Attachment struct {
	Type    AttachmentType  `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MediaPayload covers image, video, audio and file attachment payloads.
type MediaPayload struct {
	Token  string   `json:"token,omitempty"`
	URL    string   `json:"url,omitempty"`
	FileID string   `json:"file_id,omitempty"`
	Photos []string `json:"photos,omitempty"`
}

// DecodeMedia decodes the payload of a media attachment.
func (a Attachment) DecodeMedia() (MediaPayload, error) {
	var p MediaPayload
	if len(a.Payload) == 0 {
		return p, nil
	}
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}

// Fields decodes the payload as a flat JSON object. Non-object payloads return nil.
func (a Attachment) Fields() map[string]any {
	if len(a.Payload) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(a.Payload, &out); err != nil {
		return nil
	}
	return out
}

// Callback describes an inline button press.
type Callback struct {
	Timestamp  int64  `json:"timestamp"`
	CallbackID string `json:"callback_id"`
	User       *User  `json:"user,omitempty"`
	Payload    string `json:"payload,omitempty"`
	MID        string `json:"mid,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
}

// Update is one event delivered by long polling or webhook.
type Update struct {
	UpdateType UpdateType `json:"update_type"`
	Timestamp  int64      `json:"timestamp"`
	Message    *Message   `json:"message,omitempty"`
	Callback   *Callback  `json:"callback,omitempty"`
	UserLocale string     `json:"user_locale,omitempty"`
	User       *User      `json:"user,omitempty"`
	UserID     int64      `json:"user_id,omitempty"`
	ChatID     int64      `json:"chat_id,omitempty"`
	Payload    string     `json:"payload,omitempty"`
	MessageID  string     `json:"message_id,omitempty"`
}

// SenderID returns the acting user id regardless of the update kind.
func (u *Update) SenderID() int64 {
	if u == nil {
		return 0
	}
	// A callback's message is the bot's own keyboard message.
	if u.Callback != nil || u.UpdateType == UpdateMessageCallback {
		if u.Callback != nil && u.Callback.User != nil {
			return u.Callback.User.UserID
		}
		return u.UserID
	}
	switch {
	case u.Message != nil && u.Message.Sender != nil:
		return u.Message.Sender.UserID
	case u.User != nil:
		return u.User.UserID
	}
	return u.UserID
}

// ChatIDHint returns the chat id carried by the update itself, or 0.
// Callbacks frequently omit it; see the router for fallback resolution.
func (u *Update) ChatIDHint() int64 {
	if u == nil {
		return 0
	}
	if u.Message != nil && u.Message.Recipient.ChatID != 0 {
		return u.Message.Recipient.ChatID
	}
	if u.Callback != nil && u.Callback.ChatID != 0 {
		return u.Callback.ChatID
	}
	return u.ChatID
}

// Image references a chat icon.
type Image struct {
	URL string `json:"url"`
}

// Chat is a dialog, group chat or channel.
type Chat struct {
	ChatID            int64            `json:"chat_id"`
	Type              ChatType         `json:"type"`
	Status            ChatStatus       `json:"status"`
	Title             string           `json:"title,omitempty"`
	Icon              *Image           `json:"icon,omitempty"`
	LastEventTime     int64            `json:"last_event_time"`
	ParticipantsCount int              `json:"participants_count"`
	OwnerID           int64            `json:"owner_id,omitempty"`
	Participants      map[string]int64 `json:"participants,omitempty"`
	IsPublic          bool             `json:"is_public"`
	Link              string           `json:"link,omitempty"`
	Description       string           `json:"description,omitempty"`
	DialogWithUser    *UserWithPhoto   `json:"dialog_with_user,omitempty"`
	ChatMessageID     string           `json:"chat_message_id,omitempty"`
	PinnedMessage     *Message         `json:"pinned_message,omitempty"`
}

// FileUploadResult is returned by the upload endpoint.
type FileUploadResult struct {
	FileID int64  `json:"file_id,omitempty"`
	URL    string `json:"url,omitempty"`
	Token  string `json:"token,omitempty"`
}

// VideoURLs lists transcoded renditions of a video.
type VideoURLs struct {
	Low    string `json:"low,omitempty"`
	Medium string `json:"medium,omitempty"`
	High   string `json:"high,omitempty"`
}

// VideoThumbnail is a preview frame of a video.
type VideoThumbnail struct {
	Token string `json:"token,omitempty"`
	URL   string `json:"url,omitempty"`
}

// VideoInfo is returned by GET /videos/{token}.
type VideoInfo struct {
	Token     string          `json:"token"`
	URLs      *VideoURLs      `json:"urls,omitempty"`
	Thumbnail *VideoThumbnail `json:"thumbnail,omitempty"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Duration  int             `json:"duration"`
}

// Subscription is a registered webhook.
type Subscription struct {
	URL         string       `json:"url"`
	Time        int64        `json:"time"`
	UpdateTypes []UpdateType `json:"update_types,omitempty"`
	Version     string       `json:"version,omitempty"`
}

// SimpleResult is the generic {success, message} response.
type SimpleResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
