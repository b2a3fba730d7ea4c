package maxapi

// UpdateType is the update_type discriminator of an Update.
type UpdateType string

const (
	UpdateMessageCreated   UpdateType = "message_created"
	UpdateMessageCallback  UpdateType = "message_callback"
	UpdateMessageEdited    UpdateType = "message_edited"
	UpdateMessageRemoved   UpdateType = "message_removed"
	UpdateMessageDeleted   UpdateType = "message_deleted"
	UpdateChatMemberJoined UpdateType = "chat_member_joined"
	UpdateChatMemberLeft   UpdateType = "chat_member_left"
	UpdateChatTitleChanged UpdateType = "chat_title_changed"
	UpdateBotStarted       UpdateType = "bot_started"
	UpdateBotStopped       UpdateType = "bot_stopped"
	UpdateBotAdded         UpdateType = "bot_added"
	UpdateBotRemoved       UpdateType = "bot_removed"
	UpdateUserAdded        UpdateType = "user_added"
	UpdateUserRemoved      UpdateType = "user_removed"
)

// ButtonType selects the behavior of an inline keyboard button.
type ButtonType string

const (
	ButtonCallback           ButtonType = "callback"
	ButtonLink               ButtonType = "link"
	ButtonOpenApp            ButtonType = "open_app"
	ButtonRequestGeoLocation ButtonType = "request_geo_location"
	ButtonRequestContact     ButtonType = "request_contact"
	ButtonMessage            ButtonType = "message"
)

// Intent controls how a callback button is rendered.
type Intent string

const (
	IntentPositive Intent = "positive"
	IntentNegative Intent = "negative"
	IntentDefault  Intent = "default"
)

// Format selects how message text is parsed.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPlain    Format = "plain"
)

// SenderAction is a chat activity indicator.
type SenderAction string

const (
	ActionTypingOn     SenderAction = "typing_on"
	ActionSendingPhoto SenderAction = "sending_photo"
	ActionSendingVideo SenderAction = "sending_video"
	ActionSendingAudio SenderAction = "sending_audio"
	ActionSendingFile  SenderAction = "sending_file"
	ActionMarkSeen     SenderAction = "mark_seen"
)

// UploadType is the media kind passed to /uploads.
type UploadType string

const (
	UploadImage UploadType = "image"
	UploadVideo UploadType = "video"
	UploadAudio UploadType = "audio"
	UploadFile  UploadType = "file"
)

// AttachmentType is the type of an attachment.
type AttachmentType string

const (
	AttachmentImage          AttachmentType = "image"
	AttachmentVideo          AttachmentType = "video"
	AttachmentAudio          AttachmentType = "audio"
	AttachmentFile           AttachmentType = "file"
	AttachmentSticker        AttachmentType = "sticker"
	AttachmentContact        AttachmentType = "contact"
	AttachmentLocation       AttachmentType = "location"
	AttachmentShare          AttachmentType = "share"
	AttachmentInlineKeyboard AttachmentType = "inline_keyboard"
)

// ChatType distinguishes dialogs, group chats and channels.
type ChatType string

const (
	ChatTypeChat    ChatType = "chat"
	ChatTypeDialog  ChatType = "dialog"
	ChatTypeChannel ChatType = "channel"
)

// ChatStatus is the bot's relation to a chat.
type ChatStatus string

const (
	ChatStatusActive  ChatStatus = "active"
	ChatStatusRemoved ChatStatus = "removed"
	ChatStatusLeft    ChatStatus = "left"
	ChatStatusClosed  ChatStatus = "closed"
)

// AdminPermission is a right granted to a chat administrator.
type AdminPermission string

const (
	PermReadAllMessages       AdminPermission = "read_all_messages"
	PermAddRemoveMembers      AdminPermission = "add_remove_members"
	PermAddAdmins             AdminPermission = "add_admins"
	PermChangeChatInfo        AdminPermission = "change_chat_info"
	PermPinMessage            AdminPermission = "pin_message"
	PermWrite                 AdminPermission = "write"
	PermEditLink              AdminPermission = "edit_link"
	PermCanCall               AdminPermission = "can_call"
	PermPostEditDeleteMessage AdminPermission = "post_edit_delete_message"
	PermEditMessage           AdminPermission = "edit_message"
	PermDeleteMessage         AdminPermission = "delete_message"
)
