package maxapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ChatList is one page of GET /chats.
type ChatList struct {
	Chats  []Chat `json:"chats"`
	Marker *int64 `json:"marker,omitempty"`
}

// MemberList is one page of a members or admins listing.
type MemberList struct {
	Members []ChatMember `json:"members"`
	Marker  *int64       `json:"marker,omitempty"`
}

func chatPath(chatID int64, suffix string) string {
	return "/chats/" + strconv.FormatInt(chatID, 10) + suffix
}

// GetChats lists group chats the bot participates in. marker 0 starts from the beginning.
func (c *Client) GetChats(ctx context.Context, count int, marker int64) (*ChatList, error) {
	q := url.Values{}
	setInt(q, "count", count)
	setInt64(q, "marker", marker)
	var out ChatList
	if err := c.do(ctx, call{op: "getChats", method: http.MethodGet, path: "/chats", query: q, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChat returns chat details.
func (c *Client) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	var out Chat
	if err := c.do(ctx, call{op: "getChat", method: http.MethodGet, path: chatPath(chatID, ""), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditChat patches title, icon or pinned message of a chat.
func (c *Client) EditChat(ctx context.Context, chatID int64, patch ChatPatch) (*Chat, error) {
	var out Chat
	if err := c.do(ctx, call{op: "editChat", method: http.MethodPatch, path: chatPath(chatID, ""), body: patch, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteChat deletes a chat for all participants.
func (c *Client) DeleteChat(ctx context.Context, chatID int64) (*SimpleResult, error) {
	return c.simple(ctx, "deleteChat", http.MethodDelete, chatPath(chatID, ""), nil, nil)
}

// SendAction shows an activity indicator such as typing_on.
func (c *Client) SendAction(ctx context.Context, chatID int64, action SenderAction) (*SimpleResult, error) {
	body := struct {
		Action SenderAction `json:"action"`
	}{action}
	return c.simple(ctx, "sendAction", http.MethodPost, chatPath(chatID, "/actions"), nil, body)
}

// GetPinnedMessage returns the pinned message or nil when nothing is pinned.
func (c *Client) GetPinnedMessage(ctx context.Context, chatID int64) (*Message, error) {
	var out struct {
		Message *Message `json:"message"`
	}
	if err := c.do(ctx, call{op: "getPinnedMessage", method: http.MethodGet, path: chatPath(chatID, "/pin"), out: &out}); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// PinMessage pins mid in the chat. A nil notify leaves the server default.
func (c *Client) PinMessage(ctx context.Context, chatID int64, mid string, notify *bool) (*SimpleResult, error) {
	body := struct {
		MessageID string `json:"message_id"`
		Notify    *bool  `json:"notify,omitempty"`
	}{mid, notify}
	return c.simple(ctx, "pinMessage", http.MethodPut, chatPath(chatID, "/pin"), nil, body)
}

// UnpinMessage removes the pinned message.
func (c *Client) UnpinMessage(ctx context.Context, chatID int64) (*SimpleResult, error) {
	return c.simple(ctx, "unpinMessage", http.MethodDelete, chatPath(chatID, "/pin"), nil, nil)
}

// GetMyMembership returns the bot's own membership in a chat.
func (c *Client) GetMyMembership(ctx context.Context, chatID int64) (*ChatMember, error) {
	var out ChatMember
	if err := c.do(ctx, call{op: "getMyMembership", method: http.MethodGet, path: chatPath(chatID, "/members/me"), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveChat removes the bot from a chat.
func (c *Client) LeaveChat(ctx context.Context, chatID int64) (*SimpleResult, error) {
	return c.simple(ctx, "leaveChat", http.MethodDelete, chatPath(chatID, "/members/me"), nil, nil)
}

// GetAdmins lists chat administrators.
func (c *Client) GetAdmins(ctx context.Context, chatID int64) (*MemberList, error) {
	var out MemberList
	if err := c.do(ctx, call{op: "getAdmins", method: http.MethodGet, path: chatPath(chatID, "/members/admins"), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddAdmins grants administrator rights.
func (c *Client) AddAdmins(ctx context.Context, chatID int64, admins []ChatAdmin) (*SimpleResult, error) {
	body := struct {
		Admins []ChatAdmin `json:"admins"`
	}{admins}
	return c.simple(ctx, "addAdmins", http.MethodPost, chatPath(chatID, "/members/admins"), nil, body)
}

// RemoveAdmin revokes administrator rights of userID.
func (c *Client) RemoveAdmin(ctx context.Context, chatID, userID int64) (*SimpleResult, error) {
	path := chatPath(chatID, "/members/admins/"+strconv.FormatInt(userID, 10))
	return c.simple(ctx, "removeAdmin", http.MethodDelete, path, nil, nil)
}

// GetMembers lists chat members, optionally restricted to UserIDs.
func (c *Client) GetMembers(ctx context.Context, p GetMembersParams) (*MemberList, error) {
	q := url.Values{}
	if len(p.UserIDs) > 0 {
		q.Set("user_ids", joinInt64(p.UserIDs))
	}
	setInt64(q, "marker", p.Marker)
	setInt(q, "count", p.Count)
	var out MemberList
	if err := c.do(ctx, call{op: "getMembers", method: http.MethodGet, path: chatPath(p.ChatID, "/members"), query: q, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMembers invites users into a chat.
func (c *Client) AddMembers(ctx context.Context, chatID int64, userIDs []int64) (*SimpleResult, error) {
	body := struct {
		UserIDs []int64 `json:"user_ids"`
	}{userIDs}
	return c.simple(ctx, "addMembers", http.MethodPost, chatPath(chatID, "/members"), nil, body)
}

// RemoveMember removes userID from a chat, optionally blocking re-entry.
func (c *Client) RemoveMember(ctx context.Context, chatID, userID int64, block bool) (*SimpleResult, error) {
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	if block {
		q.Set("block", "true")
	}
	return c.simple(ctx, "removeMember", http.MethodDelete, chatPath(chatID, "/members"), q, nil)
}

func (c *Client) simple(ctx context.Context, op, method, path string, q url.Values, body any) (*SimpleResult, error) {
	var out SimpleResult
	if err := c.do(ctx, call{op: op, method: method, path: path, query: q, body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
