// Package session keeps per-user conversation state and callback correlations.
//
// Stores are safe for concurrent use. Update serializes read-modify-write
// cycles per user, so a handler and the idle sweep never interleave on the
// same record.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Update when the user has no session.
var ErrNotFound = errors.New("session: not found")

// StateIdle is the state of a freshly created session.
const StateIdle = "idle"

// Session is the conversation record of one user.
type Session struct {
	UserID       int64     `db:"user_id" json:"user_id"`
	ChatID       int64     `db:"chat_id" json:"chat_id"`
	State        string    `db:"state" json:"state"`
	Name         string    `db:"name" json:"name,omitempty"`
	Age          int       `db:"age" json:"age,omitempty"`
	City         string    `db:"city" json:"city,omitempty"`
	Feedback     string    `db:"feedback" json:"feedback,omitempty"`
	Registered   bool      `db:"registered" json:"registered"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at,omitempty"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
}

// New returns an idle session for userID stamped with now.
func New(userID, chatID int64, now time.Time) Session {
	return Session{UserID: userID, ChatID: chatID, State: StateIdle, LastActivity: now}
}

// Reset clears collected data and returns the session to idle.
// Identity and activity are kept.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, ChatID: s.ChatID, State: StateIdle, LastActivity: s.LastActivity}
}

// CallbackRef remembers where a callback came from.
type CallbackRef struct {
	CallbackID string    `db:"callback_id" json:"callback_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	ChatID     int64     `db:"chat_id" json:"chat_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Store persists sessions keyed by user id.
type Store interface {
	// GetOrCreate returns the user's session, creating an idle one bound to chatID.
	// A non-zero chatID also refreshes the chat of an existing session.
	GetOrCreate(ctx context.Context, userID, chatID int64) (Session, error)
	Get(ctx context.Context, userID int64) (Session, bool, error)
	// Update applies fn to the stored session and saves the result. Nothing is
	// saved when fn returns an error.
	Update(ctx context.Context, userID int64, fn func(*Session) error) (Session, error)
	Delete(ctx context.Context, userID int64) error
	// DeleteIdle removes sessions whose LastActivity is before cutoff.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// CallbackStore persists callback correlations keyed by callback id.
type CallbackStore interface {
	PutCallback(ctx context.Context, ref CallbackRef) error
	LookupCallback(ctx context.Context, callbackID string) (CallbackRef, bool, error)
	DeleteCallbacksBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Backend is a store serving both sessions and callbacks.
type Backend interface {
	Store
	CallbackStore
}

// Touch marks the session as active at now.
func Touch(ctx context.Context, st Store, userID int64, now time.Time) (Session, error) {
	return st.Update(ctx, userID, func(s *Session) error {
		s.LastActivity = now
		return nil
	})
}
