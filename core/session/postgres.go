package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists sessions in the bot_sessions and bot_callbacks tables.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Backend = (*PostgresStore)(nil)

// NewPostgresStore wraps an open connection. Tables come from the migrations directory.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `user_id, chat_id, state, name, age, city, feedback, registered, registered_at, last_activity`

// pgSession mirrors Session with a nullable registered_at.
type pgSession struct {
	UserID       int64        `db:"user_id"`
	ChatID       int64        `db:"chat_id"`
	State        string       `db:"state"`
	Name         string       `db:"name"`
	Age          int          `db:"age"`
	City         string       `db:"city"`
	Feedback     string       `db:"feedback"`
	Registered   bool         `db:"registered"`
	RegisteredAt sql.NullTime `db:"registered_at"`
	LastActivity time.Time    `db:"last_activity"`
}

func (r pgSession) session() Session {
	s := Session{
		UserID:       r.UserID,
		ChatID:       r.ChatID,
		State:        r.State,
		Name:         r.Name,
		Age:          r.Age,
		City:         r.City,
		Feedback:     r.Feedback,
		Registered:   r.Registered,
		LastActivity: r.LastActivity,
	}
	if r.RegisteredAt.Valid {
		s.RegisteredAt = r.RegisteredAt.Time
	}
	return s
}

func toRow(s Session) pgSession {
	return pgSession{
		UserID:       s.UserID,
		ChatID:       s.ChatID,
		State:        s.State,
		Name:         s.Name,
		Age:          s.Age,
		City:         s.City,
		Feedback:     s.Feedback,
		Registered:   s.Registered,
		RegisteredAt: sql.NullTime{Time: s.RegisteredAt, Valid: !s.RegisteredAt.IsZero()},
		LastActivity: s.LastActivity,
	}
}

// GetOrCreate implements Store with a single upsert.
func (p *PostgresStore) GetOrCreate(ctx context.Context, userID, chatID int64) (Session, error) {
	const q = `
INSERT INTO bot_sessions (user_id, chat_id, state, last_activity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
  chat_id = CASE WHEN EXCLUDED.chat_id <> 0 THEN EXCLUDED.chat_id ELSE bot_sessions.chat_id END
RETURNING ` + sessionColumns
	var row pgSession
	if err := p.db.GetContext(ctx, &row, q, userID, chatID, StateIdle, time.Now().UTC()); err != nil {
		return Session{}, fmt.Errorf("session get or create: %w", err)
	}
	return row.session(), nil
}

// Get implements Store.
func (p *PostgresStore) Get(ctx context.Context, userID int64) (Session, bool, error) {
	var row pgSession
	err := p.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM bot_sessions WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session get: %w", err)
	}
	return row.session(), true, nil
}

// Update implements Store. The row is locked for the duration of fn.
func (p *PostgresStore) Update(ctx context.Context, userID int64, fn func(*Session) error) (Session, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("session update: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row pgSession
	err = tx.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM bot_sessions WHERE user_id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session update: select: %w", err)
	}

	cur := row.session()
	next := cur
	if err := fn(&next); err != nil {
		return cur, err
	}
	next.UserID = userID

	const q = `
UPDATE bot_sessions SET
  chat_id = :chat_id, state = :state, name = :name, age = :age, city = :city,
  feedback = :feedback, registered = :registered, registered_at = :registered_at,
  last_activity = :last_activity
WHERE user_id = :user_id`
	if _, err := tx.NamedExecContext(ctx, q, toRow(next)); err != nil {
		return cur, fmt.Errorf("session update: write: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return cur, fmt.Errorf("session update: commit: %w", err)
	}
	return next, nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, userID int64) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// DeleteIdle implements Store.
func (p *PostgresStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bot_sessions WHERE last_activity < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("session delete idle: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PutCallback implements CallbackStore. A repeated id overwrites the earlier row.
func (p *PostgresStore) PutCallback(ctx context.Context, ref CallbackRef) error {
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	ref.CreatedAt = ref.CreatedAt.UTC()
	const q = `
INSERT INTO bot_callbacks (callback_id, user_id, chat_id, created_at)
VALUES (:callback_id, :user_id, :chat_id, :created_at)
ON CONFLICT (callback_id) DO UPDATE SET
  user_id = EXCLUDED.user_id, chat_id = EXCLUDED.chat_id, created_at = EXCLUDED.created_at`
	if _, err := p.db.NamedExecContext(ctx, q, ref); err != nil {
		return fmt.Errorf("callback put: %w", err)
	}
	return nil
}

// LookupCallback implements CallbackStore.
func (p *PostgresStore) LookupCallback(ctx context.Context, callbackID string) (CallbackRef, bool, error) {
	var ref CallbackRef
	err := p.db.GetContext(ctx, &ref,
		`SELECT callback_id, user_id, chat_id, created_at FROM bot_callbacks WHERE callback_id = $1`, callbackID)
	if errors.Is(err, sql.ErrNoRows) {
		return CallbackRef{}, false, nil
	}
	if err != nil {
		return CallbackRef{}, false, fmt.Errorf("callback lookup: %w", err)
	}
	return ref, true, nil
}

// DeleteCallbacksBefore implements CallbackStore.
func (p *PostgresStore) DeleteCallbacksBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM bot_callbacks WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("callback delete stale: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
