package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestMemoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = fixedClock(now)

	s, err := m.GetOrCreate(ctx, 7, 70)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, int64(70), s.ChatID)
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, now, s.LastActivity)

	_, err = m.Update(ctx, 7, func(s *Session) error {
		s.State = "awaiting_name"
		return nil
	})
	require.NoError(t, err)

	again, err := m.GetOrCreate(ctx, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_name", again.State)
	assert.Equal(t, int64(70), again.ChatID)

	moved, err := m.GetOrCreate(ctx, 7, 71)
	require.NoError(t, err)
	assert.Equal(t, int64(71), moved.ChatID)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.GetOrCreate(ctx, 1, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Len())
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Update(ctx, 5, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetOrCreate(ctx, 5, 50)
	require.NoError(t, err)

	boom := errors.New("invalid age")
	_, err = m.Update(ctx, 5, func(s *Session) error {
		s.Age = 300
		return boom
	})
	assert.ErrorIs(t, err, boom)
	s, ok, err := m.Get(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, s.Age)

	updated, err := m.Update(ctx, 5, func(s *Session) error {
		s.Age = 30
		s.UserID = 999
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Age)
	assert.Equal(t, int64(5), updated.UserID)
}

func TestMemoryUpdateIsSerialized(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, err := m.GetOrCreate(ctx, 1, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, 1, func(s *Session) error {
				s.Age++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	s, _, _ := m.Get(ctx, 1)
	assert.Equal(t, 100, s.Age)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s, _ := m.GetOrCreate(ctx, 1, 1)
	s.Name = "mutated"
	got, _, _ := m.Get(ctx, 1)
	assert.Empty(t, got.Name)
}

func TestSessionReset(t *testing.T) {
	now := time.Now()
	s := Session{UserID: 1, ChatID: 2, State: "awaiting_city", Name: "Ann", Age: 30, City: "Kazan",
		Registered: true, RegisteredAt: now, LastActivity: now}
	s.Reset()
	assert.Equal(t, Session{UserID: 1, ChatID: 2, State: StateIdle, LastActivity: now}, s)
}

func TestMemoryCallbacks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Now()

	require.NoError(t, m.PutCallback(ctx, CallbackRef{CallbackID: "a", UserID: 1, ChatID: 10, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, m.PutCallback(ctx, CallbackRef{CallbackID: "b", UserID: 2, ChatID: 20, CreatedAt: now}))

	ref, ok, err := m.LookupCallback(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), ref.ChatID)

	n, err := m.DeleteCallbacksBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok, _ = m.LookupCallback(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = m.LookupCallback(ctx, "b")
	assert.True(t, ok)
}
