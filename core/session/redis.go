package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisTxAttempts = 8

// RedisStore keeps sessions as JSON strings with sorted-set indexes for expiry.
//
// Keys under prefix:
//
//	session:<user_id>   session JSON
//	sessions:activity   zset user_id -> last activity (unix ms)
//	callback:<id>       callback JSON
//	callbacks:created   zset callback id -> created at (unix ms)
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Backend = (*RedisStore)(nil)

// NewRedisStore wraps a connected client. An empty prefix defaults to "maxbot".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "maxbot"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

// NewRedisClient opens a client and verifies it with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

func (r *RedisStore) sessionKey(userID int64) string {
	return r.prefix + ":session:" + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) activityKey() string { return r.prefix + ":sessions:activity" }

func (r *RedisStore) callbackKey(id string) string { return r.prefix + ":callback:" + id }

func (r *RedisStore) createdKey() string { return r.prefix + ":callbacks:created" }

func score(t time.Time) float64 { return float64(t.UnixMilli()) }

// watchRetry runs fn as an optimistic transaction on keys, retrying when a
// watched key changed underneath it.
func (r *RedisStore) watchRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < redisTxAttempts; i++ {
		err := r.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session: redis transaction contended on %v", keys)
}

func readSession(ctx context.Context, tx *redis.Tx, key string) (Session, bool, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) write(ctx context.Context, tx *redis.Tx, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.UserID), data, 0)
		pipe.ZAdd(ctx, r.activityKey(), &redis.Z{Score: score(s.LastActivity), Member: strconv.FormatInt(s.UserID, 10)})
		return nil
	})
	return err
}

// GetOrCreate implements Store.
func (r *RedisStore) GetOrCreate(ctx context.Context, userID, chatID int64) (Session, error) {
	key := r.sessionKey(userID)
	var out Session
	err := r.watchRetry(ctx, func(tx *redis.Tx) error {
		s, ok, err := readSession(ctx, tx, key)
		if err != nil {
			return err
		}
		if ok && (chatID == 0 || s.ChatID == chatID) {
			out = s
			return nil
		}
		if !ok {
			s = New(userID, chatID, r.now())
		} else {
			s.ChatID = chatID
		}
		if err := r.write(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	}, key)
	if err != nil {
		return Session{}, fmt.Errorf("session get or create: %w", err)
	}
	return out, nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, userID int64) (Session, bool, error) {
	raw, err := r.rdb.Get(ctx, r.sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false, fmt.Errorf("session get: decode: %w", err)
	}
	return s, true, nil
}

// Update implements Store using WATCH/MULTI compare-and-swap.
func (r *RedisStore) Update(ctx context.Context, userID int64, fn func(*Session) error) (Session, error) {
	key := r.sessionKey(userID)
	var (
		out   Session
		fnErr error
	)
	err := r.watchRetry(ctx, func(tx *redis.Tx) error {
		fnErr = nil
		cur, ok, err := readSession(ctx, tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		next := cur
		if err := fn(&next); err != nil {
			out, fnErr = cur, err
			return nil
		}
		next.UserID = userID
		if err := r.write(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	}, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return Session{}, ErrNotFound
	case err != nil:
		return Session{}, fmt.Errorf("session update: %w", err)
	case fnErr != nil:
		return out, fnErr
	}
	return out, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(userID))
		pipe.ZRem(ctx, r.activityKey(), strconv.FormatInt(userID, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// DeleteIdle implements Store. Each candidate is re-checked under WATCH so a
// session touched during the sweep survives.
func (r *RedisStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, r.activityKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("session delete idle: %w", err)
	}
	n := 0
	for _, member := range ids {
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			_ = r.rdb.ZRem(ctx, r.activityKey(), member).Err()
			continue
		}
		key := r.sessionKey(userID)
		deleted := false
		err = r.watchRetry(ctx, func(tx *redis.Tx) error {
			deleted = false
			s, ok, err := readSession(ctx, tx, key)
			if err != nil {
				return err
			}
			if ok && !s.LastActivity.Before(cutoff) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, r.activityKey(), member)
				return nil
			})
			deleted = ok && err == nil
			return err
		}, key)
		if err != nil {
			return n, fmt.Errorf("session delete idle: %w", err)
		}
		if deleted {
			n++
		}
	}
	return n, nil
}

// PutCallback implements CallbackStore.
func (r *RedisStore) PutCallback(ctx context.Context, ref CallbackRef) error {
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = r.now()
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("callback put: encode: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.callbackKey(ref.CallbackID), data, 0)
		pipe.ZAdd(ctx, r.createdKey(), &redis.Z{Score: score(ref.CreatedAt), Member: ref.CallbackID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("callback put: %w", err)
	}
	return nil
}

// LookupCallback implements CallbackStore.
func (r *RedisStore) LookupCallback(ctx context.Context, callbackID string) (CallbackRef, bool, error) {
	raw, err := r.rdb.Get(ctx, r.callbackKey(callbackID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CallbackRef{}, false, nil
	}
	if err != nil {
		return CallbackRef{}, false, fmt.Errorf("callback lookup: %w", err)
	}
	var ref CallbackRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return CallbackRef{}, false, fmt.Errorf("callback lookup: decode: %w", err)
	}
	return ref, true, nil
}

// DeleteCallbacksBefore implements CallbackStore.
func (r *RedisStore) DeleteCallbacksBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, r.createdKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("callback delete stale: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = r.callbackKey(id)
		members[i] = id
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.createdKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("callback delete stale: %w", err)
	}
	return len(ids), nil
}
