// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/memberportal/internal/platform/constants"
)

// RedisStore persists each session as one JSON value under a prefixed key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed [Store].
//
// A positive ttl lets Redis evict abandoned sessions; every save resets it.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

/*
Load retrieves the session stored under key.

Returns:
  - Session: The stored record
  - error: ErrNoSession if absent or evicted, or connectivity errors
*/
func (store *RedisStore) Load(ctx context.Context, key string) (Session, error) {

	// Get the JSON record from Redis
	data, err := store.client.Get(ctx, redisKey(key)).Bytes()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	return decodeRedisRecord(data)
}

/*
Save overwrites the session stored under key with a single SET.

Returns:
  - error: Encoding or storage failures
*/
func (store *RedisStore) Save(ctx context.Context, key string, record Session) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	// A zero TTL keeps the key without expiry
	if err := store.client.Set(ctx, redisKey(key), data, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	return nil
}

/*
Delete removes the session stored under key. Missing keys are not an error.

Returns:
  - error: Deletion failures
*/
func (store *RedisStore) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

/*
Replace overwrites the session under key only while it still holds refreshToken.

Description: The key is WATCHed, read and compared; the SET runs in a MULTI
block that Redis aborts if the key changed in between.

Returns:
  - error: ErrSessionChanged if the record is gone, differs, or changed mid-flight
*/
func (store *RedisStore) Replace(ctx context.Context, key, refreshToken string, record Session) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	return store.compareAndSwap(ctx, key, refreshToken, func(pipe redis.Pipeliner, namespaced string) {
		pipe.Set(ctx, namespaced, data, store.ttl)
	})
}

// DeleteIf removes the session under key only while it still holds refreshToken.
func (store *RedisStore) DeleteIf(ctx context.Context, key, refreshToken string) error {
	return store.compareAndSwap(ctx, key, refreshToken, func(pipe redis.Pipeliner, namespaced string) {
		pipe.Del(ctx, namespaced)
	})
}

// compareAndSwap runs write in a transaction guarded by WATCH on the session key.
func (store *RedisStore) compareAndSwap(ctx context.Context, key, refreshToken string, write func(redis.Pipeliner, string)) error {
	namespaced := redisKey(key)

	err := store.client.Watch(ctx, func(tx *redis.Tx) error {

		// ── 1. Read Under Watch ───────────────────────────────────────────
		data, err := tx.Get(ctx, namespaced).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionChanged
		}
		if err != nil {
			return err
		}

		current, err := decodeRedisRecord(data)
		if err != nil {
			return err
		}

		// ── 2. Compare ────────────────────────────────────────────────────
		if current.RefreshToken != refreshToken {
			return ErrSessionChanged
		}

		// ── 3. Swap ───────────────────────────────────────────────────────
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe, namespaced)
			return nil
		})
		return err
	}, namespaced)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionChanged), errors.Is(err, redis.TxFailedErr):
		return ErrSessionChanged
	default:
		return fmt.Errorf("redis_session_swap_failed: %w", err)
	}
}

// decodeRedisRecord parses one stored JSON session.
func decodeRedisRecord(data []byte) (Session, error) {
	var record Session
	if err := json.Unmarshal(data, &record); err != nil {
		return Session{}, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return record, nil
}

// redisKey namespaces a session key.
func redisKey(key string) string {
	return constants.RedisPrefixSession + key
}
