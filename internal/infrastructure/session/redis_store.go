// Package session keeps sign-in sessions in Redis so they survive restarts
// and can be revoked from any instance.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lab-checkout/internal/domain/user"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

type record struct {
	UserID   string `json:"uid"`
	IssuedAt int64  `json:"iat"`
}

func sessionKey(id string) string  { return fmt.Sprintf("sess:%s", id) }
func userSetKey(uid string) string { return fmt.Sprintf("user_sessions:%s", uid) }

func (s *RedisStore) Create(ctx context.Context, sess *user.Session, ttl time.Duration) error {
	b, err := json.Marshal(record{UserID: sess.UserID, IssuedAt: sess.CreatedAt.Unix()})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), b, ttl)
	pipe.SAdd(ctx, userSetKey(sess.UserID), sess.ID)
	pipe.Expire(ctx, userSetKey(sess.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*user.Session, error) {
	b, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, user.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &user.Session{ID: sessionID, UserID: r.UserID, CreatedAt: time.Unix(r.IssuedAt, 0)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	sess, _ := s.Get(ctx, sessionID)

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	if sess != nil {
		pipe.SRem(ctx, userSetKey(sess.UserID), sessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RevokeAllForUser ends every session of the user, e.g. after a password reset.
func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, sessionKey(sid))
	}
	pipe.Del(ctx, userSetKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
