// Package store keeps session snapshots in Redis so sessions survive a
// process restart. Persistence is best effort: callers log and continue on
// errors.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xtding233/gacha-simulator/internal/session"
)

// Options configures a RedisStore.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, e.g. "gacha:session:"
	TTL      time.Duration // 0 keeps keys forever
}

// RedisStore saves one JSON document per session under Prefix+id.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", opts.Addr)
	}
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// Load returns the snapshot of id; ok is false when none is stored.
func (s *RedisStore) Load(ctx context.Context, id string) (session.Snapshot, bool, error) {
	var snap session.Snapshot
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, errors.Wrapf(err, "load session %s", id)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false, errors.Wrapf(err, "decode session %s", id)
	}
	return snap, true, nil
}

// Save stores snap and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrapf(err, "encode session %s", snap.SessionID)
	}
	if err := s.client.Set(ctx, s.key(snap.SessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "save session %s", snap.SessionID)
	}
	return nil
}

// Delete removes the snapshot of id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(s.client.Del(ctx, s.key(id)).Err(), "delete session %s", id)
}

func (s *RedisStore) Close() error { return s.client.Close() }
