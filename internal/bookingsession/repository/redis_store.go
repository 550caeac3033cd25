// Package repository persists booking sessions in Redis.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"booking_engine/internal/bookingsession/session"
)

const (
	sessionPrefix = "booking:session:"
	lockPrefix    = "booking:"
)

// releaseScript deletes a lock only while the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps sessions as JSON documents that expire after ttl of
// inactivity. Action locks expire after lockTTL so a crashed instance
// cannot block a session forever.
type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
}

var _ session.Store = (*RedisStore)(nil)

// NewRedisStore creates a session store over client.
func NewRedisStore(client redis.UniversalClient, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisStore) Load(ctx context.Context, key session.Key) (session.Session, bool, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return session.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, s session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionPrefix+s.Key().String(), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key session.Key) error {
	return r.client.Del(ctx, sessionPrefix+key.String()).Err()
}

// Acquire takes the named lock with SET NX. The returned release only
// removes the lock if this holder still owns it.
func (r *RedisStore) Acquire(ctx context.Context, name string) (func(), bool, error) {
	lockKey := lockPrefix + name
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKey, token, r.lockTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, r.client, []string{lockKey}, token).Err()
	}
	return release, true, nil
}
