package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/rpgconsent/core/session"
)

// SharedStore keeps live client shared values in Redis hashes, one hash per client,
// so a client's cached session token and identity survive a process restart.
type SharedStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSharedStore creates a shared store factory. ttl refreshes on every write; zero disables expiry.
func NewSharedStore(client redis.UniversalClient, prefix string, ttl time.Duration) *SharedStore {
	if prefix == "" {
		prefix = "rpgconsent:live"
	}
	return &SharedStore{client: client, prefix: prefix, ttl: ttl}
}

// For returns the store of one client. Its signature matches live.SharedFactory.
func (s *SharedStore) For(clientID string) session.SharedStore {
	return &clientStore{shared: s, key: s.prefix + ":" + clientID}
}

type clientStore struct {
	shared *SharedStore
	key    string
}

var _ session.SharedStore = (*clientStore)(nil)

func (c *clientStore) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := c.shared.client.HGet(ctx, c.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrSharedStore, err)
	}
	return v, true, nil
}

func (c *clientStore) Set(ctx context.Context, field, value string) error {
	_, err := c.shared.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.key, field, value)
		if c.shared.ttl > 0 {
			pipe.Expire(ctx, c.key, c.shared.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrSharedStore, err)
	}
	return nil
}

func (c *clientStore) Delete(ctx context.Context, field string) error {
	if err := c.shared.client.HDel(ctx, c.key, field).Err(); err != nil {
		return errors.Join(ErrSharedStore, err)
	}
	return nil
}
