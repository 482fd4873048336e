// Package idempotency stores the first response given to a request carrying
// an Idempotency-Key so that retries can be answered without re-running the
// write.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "basicfit:idem:"

// Response is a recorded HTTP response.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Body   []byte      `json:"body"`
}

// Pending reports whether r is a reservation of a request still running.
func (r Response) Pending() bool {
	return r.Status == 0
}

// Store keeps recorded responses for a limited time. Get reports false for
// unknown or expired keys. Reserve claims a key for the one request allowed
// to run under it; it reports false when the key is already reserved or
// answered. Release drops a reservation whose response is not recorded.
type Store interface {
	Get(ctx context.Context, key string) (*Response, bool, error)
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Put(ctx context.Context, key string, resp Response, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

var pendingPayload = []byte(`{"status":0}`)

func encode(resp Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// MemoryStore keeps responses in an in-process freecache.
type MemoryStore struct {
	mu    sync.Mutex // serializes Reserve
	cache *freecache.Cache
}

// NewMemoryStore allocates a cache of sizeBytes.
func NewMemoryStore(sizeBytes int) *MemoryStore {
	return &MemoryStore{cache: freecache.NewCache(sizeBytes)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Response, bool, error) {
	b, err := s.cache.Get([]byte(keyPrefix + key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	resp, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, resp Response, ttl time.Duration) error {
	b, err := encode(resp)
	if err != nil {
		return err
	}
	if err := s.cache.Set([]byte(keyPrefix+key), b, int(ttl.Seconds())); err != nil {
		return fmt.Errorf("caching response: %w", err)
	}
	return nil
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := []byte(keyPrefix + key)
	if _, err := s.cache.Get(k); err == nil {
		return false, nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		return false, err
	}
	if err := s.cache.Set(k, pendingPayload, int(ttl.Seconds())); err != nil {
		return false, fmt.Errorf("reserving key: %w", err)
	}
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.cache.Del([]byte(keyPrefix + key))
	return nil
}

// RedisStore shares responses between instances through redis.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Response, bool, error) {
	b, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	resp, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, resp Response, ttl time.Duration) error {
	b, err := encode(resp)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+key, pendingPayload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
