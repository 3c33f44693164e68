package selection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the in-progress delivery selection per session. A missing
// or unreadable record reads back as absent (nil, nil), never as an error
// the checkout page has to render.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Selection, error)
	Put(ctx context.Context, sessionID string, sel *Selection) error
	Clear(ctx context.Context, sessionID string) error
}

const keyPrefix = "delivery:selection:"

// DefaultTTL bounds how long an abandoned selection survives.
const DefaultTTL = 24 * time.Hour

// RedisStore keeps selections in Redis with a per-record TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. A non-positive ttl falls back
// to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Selection, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		// Corrupted record: drop it and report absent.
		s.client.Del(ctx, keyPrefix+sessionID)
		return nil, nil
	}
	return &sel, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, sel *Selection) error {
	raw, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+sessionID, raw, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+sessionID).Err()
}

// MemoryStore is an in-process Store for development and tests. Records
// share the JSON codec with RedisStore so the two behave identically.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]memoryRecord
}

type memoryRecord struct {
	raw       []byte
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store. A non-positive ttl falls back
// to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Selection, error) {
	s.mu.Lock()
	rec, ok := s.records[sessionID]
	if ok && time.Now().After(rec.expiresAt) {
		delete(s.records, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var sel Selection
	if err := json.Unmarshal(rec.raw, &sel); err != nil {
		s.mu.Lock()
		delete(s.records, sessionID)
		s.mu.Unlock()
		return nil, nil
	}
	return &sel, nil
}

func (s *MemoryStore) Put(ctx context.Context, sessionID string, sel *Selection) error {
	raw, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[sessionID] = memoryRecord{raw: raw, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.records, sessionID)
	s.mu.Unlock()
	return nil
}

// PutRaw seeds an unparsed record, bypassing the codec. Used to simulate
// corrupted persisted state.
func (s *MemoryStore) PutRaw(sessionID string, raw []byte) {
	s.mu.Lock()
	s.records[sessionID] = memoryRecord{raw: raw, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}
