package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Sessions do not survive restarts and
// are not shared between instances, so it is only suitable for tests and
// single-process local development.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.items[key] = memoryItem{payload: buf, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.live(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	buf := make([]byte, len(item.payload))
	copy(buf, item.payload)
	return buf, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.live(key)
	if !ok {
		return ErrSessionNotFound
	}
	item.expiresAt = s.now().Add(ttl)
	s.items[key] = item
	return nil
}

// Len returns the number of unexpired entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.items {
		if _, ok := s.live(key); ok {
			n++
		}
	}
	return n
}

// live returns the item under key, evicting it when expired. Caller holds mu.
func (s *MemoryStore) live(key string) (memoryItem, bool) {
	item, ok := s.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return memoryItem{}, false
	}
	return item, true
}
