package cache

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/skcgolf/skc-api/internal/models"
)

type memoryEntry struct {
	user    models.User
	expires time.Time
}

// MemoryStore is a TTL cache bounded by entry count. When full, expired
// entries are swept and, failing that, an arbitrary entry is dropped.
type MemoryStore struct {
	entries    *xsync.MapOf[string, memoryEntry]
	mu         sync.Mutex // orders fills against deletes
	gen        uint64
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    xsync.NewMapOf[string, memoryEntry](),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.User, error) {
	e, ok := s.entries.Load(key)
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expires) {
		s.entries.Delete(key)
		return nil, nil
	}
	user := e.user
	return &user, nil
}

// Generation is store-wide: any delete invalidates every fill in flight.
func (s *MemoryStore) Generation(context.Context, string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen, nil
}

func (s *MemoryStore) Fill(_ context.Context, key string, gen uint64, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false, nil
	}
	if s.maxEntries > 0 && s.entries.Size() >= s.maxEntries {
		s.evictOne()
	}
	s.entries.Store(key, memoryEntry{user: *user, expires: s.now().Add(s.ttl)})
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for _, k := range keys {
		s.entries.Delete(k)
	}
	return nil
}

func (s *MemoryStore) Len() int {
	return s.entries.Size()
}

func (s *MemoryStore) evictOne() {
	now := s.now()
	swept := false
	s.entries.Range(func(key string, e memoryEntry) bool {
		if now.After(e.expires) {
			s.entries.Delete(key)
			swept = true
		}
		return true
	})
	if swept {
		return
	}
	s.entries.Range(func(key string, _ memoryEntry) bool {
		s.entries.Delete(key)
		return false
	})
}
