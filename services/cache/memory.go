package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	stored  time.Time
	expires time.Time
}

// MemoryStore is an in-process CacheService bounded to maxEntries. When full,
// expired entries go first and then the oldest write.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates a store. A nil now uses time.Now.
func NewMemoryStore(maxEntries int, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        now,
	}
}

// Get retrieves a copy of the value
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value for expiration
func (m *MemoryStore) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict(now)
	}
	m.entries[key] = memoryEntry{
		value:   append([]byte(nil), value...),
		stored:  now,
		expires: now.Add(expiration),
	}
	return nil
}

// Delete removes a value
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Flush removes every value
func (m *MemoryStore) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of live entries
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, e := range m.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

// evict must be called with mu held
func (m *MemoryStore) evict(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.stored.Before(oldest) {
			oldestKey, oldest = k, e.stored
		}
	}
	delete(m.entries, oldestKey)
}
