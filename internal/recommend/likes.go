package recommend

import (
	"encoding/json"
	"fmt"
	"sync"
)

// likedKeyPrefix namespaces liked-property lists in the key-value store
const likedKeyPrefix = "liked_properties:"

// KeyValueStore is the persistence the liked-properties list is written to
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// LikedSet is a set of liked property ids
type LikedSet map[string]struct{}

// NewLikedSet builds a set from ids
func NewLikedSet(ids ...string) LikedSet {
	set := make(LikedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Has reports whether id is liked. A nil set likes nothing.
func (s LikedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// LikedKey returns the store key of a visitor's list
func LikedKey(visitor string) string {
	return likedKeyPrefix + visitor
}

// LoadLiked reads a visitor's liked ids in the order they were liked
func LoadLiked(store KeyValueStore, visitor string) ([]string, error) {
	raw, ok, err := store.Get(LikedKey(visitor))
	if err != nil {
		return nil, fmt.Errorf("failed to read liked properties: %w", err)
	}
	if !ok || raw == "" {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode liked properties: %w", err)
	}
	return ids, nil
}

// ToggleLiked adds or removes id from a visitor's list and returns whether it is now liked
func ToggleLiked(store KeyValueStore, visitor, id string) (bool, []string, error) {
	ids, err := LoadLiked(store, visitor)
	if err != nil {
		return false, nil, err
	}

	liked := true
	next := make([]string, 0, len(ids)+1)
	for _, existing := range ids {
		if existing == id {
			liked = false
			continue
		}
		next = append(next, existing)
	}
	if liked {
		next = append(next, id)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return false, nil, fmt.Errorf("failed to encode liked properties: %w", err)
	}
	if err := store.Set(LikedKey(visitor), string(data)); err != nil {
		return false, nil, fmt.Errorf("failed to save liked properties: %w", err)
	}
	return liked, next, nil
}

// MemoryStore is an in-process KeyValueStore
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}
