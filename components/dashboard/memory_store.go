package dashboard

import (
	"context"
	"sync"
)

// InMemoryCatalogStore keeps the widget catalog in insertion order.
type InMemoryCatalogStore struct {
	mu    sync.RWMutex
	types []WidgetTypeMeta
}

// NewInMemoryCatalogStore creates a store seeded with the given types.
func NewInMemoryCatalogStore(types ...WidgetTypeMeta) *InMemoryCatalogStore {
	store := &InMemoryCatalogStore{}
	for _, meta := range types {
		_ = store.UpsertType(context.Background(), meta)
	}
	return store
}

// ListTypes returns a copy of the catalog.
func (s *InMemoryCatalogStore) ListTypes(_ context.Context) ([]WidgetTypeMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WidgetTypeMeta, len(s.types))
	for i, meta := range s.types {
		out[i] = cloneMeta(meta)
	}
	return out, nil
}

// EnsureType inserts meta unless its type_key already exists.
func (s *InMemoryCatalogStore) EnsureType(_ context.Context, meta WidgetTypeMeta) (bool, error) {
	if meta.TypeKey == "" {
		return false, ErrTypeKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(meta.TypeKey) >= 0 {
		return false, nil
	}
	s.types = append(s.types, cloneMeta(meta))
	return true, nil
}

// UpsertType replaces the type in place or appends it.
func (s *InMemoryCatalogStore) UpsertType(_ context.Context, meta WidgetTypeMeta) error {
	if meta.TypeKey == "" {
		return ErrTypeKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(meta.TypeKey); idx >= 0 {
		s.types[idx] = cloneMeta(meta)
		return nil
	}
	s.types = append(s.types, cloneMeta(meta))
	return nil
}

// DeleteType removes a type. Saved dashboards referencing it are left alone.
func (s *InMemoryCatalogStore) DeleteType(_ context.Context, typeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(typeKey)
	if idx < 0 {
		return ErrWidgetTypeNotFound
	}
	s.types = append(s.types[:idx], s.types[idx+1:]...)
	return nil
}

func (s *InMemoryCatalogStore) indexOf(typeKey string) int {
	for i, meta := range s.types {
		if meta.TypeKey == typeKey {
			return i
		}
	}
	return -1
}

// InMemoryConfigStore keeps one saved dashboard per user.
type InMemoryConfigStore struct {
	mu    sync.RWMutex
	data  map[string]SavedConfig
	names map[string]string
}

// NewInMemoryConfigStore creates an empty store.
func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{
		data:  make(map[string]SavedConfig),
		names: make(map[string]string),
	}
}

// LoadConfig returns the user's saved dashboard or nil when none exists.
func (s *InMemoryConfigStore) LoadConfig(_ context.Context, userID string) (*SavedConfig, error) {
	if userID == "" {
		return nil, ErrViewerRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.data[userID]
	if !ok {
		return nil, nil
	}
	out := cfg.Clone()
	return &out, nil
}

// SaveConfig overwrites the user's dashboard.
func (s *InMemoryConfigStore) SaveConfig(_ context.Context, userID, name string, cfg SavedConfig) error {
	if userID == "" {
		return ErrViewerRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = cfg.Clone()
	s.names[userID] = name
	return nil
}

// ConfigName returns the name the config was last saved under.
func (s *InMemoryConfigStore) ConfigName(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[userID]
}
