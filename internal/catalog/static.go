package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Static is an in-memory Lookup. The service uses it for fixtures and the
// tests use it to stand in for the catalog store.
type Static struct {
	mu    sync.RWMutex
	items map[Request][]CompositionItem
	// Err, when set, is returned by every call as a service error.
	Err error
}

func NewStatic() *Static {
	return &Static{items: make(map[Request][]CompositionItem)}
}

// Set replaces the composition for a category and key.
func (s *Static) Set(category Category, key string, items ...CompositionItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]CompositionItem, len(items))
	copy(cp, items)
	s.items[Request{Category: category, Key: key}] = cp
}

func (s *Static) Composition(ctx context.Context, req Request) ([]CompositionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ServiceError{Op: "composition", Err: err}
	}
	if s.Err != nil {
		return nil, &ServiceError{Op: "composition", Err: s.Err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.items[req]
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", req, ErrCompositionNotFound)
	}
	return Snapshot(items), nil
}

func (s *Static) Configured(ctx context.Context, category Category, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &ServiceError{Op: "availability", Err: err}
	}
	if s.Err != nil {
		return false, &ServiceError{Op: "availability", Err: s.Err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for req, items := range s.items {
		if req.Category != category || len(items) == 0 {
			continue
		}
		if key == "" || req.Key == key {
			return true, nil
		}
	}
	return false, nil
}
