package split

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps partitions for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	pools map[string]Pools
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pools: make(map[string]Pools)}
}

func (s *MemoryStore) Load(_ context.Context, corpus string) (Pools, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[corpus]
	if !ok {
		return Pools{}, false, nil
	}
	return clonePools(p), true, nil
}

func (s *MemoryStore) Save(_ context.Context, corpus string, pools Pools) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[corpus]; ok {
		return ErrSplitExists
	}
	s.pools[corpus] = clonePools(pools)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, corpus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, corpus)
	return nil
}

func clonePools(p Pools) Pools {
	p.Train = slices.Clone(p.Train)
	p.Validation = slices.Clone(p.Validation)
	p.Reused = false
	return p
}
