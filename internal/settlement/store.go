package settlement

import (
	"context"
	"sync"
)

// SnapshotStore retém o snapshot entre polls. A implementação em memória
// vive só a sessão; a Postgres sobrevive a restart do worker.
type SnapshotStore interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, betID string, e Entry) error
}

// MemoryStore é o store default da sessão.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Load(context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, betID string, e Entry) error {
	s.mu.Lock()
	s.entries[betID] = e
	s.mu.Unlock()
	return nil
}
