package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// Persister stores cart snapshots under scope-qualified keys. Snapshots
// are JSON arrays of Line records. Load returns (nil, nil) for a key that
// was never written.
type Persister interface {
	Save(ctx context.Context, key string, ls []Line) error
	Load(ctx context.Context, key string) ([]Line, error)
	Delete(ctx context.Context, key string) error
}

func encode(ls []Line) ([]byte, error) {
	if ls == nil {
		ls = []Line{}
	}
	return json.Marshal(ls)
}

func decode(raw []byte) ([]Line, error) {
	var ls []Line
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, err
	}
	return ls, nil
}

// MemoryPersister keeps snapshots in process memory. It backs the
// anonymous scope, whose cart is meant to die with the session.
type MemoryPersister struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

func (m *MemoryPersister) Save(ctx context.Context, key string, ls []Line) error {
	raw, err := encode(ls)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *MemoryPersister) Load(ctx context.Context, key string) ([]Line, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return decode(raw)
}

func (m *MemoryPersister) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
