package storage

import (
	"encoding/json"
	"sync"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

// MemoryBackend keeps every slot in process memory. States are stored
// encoded so callers never share cells with the store.
type MemoryBackend struct {
	mu     sync.Mutex
	states map[string][]byte
	best   int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{states: make(map[string][]byte)}
}

func (m *MemoryBackend) LoadState(slot string) (*t2048.GameState, error) {
	m.mu.Lock()
	data, ok := m.states[slot]
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return t2048.DecodeGameState(data)
}

func (m *MemoryBackend) SaveState(slot string, st t2048.GameState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[slot] = data
	return nil
}

func (m *MemoryBackend) ClearState(slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, slot)
	return nil
}

func (m *MemoryBackend) BestScore() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.best, nil
}

func (m *MemoryBackend) SetBestScore(score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if score > m.best {
		m.best = score
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
