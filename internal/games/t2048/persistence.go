package t2048

import "sync"

// Persistence stores the game in progress and the best score.
//
// LoadGameState returns (nil, nil) when no game is saved. Implementations
// may return ErrCorruptState (wrapped) for unreadable data; the manager then
// starts a new game. SetBestScore must only ever raise the stored value.
type Persistence interface {
	LoadGameState() (*GameState, error)
	SaveGameState(GameState) error
	ClearGameState() error
	BestScore() (int, error)
	SetBestScore(score int) error
}

// MemoryPersistence keeps state in process memory.
type MemoryPersistence struct {
	mu    sync.Mutex
	state *GameState
	best  int
}

// NewMemoryPersistence creates an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (m *MemoryPersistence) LoadGameState() (*GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, nil
	}
	st := cloneState(*m.state)
	return &st, nil
}

func (m *MemoryPersistence) SaveGameState(st GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cloneState(st)
	m.state = &c
	return nil
}

func (m *MemoryPersistence) ClearGameState() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = nil
	return nil
}

func (m *MemoryPersistence) BestScore() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.best, nil
}

func (m *MemoryPersistence) SetBestScore(score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if score > m.best {
		m.best = score
	}
	return nil
}

// cloneState deep-copies the grid so callers cannot alias stored cells.
func cloneState(st GameState) GameState {
	cells := make([][]*CellState, len(st.Grid.Cells))
	for x, col := range st.Grid.Cells {
		cells[x] = make([]*CellState, len(col))
		for y, c := range col {
			if c != nil {
				cc := *c
				cells[x][y] = &cc
			}
		}
	}
	st.Grid.Cells = cells
	return st
}
