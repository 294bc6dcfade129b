// Package session tracks live games for the network transports. Each
// server owns its own Registry; a Session serializes access to one
// Manager and fans state updates out to whoever is watching.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

// ErrSessionBusy is returned when a session ID is already held by another
// connection.
var ErrSessionBusy = errors.New("session: already in use")

// ID identifies a session. It doubles as the persistence slot.
type ID string

// NewID returns a fresh random session ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Update is the state of a session after an operation.
type Update struct {
	State      t2048.GameState
	BestScore  int
	Terminated bool
}

// Factory builds the game for a new session.
type Factory func(id ID) (*t2048.Manager, error)

const updateBuffer = 16

// Session is one live game.
type Session struct {
	id     ID
	opened time.Time

	mu   sync.Mutex
	game *t2048.Manager

	updates  chan Update
	done     chan struct{}
	doneOnce sync.Once
}

func newSession(id ID, game *t2048.Manager) *Session {
	return &Session{
		id:      id,
		opened:  time.Now(),
		game:    game,
		updates: make(chan Update, updateBuffer),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() ID { return s.id }

// Opened is when the session was created.
func (s *Session) Opened() time.Time { return s.opened }

// Do runs fn with exclusive access to the game and publishes the resulting
// state, even when fn fails.
func (s *Session) Do(fn func(m *t2048.Manager) error) (Update, error) {
	s.mu.Lock()
	err := fn(s.game)
	u := snapshot(s.game)
	s.mu.Unlock()

	s.publish(u)
	return u, err
}

// Snapshot returns the current state without changing it.
func (s *Session) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.game)
}

// Refresh publishes the current state, for watchers that just attached.
func (s *Session) Refresh() Update {
	u := s.Snapshot()
	s.publish(u)
	return u
}

func snapshot(m *t2048.Manager) Update {
	return Update{
		State:      m.Serialize(),
		BestScore:  m.BestScore(),
		Terminated: m.IsTerminated(),
	}
}

// publish delivers u without blocking. When the buffer is full the oldest
// update is dropped.
func (s *Session) publish(u Update) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.updates <- u:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- u:
		default:
		}
	}
}

// Updates delivers the state after every operation.
func (s *Session) Updates() <-chan Update { return s.updates }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session. Safe to call multiple times.
func (s *Session) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Registry maps session IDs to live sessions.
// Thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[ID]*Session)}
}

// Acquire creates a session for id. It fails with ErrSessionBusy if id is
// already live; the factory is not called in that case.
func (r *Registry) Acquire(id ID, factory Factory) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, ErrSessionBusy
	}
	return r.create(id, factory)
}

// Ensure returns the live session for id, creating it if needed.
func (r *Registry) Ensure(id ID, factory Factory) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	return r.create(id, factory)
}

func (r *Registry) create(id ID, factory Factory) (*Session, error) {
	game, err := factory(id)
	if err != nil {
		return nil, err
	}
	s := newSession(id, game)
	r.sessions[id] = s
	return s, nil
}

// Release closes and forgets the session. Unknown IDs are ignored.
func (r *Registry) Release(id ID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Get retrieves a session by ID.
func (r *Registry) Get(id ID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns the live session IDs in sorted order.
func (r *Registry) List() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CloseAll releases every session.
func (r *Registry) CloseAll() {
	for _, id := range r.List() {
		r.Release(id)
	}
}
