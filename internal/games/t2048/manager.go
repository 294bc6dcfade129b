package t2048

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/config"
)

// Rules are the tunable parameters of a game.
type Rules struct {
	Size       int
	StartTiles int
	WinValue   int
	Spawn4Prob float64
}

// DefaultRules returns the classic 4×4 rules.
func DefaultRules() Rules {
	return Rules{
		Size:       DefaultSize,
		StartTiles: 2,
		WinValue:   2048,
		Spawn4Prob: 0.1,
	}
}

// RulesFromConfig converts loaded configuration into rules.
func RulesFromConfig(c config.T2048Config) Rules {
	return Rules{
		Size:       c.Board.Size,
		StartTiles: c.Board.StartTiles,
		WinValue:   c.Rules.WinValue,
		Spawn4Prob: c.Rules.Spawn4Prob,
	}
}

// Validate checks the rules describe a playable game.
func (r Rules) Validate() error {
	switch {
	case r.Size < MinSize || r.Size > MaxSize:
		return fmt.Errorf("t2048: size %d not in [%d, %d]", r.Size, MinSize, MaxSize)
	case r.StartTiles < 1 || r.StartTiles > r.Size*r.Size:
		return fmt.Errorf("t2048: start tiles %d not in [1, %d]", r.StartTiles, r.Size*r.Size)
	case r.WinValue < 4 || !isTileValue(r.WinValue):
		return fmt.Errorf("t2048: win value %d is not a power of two >= 4", r.WinValue)
	case r.Spawn4Prob < 0 || r.Spawn4Prob > 1:
		return fmt.Errorf("t2048: spawn probability %v not in [0, 1]", r.Spawn4Prob)
	}
	return nil
}

// Manager owns one game: its grid, score and terminal flags, and the
// persistence hand-off after every turn. A Manager is not safe for
// concurrent use; callers serialize access.
type Manager struct {
	rules  Rules
	rng    *rand.Rand
	logger *log.Logger
	store  Persistence

	grid        *Grid
	score       int
	best        int
	over        bool
	won         bool
	keepPlaying bool
	degraded    bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithRules overrides the default rules.
func WithRules(r Rules) Option {
	return func(m *Manager) { m.rules = r }
}

// WithSeed makes tile spawning deterministic.
func WithSeed(seed int64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger sets the logger used for persistence problems and game events.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager and resumes the saved game if there is one.
// A nil store means in-memory persistence. Invalid rules panic.
func NewManager(store Persistence, opts ...Option) *Manager {
	m := &Manager{rules: DefaultRules(), store: store}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.rules.Validate(); err != nil {
		panic(err)
	}
	if m.store == nil {
		m.store = NewMemoryPersistence()
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	m.Setup()
	return m
}

// Setup loads the saved game, or starts a new one if nothing usable is
// saved.
func (m *Manager) Setup() {
	m.refreshBest()

	st, err := m.store.LoadGameState()
	switch {
	case errors.Is(err, ErrCorruptState):
		m.logger.Warn("discarding corrupt saved game", "err", err)
		st = nil
	case err != nil:
		m.degrade("load game", err)
		st = nil
	}

	if st != nil {
		if err := m.Deserialize(*st); err != nil {
			m.logger.Warn("discarding invalid saved game", "err", err)
			st = nil
		} else {
			m.logger.Debug("resumed saved game", "score", m.score, "size", m.grid.Size())
		}
	}

	if st == nil {
		m.reset()
	}
	m.actuate()
}

// NewGame discards the current board and deals a fresh one.
func (m *Manager) NewGame() {
	m.reset()
	m.actuate()
}

// Restart clears the saved game and starts over.
func (m *Manager) Restart() {
	m.persist("clear game", func(p Persistence) error { return p.ClearGameState() })
	m.NewGame()
}

// KeepPlaying lets the game continue after the winning tile was reached.
func (m *Manager) KeepPlaying() {
	m.keepPlaying = true
	m.actuate()
}

// PlayTurn resolves one move. Moves while the game is terminated are
// ignored. An invalid direction returns ErrInvalidDirection and changes
// nothing.
func (m *Manager) PlayTurn(dir Direction) (MoveResult, error) {
	if !dir.Valid() {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}
	if m.IsTerminated() {
		return MoveResult{}, nil
	}

	res, err := Move(m.grid, dir, m.rules.WinValue)
	if err != nil {
		return res, err
	}

	m.score += res.ScoreDelta
	if res.Won && !m.won {
		m.won = true
		m.logger.Info("winning tile reached", "score", m.score)
	}
	if res.Moved {
		m.addRandomTile()
	}
	if !m.MovesAvailable() {
		m.over = true
		m.logger.Info("game over", "score", m.score, "max_tile", m.grid.MaxTile())
	}

	m.actuate()
	return res, nil
}

// IsTerminated reports whether input is currently ignored.
func (m *Manager) IsTerminated() bool {
	return m.over || (m.won && !m.keepPlaying)
}

// MovesAvailable reports whether any direction can still change the board.
func (m *Manager) MovesAvailable() bool {
	return MovesAvailable(m.grid)
}

// Serialize returns the persisted form of the game.
func (m *Manager) Serialize() GameState {
	return GameState{
		Grid:        m.grid.Serialize(),
		Score:       m.score,
		Over:        m.over,
		Won:         m.won,
		KeepPlaying: m.keepPlaying,
	}
}

// Deserialize replaces the current game with st.
func (m *Manager) Deserialize(st GameState) error {
	g, err := GridFromState(st.Grid)
	if err != nil {
		return err
	}
	m.grid = g
	m.score = st.Score
	m.over = st.Over
	m.won = st.Won
	m.keepPlaying = st.KeepPlaying
	return nil
}

func (m *Manager) Grid() *Grid { return m.grid }

func (m *Manager) Rules() Rules { return m.rules }

func (m *Manager) Score() int { return m.score }

// BestScore is the highest score seen by this manager's store.
func (m *Manager) BestScore() int { return m.best }

func (m *Manager) Over() bool { return m.over }

func (m *Manager) Won() bool { return m.won }

// Continuing reports whether the player chose to play on after winning.
func (m *Manager) Continuing() bool { return m.keepPlaying }

// Degraded reports whether persistence failed and the game now lives only
// in memory.
func (m *Manager) Degraded() bool { return m.degraded }

func (m *Manager) reset() {
	m.grid = NewGrid(m.rules.Size)
	m.score = 0
	m.over = false
	m.won = false
	m.keepPlaying = false
	for i := 0; i < m.rules.StartTiles; i++ {
		m.addRandomTile()
	}
}

func (m *Manager) addRandomTile() {
	pos, ok := m.grid.RandomAvailableCell(m.rng)
	if !ok {
		return
	}
	value := 2
	if m.rng.Float64() < m.rules.Spawn4Prob {
		value = 4
	}
	m.grid.InsertTile(NewTile(pos, value))
}

// actuate pushes the current state to persistence. The best score is
// raised first so it reflects a game even when that game's state is
// cleared for being over.
func (m *Manager) actuate() {
	m.refreshBest()
	if m.score > m.best {
		score := m.score
		m.persist("set best score", func(p Persistence) error { return p.SetBestScore(score) })
		m.best = score
	}

	if m.over {
		m.persist("clear game", func(p Persistence) error { return p.ClearGameState() })
		return
	}
	st := m.Serialize()
	m.persist("save game", func(p Persistence) error { return p.SaveGameState(st) })
}

func (m *Manager) refreshBest() {
	var best int
	m.persist("load best score", func(p Persistence) error {
		b, err := p.BestScore()
		best = b
		return err
	})
	if best > m.best {
		m.best = best
	}
}

// persist runs op against the store, switching to memory on failure.
func (m *Manager) persist(name string, op func(Persistence) error) {
	if err := op(m.store); err != nil {
		m.degrade(name, err)
		_ = op(m.store)
	}
}

func (m *Manager) degrade(op string, err error) {
	if m.degraded {
		return
	}
	m.logger.Warn("persistence failed, continuing in memory", "op", op, "err", err)
	mem := NewMemoryPersistence()
	mem.best = m.best
	if m.grid != nil && !m.over {
		st := cloneState(m.Serialize())
		mem.state = &st
	}
	m.store = mem
	m.degraded = true
}
