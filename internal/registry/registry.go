// Package registry lists the board variants the terminal front end can
// start. Variants register themselves from init functions; the CLI menu,
// the scoreboard and the SSH server look them up by ID.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-2048/internal/core"
)

// ErrUnknownGame is returned by Create for IDs nobody registered.
var ErrUnknownGame = errors.New("registry: unknown game")

// Game is what the terminal platform drives at a fixed tick. Games hold
// no Bubble Tea state; the platform maps keys, times ticks and draws.
type Game interface {
	// ID is the stable variant key, e.g. "2048" or "2048_5x5". It names
	// the score history and the save slot.
	ID() string

	Title() string

	// Reset starts the game. The first call may resume a saved game;
	// later calls start over.
	Reset(cfg core.RuntimeConfig)

	// Step advances one tick with the actions pressed since the last one.
	Step(in core.InputFrame) core.StepResult

	// Render draws into a pre-cleared screen.
	Render(dst *core.Screen)

	State() core.GameState
}

// Resizer is implemented by games that adapt their layout to the terminal
// size without being reset.
type Resizer interface {
	Resize(w, h int)
}

// GameInfo describes a registered game.
type GameInfo struct {
	ID    string
	Title string
}

// Factory builds a fresh game.
type Factory func() Game

type entry struct {
	title   string
	factory Factory
}

var (
	mu      sync.RWMutex
	entries = make(map[string]entry)
)

// Register adds a game. The factory is called once here to read the title.
// Registering an ID twice panics.
func Register(id string, f Factory) {
	title := f().Title()

	mu.Lock()
	defer mu.Unlock()
	if _, dup := entries[id]; dup {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}
	entries[id] = entry{title: title, factory: f}
}

// List returns every registered game sorted by ID.
func List() []GameInfo {
	mu.RLock()
	out := make([]GameInfo, 0, len(entries))
	for id, e := range entries {
		out = append(out, GameInfo{ID: id, Title: e.title})
	}
	mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create builds a new instance of the game registered as id.
func Create(id string) (Game, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownGame, id)
	}
	return e.factory(), nil
}

func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := entries[id]
	return ok
}
