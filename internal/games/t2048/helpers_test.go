package t2048

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// gridOf builds a square grid from rows of values, 0 meaning empty.
func gridOf(t *testing.T, rows ...[]int) *Grid {
	t.Helper()
	g := NewGrid(len(rows))
	for y, row := range rows {
		if len(row) != len(rows) {
			t.Fatalf("row %d has %d cells, want %d", y, len(row), len(rows))
		}
		for x, v := range row {
			if v != 0 {
				g.InsertTile(NewTile(Position{X: x, Y: y}, v))
			}
		}
	}
	return g
}

func stateOf(t *testing.T, score int, rows ...[]int) GameState {
	t.Helper()
	return GameState{Grid: gridOf(t, rows...).Serialize(), Score: score}
}

func assertRows(t *testing.T, g *Grid, want ...[]int) {
	t.Helper()
	if got := g.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("grid = %v, want %v", got, want)
	}
}

func countTiles(g *Grid) int {
	n := 0
	g.EachTile(func(*Tile) { n++ })
	return n
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

var errStoreDown = errors.New("store down")

// flakyStore wraps a MemoryPersistence and starts failing every call once
// failAfter calls have succeeded. A negative failAfter never fails.
type flakyStore struct {
	mem       *MemoryPersistence
	failAfter int
	calls     int
}

func newFlakyStore(failAfter int) *flakyStore {
	return &flakyStore{mem: NewMemoryPersistence(), failAfter: failAfter}
}

func (f *flakyStore) check() error {
	f.calls++
	if f.failAfter >= 0 && f.calls > f.failAfter {
		return fmt.Errorf("call %d: %w", f.calls, errStoreDown)
	}
	return nil
}

func (f *flakyStore) LoadGameState() (*GameState, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.mem.LoadGameState()
}

func (f *flakyStore) SaveGameState(st GameState) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.mem.SaveGameState(st)
}

func (f *flakyStore) ClearGameState() error {
	if err := f.check(); err != nil {
		return err
	}
	return f.mem.ClearGameState()
}

func (f *flakyStore) BestScore() (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.mem.BestScore()
}

func (f *flakyStore) SetBestScore(score int) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.mem.SetBestScore(score)
}

// corruptStore always reports an unreadable saved game.
type corruptStore struct {
	*MemoryPersistence
}

func (corruptStore) LoadGameState() (*GameState, error) {
	return nil, fmt.Errorf("slot default: %w", ErrCorruptState)
}
