package t2048

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

var deadBoard = [][]int{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 4},
	{4, 2, 4, 2},
}

func newTestManager(t *testing.T, store Persistence) *Manager {
	t.Helper()
	return NewManager(store, WithSeed(42))
}

func TestNewManagerDealsStartTiles(t *testing.T) {
	store := NewMemoryPersistence()
	m := newTestManager(t, store)

	if n := countTiles(m.Grid()); n != 2 {
		t.Errorf("start tiles = %d, want 2", n)
	}
	if m.Score() != 0 || m.Over() || m.Won() || m.IsTerminated() {
		t.Errorf("fresh game state: score=%d over=%v won=%v", m.Score(), m.Over(), m.Won())
	}
	m.Grid().EachTile(func(tile *Tile) {
		if tile.Value != 2 && tile.Value != 4 {
			t.Errorf("start tile value %d, want 2 or 4", tile.Value)
		}
	})

	saved, err := store.LoadGameState()
	if err != nil || saved == nil {
		t.Fatalf("fresh game should be saved, got %v, %v", saved, err)
	}
}

func TestManagerCustomRules(t *testing.T) {
	rules := Rules{Size: 3, StartTiles: 4, WinValue: 64, Spawn4Prob: 1}
	m := NewManager(nil, WithRules(rules), WithSeed(7))

	if m.Grid().Size() != 3 {
		t.Errorf("size = %d, want 3", m.Grid().Size())
	}
	if n := countTiles(m.Grid()); n != 4 {
		t.Errorf("start tiles = %d, want 4", n)
	}
	m.Grid().EachTile(func(tile *Tile) {
		if tile.Value != 4 {
			t.Errorf("spawn4 probability 1 produced %d", tile.Value)
		}
	})

	mustPanic(t, "invalid rules", func() {
		NewManager(nil, WithRules(Rules{Size: 4, StartTiles: 2, WinValue: 100}))
	})
}

func TestManagerSeedIsDeterministic(t *testing.T) {
	a := NewManager(nil, WithSeed(99))
	b := NewManager(nil, WithSeed(99))

	for _, d := range []Direction{DirLeft, DirUp, DirRight, DirDown, DirLeft, DirUp} {
		if _, err := a.PlayTurn(d); err != nil {
			t.Fatal(err)
		}
		if _, err := b.PlayTurn(d); err != nil {
			t.Fatal(err)
		}
	}

	assertRows(t, a.Grid(), b.Grid().Values()...)
	if a.Score() != b.Score() {
		t.Errorf("scores differ: %d vs %d", a.Score(), b.Score())
	}
}

func TestPlayTurnSpawnsOnlyAfterMovement(t *testing.T) {
	m := newTestManager(t, nil)
	if err := m.Deserialize(stateOf(t, 0,
		[]int{2, 0, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
	)); err != nil {
		t.Fatal(err)
	}

	res, err := m.PlayTurn(DirLeft)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved || countTiles(m.Grid()) != 1 {
		t.Errorf("no-op move: moved=%v tiles=%d, want false/1", res.Moved, countTiles(m.Grid()))
	}

	res, _ = m.PlayTurn(DirRight)
	if !res.Moved || countTiles(m.Grid()) != 2 {
		t.Errorf("real move: moved=%v tiles=%d, want true/2", res.Moved, countTiles(m.Grid()))
	}
}

func TestPlayTurnScoresMerges(t *testing.T) {
	store := NewMemoryPersistence()
	m := newTestManager(t, store)
	if err := m.Deserialize(stateOf(t, 10,
		[]int{2, 2, 0, 0},
		[]int{4, 4, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
	)); err != nil {
		t.Fatal(err)
	}

	res, err := m.PlayTurn(DirLeft)
	if err != nil {
		t.Fatal(err)
	}
	if res.ScoreDelta != 12 || m.Score() != 22 {
		t.Errorf("delta=%d score=%d, want 12/22", res.ScoreDelta, m.Score())
	}
	if m.BestScore() != 22 {
		t.Errorf("best = %d, want 22", m.BestScore())
	}
	if best, _ := store.BestScore(); best != 22 {
		t.Errorf("stored best = %d, want 22", best)
	}
	saved, _ := store.LoadGameState()
	if saved == nil || saved.Score != 22 {
		t.Errorf("saved state = %+v, want score 22", saved)
	}
}

func TestPlayTurnWinTerminatesUntilKeepPlaying(t *testing.T) {
	m := newTestManager(t, nil)
	if err := m.Deserialize(stateOf(t, 0,
		[]int{1024, 1024, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
	)); err != nil {
		t.Fatal(err)
	}

	if _, err := m.PlayTurn(DirLeft); err != nil {
		t.Fatal(err)
	}
	if !m.Won() || !m.IsTerminated() {
		t.Fatalf("won=%v terminated=%v, want both true", m.Won(), m.IsTerminated())
	}
	if m.Score() != 2048 {
		t.Errorf("score = %d, want 2048", m.Score())
	}

	before := m.Grid().Values()
	res, err := m.PlayTurn(DirRight)
	if err != nil || res.Moved {
		t.Errorf("move after win: %+v, %v; want ignored", res, err)
	}
	assertRows(t, m.Grid(), before...)

	m.KeepPlaying()
	if m.IsTerminated() || !m.Continuing() {
		t.Fatal("KeepPlaying should resume the game")
	}
	if res, _ := m.PlayTurn(DirRight); !res.Moved {
		t.Error("move after KeepPlaying should be applied")
	}
	if !m.Won() {
		t.Error("won flag should stay set while playing on")
	}
}

func TestPlayTurnDeadBoardEndsGame(t *testing.T) {
	store := NewMemoryPersistence()
	m := newTestManager(t, store)
	if err := m.Deserialize(stateOf(t, 300, deadBoard...)); err != nil {
		t.Fatal(err)
	}

	for _, d := range Directions {
		res, err := m.PlayTurn(d)
		if err != nil {
			t.Fatal(err)
		}
		if res.Moved {
			t.Errorf("%v moved a dead board", d)
		}
	}

	assertRows(t, m.Grid(), deadBoard...)
	if !m.Over() || !m.IsTerminated() {
		t.Error("dead board should be over")
	}
	if countTiles(m.Grid()) != 16 {
		t.Errorf("tiles = %d, want 16", countTiles(m.Grid()))
	}

	saved, err := store.LoadGameState()
	if err != nil || saved != nil {
		t.Errorf("finished game should be cleared, got %+v, %v", saved, err)
	}
	if best, _ := store.BestScore(); best != 300 {
		t.Errorf("best = %d, want the finished game's 300", best)
	}
}

func TestPlayTurnLastMoveEndsGame(t *testing.T) {
	m := NewManager(nil, WithSeed(3), WithRules(Rules{Size: 2, StartTiles: 1, WinValue: 2048}))
	if err := m.Deserialize(stateOf(t, 0,
		[]int{2, 4},
		[]int{0, 8},
	)); err != nil {
		t.Fatal(err)
	}

	// With one empty cell and Spawn4Prob 0 every spawn is a 2 in a known spot.
	steps := []struct {
		dir  Direction
		want [][]int
		over bool
	}{
		{DirDown, [][]int{{2, 4}, {2, 8}}, false},
		{DirUp, [][]int{{4, 4}, {2, 8}}, false},
		{DirLeft, [][]int{{8, 2}, {2, 8}}, true},
	}
	for _, step := range steps {
		if _, err := m.PlayTurn(step.dir); err != nil {
			t.Fatal(err)
		}
		assertRows(t, m.Grid(), step.want...)
		if m.Over() != step.over {
			t.Fatalf("after %v over = %v, want %v", step.dir, m.Over(), step.over)
		}
	}
	if m.Score() != 12 {
		t.Errorf("score = %d, want 12", m.Score())
	}
}

func TestPlayTurnInvalidDirection(t *testing.T) {
	store := NewMemoryPersistence()
	m := newTestManager(t, store)
	before := m.Serialize()

	_, err := m.PlayTurn(Direction(7))
	if !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("error = %v, want ErrInvalidDirection", err)
	}
	assertRows(t, m.Grid(), mustGrid(t, before).Values()...)
	if m.Score() != before.Score || m.Over() {
		t.Error("invalid direction must not change the game")
	}
}

func mustGrid(t *testing.T, st GameState) *Grid {
	t.Helper()
	g, err := GridFromState(st.Grid)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRestartAfterGameOver(t *testing.T) {
	store := NewMemoryPersistence()
	m := newTestManager(t, store)
	if err := m.Deserialize(stateOf(t, 500, deadBoard...)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PlayTurn(DirUp); err != nil {
		t.Fatal(err)
	}
	if !m.IsTerminated() {
		t.Fatal("expected terminated game")
	}

	m.Restart()

	if m.Score() != 0 || m.Over() || m.Won() || m.Continuing() {
		t.Errorf("restart: score=%d over=%v won=%v", m.Score(), m.Over(), m.Won())
	}
	if n := countTiles(m.Grid()); n != 2 {
		t.Errorf("restart tiles = %d, want 2", n)
	}
	if m.BestScore() != 500 {
		t.Errorf("best = %d, want 500 kept across restart", m.BestScore())
	}

	saved, _ := store.LoadGameState()
	if saved == nil || saved.Score != 0 || saved.Over {
		t.Errorf("saved state after restart = %+v, want fresh game", saved)
	}
}

func TestManagerResumesSavedGame(t *testing.T) {
	store := NewMemoryPersistence()
	st := stateOf(t, 64,
		[]int{2, 0, 0},
		[]int{0, 32, 0},
		[]int{0, 0, 8},
	)
	st.Won = true
	st.KeepPlaying = true
	if err := store.SaveGameState(st); err != nil {
		t.Fatal(err)
	}
	if err := store.SetBestScore(1000); err != nil {
		t.Fatal(err)
	}

	// Resumed games keep their saved size even when the rules differ.
	m := newTestManager(t, store)

	assertRows(t, m.Grid(),
		[]int{2, 0, 0},
		[]int{0, 32, 0},
		[]int{0, 0, 8},
	)
	if m.Score() != 64 || !m.Won() || !m.Continuing() {
		t.Errorf("resumed score=%d won=%v continuing=%v", m.Score(), m.Won(), m.Continuing())
	}
	if m.BestScore() != 1000 {
		t.Errorf("best = %d, want 1000", m.BestScore())
	}
}

func TestManagerDiscardsCorruptState(t *testing.T) {
	store := corruptStore{NewMemoryPersistence()}
	m := newTestManager(t, store)

	if m.Degraded() {
		t.Error("corrupt state is not a storage failure")
	}
	if countTiles(m.Grid()) != 2 || m.Score() != 0 {
		t.Error("corrupt state should start a new game")
	}
}

func TestManagerDegradesWhenStoreFails(t *testing.T) {
	store := newFlakyStore(0)
	m := newTestManager(t, store)

	if !m.Degraded() {
		t.Fatal("manager should fall back to memory")
	}
	if countTiles(m.Grid()) != 2 {
		t.Error("degraded manager should still deal a game")
	}
	for _, d := range []Direction{DirLeft, DirDown, DirRight, DirUp} {
		if _, err := m.PlayTurn(d); err != nil {
			t.Fatal(err)
		}
	}
}

func TestManagerDegradesMidGame(t *testing.T) {
	store := newFlakyStore(-1)
	if err := store.mem.SetBestScore(40); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, store)
	if m.Degraded() {
		t.Fatal("healthy store should not degrade")
	}
	if err := m.Deserialize(stateOf(t, 36,
		[]int{8, 8, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
		[]int{0, 0, 0, 0},
	)); err != nil {
		t.Fatal(err)
	}

	store.failAfter = store.calls
	if _, err := m.PlayTurn(DirLeft); err != nil {
		t.Fatal(err)
	}

	if !m.Degraded() {
		t.Fatal("failed save should degrade")
	}
	if m.Score() != 52 || m.BestScore() != 52 {
		t.Errorf("score=%d best=%d, want 52/52", m.Score(), m.BestScore())
	}
	if best, _ := store.mem.BestScore(); best != 40 {
		t.Errorf("failed store best changed to %d", best)
	}
}

func TestGameStateJSONShape(t *testing.T) {
	st := stateOf(t, 12,
		[]int{0, 2},
		[]int{0, 0},
	)
	st.KeepPlaying = true

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"grid":{"size":2,"cells":[[null,null],[{"position":{"x":1,"y":0},"value":2},null]]}`,
		`"score":12`,
		`"over":false`,
		`"won":false`,
		`"keepPlaying":true`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("json %s missing %s", s, want)
		}
	}

	back, err := DecodeGameState(data)
	if err != nil {
		t.Fatal(err)
	}
	assertRows(t, mustGrid(t, *back),
		[]int{0, 2},
		[]int{0, 0},
	)

	if _, err := DecodeGameState([]byte(`{"grid":`)); !errors.Is(err, ErrCorruptState) {
		t.Errorf("truncated json error = %v, want ErrCorruptState", err)
	}
	if _, err := DecodeGameState([]byte(`{"grid":{"size":2,"cells":[[null,null],[null,null]]},"score":-1}`)); !errors.Is(err, ErrCorruptState) {
		t.Errorf("negative score error = %v, want ErrCorruptState", err)
	}
}

func TestManagerSerializeRoundTrip(t *testing.T) {
	a := newTestManager(t, nil)
	for _, d := range []Direction{DirLeft, DirDown, DirLeft} {
		if _, err := a.PlayTurn(d); err != nil {
			t.Fatal(err)
		}
	}

	b := NewManager(nil, WithSeed(1))
	if err := b.Deserialize(a.Serialize()); err != nil {
		t.Fatal(err)
	}

	assertRows(t, b.Grid(), a.Grid().Values()...)
	if b.Score() != a.Score() || b.Over() != a.Over() {
		t.Error("round trip changed score or flags")
	}
}

func TestMemoryPersistenceIsolation(t *testing.T) {
	p := NewMemoryPersistence()
	st := stateOf(t, 0, []int{2, 0}, []int{0, 0})
	if err := p.SaveGameState(st); err != nil {
		t.Fatal(err)
	}

	st.Grid.Cells[0][0].Value = 1024
	loaded, _ := p.LoadGameState()
	if loaded.Grid.Cells[0][0].Value != 2 {
		t.Error("stored state aliases caller data")
	}

	if err := p.SetBestScore(10); err != nil {
		t.Fatal(err)
	}
	if err := p.SetBestScore(5); err != nil {
		t.Fatal(err)
	}
	if best, _ := p.BestScore(); best != 10 {
		t.Errorf("best = %d, SetBestScore must only raise", best)
	}

	if err := p.ClearGameState(); err != nil {
		t.Fatal(err)
	}
	if loaded, _ := p.LoadGameState(); loaded != nil {
		t.Error("cleared state should load as nil")
	}
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	seeds, turns := 300, 2000
	if testing.Short() {
		seeds = 20
	}
	rules := Rules{Size: 4, StartTiles: 2, WinValue: 64, Spawn4Prob: 0.1}

	for seed := int64(1); seed <= int64(seeds); seed++ {
		m := NewManager(nil, WithRules(rules), WithSeed(seed))
		pick := rand.New(rand.NewSource(seed * 7919))

		for turn := 0; turn < turns && !m.Over(); turn++ {
			if m.Won() && !m.Continuing() {
				m.KeepPlaying()
			}
			before := m.Serialize()
			dir := Directions[pick.Intn(len(Directions))]

			res, err := m.PlayTurn(dir)
			if err != nil {
				t.Fatalf("seed %d turn %d: %v", seed, turn, err)
			}
			after := m.Serialize()

			if after.Score < before.Score {
				t.Fatalf("seed %d turn %d: score fell from %d to %d", seed, turn, before.Score, after.Score)
			}
			if !res.Moved && !reflect.DeepEqual(before, after) {
				t.Fatalf("seed %d turn %d: %v did not move but changed the game", seed, turn, dir)
			}
			if m.Over() && m.MovesAvailable() {
				t.Fatalf("seed %d turn %d: over with moves left", seed, turn)
			}
			checkGridConsistent(t, m.Grid())

			replay := NewManager(nil, WithRules(rules), WithSeed(seed))
			if err := replay.Deserialize(after); err != nil {
				t.Fatalf("seed %d turn %d: restore: %v", seed, turn, err)
			}
			if !reflect.DeepEqual(replay.Serialize(), after) {
				t.Fatalf("seed %d turn %d: restored game differs", seed, turn)
			}
		}
	}
}

// checkGridConsistent fails unless every tile is a power of two sitting in
// the cell its position names.
func checkGridConsistent(t *testing.T, g *Grid) {
	t.Helper()
	for x := 0; x < g.Size(); x++ {
		for y := 0; y < g.Size(); y++ {
			tile := g.CellContent(Position{X: x, Y: y})
			if tile == nil {
				continue
			}
			if tile.Value < 2 || tile.Value&(tile.Value-1) != 0 {
				t.Fatalf("tile at (%d,%d) has value %d", x, y, tile.Value)
			}
			if tile.Position != (Position{X: x, Y: y}) {
				t.Fatalf("tile in cell (%d,%d) claims position %v", x, y, tile.Position)
			}
		}
	}
}
