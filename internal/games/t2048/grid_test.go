package t2048

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewGridBounds(t *testing.T) {
	for _, size := range []int{MinSize, DefaultSize, MaxSize} {
		g := NewGrid(size)
		if g.Size() != size {
			t.Errorf("Size() = %d, want %d", g.Size(), size)
		}
		if got := len(g.AvailableCells()); got != size*size {
			t.Errorf("size %d: %d available cells, want %d", size, got, size*size)
		}
	}

	mustPanic(t, "size 1", func() { NewGrid(1) })
	mustPanic(t, "size 9", func() { NewGrid(MaxSize + 1) })
}

func TestGridCellQueries(t *testing.T) {
	g := gridOf(t,
		[]int{2, 0},
		[]int{0, 4},
	)

	if tile := g.CellContent(Position{X: 0, Y: 0}); tile == nil || tile.Value != 2 {
		t.Errorf("CellContent(0,0) = %v, want tile 2", tile)
	}
	if tile := g.CellContent(Position{X: 1, Y: 1}); tile == nil || tile.Value != 4 {
		t.Errorf("CellContent(1,1) = %v, want tile 4", tile)
	}
	if g.CellContent(Position{X: -1, Y: 0}) != nil {
		t.Error("out-of-bounds CellContent should be nil")
	}
	if g.CellAvailable(Position{X: 2, Y: 0}) {
		t.Error("out-of-bounds cell must not be available")
	}
	if !g.CellAvailable(Position{X: 1, Y: 0}) {
		t.Error("empty cell (1,0) should be available")
	}

	want := []Position{{X: 0, Y: 1}, {X: 1, Y: 0}}
	got := g.AvailableCells()
	if len(got) != len(want) {
		t.Fatalf("AvailableCells = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AvailableCells[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGridRandomAvailableCell(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	g := gridOf(t,
		[]int{2, 2},
		[]int{2, 0},
	)
	for i := 0; i < 10; i++ {
		p, ok := g.RandomAvailableCell(rng)
		if !ok || p != (Position{X: 1, Y: 1}) {
			t.Fatalf("RandomAvailableCell = %v, %v; want (1,1), true", p, ok)
		}
	}

	g.InsertTile(NewTile(Position{X: 1, Y: 1}, 8))
	if _, ok := g.RandomAvailableCell(rng); ok {
		t.Error("full grid should have no available cell")
	}
	if g.CellsAvailable() {
		t.Error("CellsAvailable on full grid should be false")
	}
}

func TestGridInsertRemove(t *testing.T) {
	g := NewGrid(3)

	a := NewTile(Position{X: 0, Y: 0}, 2)
	b := NewTile(Position{X: 2, Y: 1}, 4)
	g.InsertTile(a)
	g.InsertTile(b)

	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Errorf("tile IDs should be distinct and non-zero, got %d and %d", a.ID, b.ID)
	}

	g.RemoveTile(a)
	if !g.CellAvailable(Position{X: 0, Y: 0}) {
		t.Error("removed cell should be available")
	}
	if countTiles(g) != 1 {
		t.Errorf("tile count = %d, want 1", countTiles(g))
	}

	mustPanic(t, "insert out of bounds", func() {
		g.InsertTile(NewTile(Position{X: 3, Y: 0}, 2))
	})
	mustPanic(t, "remove out of bounds", func() {
		g.RemoveTile(&Tile{Value: 2, Position: Position{X: 0, Y: -1}})
	})
}

func TestNewTileRejectsBadValues(t *testing.T) {
	for _, v := range []int{0, 1, 3, 6, -2} {
		mustPanic(t, "value", func() { NewTile(Position{}, v) })
	}
}

func TestGridValuesOrientation(t *testing.T) {
	g := NewGrid(3)
	g.InsertTile(NewTile(Position{X: 2, Y: 0}, 8))

	assertRows(t, g,
		[]int{0, 0, 8},
		[]int{0, 0, 0},
		[]int{0, 0, 0},
	)
	if g.MaxTile() != 8 {
		t.Errorf("MaxTile = %d, want 8", g.MaxTile())
	}
}

func TestGridSerializeRoundTrip(t *testing.T) {
	g := gridOf(t,
		[]int{2, 0, 0},
		[]int{0, 0, 16},
		[]int{4, 0, 0},
	)

	st := g.Serialize()
	if st.Size != 3 {
		t.Fatalf("Size = %d, want 3", st.Size)
	}
	// cells are indexed [x][y]
	if c := st.Cells[2][1]; c == nil || c.Value != 16 || c.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("Cells[2][1] = %+v, want 16 at [2 1]", c)
	}
	if st.Cells[1][1] != nil {
		t.Error("empty cell should serialize as nil")
	}

	back, err := GridFromState(st)
	if err != nil {
		t.Fatalf("GridFromState: %v", err)
	}
	assertRows(t, back, g.Values()...)
}

func TestGridFromStateRejectsCorruption(t *testing.T) {
	good := gridOf(t, []int{2, 0}, []int{0, 4}).Serialize()

	tests := []struct {
		name   string
		mutate func(*GridState)
	}{
		{"size out of range", func(s *GridState) { s.Size = 1 }},
		{"missing column", func(s *GridState) { s.Cells = s.Cells[:1] }},
		{"short column", func(s *GridState) { s.Cells[1] = s.Cells[1][:1] }},
		{"wrong position", func(s *GridState) { s.Cells[0][0].Position = Position{X: 1, Y: 1} }},
		{"odd value", func(s *GridState) { s.Cells[1][1].Value = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := cloneState(GameState{Grid: good}).Grid
			tt.mutate(&st)
			if _, err := GridFromState(st); !errors.Is(err, ErrCorruptState) {
				t.Errorf("GridFromState error = %v, want ErrCorruptState", err)
			}
		})
	}
}
