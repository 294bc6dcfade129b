package t2048

import (
	"fmt"
	"math/rand"
)

// Board size limits.
const (
	MinSize     = 2
	MaxSize     = 8
	DefaultSize = 4
)

// Grid is an N×N board. Cells are indexed [x][y].
type Grid struct {
	size   int
	cells  [][]*Tile
	nextID TileID
}

// NewGrid creates an empty grid.
func NewGrid(size int) *Grid {
	if size < MinSize || size > MaxSize {
		panic(fmt.Sprintf("t2048: grid size %d out of range", size))
	}
	cells := make([][]*Tile, size)
	for x := range cells {
		cells[x] = make([]*Tile, size)
	}
	return &Grid{size: size, cells: cells}
}

// GridFromState rebuilds a grid from its persisted form. Merge lineage and
// previous positions are not persisted and start out empty.
func GridFromState(st GridState) (*Grid, error) {
	if err := (GameState{Grid: st}).Validate(); err != nil {
		return nil, err
	}
	g := NewGrid(st.Size)
	for x, col := range st.Cells {
		for y, c := range col {
			if c != nil {
				g.InsertTile(NewTile(Position{X: x, Y: y}, c.Value))
			}
		}
	}
	return g, nil
}

// Size returns the grid dimension.
func (g *Grid) Size() int {
	return g.size
}

// WithinBounds reports whether both coordinates are in [0, size).
func (g *Grid) WithinBounds(p Position) bool {
	return p.X >= 0 && p.X < g.size && p.Y >= 0 && p.Y < g.size
}

// CellContent returns the tile at p, or nil if p is empty or out of bounds.
func (g *Grid) CellContent(p Position) *Tile {
	if !g.WithinBounds(p) {
		return nil
	}
	return g.cells[p.X][p.Y]
}

// CellAvailable reports whether p is in bounds and unoccupied.
func (g *Grid) CellAvailable(p Position) bool {
	return g.WithinBounds(p) && g.cells[p.X][p.Y] == nil
}

// CellsAvailable reports whether at least one cell is empty.
func (g *Grid) CellsAvailable() bool {
	for x := range g.cells {
		for y := range g.cells[x] {
			if g.cells[x][y] == nil {
				return true
			}
		}
	}
	return false
}

// AvailableCells lists the empty cells in x-major order.
func (g *Grid) AvailableCells() []Position {
	var out []Position
	for x := range g.cells {
		for y := range g.cells[x] {
			if g.cells[x][y] == nil {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}

// RandomAvailableCell picks an empty cell uniformly. ok is false when the
// grid is full.
func (g *Grid) RandomAvailableCell(rng *rand.Rand) (p Position, ok bool) {
	cells := g.AvailableCells()
	if len(cells) == 0 {
		return Position{}, false
	}
	return cells[rng.Intn(len(cells))], true
}

// EachTile calls fn for every tile in x-major order.
func (g *Grid) EachTile(fn func(t *Tile)) {
	for x := range g.cells {
		for y := range g.cells[x] {
			if t := g.cells[x][y]; t != nil {
				fn(t)
			}
		}
	}
}

// InsertTile places t at its position, replacing any occupant. Inserting
// outside the grid is a programming error and panics.
func (g *Grid) InsertTile(t *Tile) {
	if !g.WithinBounds(t.Position) {
		panic(fmt.Sprintf("t2048: insert at %v outside %dx%d grid", t.Position, g.size, g.size))
	}
	if t.ID == 0 {
		g.nextID++
		t.ID = g.nextID
	}
	g.cells[t.Position.X][t.Position.Y] = t
}

// RemoveTile clears the cell at t's position.
func (g *Grid) RemoveTile(t *Tile) {
	if !g.WithinBounds(t.Position) {
		panic(fmt.Sprintf("t2048: remove at %v outside %dx%d grid", t.Position, g.size, g.size))
	}
	g.cells[t.Position.X][t.Position.Y] = nil
}

// MaxTile returns the highest tile value on the grid.
func (g *Grid) MaxTile() int {
	best := 0
	g.EachTile(func(t *Tile) {
		if t.Value > best {
			best = t.Value
		}
	})
	return best
}

// Values returns tile values as rows ([y][x]), 0 for empty cells.
func (g *Grid) Values() [][]int {
	rows := make([][]int, g.size)
	for y := range rows {
		rows[y] = make([]int, g.size)
		for x := 0; x < g.size; x++ {
			if t := g.cells[x][y]; t != nil {
				rows[y][x] = t.Value
			}
		}
	}
	return rows
}

// Serialize returns the persisted form of the grid.
func (g *Grid) Serialize() GridState {
	cells := make([][]*CellState, g.size)
	for x := range cells {
		cells[x] = make([]*CellState, g.size)
		for y := range cells[x] {
			if t := g.cells[x][y]; t != nil {
				st := t.State()
				cells[x][y] = &st
			}
		}
	}
	return GridState{Size: g.size, Cells: cells}
}
