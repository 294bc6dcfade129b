package t2048

import "fmt"

// Position is a cell coordinate. X is the column and Y the row, with Y
// growing downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by v.
func (p Position) Add(v Vector) Position {
	return Position{X: p.X + v.X, Y: p.Y + v.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// TileID identifies a tile within one grid. IDs are never reused, so merge
// lineage can refer to tiles that are no longer on the board.
type TileID uint64

// Tile is a single numbered piece on the grid.
type Tile struct {
	ID       TileID
	Value    int
	Position Position

	// PreviousPosition is where the tile stood when the current turn began.
	PreviousPosition *Position

	// MergedFrom holds the two tiles that combined into this one during the
	// current turn. A tile with lineage cannot merge again in the same turn.
	MergedFrom *[2]TileID
}

// NewTile creates a tile. The value must be a power of two of at least 2.
func NewTile(pos Position, value int) *Tile {
	if !isTileValue(value) {
		panic(fmt.Sprintf("t2048: invalid tile value %d", value))
	}
	return &Tile{Value: value, Position: pos}
}

// SavePosition records the current position as the turn's starting point.
func (t *Tile) SavePosition() {
	p := t.Position
	t.PreviousPosition = &p
}

// UpdatePosition moves the tile's logical position.
func (t *Tile) UpdatePosition(pos Position) {
	t.Position = pos
}

// Merged reports whether the tile was produced by a merge this turn.
func (t *Tile) Merged() bool {
	return t.MergedFrom != nil
}

// State returns the persisted form of the tile.
func (t *Tile) State() CellState {
	return CellState{
		Position: t.Position,
		Value:    t.Value,
	}
}

// isTileValue reports whether v is a power of two >= 2.
func isTileValue(v int) bool {
	return v >= 2 && v&(v-1) == 0
}
