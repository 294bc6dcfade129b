package t2048

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDirection is returned for direction codes outside 0..3.
var ErrInvalidDirection = errors.New("t2048: invalid direction")

// Direction is a move direction. The numeric values are the wire encoding
// used by every transport.
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Directions lists all valid directions in wire order.
var Directions = [...]Direction{DirUp, DirRight, DirDown, DirLeft}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirLeft
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "invalid(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDirection accepts a wire code ("0".."3") or a name such as "left".
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Direction(n)
		if !d.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidDirection, n)
		}
		return d, nil
	}
	for _, d := range Directions {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Vector is a unit step on the grid.
type Vector struct {
	X, Y int
}

// Vector returns the unit step for d, or the zero vector for an invalid
// direction.
func (d Direction) Vector() Vector {
	switch d {
	case DirUp:
		return Vector{0, -1}
	case DirRight:
		return Vector{1, 0}
	case DirDown:
		return Vector{0, 1}
	case DirLeft:
		return Vector{-1, 0}
	default:
		return Vector{}
	}
}

// Traversals is the order in which cells are visited during a move.
type Traversals struct {
	X []int
	Y []int
}

// BuildTraversals orders both axes ascending, reversing an axis when the
// vector points toward its high end. Tiles nearest the destination edge are
// therefore processed first.
func BuildTraversals(size int, v Vector) Traversals {
	t := Traversals{X: make([]int, size), Y: make([]int, size)}
	for i := 0; i < size; i++ {
		t.X[i] = i
		t.Y[i] = i
	}
	if v.X == 1 {
		reverse(t.X)
	}
	if v.Y == 1 {
		reverse(t.Y)
	}
	return t
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// FindFarthestPosition walks from cell along v while the next cell is empty.
// next is the first blocked in-bounds cell beyond farthest, or nil at the edge.
func FindFarthestPosition(g *Grid, cell Position, v Vector) (farthest Position, next *Position) {
	farthest = cell
	for {
		step := farthest.Add(v)
		if !g.CellAvailable(step) {
			break
		}
		farthest = step
	}
	if beyond := farthest.Add(v); g.WithinBounds(beyond) {
		next = &beyond
	}
	return farthest, next
}

// PrepareTiles clears merge lineage and snapshots positions before a move.
func PrepareTiles(g *Grid) {
	g.EachTile(func(t *Tile) {
		t.MergedFrom = nil
		t.SavePosition()
	})
}

// MoveResult reports what a single move did to the grid.
type MoveResult struct {
	Moved      bool
	ScoreDelta int
	Merges     int
	// Won is set when a merge produced exactly the winning value.
	Won bool
}

// Move slides every tile in dir, merging equal pairs at most once per tile.
// An invalid direction returns ErrInvalidDirection and leaves g untouched.
func Move(g *Grid, dir Direction, winValue int) (MoveResult, error) {
	var res MoveResult
	if !dir.Valid() {
		return res, fmt.Errorf("%w: %d", ErrInvalidDirection, int(dir))
	}

	v := dir.Vector()
	trav := BuildTraversals(g.Size(), v)
	PrepareTiles(g)

	for _, x := range trav.X {
		for _, y := range trav.Y {
			cell := Position{X: x, Y: y}
			tile := g.CellContent(cell)
			if tile == nil {
				continue
			}

			farthest, next := FindFarthestPosition(g, cell, v)

			var occupant *Tile
			if next != nil {
				occupant = g.CellContent(*next)
			}

			if occupant != nil && occupant.Value == tile.Value && !occupant.Merged() {
				merged := NewTile(*next, tile.Value*2)
				merged.MergedFrom = &[2]TileID{tile.ID, occupant.ID}

				g.InsertTile(merged)
				g.RemoveTile(tile)
				tile.UpdatePosition(*next)

				res.ScoreDelta += merged.Value
				res.Merges++
				if merged.Value == winValue {
					res.Won = true
				}
			} else if farthest != cell {
				g.RemoveTile(tile)
				tile.UpdatePosition(farthest)
				g.InsertTile(tile)
			}

			if tile.Position != cell {
				res.Moved = true
			}
		}
	}

	return res, nil
}

// TileMatchesAvailable reports whether any tile has an equal orthogonal
// neighbour.
func TileMatchesAvailable(g *Grid) bool {
	found := false
	g.EachTile(func(t *Tile) {
		if found {
			return
		}
		for _, d := range Directions {
			if other := g.CellContent(t.Position.Add(d.Vector())); other != nil && other.Value == t.Value {
				found = true
				return
			}
		}
	})
	return found
}

// MovesAvailable reports whether any move can change the grid.
func MovesAvailable(g *Grid) bool {
	return g.CellsAvailable() || TileMatchesAvailable(g)
}
