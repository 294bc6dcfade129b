package t2048

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptState is returned when persisted state cannot be turned back
// into a valid game.
var ErrCorruptState = errors.New("t2048: corrupt game state")

// CellState is the persisted form of an occupied cell.
type CellState struct {
	Position Position `json:"position"`
	Value    int      `json:"value"`
}

// GridState is the persisted form of a grid. Cells are indexed [x][y];
// empty cells are null.
type GridState struct {
	Size  int            `json:"size"`
	Cells [][]*CellState `json:"cells"`
}

// GameState is everything needed to resume a game except the best score,
// which outlives individual games and is stored separately.
type GameState struct {
	Grid        GridState `json:"grid"`
	Score       int       `json:"score"`
	Over        bool      `json:"over"`
	Won         bool      `json:"won"`
	KeepPlaying bool      `json:"keepPlaying"`
}

// Terminated mirrors Manager.IsTerminated for a serialized state.
func (s GameState) Terminated() bool {
	return s.Over || (s.Won && !s.KeepPlaying)
}

// MaxTile returns the highest tile value in the state.
func (s GameState) MaxTile() int {
	best := 0
	for _, col := range s.Grid.Cells {
		for _, c := range col {
			if c != nil && c.Value > best {
				best = c.Value
			}
		}
	}
	return best
}

// Validate checks that the state describes a well-formed grid.
func (s GameState) Validate() error {
	g := s.Grid
	if g.Size < MinSize || g.Size > MaxSize {
		return fmt.Errorf("%w: size %d out of range", ErrCorruptState, g.Size)
	}
	if len(g.Cells) != g.Size {
		return fmt.Errorf("%w: %d columns for size %d", ErrCorruptState, len(g.Cells), g.Size)
	}
	for x, col := range g.Cells {
		if len(col) != g.Size {
			return fmt.Errorf("%w: column %d has %d cells", ErrCorruptState, x, len(col))
		}
		for y, c := range col {
			if c == nil {
				continue
			}
			if c.Position != (Position{X: x, Y: y}) {
				return fmt.Errorf("%w: tile at (%d,%d) claims position %v", ErrCorruptState, x, y, c.Position)
			}
			if !isTileValue(c.Value) {
				return fmt.Errorf("%w: tile at (%d,%d) has value %d", ErrCorruptState, x, y, c.Value)
			}
		}
	}
	if s.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrCorruptState, s.Score)
	}
	return nil
}

// DecodeGameState parses and validates a persisted game state.
func DecodeGameState(data []byte) (*GameState, error) {
	var st GameState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}
