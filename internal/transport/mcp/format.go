package mcp

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/session"
)

func status(st t2048.GameState) string {
	switch {
	case st.Over:
		return "GAME OVER (use restart or new_game)"
	case st.Won && !st.KeepPlaying:
		return "YOU WIN! (use keep_playing or restart)"
	case st.Won:
		return "playing on after winning"
	default:
		return "playing"
	}
}

// formatUpdate renders the board as rows, top row first.
func formatUpdate(id session.ID, u session.Update) string {
	st := u.State
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", id)
	fmt.Fprintf(&b, "Score: %d | Best: %d | Max tile: %d\n", st.Score, u.BestScore, st.MaxTile())
	fmt.Fprintf(&b, "Status: %s\n\n", status(st))

	size := st.Grid.Size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cell := "."
			if x < len(st.Grid.Cells) && y < len(st.Grid.Cells[x]) {
				if c := st.Grid.Cells[x][y]; c != nil {
					cell = t2048.FormatTile(c.Value)
				}
			}
			fmt.Fprintf(&b, "%6s", cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMove(dir t2048.Direction, res t2048.MoveResult, terminated bool) string {
	switch {
	case terminated:
		return fmt.Sprintf("✗ Move %s ignored: the game has ended", dir)
	case !res.Moved:
		return fmt.Sprintf("✗ Nothing moved %s", dir)
	}

	out := fmt.Sprintf("✓ Moved %s", dir)
	if res.Merges > 0 {
		out += fmt.Sprintf(": %d merge(s), +%d points", res.Merges, res.ScoreDelta)
	}
	if res.Won {
		out += "\nReached the winning tile!"
	}
	return out
}
