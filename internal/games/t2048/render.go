package t2048

import (
	"fmt"
	"strconv"

	"github.com/vovakirdan/tui-2048/internal/core"
)

const (
	cellWidth    = 7 // including the left border
	cellHeight   = 2 // including the top border
	hudHeight    = 3
	footerHeight = 1
)

// boardExtent returns the drawn width and height of a size×size board.
func boardExtent(size int) (w, h int) {
	return size*cellWidth + 1, size*cellHeight + 1
}

// tileColors maps tile values to display colors. Values above the table
// wrap around to the cool end.
var tileColors = map[int]core.Color{
	2:    core.ColorWhite,
	4:    core.ColorBrightWhite,
	8:    core.ColorYellow,
	16:   core.ColorOrange,
	32:   core.ColorRed,
	64:   core.ColorBrightRed,
	128:  core.ColorMagenta,
	256:  core.ColorBrightMagenta,
	512:  core.ColorGreen,
	1024: core.ColorBrightGreen,
	2048: core.ColorBrightYellow,
}

var bigTileColors = []core.Color{core.ColorCyan, core.ColorBrightCyan, core.ColorBlue, core.ColorBrightBlue}

// TileColor returns the display color for a tile value.
func TileColor(value int) core.Color {
	if c, ok := tileColors[value]; ok {
		return c
	}
	if value < 2 {
		return core.ColorDefault
	}
	// 4096 is index 0
	n := 0
	for v := value >> 12; v > 1; v >>= 1 {
		n++
	}
	return bigTileColors[n%len(bigTileColors)]
}

// FormatTile renders a value in at most cellWidth-1 characters.
func FormatTile(value int) string {
	s := strconv.Itoa(value)
	if len(s) < cellWidth {
		return s
	}
	return strconv.Itoa(value>>10) + "k"
}

// Render draws the game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	if g.tooSmall {
		g.renderTooSmall(dst)
		return
	}
	if g.mgr == nil {
		return
	}

	size := g.mgr.Grid().Size()
	bw, bh := boardExtent(size)
	board := core.NewRect((g.screenW-bw)/2, hudHeight, bw, bh)

	g.renderHUD(dst, board)
	g.renderBoard(dst, board)
	g.renderFooter(dst, board)
	g.renderOverlays(dst, board)
}

func (g *Game) renderTooSmall(dst *core.Screen) {
	y := g.screenH / 2
	dst.DrawTextCentered(y, "Window too small")
	bw, bh := boardExtent(g.boardSize())
	dst.DrawTextCentered(y+1, fmt.Sprintf("Need %dx%d", bw+2, bh+hudHeight+footerHeight))
}

func (g *Game) renderHUD(dst *core.Screen, board core.Rect) {
	title := g.variant.Title
	dst.DrawTextColor(board.X+(board.W-len(title))/2, 0, title, core.ColorBrightYellow)

	dst.DrawText(board.X, 1, fmt.Sprintf("Score: %d", g.mgr.Score()))
	best := fmt.Sprintf("Best: %d", g.mgr.BestScore())
	dst.DrawText(core.Max(board.X, board.Right()-len(best)), 1, best)

	var status string
	switch {
	case g.mgr.Degraded():
		status = "Not saving: storage unavailable"
	case g.mgr.Continuing():
		status = fmt.Sprintf("Max: %d  Playing on", g.mgr.Grid().MaxTile())
	default:
		status = fmt.Sprintf("Max: %d  Goal: %d", g.mgr.Grid().MaxTile(), g.mgr.Rules().WinValue)
	}
	color := core.ColorGray
	if g.mgr.Degraded() {
		color = core.ColorRed
	}
	dst.DrawTextColor(board.X+core.Max(0, (board.W-len(status))/2), 2, status, color)
}

func (g *Game) renderBoard(dst *core.Screen, board core.Rect) {
	size := g.mgr.Grid().Size()

	dst.SetPen(core.ColorGray)
	for y := 0; y <= size; y++ {
		for x := 0; x <= size; x++ {
			px := board.X + x*cellWidth
			py := board.Y + y*cellHeight
			dst.Set(px, py, gridCorner(x, y, size))

			if x < size {
				for i := 1; i < cellWidth; i++ {
					dst.Set(px+i, py, '─')
				}
			}
			if y < size {
				for i := 1; i < cellHeight; i++ {
					dst.Set(px, py+i, '│')
				}
			}
		}
	}
	dst.SetPen(core.ColorDefault)

	g.mgr.Grid().EachTile(func(t *Tile) {
		text := FormatTile(t.Value)
		cx := board.X + t.Position.X*cellWidth + 1
		cy := board.Y + t.Position.Y*cellHeight + 1
		pad := (cellWidth - 1 - len(text)) / 2
		dst.DrawTextColor(cx+pad, cy, text, TileColor(t.Value))
	})
}

func gridCorner(x, y, size int) rune {
	switch {
	case y == 0 && x == 0:
		return '┌'
	case y == 0 && x == size:
		return '┐'
	case y == size && x == 0:
		return '└'
	case y == size && x == size:
		return '┘'
	case y == 0:
		return '┬'
	case y == size:
		return '┴'
	case x == 0:
		return '├'
	case x == size:
		return '┤'
	}
	return '┼'
}

func (g *Game) renderFooter(dst *core.Screen, board core.Rect) {
	hint := g.Controls()
	if len(hint) > g.screenW {
		hint = "Arrows: Move  Q: Quit"
	}
	dst.DrawTextColor(core.Max(0, (g.screenW-len(hint))/2), board.Bottom(), hint, core.ColorGray)
}

func (g *Game) renderOverlays(dst *core.Screen, board core.Rect) {
	switch g.phase() {
	case PhasePaused:
		drawOverlay(dst, board, core.ColorCyan, "PAUSED", "Press P to resume")
	case PhaseWon:
		drawOverlay(dst, board, core.ColorBrightYellow, "YOU WIN!",
			fmt.Sprintf("Score: %d", g.mgr.Score()), "C: keep going", "R: new game")
	case PhaseGameOver:
		drawOverlay(dst, board, core.ColorBrightRed, "GAME OVER",
			fmt.Sprintf("Max tile: %d", g.mgr.Grid().MaxTile()), "Press R to restart")
	}
}

// drawOverlay draws a boxed message centered on the board.
func drawOverlay(dst *core.Screen, board core.Rect, c core.Color, lines ...string) {
	width := 0
	for _, line := range lines {
		width = core.Max(width, len(line))
	}
	box := board.Centered(width+4, len(lines)+2)

	dst.DrawRect(box, ' ')
	dst.SetPen(c)
	dst.DrawBox(box)
	dst.SetPen(core.ColorDefault)

	cx, _ := box.Center()
	for i, line := range lines {
		col := core.ColorDefault
		if i == 0 {
			col = c
		}
		dst.DrawTextColor(cx-len(line)/2, box.Y+1+i, line, col)
	}
}

// Controls returns the control hints for the game.
func (g *Game) Controls() string {
	return "Arrows/WASD/hjkl: Move | C: Continue | P: Pause | R: Restart | Q: Quit"
}
