package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-2048/internal/core"
)

// palette maps core.Color to ANSI 256-colour codes. The tile colours warm
// up from pale grey through orange to red, then to yellows and greens for
// the large values.
var palette = [...]string{
	core.ColorDefault:       "",
	core.ColorGray:          "245",
	core.ColorWhite:         "252",
	core.ColorBrightWhite:   "230",
	core.ColorYellow:        "215",
	core.ColorBrightYellow:  "220",
	core.ColorOrange:        "208",
	core.ColorRed:           "203",
	core.ColorBrightRed:     "196",
	core.ColorMagenta:       "170",
	core.ColorBrightMagenta: "213",
	core.ColorGreen:         "71",
	core.ColorBrightGreen:   "118",
	core.ColorCyan:          "37",
	core.ColorBrightCyan:    "51",
	core.ColorBlue:          "33",
	core.ColorBrightBlue:    "75",
}

// bold marks the colours used for high tiles and banners.
var bold = map[core.Color]bool{
	core.ColorBrightYellow:  true,
	core.ColorBrightRed:     true,
	core.ColorBrightMagenta: true,
	core.ColorBrightGreen:   true,
	core.ColorBrightCyan:    true,
	core.ColorBrightBlue:    true,
}

var colorStyles = buildStyles()

func buildStyles() map[core.Color]lipgloss.Style {
	styles := make(map[core.Color]lipgloss.Style, len(palette))
	for c, code := range palette {
		st := lipgloss.NewStyle()
		if code != "" {
			st = st.Foreground(lipgloss.Color(code))
		}
		if bold[core.Color(c)] {
			st = st.Bold(true)
		}
		styles[core.Color(c)] = st
	}
	return styles
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one styled run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			color := s.GetCell(x, y).Color

			var run strings.Builder
			for ; x < s.Width(); x++ {
				cell := s.GetCell(x, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
			}

			if color == core.ColorDefault {
				sb.WriteString(run.String())
				continue
			}
			style, ok := colorStyles[color]
			if !ok {
				sb.WriteString(run.String())
				continue
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
