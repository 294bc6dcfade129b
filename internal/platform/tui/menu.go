package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

// HighScorer looks up the best finished score of a board variant.
// *storage.Store implements it.
type HighScorer interface {
	HighScore(gameID string) (int, error)
}

// MenuItem is one board in the picker.
type MenuItem struct {
	GameID    string
	Title     string
	HighScore int
}

var (
	menuLogoStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("172")).Padding(0, 2)
	menuCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	menuHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// MenuModel is the board picker.
type MenuModel struct {
	items     []MenuItem
	cursor    int
	config    core.RuntimeConfig
	keyMapper *KeyMapper

	selected       *MenuItem
	openScoreboard bool
	quitting       bool
}

// NewMenuModel lists every registered board. scores may be nil.
func NewMenuModel(scores HighScorer, cfg core.RuntimeConfig) MenuModel {
	var items []MenuItem
	for _, g := range registry.List() {
		item := MenuItem{GameID: g.ID, Title: g.Title}
		if scores != nil {
			if hs, err := scores.HighScore(g.ID); err == nil {
				item.HighScore = hs
			}
		}
		items = append(items, item)
	}
	return MenuModel{items: items, config: cfg, keyMapper: NewKeyMapper()}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
	}
	return m, nil
}

func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// 1-9 pick a board directly.
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if i := int(s[0] - '1'); i < len(m.items) {
			m.cursor = i
			return m.choose()
		}
		return m, nil
	}

	n := len(m.items)
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case MenuActionDown:
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case MenuActionSelect:
		return m.choose()
	case MenuActionScoreboard:
		m.openScoreboard = true
		return m, tea.Quit
	}
	return m, nil
}

func (m MenuModel) choose() (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, nil
	}
	item := m.items[m.cursor]
	m.selected = &item
	return m, tea.Quit
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}
	w := m.config.ScreenW

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(menuLogoStyle.Render("2 0 4 8"), w))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a board", w))
	b.WriteString("\n\n")

	for i, item := range m.items {
		line := fmt.Sprintf("%d  %-12s", i+1, item.Title)
		if item.HighScore > 0 {
			line += fmt.Sprintf("  best %d", item.HighScore)
		}
		if i == m.cursor {
			line = menuCursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(centerText(line, w))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(menuHintStyle.Render("↑/↓ move  enter/1-9 play  tab scores  q quit"), w))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen board, or nil.
func (m MenuModel) Selected() *MenuItem { return m.selected }

func (m MenuModel) IsQuitting() bool { return m.quitting }

func (m MenuModel) WantsScoreboard() bool { return m.openScoreboard }

// Config returns the runtime config, resized to the last window size.
func (m MenuModel) Config() core.RuntimeConfig { return m.config }

// centerText pads text to sit in the middle of width columns.
func centerText(text string, width int) string {
	tw := lipgloss.Width(text)
	if tw >= width {
		return text
	}
	return strings.Repeat(" ", (width-tw)/2) + text
}

// MenuResult is what the player chose in the menu.
type MenuResult struct {
	GameID          string
	Config          core.RuntimeConfig
	WantsScoreboard bool
	Quit            bool
}

// RunMenu shows the board picker until the player chooses something.
func RunMenu(scores HighScorer, cfg core.RuntimeConfig) (MenuResult, error) {
	p := tea.NewProgram(NewMenuModel(scores, cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return MenuResult{Config: cfg}, err
	}

	m, ok := final.(MenuModel)
	if !ok {
		return MenuResult{Config: cfg, Quit: true}, nil
	}

	res := MenuResult{Config: m.Config()}
	switch {
	case m.WantsScoreboard():
		res.WantsScoreboard = true
	case m.Selected() != nil:
		res.GameID = m.Selected().GameID
	default:
		res.Quit = true
	}
	return res, nil
}
