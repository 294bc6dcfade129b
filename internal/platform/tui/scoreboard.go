package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/registry"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

const (
	scoreLimit      = 50
	statsPanelWidth = 24
	// Below this width the stats panel goes under the table.
	sideBySideWidth = 76
)

var (
	sbTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	sbMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sbActiveTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	sbInactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	sbPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

type scoreboardKeys struct {
	Scroll key.Binding
	Next   key.Binding
	Prev   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k scoreboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Scroll, k.Back, k.Quit}
}

func (k scoreboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newScoreboardKeys() scoreboardKeys {
	return scoreboardKeys{
		Scroll: key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "scroll")),
		Next:   key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/tab", "next board")),
		Prev:   key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev board")),
		Back:   key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ScoreReader is the score history the scoreboard shows.
// *storage.Store implements it.
type ScoreReader interface {
	TopScores(gameID string, limit int) ([]storage.ScoreEntry, error)
	GetGameStats(gameID string) (*storage.GameStats, error)
}

// ScoreboardModel shows finished games per board variant.
type ScoreboardModel struct {
	store  ScoreReader
	boards []registry.GameInfo
	board  int

	scores []storage.ScoreEntry
	stats  *storage.GameStats
	err    error

	table table.Model
	help  help.Model
	keys  scoreboardKeys

	width, height int
	goingBack     bool
	quitting      bool
}

// NewScoreboardModel creates the scoreboard on the first board. store may
// be nil, in which case every board is empty.
func NewScoreboardModel(store ScoreReader, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		store:  store,
		boards: registry.List(),
		help:   help.New(),
		keys:   newScoreboardKeys(),
		width:  width,
		height: height,
	}
	m.table = newScoreTable(m.tableWidth(), m.tableHeight())
	m.load()
	return m
}

func newScoreTable(width, height int) table.Model {
	dateW := width - 4 - 10 - 8 - 6
	if dateW < 12 {
		dateW = 12
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Score", Width: 10},
			{Title: "Tile", Width: 8},
			{Title: "Finished", Width: dateW},
		}),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m ScoreboardModel) sideBySide() bool {
	return m.width >= sideBySideWidth
}

func (m ScoreboardModel) tableWidth() int {
	w := m.width - 6
	if m.sideBySide() {
		w -= statsPanelWidth + 4
	}
	if w > 48 {
		w = 48
	}
	return w
}

func (m ScoreboardModel) tableHeight() int {
	h := m.height - 12
	if !m.sideBySide() {
		h -= 7
	}
	if h < 3 {
		h = 3
	}
	return h
}

// load fetches the current board's scores and stats.
func (m *ScoreboardModel) load() {
	m.scores, m.stats, m.err = nil, nil, nil
	if m.store != nil && len(m.boards) > 0 {
		id := m.boards[m.board].ID
		if m.scores, m.err = m.store.TopScores(id, scoreLimit); m.err == nil {
			m.stats, m.err = m.store.GetGameStats(id)
		}
	}

	rows := make([]table.Row, len(m.scores))
	for i, s := range m.scores {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", s.Score),
			fmt.Sprintf("%d", s.MaxTile),
			s.CreatedAt.Local().Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *ScoreboardModel) cycle(delta int) {
	if len(m.boards) == 0 {
		return
	}
	m.board = (m.board + delta + len(m.boards)) % len(m.boards)
	m.load()
}

func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.cycle(1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.cycle(-1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table = newScoreTable(m.tableWidth(), m.tableHeight())
		m.load()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(sbTitleStyle.Render("HIGH SCORES"), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.tabs(), m.width))
	b.WriteString("\n\n")

	scores := sbPanelStyle.Render(m.scoresView())
	stats := sbPanelStyle.Width(statsPanelWidth).Render(m.statsView())
	var body string
	if m.sideBySide() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, scores, "  ", stats)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, scores, stats)
	}
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, body))
	b.WriteString("\n\n")
	b.WriteString(sbMutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// tabs renders one tab per board, e.g. "4x4", falling back to "< 4x4 >"
// when they do not fit.
func (m ScoreboardModel) tabs() string {
	if len(m.boards) == 0 {
		return sbMutedStyle.Render("no boards")
	}
	parts := make([]string, len(m.boards))
	for i, g := range m.boards {
		style := sbInactiveTab
		if i == m.board {
			style = sbActiveTab
		}
		parts[i] = style.Render(boardLabel(g))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if lipgloss.Width(line) > m.width-2 {
		return "< " + sbActiveTab.Render(boardLabel(m.boards[m.board])) + " >"
	}
	return line
}

func boardLabel(g registry.GameInfo) string {
	if v, ok := config.LookupVariant(g.ID); ok {
		return fmt.Sprintf("%dx%d", v.Size, v.Size)
	}
	return g.Title
}

func (m ScoreboardModel) scoresView() string {
	switch {
	case m.store == nil:
		return sbMutedStyle.Italic(true).Padding(1, 2).Render("Score history is unavailable.")
	case m.err != nil:
		return sbMutedStyle.Italic(true).Padding(1, 2).Render("Could not load scores:\n" + m.err.Error())
	case len(m.scores) == 0:
		return sbMutedStyle.Italic(true).Padding(1, 2).Render("No finished games yet.\nPlay until the board fills up!")
	}
	return m.table.View()
}

func (m ScoreboardModel) statsView() string {
	var b strings.Builder
	b.WriteString(sbTitleStyle.Render("Stats"))
	b.WriteString("\n")
	if m.stats == nil || m.stats.GamesCount == 0 {
		b.WriteString(sbMutedStyle.Render("nothing recorded"))
		return b.String()
	}
	row := func(label string, value any) {
		fmt.Fprintf(&b, "%-10s %v\n", label, value)
	}
	row("Games", m.stats.GamesCount)
	row("Best", m.stats.HighScore)
	row("Best tile", m.stats.BestTile)
	row("Average", fmt.Sprintf("%.0f", m.stats.AvgScore))
	if !m.stats.LastPlayed.IsZero() {
		row("Last", m.stats.LastPlayed.Local().Format("Jan 02"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// IsGoingBack reports whether the player asked to return to the menu.
func (m ScoreboardModel) IsGoingBack() bool { return m.goingBack }

func (m ScoreboardModel) IsQuitting() bool { return m.quitting }

// RunScoreboard shows the scoreboard until the player leaves. goBack is
// true when they asked to return to the menu rather than quit.
func RunScoreboard(store ScoreReader, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(NewScoreboardModel(store, width, height), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ScoreboardModel)
	return ok && m.IsGoingBack(), nil
}
