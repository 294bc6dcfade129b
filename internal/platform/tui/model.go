package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

// ScoreRecorder stores finished games. *storage.Store implements it.
type ScoreRecorder interface {
	SaveScore(gameID string, score, maxTile int) (int64, error)
}

// Model is the Bubble Tea model for running a game.
type Model struct {
	game       registry.Game
	screen     *core.Screen
	scores     ScoreRecorder
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	gameState  core.GameState
	embedded   bool // Running inside SessionModel; Back returns to its menu
	quitting   bool
	backToMenu bool
	scoreSaved bool // Whether score has been saved for current game over
}

// NewModel creates a new Bubble Tea model for the given game.
// scores may be nil.
func NewModel(game registry.Game, scores ScoreRecorder, cfg core.RuntimeConfig) Model {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return Model{
		game:       game,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		scores:     scores,
		config:     cfg,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
	}
}

// Init initializes the model and starts the game.
func (m Model) Init() tea.Cmd {
	m.game.Reset(m.config)
	// Note: gameState will be set on first tick (value receiver limitation)

	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	switch {
	case isQuit:
		m.quitting = true
		return m, tea.Quit
	case action == core.ActionBack:
		m.backToMenu = true
		if !m.embedded {
			return m, tea.Quit
		}
		return m, nil
	case action != core.ActionNone:
		m.inputFrame.Set(action)
	}

	return m, nil
}

// handleResize processes window resize events. The board is kept.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config.ScreenW = msg.Width
	m.config.ScreenH = msg.Height
	m.screen.Resize(msg.Width, msg.Height)

	if r, ok := m.game.(registry.Resizer); ok {
		r.Resize(msg.Width, msg.Height)
	}

	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	result := m.game.Step(m.inputFrame)
	m.gameState = result.State

	// Record the finished game once; a restart arms the next one.
	if !m.gameState.GameOver {
		m.scoreSaved = false
	} else if !m.scoreSaved {
		if m.scores != nil && m.gameState.Score > 0 {
			//nolint:errcheck // Best-effort save, game continues regardless
			m.scores.SaveScore(m.game.ID(), m.gameState.Score, m.gameState.MaxTile)
		}
		m.scoreSaved = true
	}

	m.inputFrame.Clear()
	return m, tickCmd(m.config.TickRate)
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.game.Render(m.screen)

	dir := filepath.Join(os.Getenv("HOME"), ".t2048", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.txt", m.game.ID(), timestamp)
	path := filepath.Join(dir, filename)

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.game.Render(m.screen)
	return RenderScreen(m.screen)
}

// State returns the game state as of the last tick.
func (m Model) State() core.GameState {
	return m.gameState
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program with the given model.
func Run(game registry.Game, scores ScoreRecorder, cfg core.RuntimeConfig) error {
	model := NewModel(game, scores, cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
