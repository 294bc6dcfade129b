package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

type savedScore struct {
	gameID  string
	score   int
	maxTile int
}

// fakeScores records finished games in memory.
type fakeScores struct {
	saved []savedScore
	high  map[string]int
}

func (f *fakeScores) SaveScore(gameID string, score, maxTile int) (int64, error) {
	f.saved = append(f.saved, savedScore{gameID, score, maxTile})
	return int64(len(f.saved)), nil
}

func (f *fakeScores) HighScore(gameID string) (int, error) {
	return f.high[gameID], nil
}

func (f *fakeScores) TopScores(gameID string, limit int) ([]storage.ScoreEntry, error) {
	var out []storage.ScoreEntry
	for i, s := range f.saved {
		if s.gameID == gameID {
			out = append(out, storage.ScoreEntry{ID: int64(i + 1), GameID: gameID, Score: s.score, MaxTile: s.maxTile})
		}
	}
	return out, nil
}

func (f *fakeScores) GetGameStats(gameID string) (*storage.GameStats, error) {
	return &storage.GameStats{GameID: gameID}, nil
}

func testConfig() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 30, Seed: 7}
}

// deadGame returns the classic board resumed from a full board with no
// merges left.
func deadGame(t *testing.T) *t2048.Game {
	t.Helper()

	rows := [][]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	grid := t2048.NewGrid(4)
	for y, row := range rows {
		for x, v := range row {
			grid.InsertTile(t2048.NewTile(t2048.Position{X: x, Y: y}, v))
		}
	}

	mem := t2048.NewMemoryPersistence()
	if err := mem.SaveGameState(t2048.GameState{Grid: grid.Serialize(), Score: 100}); err != nil {
		t.Fatalf("SaveGameState: %v", err)
	}

	v, ok := config.LookupVariant("2048")
	if !ok {
		t.Fatal("classic variant not registered")
	}
	g := t2048.New(v)
	g.UsePersistence(mem)
	return g
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func tick(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, TickMsg(time.Now()))
	return m
}

func TestModelRecordsFinishedGameOnce(t *testing.T) {
	scores := &fakeScores{}
	m := NewModel(deadGame(t), scores, testConfig())
	m.Init()

	m = tick(t, m)
	if m.State().GameOver {
		t.Fatal("resumed game already over before any move")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = tick(t, m)
	if !m.State().GameOver {
		t.Fatal("game not over after a move on a dead board")
	}

	m = tick(t, m)
	m = tick(t, m)

	if len(scores.saved) != 1 {
		t.Fatalf("saved %d scores, want 1", len(scores.saved))
	}
	want := savedScore{"2048", 100, 4}
	if scores.saved[0] != want {
		t.Errorf("saved %+v, want %+v", scores.saved[0], want)
	}
}

func TestModelRestartArmsNextRecord(t *testing.T) {
	scores := &fakeScores{}
	m := NewModel(deadGame(t), scores, testConfig())
	m.Init()

	m, _ = update(t, m, runeKey('l'))
	m = tick(t, m)
	if !m.State().GameOver {
		t.Fatal("game not over")
	}

	m, _ = update(t, m, runeKey('r'))
	m = tick(t, m)
	if m.State().GameOver || m.State().Score != 0 {
		t.Fatalf("after restart state = %+v, want fresh game", m.State())
	}
	if m.scoreSaved {
		t.Error("scoreSaved still set after restart")
	}
}

func TestModelWithoutScores(t *testing.T) {
	m := NewModel(deadGame(t), nil, testConfig())
	m.Init()

	m, _ = update(t, m, runeKey('h'))
	m = tick(t, m)
	if !m.State().GameOver {
		t.Fatal("game not over")
	}
}

func TestModelResizeKeepsBoard(t *testing.T) {
	m := NewModel(deadGame(t), nil, testConfig())
	m.Init()
	m = tick(t, m)
	before := m.State().Score

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 5})
	m = tick(t, m)
	if !m.State().Paused {
		t.Error("tiny window did not pause the game")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = tick(t, m)
	if m.State().Paused {
		t.Error("game still paused after window grew")
	}
	if m.State().Score != before {
		t.Errorf("score = %d after resize, want %d", m.State().Score, before)
	}
}

func TestModelQuitAndBack(t *testing.T) {
	m := NewModel(deadGame(t), nil, testConfig())
	m.Init()

	quit, cmd := update(t, m, runeKey('q'))
	if !quit.IsQuitting() || cmd == nil {
		t.Error("q did not quit")
	}
	if quit.View() != "" {
		t.Error("View after quit is not empty")
	}

	back, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !back.BackToMenu() {
		t.Error("esc did not request the menu")
	}
	if cmd == nil {
		t.Error("standalone model did not quit on back")
	}

	m.embedded = true
	back, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !back.BackToMenu() || cmd != nil {
		t.Error("embedded model should request the menu without quitting")
	}
}

func TestModelView(t *testing.T) {
	m := NewModel(deadGame(t), nil, testConfig())
	m.Init()
	m = tick(t, m)

	if m.View() == "" {
		t.Error("View is empty")
	}
}
