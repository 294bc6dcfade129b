package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/registry"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// SSHSlotPrefix namespaces SSH games in the shared backend. Each user gets
// one slot per board variant.
const SSHSlotPrefix = "ssh:"

// ScoreStore is the score history used by the menu, the scoreboard and
// the game loop. *storage.Store implements it.
type ScoreStore interface {
	ScoreRecorder
	HighScorer
	ScoreReader
}

// SSHServer wraps a Wish SSH server for remote play.
type SSHServer struct {
	config   config.SSHConfig
	tickRate int
	server   *ssh.Server
	backend  storage.Backend
	scores   ScoreStore
	slots    *SlotGuard
	logger   *log.Logger
}

// NewSSHServer creates a new SSH server. Games are saved in backend and
// finished scores recorded in scores; either may be nil.
func NewSSHServer(cfg config.SSHConfig, backend storage.Backend, scores ScoreStore, tickRate int, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	srv := &SSHServer{
		config:   cfg,
		tickRate: tickRate,
		backend:  backend,
		scores:   scores,
		slots:    NewSlotGuard(),
		logger:   logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKey
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".t2048", "host_key")
	}
	hostKeyPath, err := config.ExpandHome(hostKeyPath)
	if err != nil {
		return nil, err
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.tickRate,
		Seed:     time.Now().UnixNano(),
	}

	owner := sshSession.Context().SessionID()
	model := NewSessionModel(s.scores, s.backend, cfg, sshSession.User(), s.logger).
		GuardSlots(s.slots, owner)
	go func() {
		<-sshSession.Context().Done()
		s.slots.ReleaseOwner(owner)
	}()

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionModel manages one remote player's flow: menu -> game or
// scoreboard -> menu.
type SessionModel struct {
	scores     ScoreStore
	backend    storage.Backend
	config     core.RuntimeConfig
	username   string
	logger     *log.Logger
	menu       MenuModel
	scoreboard *ScoreboardModel
	game       *Model
	quitting   bool

	slots  *SlotGuard
	owner  string
	slot   string
	notice string
}

// NewSessionModel creates a new session model.
func NewSessionModel(scores ScoreStore, backend storage.Backend, cfg core.RuntimeConfig, username string, logger *log.Logger) SessionModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return SessionModel{
		scores:   scores,
		backend:  backend,
		config:   cfg,
		username: username,
		logger:   logger.With("user", username),
		menu:     NewMenuModel(scores, cfg),
	}
}

// GuardSlots makes the session claim each save slot from guard before
// playing it, so owner cannot share a board with another connection.
func (m SessionModel) GuardSlots(guard *SlotGuard, owner string) SessionModel {
	m.slots = guard
	m.owner = owner
	return m
}

func (m *SessionModel) releaseSlot() {
	if m.slots != nil && m.slot != "" {
		m.slots.Release(m.slot, m.owner)
	}
	m.slot = ""
}

// SlotFor returns the save slot of a user's board variant.
func SlotFor(username, gameID string) string {
	return SSHSlotPrefix + username + ":" + gameID
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch {
	case m.game != nil:
		return m.updateGame(msg)
	case m.scoreboard != nil:
		return m.updateScoreboard(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode. The menu quits its own
// program on selection, so those commands are replaced here.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsScoreboard() {
		m.notice = ""
		sb := NewScoreboardModel(m.scores, m.config.ScreenW, m.config.ScreenH)
		m.scoreboard = &sb
		return m, sb.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		game, err := registry.Create(selected.GameID)
		if err != nil {
			// Shouldn't happen since menu only shows registered games
			m.menu = NewMenuModel(m.scores, m.config)
			return m, nil
		}

		slot := SlotFor(m.username, game.ID())
		if m.slots != nil && !m.slots.Acquire(slot, m.owner) {
			m.logger.Info("board already open elsewhere", "game", game.ID())
			m.notice = fmt.Sprintf("%s is already open in another session.", selected.Title)
			m.menu = NewMenuModel(m.scores, m.config)
			return m, nil
		}
		m.slot = slot
		m.notice = ""

		if tg, ok := game.(*t2048.Game); ok {
			if m.backend != nil {
				tg.UsePersistence(storage.SlotOf(m.backend, slot))
			}
			tg.UseLogger(m.logger)
		}

		m.config.Seed = time.Now().UnixNano()
		gm := NewModel(game, m.scores, m.config)
		gm.embedded = true
		m.game = &gm
		m.logger.Debug("game started", "game", game.ID())

		return m, m.game.Init()
	}

	return m, cmd
}

// updateGame handles updates when in game mode.
func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.game.Update(msg)
	if gameModel, ok := newModel.(Model); ok {
		m.game = &gameModel
	}

	if m.game.IsQuitting() {
		m.releaseSlot()
		m.quitting = true
		return m, tea.Quit
	}

	if m.game.BackToMenu() {
		m.releaseSlot()
		m.game = nil
		m.menu = NewMenuModel(m.scores, m.config)
		return m, m.menu.Init()
	}

	return m, cmd
}

// updateScoreboard handles updates when the scoreboard is shown.
func (m SessionModel) updateScoreboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.scoreboard.Update(msg)
	if sb, ok := newModel.(ScoreboardModel); ok {
		m.scoreboard = &sb
	}

	if m.scoreboard.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.scoreboard.IsGoingBack() {
		m.scoreboard = nil
		m.menu = NewMenuModel(m.scores, m.config)
		return m, m.menu.Init()
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch {
	case m.game != nil:
		return m.game.View()
	case m.scoreboard != nil:
		return m.scoreboard.View()
	}
	if m.notice != "" {
		return m.menu.View() + "\n" + centerText(menuHintStyle.Render(m.notice), m.config.ScreenW) + "\n"
	}
	return m.menu.View()
}

// InGame reports whether a board is being played.
func (m SessionModel) InGame() bool {
	return m.game != nil
}
