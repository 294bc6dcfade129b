package t2048

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/registry"
)

// Defaults are the collaborators handed to games created through the
// registry. StoreFor may be nil, in which case games keep state in memory.
type Defaults struct {
	Config   config.T2048Config
	StoreFor func(variantID string) Persistence
	Logger   *log.Logger
}

var (
	defaultsMu sync.RWMutex
	defaults   = Defaults{Config: config.DefaultT2048Config()}
)

// SetDefaults replaces the collaborators used by registry-created games.
func SetDefaults(d Defaults) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = d
}

func currentDefaults() Defaults {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// Game adapts a Manager to the platform's fixed-tick game loop.
type Game struct {
	variant config.Variant
	cfg     config.T2048Config
	store   Persistence
	logger  *log.Logger

	mgr *Manager

	screenW  int
	screenH  int
	paused   bool
	tooSmall bool

	tick      uint64
	lastMove  *Direction
	lastMoved bool
}

func init() {
	for _, v := range config.Variants() {
		registry.Register(v.ID, func() registry.Game {
			return New(v)
		})
	}
}

// New creates a game for a board variant, picking up the registry defaults.
func New(v config.Variant) *Game {
	d := currentDefaults()
	cfg := d.Config
	config.ApplyVariant(&cfg, v)

	g := &Game{variant: v, cfg: cfg, logger: d.Logger}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	if d.StoreFor != nil {
		g.store = d.StoreFor(v.ID)
	}
	return g
}

// UsePersistence overrides where the game is saved. It must be called
// before the first Reset.
func (g *Game) UsePersistence(p Persistence) {
	g.store = p
}

// UseLogger overrides the game's logger.
func (g *Game) UseLogger(l *log.Logger) {
	g.logger = l
}

func (g *Game) ID() string { return g.variant.ID }

func (g *Game) Title() string { return g.variant.Title }

// Manager exposes the underlying game for tests and tooling.
func (g *Game) Manager() *Manager { return g.mgr }

// Reset starts the game on first use, resuming any saved board. Later
// calls start a new game.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.Resize(cfg.ScreenW, cfg.ScreenH)
	g.paused = false
	g.tick = 0

	if g.mgr != nil {
		g.mgr.Restart()
		return
	}

	opts := []Option{WithRules(RulesFromConfig(g.cfg))}
	if cfg.Seed != 0 {
		opts = append(opts, WithSeed(cfg.Seed))
	}
	opts = append(opts, WithLogger(g.logger.With("game", g.variant.ID)))
	g.mgr = NewManager(g.store, opts...)
	// A resumed board may be a different size than the variant's.
	g.Resize(g.screenW, g.screenH)
}

// Resize adapts to a new terminal size without touching the board.
func (g *Game) Resize(w, h int) {
	g.screenW = w
	g.screenH = h
	bw, bh := boardExtent(g.boardSize())
	g.tooSmall = w < bw+2 || h < bh+hudHeight+footerHeight
}

// boardSize is the size of the board in play, falling back to the
// variant's before the first Reset.
func (g *Game) boardSize() int {
	if g.mgr != nil {
		return g.mgr.Grid().Size()
	}
	return g.cfg.Board.Size
}

// Step applies at most one action per tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	g.tick++
	g.lastMoved = false
	g.lastMove = nil

	if g.tooSmall {
		return core.StepResult{State: g.State()}
	}

	if in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	switch {
	case in.Has(core.ActionRestart):
		g.mgr.Restart()
		return core.StepResult{State: g.State()}
	case in.Has(core.ActionContinue):
		if g.mgr.Won() && !g.mgr.Continuing() && !g.mgr.Over() {
			g.mgr.KeepPlaying()
		}
		return core.StepResult{State: g.State()}
	}

	dir, ok := directionFor(in)
	if !ok {
		return core.StepResult{State: g.State()}
	}

	res, err := g.mgr.PlayTurn(dir)
	if err != nil {
		g.logger.Error("move rejected", "dir", dir, "err", err)
		return core.StepResult{State: g.State()}
	}
	g.lastMove = &dir
	g.lastMoved = res.Moved

	return core.StepResult{State: g.State(), Moved: res.Moved}
}

func directionFor(in core.InputFrame) (Direction, bool) {
	switch {
	case in.Has(core.ActionUp):
		return DirUp, true
	case in.Has(core.ActionRight):
		return DirRight, true
	case in.Has(core.ActionDown):
		return DirDown, true
	case in.Has(core.ActionLeft):
		return DirLeft, true
	}
	return 0, false
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	if g.mgr == nil {
		return core.GameState{Paused: g.paused || g.tooSmall}
	}
	return core.GameState{
		Score:     g.mgr.Score(),
		BestScore: g.mgr.BestScore(),
		MaxTile:   g.mgr.Grid().MaxTile(),
		GameOver:  g.mgr.Over(),
		Won:       g.mgr.Won() && !g.mgr.Continuing(),
		Paused:    g.paused || g.tooSmall,
	}
}
