package main

import (
	"os"

	"golang.org/x/term"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// localSlotPrefix namespaces games played from this terminal.
const localSlotPrefix = "local:"

func localSlot(variantID string) string {
	return localSlotPrefix + variantID
}

// stores are the open persistence handles of a command.
type stores struct {
	backend storage.Backend
	// scores is nil when the score database is unavailable.
	scores *storage.Store
	owned  bool // scores was opened separately from backend
}

// openStores opens the configured backend and the score history. Score
// history always lives in SQLite; when SQLite is also the backend the same
// handle serves both.
func openStores() *stores {
	s := &stores{backend: storage.OpenBackend(app.cfg.Storage, app.logger)}

	if st, ok := s.backend.(*storage.Store); ok {
		s.scores = st
		return s
	}

	st, err := storage.Open(app.cfg.Storage.DBPath)
	if err != nil {
		app.logger.Warn("score history unavailable", "err", err)
		return s
	}
	s.scores = st
	s.owned = true
	return s
}

// scoreStore returns the score history as the interface the TUI wants,
// or a nil interface when there is none.
func (s *stores) scoreStore() tui.ScoreStore {
	if s.scores == nil {
		return nil
	}
	return s.scores
}

// useForLocalGames makes registry-created boards save into this terminal's
// slots.
func (s *stores) useForLocalGames() {
	t2048.SetDefaults(t2048.Defaults{
		Config: app.rules,
		StoreFor: func(variantID string) t2048.Persistence {
			return storage.SlotOf(s.backend, localSlot(variantID))
		},
		Logger: app.logger,
	})
}

func (s *stores) Close() {
	if s.owned && s.scores != nil {
		s.scores.Close()
	}
	if err := s.backend.Close(); err != nil {
		app.logger.Warn("closing storage", "err", err)
	}
}

// runtimeConfig sizes the screen from the terminal.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	cfg.TickRate = flagFPS
	cfg.Seed = flagSeed
	return cfg
}

// variantOrDefault returns args[0] or the classic board.
func variantOrDefault(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.Variants()[0].ID
}
