package storage

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

// DefaultSlot is the save slot used by local play when none is given.
const DefaultSlot = "default"

// Backend holds any number of saved games, keyed by slot, and one best
// score shared by all of them.
//
// LoadState returns (nil, nil) for an empty slot and wraps
// t2048.ErrCorruptState when stored data cannot be decoded.
// SetBestScore only ever raises the stored value.
type Backend interface {
	LoadState(slot string) (*t2048.GameState, error)
	SaveState(slot string, st t2048.GameState) error
	ClearState(slot string) error
	BestScore() (int, error)
	SetBestScore(score int) error
	Close() error
}

// slot narrows a Backend to a single game's Persistence.
type slot struct {
	b   Backend
	key string
}

// SlotOf returns the Persistence for one slot of b.
func SlotOf(b Backend, key string) t2048.Persistence {
	if key == "" {
		key = DefaultSlot
	}
	return slot{b: b, key: key}
}

func (s slot) LoadGameState() (*t2048.GameState, error) { return s.b.LoadState(s.key) }

func (s slot) SaveGameState(st t2048.GameState) error { return s.b.SaveState(s.key, st) }

func (s slot) ClearGameState() error { return s.b.ClearState(s.key) }

func (s slot) BestScore() (int, error) { return s.b.BestScore() }

func (s slot) SetBestScore(score int) error { return s.b.SetBestScore(score) }

// OpenBackend opens the backend selected by cfg. When it cannot be opened
// the error is logged and an in-memory backend is returned, so callers can
// always play.
func OpenBackend(cfg config.StorageConfig, logger *log.Logger) Backend {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	b, err := openBackend(cfg, logger)
	if err != nil {
		logger.Warn("storage unavailable, keeping games in memory", "backend", cfg.Backend, "err", err)
		return NewMemoryBackend()
	}
	logger.Debug("storage opened", "backend", cfg.Backend)
	return b
}

func openBackend(cfg config.StorageConfig, logger *log.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return OpenFile(cfg.FilePath, logger)
	case config.BackendSQLite:
		return Open(cfg.DBPath)
	case config.BackendRedis:
		return OpenRedis(cfg.Redis)
	default:
		return NewMemoryBackend(), nil
	}
}
