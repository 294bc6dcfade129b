package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

// fileDocument is the on-disk layout of a FileStore. States are kept raw so
// one unreadable slot does not take the others down with it.
type fileDocument struct {
	BestScore  int                        `json:"best_score"`
	GameStates map[string]json.RawMessage `json:"game_states"`
}

// FileStore keeps everything in a single JSON file, rewritten on every
// change.
type FileStore struct {
	mu   sync.Mutex
	path string
	doc  fileDocument
}

// OpenFile opens or creates the store at path. The file is written once on
// open so an unwritable location fails here rather than mid-game. A file
// that is not valid JSON is moved to path+".corrupt"; whatever could be
// read before the damage is kept.
func OpenFile(path string, logger *log.Logger) (*FileStore, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	path, err := config.ExpandHome(path)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory for %s: %w", path, err)
	}

	fs := &FileStore{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, &fs.doc); jerr != nil {
			fs.doc = salvageDocument(data)
			aside := path + ".corrupt"
			if rerr := os.Rename(path, aside); rerr != nil {
				return nil, fmt.Errorf("storage: cannot move corrupt %s aside: %w", path, rerr)
			}
			logger.Warn("store file is corrupt, kept what was readable",
				"path", path, "moved_to", aside, "err", jerr,
				"best_score", fs.doc.BestScore, "games", len(fs.doc.GameStates))
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("storage: cannot read %s: %w", path, err)
	}
	if fs.doc.GameStates == nil {
		fs.doc.GameStates = make(map[string]json.RawMessage)
	}

	if err := fs.flush(); err != nil {
		return nil, err
	}
	return fs, nil
}

// salvageDocument reads top-level fields of a damaged document one at a
// time and stops at the first one that cannot be decoded.
func salvageDocument(data []byte) fileDocument {
	var doc fileDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return doc
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return doc
		}
		key, _ := tok.(string)
		switch key {
		case "best_score":
			var best int
			if dec.Decode(&best) != nil {
				return doc
			}
			doc.BestScore = best
		case "game_states":
			var states map[string]json.RawMessage
			if dec.Decode(&states) != nil {
				return doc
			}
			doc.GameStates = states
		default:
			var skip json.RawMessage
			if dec.Decode(&skip) != nil {
				return doc
			}
		}
	}
	return doc
}

// Slot returns the Persistence for one saved game.
func (f *FileStore) Slot(key string) t2048.Persistence {
	return SlotOf(f, key)
}

func (f *FileStore) LoadState(slot string) (*t2048.GameState, error) {
	f.mu.Lock()
	raw, ok := f.doc.GameStates[slot]
	f.mu.Unlock()

	if !ok {
		return nil, nil
	}
	st, err := t2048.DecodeGameState(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: slot %q: %w", slot, err)
	}
	return st, nil
}

func (f *FileStore) SaveState(slot string, st t2048.GameState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("storage: cannot encode game: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.GameStates[slot] = data
	return f.flush()
}

func (f *FileStore) ClearState(slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doc.GameStates[slot]; !ok {
		return nil
	}
	delete(f.doc.GameStates, slot)
	return f.flush()
}

func (f *FileStore) BestScore() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.BestScore, nil
}

func (f *FileStore) SetBestScore(score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if score <= f.doc.BestScore {
		return nil
	}
	f.doc.BestScore = score
	return f.flush()
}

func (f *FileStore) Close() error { return nil }

// flush writes the document through a temp file and rename. Callers hold mu.
func (f *FileStore) flush() error {
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: cannot encode %s: %w", f.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".t2048-*.json")
	if err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: cannot write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: cannot write %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("storage: cannot replace %s: %w", f.path, err)
	}
	return nil
}
