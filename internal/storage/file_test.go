package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

func TestFileStore(t *testing.T) {
	fs, err := OpenFile(filepath.Join(t.TempDir(), "local_storage.json"), nil)
	require.NoError(t, err)

	exerciseBackend(t, fs)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local_storage.json")

	fs, err := OpenFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, fs.SaveState(DefaultSlot, sampleState(256)))
	require.NoError(t, fs.SetBestScore(1024))

	reopened, err := OpenFile(path, nil)
	require.NoError(t, err)

	st, err := reopened.LoadState(DefaultSlot)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 256, st.Score)

	best, err := reopened.BestScore()
	require.NoError(t, err)
	assert.Equal(t, 1024, best)
}

func TestFileStoreDocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_storage.json")
	fs, err := OpenFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, fs.SaveState("default", sampleState(12)))
	require.NoError(t, fs.SetBestScore(40))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `40`, string(doc["best_score"]))

	var states map[string]map[string]any
	require.NoError(t, json.Unmarshal(doc["game_states"], &states))
	assert.Contains(t, states["default"], "keepPlaying")
	assert.Contains(t, states["default"], "grid")
}

func TestFileStoreCorruptSlot(t *testing.T) {
	// Given: a file whose only slot holds an impossible board
	path := filepath.Join(t.TempDir(), "local_storage.json")
	body := `{"best_score": 64, "game_states": {"default": {"grid": {"size": 1, "cells": [[null]]}, "score": 0}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	// When
	fs, err := OpenFile(path, nil)
	require.NoError(t, err)
	_, err = fs.LoadState("default")

	// Then: the slot is reported corrupt and the best score is intact
	assert.True(t, errors.Is(err, t2048.ErrCorruptState))
	best, err := fs.BestScore()
	require.NoError(t, err)
	assert.Equal(t, 64, best)

	m := t2048.NewManager(fs.Slot("default"), t2048.WithSeed(1))
	assert.False(t, m.Degraded())
	assert.Equal(t, 64, m.BestScore())
}

func TestFileStoreGarbageFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_storage.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	fs, err := OpenFile(path, nil)
	require.NoError(t, err)

	st, err := fs.LoadState(DefaultSlot)
	require.NoError(t, err)
	assert.Nil(t, st)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	aside, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "not json", string(aside))
}

func TestFileStoreTruncatedFileKeepsReadableFields(t *testing.T) {
	// Given: a document damaged after its best score and saved games
	path := filepath.Join(t.TempDir(), "local_storage.json")
	state, err := json.Marshal(sampleState(48))
	require.NoError(t, err)
	body := `{"best_score": 5000, "game_states": {"a": ` + string(state) + `}} GARBAGE`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var logs bytes.Buffer
	fs, err := OpenFile(path, log.New(&logs))
	require.NoError(t, err)

	// Then: the best score and the slot survive, and the damage is reported
	best, err := fs.BestScore()
	require.NoError(t, err)
	assert.Equal(t, 5000, best)

	st, err := fs.LoadState("a")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 48, st.Score)

	assert.Contains(t, logs.String(), "corrupt")
	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)

	reopened, err := OpenFile(path, nil)
	require.NoError(t, err)
	best, err = reopened.BestScore()
	require.NoError(t, err)
	assert.Equal(t, 5000, best)
}

func TestFileStoreUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	// A regular file where the directory should be.
	_, err := OpenFile(filepath.Join(blocker, "local_storage.json"), nil)
	assert.Error(t, err)
}
