// Package storage persists 2048 games: saved boards per slot, the best
// score, and the history of finished games. The SQLite store uses the
// pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/games/t2048"
)

// Store is the SQLite backend. Besides saved games it keeps a table of
// finished games for the scoreboard.
type Store struct {
	db *sql.DB
}

// ScoreEntry is one finished game.
type ScoreEntry struct {
	ID        int64
	GameID    string
	Score     int
	MaxTile   int
	CreatedAt time.Time
}

// SlotInfo describes a saved game.
type SlotInfo struct {
	Slot      string
	Score     int
	Size      int
	UpdatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := config.ExpandHome(dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer keeps SQLITE_BUSY away from concurrent sessions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_tile INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_game_id ON scores(game_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(game_id, score DESC);

		CREATE TABLE IF NOT EXISTS game_states (
			slot TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS best_scores (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			score INTEGER NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Slot returns the Persistence for one saved game.
func (s *Store) Slot(key string) t2048.Persistence {
	return SlotOf(s, key)
}

func (s *Store) LoadState(slot string) (*t2048.GameState, error) {
	var data string
	err := s.db.QueryRow("SELECT state FROM game_states WHERE slot = ?", slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load game %q: %w", slot, err)
	}

	st, err := t2048.DecodeGameState([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("storage: slot %q: %w", slot, err)
	}
	return st, nil
}

func (s *Store) SaveState(slot string, st t2048.GameState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("storage: cannot encode game: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO game_states (slot, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(slot) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		slot, string(data),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game %q: %w", slot, err)
	}
	return nil
}

func (s *Store) ClearState(slot string) error {
	if _, err := s.db.Exec("DELETE FROM game_states WHERE slot = ?", slot); err != nil {
		return fmt.Errorf("storage: cannot clear game %q: %w", slot, err)
	}
	return nil
}

// Slots lists saved games, most recently played first.
func (s *Store) Slots() ([]SlotInfo, error) {
	rows, err := s.db.Query(`SELECT slot, state, updated_at FROM game_states ORDER BY updated_at DESC, slot`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list games: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var (
			info    SlotInfo
			data    string
			updated any
		)
		if err := rows.Scan(&info.Slot, &data, &updated); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		info.UpdatedAt = parseTime(updated)
		if st, err := t2048.DecodeGameState([]byte(data)); err == nil {
			info.Score = st.Score
			info.Size = st.Grid.Size
		}
		out = append(out, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

func (s *Store) BestScore() (int, error) {
	var score int
	err := s.db.QueryRow("SELECT score FROM best_scores WHERE id = 1").Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best score: %w", err)
	}
	return score, nil
}

func (s *Store) SetBestScore(score int) error {
	_, err := s.db.Exec(
		`INSERT INTO best_scores (id, score) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET score = excluded.score WHERE excluded.score > best_scores.score`,
		score,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save best score: %w", err)
	}
	return nil
}

// ResetBestScore forgets the best score.
func (s *Store) ResetBestScore() error {
	if _, err := s.db.Exec("DELETE FROM best_scores"); err != nil {
		return fmt.Errorf("storage: cannot reset best score: %w", err)
	}
	return nil
}

// SaveScore records a finished game.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(gameID string, score, maxTile int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (game_id, score, max_tile) VALUES (?, ?, ?)",
		gameID, score, maxTile,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given game.
// Results are ordered by score descending.
func (s *Store) TopScores(gameID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, game_id, score, max_tile, created_at
		 FROM scores
		 WHERE game_id = ?
		 ORDER BY score DESC, id
		 LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	return scanScores(rows)
}

// AllScores retrieves all scores for the given game (no limit).
func (s *Store) AllScores(gameID string) ([]ScoreEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, game_id, score, max_tile, created_at
		 FROM scores
		 WHERE game_id = ?
		 ORDER BY score DESC, id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	return scanScores(rows)
}

func scanScores(rows *sql.Rows) ([]ScoreEntry, error) {
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.GameID, &e.Score, &e.MaxTile, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// HighScore returns the highest finished score for the given game.
// Returns 0 if no scores exist.
func (s *Store) HighScore(gameID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE game_id = ?",
		gameID,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given game.
func (s *Store) ClearScores(gameID string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE game_id = ?", gameID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// GameStats contains aggregated statistics for a game.
type GameStats struct {
	GameID     string
	GamesCount int
	HighScore  int
	BestTile   int
	AvgScore   float64
	TotalScore int64
	LastPlayed time.Time
}

// GetGameStats retrieves aggregated statistics for a specific game.
func (s *Store) GetGameStats(gameID string) (*GameStats, error) {
	stats := &GameStats{GameID: gameID}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(MAX(max_tile), 0),
		        COALESCE(AVG(score), 0), COALESCE(SUM(score), 0), MAX(created_at)
		 FROM scores WHERE game_id = ?`,
		gameID,
	).Scan(&stats.GamesCount, &stats.HighScore, &stats.BestTile, &stats.AvgScore, &stats.TotalScore, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get game stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// GetAllGamesStats retrieves statistics for every game that has been played.
func (s *Store) GetAllGamesStats() (map[string]*GameStats, error) {
	rows, err := s.db.Query(
		`SELECT game_id, COUNT(*), MAX(score), MAX(max_tile), AVG(score), SUM(score), MAX(created_at)
		 FROM scores
		 GROUP BY game_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all games stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*GameStats)
	for rows.Next() {
		var gs GameStats
		var lastPlayed any
		if err := rows.Scan(&gs.GameID, &gs.GamesCount, &gs.HighScore, &gs.BestTile, &gs.AvgScore, &gs.TotalScore, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		gs.LastPlayed = parseTime(lastPlayed)
		stats[gs.GameID] = &gs
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// parseTime handles the driver returning DATETIME as either time.Time or text.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
