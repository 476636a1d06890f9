// Package cache persists the last confirmed board per pipeline in a local
// SQLite database, so the user sees the last known board at startup when the
// API is unreachable.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aldema/pipeboard/internal/models"
)

// ErrNoSnapshot is returned by LoadBoard when the pipeline has never been
// cached.
var ErrNoSnapshot = errors.New("no cached board snapshot")

// Store is the snapshot cache. It satisfies the deal store's Snapshotter.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and runs the schema
// migration. An empty path defaults to ~/.pipeboard/cache.db.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".pipeboard", "cache.db")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring cache database: %w", err)
		}
	}

	// One writer connection keeps sqlite happy.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS board_snapshots (
			pipeline_id TEXT PRIMARY KEY,
			snapshot    TEXT NOT NULL,
			updated_at  DATETIME NOT NULL
		)
	`)
	return err
}

// boardDoc is the JSON shape of one cached board. The board's deal lists
// are keyed by stage id, ordered as displayed.
type boardDoc struct {
	Stages []*models.Stage           `json:"stages"`
	Deals  map[string][]*models.Deal `json:"deals"`
}

// SaveBoard upserts the pipeline's snapshot.
func (s *Store) SaveBoard(ctx context.Context, pipelineID string, board *models.Board) error {
	if pipelineID == "" || board == nil {
		return fmt.Errorf("nothing to cache")
	}
	doc := boardDoc{
		Stages: board.Stages,
		Deals:  make(map[string][]*models.Deal, len(board.Stages)),
	}
	for _, stage := range board.Stages {
		doc.Deals[stage.ID] = board.DealsForStage(stage.ID)
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding board snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_snapshots (pipeline_id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pipeline_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, pipelineID, string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing board snapshot: %w", err)
	}
	return nil
}

// LoadBoard returns the pipeline's cached board and when it was written.
// ErrNoSnapshot when nothing was ever cached for this pipeline.
func (s *Store) LoadBoard(ctx context.Context, pipelineID string) (*models.Board, time.Time, error) {
	var blob string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot, updated_at FROM board_snapshots WHERE pipeline_id = ?
	`, pipelineID).Scan(&blob, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading board snapshot: %w", err)
	}

	var doc boardDoc
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding board snapshot: %w", err)
	}
	return models.NewBoard(doc.Stages, doc.Deals), updatedAt, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
