// Package store persists table snapshots and round results in sqlite so a
// table survives server restarts and players can rejoin mid-game.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tricktable/internal/domain"
	"tricktable/internal/ports"
)

// ErrSnapshotNotFound is returned when a table has no saved state.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS tables (
	id         TEXT PRIMARY KEY,
	variant    TEXT NOT NULL,
	phase      TEXT NOT NULL,
	state_json TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS round_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id    TEXT NOT NULL,
	round       INTEGER NOT NULL,
	points_json TEXT NOT NULL,
	totals_json TEXT NOT NULL,
	winner_id   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_results_table ON round_results(table_id);
`

// SQLiteStore implements ports.SnapshotStore on a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (and migrates) the sqlite database at path. Use ":memory:" for
// tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, tableID string, state *domain.GameState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tables (id, variant, phase, state_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			variant = excluded.variant,
			phase = excluded.phase,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		tableID, state.VariantID, string(state.Phase), string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", tableID, err)
	}
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, tableID string) (*domain.GameState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM tables WHERE id = ?`, tableID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", tableID, err)
	}

	var state domain.GameState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", tableID, err)
	}
	return &state, nil
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, tableID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, tableID); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", tableID, err)
	}
	return nil
}

func (s *SQLiteStore) RecordRoundResult(ctx context.Context, res ports.RoundResult) error {
	points, err := json.Marshal(res.Points)
	if err != nil {
		return fmt.Errorf("marshal round points: %w", err)
	}
	totals, err := json.Marshal(res.Totals)
	if err != nil {
		return fmt.Errorf("marshal round totals: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO round_results (table_id, round, points_json, totals_json, winner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		res.TableID, res.Round, string(points), string(totals), res.WinnerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record round result: %w", err)
	}
	return nil
}

// RoundResults returns the scored rounds for a table in play order.
func (s *SQLiteStore) RoundResults(ctx context.Context, tableID string) ([]ports.RoundResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, points_json, totals_json, winner_id
		FROM round_results WHERE table_id = ? ORDER BY id`, tableID)
	if err != nil {
		return nil, fmt.Errorf("list round results: %w", err)
	}
	defer rows.Close()

	var out []ports.RoundResult
	for rows.Next() {
		res := ports.RoundResult{TableID: tableID}
		var points, totals string
		if err := rows.Scan(&res.Round, &points, &totals, &res.WinnerID); err != nil {
			return nil, fmt.Errorf("scan round result: %w", err)
		}
		if err := json.Unmarshal([]byte(points), &res.Points); err != nil {
			return nil, fmt.Errorf("unmarshal round points: %w", err)
		}
		if err := json.Unmarshal([]byte(totals), &res.Totals); err != nil {
			return nil, fmt.Errorf("unmarshal round totals: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
