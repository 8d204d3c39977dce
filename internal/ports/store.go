package ports

import (
	"context"

	"tricktable/internal/domain"
)

// RoundResult records one scored round for the match history ledger.
type RoundResult struct {
	TableID  string
	Round    int
	Points   map[string]int
	Totals   map[string]int
	WinnerID string // winner of the whole game; empty until game over
}

// SnapshotStore defines the interface for persisting table state across
// server restarts and disconnects.
type SnapshotStore interface {
	// SaveSnapshot upserts the current game state for a table.
	SaveSnapshot(ctx context.Context, tableID string, state *domain.GameState) error

	// LoadSnapshot retrieves a table's last saved state, or ErrSnapshotNotFound.
	LoadSnapshot(ctx context.Context, tableID string) (*domain.GameState, error)

	// DeleteSnapshot removes a finished or abandoned table.
	DeleteSnapshot(ctx context.Context, tableID string) error

	// RecordRoundResult appends a scored round to the history ledger.
	RecordRoundResult(ctx context.Context, res RoundResult) error

	Close() error
}
