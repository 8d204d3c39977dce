// Package nakama adapts the table engine to the Nakama server runtime: an
// authoritative match handler per table, matchmaking RPCs, and JSON wire
// payloads.
package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	// Registers the shipped variants with the table registry.
	_ "tricktable/internal/variant/hearts"
	_ "tricktable/internal/variant/ninetynine"
)

// InitModule wires RPCs and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTrickTable, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	logger.Info("Trick table Go module loaded.")
	return nil
}
