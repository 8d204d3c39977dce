// Package variant defines the closed capability set a game variant supplies
// to the engine, plus a registry keyed by variant id. Adding a game means
// implementing GameVariant and registering a factory; the engine itself never
// changes.
package variant

import (
	"math/rand"

	"tricktable/internal/domain"
)

// PlayerSeat pairs a player id with a display name at setup time.
type PlayerSeat struct {
	ID   string
	Name string
}

// Reducer applies one validated action to the state. The rng is only used by
// reducers that deal (DEAL_CARDS, START_NEXT_ROUND). A reducer either fully
// applies or returns an error having made no externally visible change; the
// engine guarantees atomicity by running reducers against a clone.
type Reducer func(s *domain.GameState, act domain.Action, rng *rand.Rand) *domain.GameError

// GameVariant is the strategy record for one rule set. Implementations are
// stateless across sessions; all game state lives in the GameState aggregate.
type GameVariant interface {
	// ID is the registry key, Name the display name.
	ID() string
	Name() string

	MinPlayers() int
	MaxPlayers() int
	Settings() domain.Settings

	// NewGame builds the initial aggregate for the given seats, in the
	// dealing phase of round one.
	NewGame(seats []PlayerSeat) (*domain.GameState, error)

	// ValidateAction checks turn order, phase legality, card ownership and
	// game-specific legality. A nil return means the action may be reduced.
	ValidateAction(s *domain.GameState, act domain.Action) *domain.GameError

	// Reducers maps action names to their reducers.
	Reducers() map[domain.ActionName]Reducer

	// AvailableActions lists the actions the player could legally dispatch
	// now; RequiredActions lists those the game is waiting on from them.
	AvailableActions(s *domain.GameState, playerID string) []domain.ActionName
	RequiredActions(s *domain.GameState, playerID string) []domain.ActionName

	// TrickWinner resolves the (complete) current trick to a seat index.
	TrickWinner(s *domain.GameState) int

	// Score computes the player's score for the round just ended. The engine
	// invokes it exactly once per player when entering the scoring phase.
	Score(s *domain.GameState, playerID string) int

	// IsGameOver reports whether the session has reached its win/loss
	// threshold or round cap; Winner names the winning player id.
	IsGameOver(s *domain.GameState) bool
	Winner(s *domain.GameState) string
}
