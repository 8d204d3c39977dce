package engine

import (
	"tricktable/internal/domain"
)

// Snapshot returns a deep copy of the aggregate for read-only consumers
// (rendering, persistence). Mutating it never affects the session.
func (s *Session) Snapshot() *domain.GameState {
	return s.state.Clone()
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	return s.state.Phase
}

// Round returns the current round number.
func (s *Session) Round() int {
	return s.state.Round
}

// CurrentPlayerID returns the player whose turn it is.
func (s *Session) CurrentPlayerID() string {
	if p := s.state.PlayerAt(s.state.CurrentSeat); p != nil {
		return p.ID
	}
	return ""
}

// PlayerHand projects a player's hand in hand order.
func (s *Session) PlayerHand(playerID string) []domain.Card {
	return handCards(s.state, playerID)
}

// TrickView projects the current trick slots, seat-indexed; empty slots are
// zero cards.
func (s *Session) TrickView() []domain.Card {
	return s.state.TrickCards()
}

// ScoreTable projects cumulative scores by player id.
func (s *Session) ScoreTable() map[string]int {
	return totals(s.state)
}

// LastError returns the advisory error recorded by the last failed action,
// or nil.
func (s *Session) LastError() *domain.GameError {
	return s.state.LastErr
}

// ClearError clears the advisory error slot; the UI calls this after
// surfacing the message.
func (s *Session) ClearError() {
	s.state.ClearError()
}

// AvailableActions lists the actions the player could legally dispatch now.
func (s *Session) AvailableActions(playerID string) []domain.ActionName {
	return s.variant.AvailableActions(s.state, playerID)
}

// RequiredActions lists the actions the game is waiting on from the player.
func (s *Session) RequiredActions(playerID string) []domain.ActionName {
	return s.variant.RequiredActions(s.state, playerID)
}

// IsValidAction reports whether the action would pass validation without
// dispatching it or touching the error slot.
func (s *Session) IsValidAction(act domain.Action) bool {
	if s.state.Phase == domain.PhaseGameOver {
		return false
	}
	return s.variant.ValidateAction(s.state, act) == nil
}
