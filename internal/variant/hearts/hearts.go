// Package hearts implements the Hearts rule set: four players, thirteen cards
// each, a rotating three-card pass before play, no trump, and penalty scoring
// where the lowest total wins.
package hearts

import (
	"math/rand"

	"tricktable/internal/domain"
	"tricktable/internal/variant"
)

// VariantID is the registry key.
const VariantID = "hearts"

const (
	playerCount = 4
	passCount   = 3

	heartPoints      = 1
	queenSpadePoints = 13
	moonPoints       = heartPoints*13 + queenSpadePoints
)

func init() {
	variant.Register(VariantID, New)
}

// New returns a fresh Hearts variant.
func New() variant.GameVariant {
	return &Hearts{}
}

// Hearts is stateless; all session state lives in the aggregate.
type Hearts struct{}

func (v *Hearts) ID() string      { return VariantID }
func (v *Hearts) Name() string    { return "Hearts" }
func (v *Hearts) MinPlayers() int { return playerCount }
func (v *Hearts) MaxPlayers() int { return playerCount }

func (v *Hearts) Settings() domain.Settings {
	return domain.Settings{
		CardsPerPlayer: 13,
		MaxTricks:      13,
		WinThreshold:   100,
		WinDirection:   domain.WinLowest,
	}
}

func (v *Hearts) NewGame(seats []variant.PlayerSeat) (*domain.GameState, error) {
	return variant.NewGameState(VariantID, seats, v.Settings()), nil
}

// passOffset returns the seat offset cards travel this round: left, right,
// across, then a hold round with no pass.
func passOffset(round int) int {
	switch (round - 1) % 4 {
	case 0:
		return 1
	case 1:
		return 3
	case 2:
		return 2
	default:
		return 0
	}
}

func (v *Hearts) ValidateAction(s *domain.GameState, act domain.Action) *domain.GameError {
	switch act.Name {
	case domain.ActionDealCards:
		return variant.RequirePhase(s, act, domain.PhaseDealing)

	case domain.ActionPassCards:
		if gerr := variant.RequirePhase(s, act, domain.PhasePassing); gerr != nil {
			return gerr
		}
		p, gerr := variant.RequirePlayer(s, act.PlayerID)
		if gerr != nil {
			return gerr
		}
		if len(p.BidCards) > 0 {
			return domain.NewValidationError("%s already selected a pass", act.PlayerID)
		}
		if len(act.CardIDs) != passCount {
			return domain.NewValidationError("pass must be exactly %d cards", passCount)
		}
		if hasDuplicates(act.CardIDs) {
			return domain.NewValidationError("pass repeats a card")
		}
		return variant.RequireInHand(p, act.CardIDs...)

	case domain.ActionPlayCard:
		return v.validatePlay(s, act)

	case domain.ActionStartNextRound:
		return variant.RequirePhase(s, act, domain.PhaseScoring)

	default:
		return domain.NewGameStateError("%s is not a Hearts action", act.Name)
	}
}

func (v *Hearts) validatePlay(s *domain.GameState, act domain.Action) *domain.GameError {
	if gerr := variant.RequirePhase(s, act, domain.PhasePlaying); gerr != nil {
		return gerr
	}
	p, gerr := variant.RequirePlayer(s, act.PlayerID)
	if gerr != nil {
		return gerr
	}
	if gerr := variant.RequireTurn(s, act.PlayerID); gerr != nil {
		return gerr
	}
	if gerr := variant.RequireInHand(p, act.CardID); gerr != nil {
		return gerr
	}
	c, _ := s.Card(act.CardID)

	if !s.TrickOpen() {
		if s.FirstTrick && !c.IsTwoOfClubs() {
			return domain.NewValidationError("first trick must open with the two of clubs")
		}
		if c.IsHearts() && !s.HeartsBroken && !s.HandOnlyHearts(act.PlayerID) {
			return domain.NewValidationError("hearts have not been broken")
		}
		return nil
	}

	if gerr := variant.RequireFollowSuit(s, act.PlayerID, act.CardID); gerr != nil {
		return gerr
	}
	if s.FirstTrick && (c.IsHearts() || c.IsQueenOfSpades()) && !handOnlyPenalty(s, act.PlayerID) {
		return domain.NewValidationError("no penalty cards on the first trick")
	}
	return nil
}

// handOnlyPenalty reports whether the player holds nothing but hearts and the
// queen of spades, in which case the first-trick restriction is waived.
func handOnlyPenalty(s *domain.GameState, playerID string) bool {
	p := s.Players[playerID]
	if p == nil || len(p.Hand) == 0 {
		return false
	}
	for _, id := range p.Hand {
		if c, ok := s.Card(id); ok && !c.IsHearts() && !c.IsQueenOfSpades() {
			return false
		}
	}
	return true
}

func (v *Hearts) Reducers() map[domain.ActionName]variant.Reducer {
	return map[domain.ActionName]variant.Reducer{
		domain.ActionDealCards: func(s *domain.GameState, _ domain.Action, rng *rand.Rand) *domain.GameError {
			return v.beginRound(s, rng)
		},

		domain.ActionPassCards: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			p := s.Players[act.PlayerID]
			for _, id := range act.CardIDs {
				if !p.RemoveFromHand(id) {
					return domain.NewValidationError("card %s is not in %s's hand", id, p.ID)
				}
				p.BidCards = append(p.BidCards, id)
			}
			if variant.AllBidsPlaced(s) {
				v.exchange(s)
				v.startPlaying(s)
			}
			return nil
		},

		domain.ActionPlayCard: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			if gerr := variant.ApplyPlayCard(s, act); gerr != nil {
				return gerr
			}
			if c, ok := s.Card(act.CardID); ok && c.IsHearts() {
				s.HeartsBroken = true
			}
			return nil
		},

		domain.ActionStartNextRound: func(s *domain.GameState, _ domain.Action, rng *rand.Rand) *domain.GameError {
			if v.IsGameOver(s) {
				s.Phase = domain.PhaseGameOver
				return nil
			}
			s.Round++
			return v.beginRound(s, rng)
		},
	}
}

// beginRound deals a fresh hand and opens the pass, or goes straight to play
// on hold rounds.
func (v *Hearts) beginRound(s *domain.GameState, rng *rand.Rand) *domain.GameError {
	if gerr := variant.DealRound(s, rng); gerr != nil {
		return gerr
	}
	if passOffset(s.Round) == 0 {
		v.startPlaying(s)
	} else {
		s.Phase = domain.PhasePassing
	}
	return nil
}

// exchange hands every staged pass to its receiver and clears the staging
// lists.
func (v *Hearts) exchange(s *domain.GameState) {
	offset := passOffset(s.Round)
	for seat, pid := range s.Seats {
		receiver := s.Players[s.Seats[(seat+offset)%len(s.Seats)]]
		receiver.Hand = append(receiver.Hand, s.Players[pid].BidCards...)
	}
	for _, pid := range s.Seats {
		s.Players[pid].BidCards = nil
	}
}

// startPlaying enters the playing phase with the two of clubs holder on lead.
func (v *Hearts) startPlaying(s *domain.GameState) {
	s.Phase = domain.PhasePlaying
	lead := v.twoOfClubsSeat(s)
	s.TrickLeader = lead
	s.CurrentSeat = lead
}

func (v *Hearts) twoOfClubsSeat(s *domain.GameState) int {
	for seat, pid := range s.Seats {
		for _, id := range s.Players[pid].Hand {
			if c, ok := s.Card(id); ok && c.IsTwoOfClubs() {
				return seat
			}
		}
	}
	return 0
}

func (v *Hearts) AvailableActions(s *domain.GameState, playerID string) []domain.ActionName {
	p, ok := s.Players[playerID]
	if !ok {
		return nil
	}
	switch s.Phase {
	case domain.PhaseDealing:
		return []domain.ActionName{domain.ActionDealCards}
	case domain.PhasePassing:
		if len(p.BidCards) == 0 {
			return []domain.ActionName{domain.ActionPassCards}
		}
	case domain.PhasePlaying:
		if s.SeatOf(playerID) == s.CurrentSeat {
			return []domain.ActionName{domain.ActionPlayCard}
		}
	case domain.PhaseScoring:
		return []domain.ActionName{domain.ActionStartNextRound}
	}
	return nil
}

func (v *Hearts) RequiredActions(s *domain.GameState, playerID string) []domain.ActionName {
	return v.AvailableActions(s, playerID)
}

func (v *Hearts) TrickWinner(s *domain.GameState) int {
	return domain.ResolveTrick(s.TrickCards(), s.TrickLeader, domain.SuitNone)
}

// Score sums the penalty points in the tricks the player captured this round,
// with the shoot-the-moon inversion: a player who took every penalty card
// scores zero and saddles everyone else with twenty-six.
func (v *Hearts) Score(s *domain.GameState, playerID string) int {
	raw := v.rawPoints(s, playerID)
	if raw == moonPoints {
		return 0
	}
	for _, pid := range s.Seats {
		if pid != playerID && v.rawPoints(s, pid) == moonPoints {
			return moonPoints
		}
	}
	return raw
}

func (v *Hearts) rawPoints(s *domain.GameState, playerID string) int {
	points := 0
	for _, h := range s.History {
		if h.Round != s.Round || h.WinnerID != playerID {
			continue
		}
		for _, id := range h.Slots {
			c, ok := s.Card(id)
			if !ok {
				continue
			}
			switch {
			case c.IsQueenOfSpades():
				points += queenSpadePoints
			case c.IsHearts():
				points += heartPoints
			}
		}
	}
	return points
}

func (v *Hearts) IsGameOver(s *domain.GameState) bool {
	return variant.AnyScoreAtThreshold(s)
}

func (v *Hearts) Winner(s *domain.GameState) string {
	return variant.WinnerByScore(s)
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
