// Package ninetynine implements the Ninety-Nine rule set: three players,
// twelve cards each from a standard deck, a turnup fixing trump, a 1-3 card
// bid set aside before play, and nine tricks per round.
//
// Scoring is the documented baseline (ten per trick plus twenty for a placed
// bid). The traditional bid-accuracy settlement is deliberately absent.
package ninetynine

import (
	"math/rand"

	"tricktable/internal/domain"
	"tricktable/internal/variant"
)

// VariantID is the registry key.
const VariantID = "ninetynine"

const (
	playerCount = 3
	minBidCards = 1
	maxBidCards = 3
)

func init() {
	variant.Register(VariantID, New)
}

// New returns a fresh Ninety-Nine variant.
func New() variant.GameVariant {
	return &NinetyNine{}
}

// NinetyNine is stateless; all session state lives in the aggregate.
type NinetyNine struct{}

func (v *NinetyNine) ID() string      { return VariantID }
func (v *NinetyNine) Name() string    { return "Ninety-Nine" }
func (v *NinetyNine) MinPlayers() int { return playerCount }
func (v *NinetyNine) MaxPlayers() int { return playerCount }

func (v *NinetyNine) Settings() domain.Settings {
	return domain.Settings{
		CardsPerPlayer: 12,
		MaxTricks:      9,
		MaxRounds:      9,
		WinThreshold:   100,
		WinDirection:   domain.WinHighest,
		TrumpEnabled:   true,
		UseTurnup:      true,
	}
}

func (v *NinetyNine) NewGame(seats []variant.PlayerSeat) (*domain.GameState, error) {
	return variant.NewGameState(VariantID, seats, v.Settings()), nil
}

func (v *NinetyNine) ValidateAction(s *domain.GameState, act domain.Action) *domain.GameError {
	switch act.Name {
	case domain.ActionDealCards:
		return variant.RequirePhase(s, act, domain.PhaseDealing)

	case domain.ActionPlaceBid:
		if gerr := variant.RequirePhase(s, act, domain.PhaseBidding); gerr != nil {
			return gerr
		}
		p, gerr := variant.RequirePlayer(s, act.PlayerID)
		if gerr != nil {
			return gerr
		}
		if len(p.BidCards) > 0 {
			return domain.NewValidationError("%s already placed a bid", act.PlayerID)
		}
		if len(act.CardIDs) < minBidCards || len(act.CardIDs) > maxBidCards {
			return domain.NewValidationError("bid must be %d-%d cards", minBidCards, maxBidCards)
		}
		if hasDuplicates(act.CardIDs) {
			return domain.NewValidationError("bid repeats a card")
		}
		return variant.RequireInHand(p, act.CardIDs...)

	case domain.ActionRevealBid, domain.ActionDeclare:
		// Asynchronous: any player may reveal or declare out of turn.
		if gerr := variant.RequirePhase(s, act, domain.PhasePlaying); gerr != nil {
			return gerr
		}
		p, gerr := variant.RequirePlayer(s, act.PlayerID)
		if gerr != nil {
			return gerr
		}
		if len(p.BidCards) == 0 {
			return domain.NewValidationError("%s has no bid to reveal", act.PlayerID)
		}
		if act.Name == domain.ActionRevealBid && p.BidRevealed {
			return domain.NewValidationError("bid already revealed")
		}
		if act.Name == domain.ActionDeclare && p.Declared {
			return domain.NewValidationError("already declared")
		}
		return nil

	case domain.ActionPlayCard:
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
		return variant.RequireFollowSuit(s, act.PlayerID, act.CardID)

	case domain.ActionStartNextRound:
		return variant.RequirePhase(s, act, domain.PhaseScoring)

	default:
		return domain.NewGameStateError("%s is not a Ninety-Nine action", act.Name)
	}
}

func (v *NinetyNine) Reducers() map[domain.ActionName]variant.Reducer {
	return map[domain.ActionName]variant.Reducer{
		domain.ActionDealCards: func(s *domain.GameState, _ domain.Action, rng *rand.Rand) *domain.GameError {
			return v.beginRound(s, rng)
		},

		domain.ActionPlaceBid: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			p := s.Players[act.PlayerID]
			for _, id := range act.CardIDs {
				if !p.RemoveFromHand(id) {
					return domain.NewValidationError("card %s is not in %s's hand", id, p.ID)
				}
				p.BidCards = append(p.BidCards, id)
			}
			if variant.AllBidsPlaced(s) {
				s.Phase = domain.PhasePlaying
				s.CurrentSeat = s.TrickLeader
			}
			return nil
		},

		domain.ActionRevealBid: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			p := s.Players[act.PlayerID]
			p.BidRevealed = true
			for _, id := range p.BidCards {
				if c, ok := s.Card(id); ok {
					c.FaceUp = true
				}
			}
			return nil
		},

		domain.ActionDeclare: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			p := s.Players[act.PlayerID]
			p.Declared = true
			p.BidRevealed = true
			for _, id := range p.BidCards {
				if c, ok := s.Card(id); ok {
					c.FaceUp = true
				}
			}
			return nil
		},

		domain.ActionPlayCard: func(s *domain.GameState, act domain.Action, _ *rand.Rand) *domain.GameError {
			return variant.ApplyPlayCard(s, act)
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

// beginRound deals a fresh hand and opens the bidding. The lead rotates one
// seat per round.
func (v *NinetyNine) beginRound(s *domain.GameState, rng *rand.Rand) *domain.GameError {
	if gerr := variant.DealRound(s, rng); gerr != nil {
		return gerr
	}
	lead := (s.Round - 1) % len(s.Seats)
	s.TrickLeader = lead
	s.CurrentSeat = lead
	s.Phase = domain.PhaseBidding
	return nil
}

func (v *NinetyNine) AvailableActions(s *domain.GameState, playerID string) []domain.ActionName {
	p, ok := s.Players[playerID]
	if !ok {
		return nil
	}
	var out []domain.ActionName
	switch s.Phase {
	case domain.PhaseDealing:
		out = append(out, domain.ActionDealCards)
	case domain.PhaseBidding:
		if len(p.BidCards) == 0 {
			out = append(out, domain.ActionPlaceBid)
		}
	case domain.PhasePlaying:
		if s.SeatOf(playerID) == s.CurrentSeat {
			out = append(out, domain.ActionPlayCard)
		}
		if len(p.BidCards) > 0 && !p.BidRevealed {
			out = append(out, domain.ActionRevealBid)
		}
		if len(p.BidCards) > 0 && !p.Declared {
			out = append(out, domain.ActionDeclare)
		}
	case domain.PhaseScoring:
		out = append(out, domain.ActionStartNextRound)
	}
	return out
}

func (v *NinetyNine) RequiredActions(s *domain.GameState, playerID string) []domain.ActionName {
	p, ok := s.Players[playerID]
	if !ok {
		return nil
	}
	switch s.Phase {
	case domain.PhaseDealing:
		return []domain.ActionName{domain.ActionDealCards}
	case domain.PhaseBidding:
		if len(p.BidCards) == 0 {
			return []domain.ActionName{domain.ActionPlaceBid}
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

func (v *NinetyNine) TrickWinner(s *domain.GameState) int {
	return domain.ResolveTrick(s.TrickCards(), s.TrickLeader, s.TrumpSuit)
}

// Score is the baseline formula: ten points per trick won plus twenty for a
// placed bid.
func (v *NinetyNine) Score(s *domain.GameState, playerID string) int {
	p, ok := s.Players[playerID]
	if !ok {
		return 0
	}
	score := p.TricksWon * 10
	if len(p.BidCards) > 0 {
		score += 20
	}
	return score
}

func (v *NinetyNine) IsGameOver(s *domain.GameState) bool {
	return variant.AnyScoreAtThreshold(s) || s.Round >= s.Settings.MaxRounds
}

func (v *NinetyNine) Winner(s *domain.GameState) string {
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
