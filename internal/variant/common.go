package variant

import (
	"math/rand"

	"tricktable/internal/domain"
)

// NewGameState builds the initial aggregate shared by all variants: players
// seated in the given order, empty containers, dealing phase of round one.
func NewGameState(variantID string, seats []PlayerSeat, settings domain.Settings) *domain.GameState {
	s := &domain.GameState{
		VariantID:  variantID,
		Cards:      make(map[string]*domain.Card),
		Players:    make(map[string]*domain.Player, len(seats)),
		Seats:      make([]string, 0, len(seats)),
		TrickSlots: make([]string, len(seats)),
		Phase:      domain.PhaseDealing,
		Round:      1,
		FirstTrick: true,
	}
	s.Settings = settings
	for _, seat := range seats {
		s.Seats = append(s.Seats, seat.ID)
		s.Players[seat.ID] = &domain.Player{ID: seat.ID, Name: seat.Name, Active: true}
	}
	return s
}

// DealRound rebuilds the entity store with a fresh shuffled deck and deals
// hands (plus the turnup when the settings use one), resetting all per-round
// player and trick fields. Cumulative scores and trick history survive.
func DealRound(s *domain.GameState, rng *rand.Rand) *domain.GameError {
	deck := domain.Shuffle(domain.BuildDeck(), rng)
	res, err := domain.Deal(deck, len(s.Seats), s.Settings.CardsPerPlayer, s.Settings.UseTurnup)
	if err != nil {
		return domain.NewUnknownError("deal failed: %v", err)
	}

	s.Cards = make(map[string]*domain.Card, len(deck))
	for i := range deck {
		c := deck[i]
		s.Cards[c.ID] = &c
	}

	for seat, pid := range s.Seats {
		p := s.Players[pid]
		p.Hand = p.Hand[:0]
		for _, c := range res.Hands[seat] {
			p.Hand = append(p.Hand, c.ID)
		}
		p.BidCards = nil
		p.TricksWon = 0
		p.BidRevealed = false
		p.Declared = false
	}

	s.Deck = s.Deck[:0]
	s.Discard = s.Discard[:0]
	s.TurnupID = ""
	s.TrumpSuit = domain.SuitNone
	if res.Turnup != nil {
		s.TurnupID = res.Turnup.ID
		s.TrumpSuit = res.Turnup.Suit
		s.Cards[res.Turnup.ID] = res.Turnup
		s.Deck = append(s.Deck, res.Turnup.ID)
	}
	for _, c := range res.Remaining {
		s.Deck = append(s.Deck, c.ID)
	}

	s.ClearTrick()
	s.TricksPlayed = 0
	s.HeartsBroken = false
	s.FirstTrick = true
	return nil
}

// RequirePhase returns a GAME_STATE error unless the state is in one of the
// allowed phases.
func RequirePhase(s *domain.GameState, act domain.Action, allowed ...domain.Phase) *domain.GameError {
	for _, ph := range allowed {
		if s.Phase == ph {
			return nil
		}
	}
	return domain.NewGameStateError("%s not allowed in phase %s", act.Name, s.Phase)
}

// RequirePlayer resolves the acting player or returns a VALIDATION error.
func RequirePlayer(s *domain.GameState, playerID string) (*domain.Player, *domain.GameError) {
	p, ok := s.Players[playerID]
	if !ok {
		return nil, domain.NewValidationError("unknown player %s", playerID)
	}
	return p, nil
}

// RequireTurn returns a VALIDATION error unless it is the player's turn.
// Asynchronous actions (reveal, declare, bid, pass selection) skip this.
func RequireTurn(s *domain.GameState, playerID string) *domain.GameError {
	if seat := s.SeatOf(playerID); seat != s.CurrentSeat {
		return domain.NewValidationError("not %s's turn", playerID)
	}
	return nil
}

// RequireInHand returns a VALIDATION error unless every id is in the
// player's hand.
func RequireInHand(p *domain.Player, cardIDs ...string) *domain.GameError {
	for _, id := range cardIDs {
		if id == "" {
			return domain.NewValidationError("missing card id")
		}
		if !p.HasCard(id) {
			return domain.NewValidationError("card %s is not in %s's hand", id, p.ID)
		}
	}
	return nil
}

// RequireFollowSuit enforces "follow the lead suit if able" for the card
// about to be played.
func RequireFollowSuit(s *domain.GameState, playerID, cardID string) *domain.GameError {
	if s.LeadSuit == domain.SuitNone {
		return nil
	}
	c, ok := s.Card(cardID)
	if !ok {
		return domain.NewValidationError("unknown card %s", cardID)
	}
	if c.Suit != s.LeadSuit && s.HandHasSuit(playerID, s.LeadSuit) {
		return domain.NewValidationError("must follow %s if able", s.LeadSuit)
	}
	return nil
}

// ApplyPlayCard performs the shared part of the play-card reducer: the card
// leaves the hand for the acting seat's trick slot, face up, and the first
// card of a trick fixes the lead suit.
func ApplyPlayCard(s *domain.GameState, act domain.Action) *domain.GameError {
	p, gerr := RequirePlayer(s, act.PlayerID)
	if gerr != nil {
		return gerr
	}
	c, ok := s.Card(act.CardID)
	if !ok {
		return domain.NewValidationError("unknown card %s", act.CardID)
	}
	if !p.RemoveFromHand(act.CardID) {
		return domain.NewValidationError("card %s is not in %s's hand", act.CardID, p.ID)
	}

	seat := s.SeatOf(act.PlayerID)
	if !s.TrickOpen() {
		s.LeadSuit = c.Suit
		s.TrickLeader = seat
	}
	s.TrickSlots[seat] = c.ID
	c.FaceUp = true
	return nil
}

// AllBidsPlaced reports whether every player has a non-empty bid list.
func AllBidsPlaced(s *domain.GameState) bool {
	for _, pid := range s.Seats {
		if len(s.Players[pid].BidCards) == 0 {
			return false
		}
	}
	return true
}

// AnyHandEmpty reports whether any player has run out of cards.
func AnyHandEmpty(s *domain.GameState) bool {
	for _, pid := range s.Seats {
		if len(s.Players[pid].Hand) == 0 {
			return true
		}
	}
	return false
}

// WinnerByScore picks the winning player id by cumulative score and win
// direction, breaking ties by seat order.
func WinnerByScore(s *domain.GameState) string {
	winner := ""
	for _, pid := range s.Seats {
		p := s.Players[pid]
		if winner == "" {
			winner = pid
			continue
		}
		best := s.Players[winner]
		switch s.Settings.WinDirection {
		case domain.WinLowest:
			if p.Score < best.Score {
				winner = pid
			}
		default:
			if p.Score > best.Score {
				winner = pid
			}
		}
	}
	return winner
}

// AnyScoreAtThreshold reports whether some player has reached the variant's
// win/loss threshold.
func AnyScoreAtThreshold(s *domain.GameState) bool {
	if s.Settings.WinThreshold <= 0 {
		return false
	}
	for _, pid := range s.Seats {
		if s.Players[pid].Score >= s.Settings.WinThreshold {
			return true
		}
	}
	return false
}
