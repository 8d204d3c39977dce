package domain

import "time"

// Phase represents the lifecycle stage of a round within a game session.
type Phase string

const (
	// PhaseDealing is the pre-round state waiting for the deal.
	PhaseDealing Phase = "dealing"
	// PhaseBidding collects bid cards (Ninety-Nine).
	PhaseBidding Phase = "bidding"
	// PhasePassing collects pass selections (Hearts).
	PhasePassing Phase = "passing"
	// PhasePlaying is the trick-play state.
	PhasePlaying Phase = "playing"
	// PhaseScoring is the post-round state after scores are applied.
	PhaseScoring Phase = "scoring"
	// PhaseGameOver is terminal.
	PhaseGameOver Phase = "game_over"
)

// WinDirection states whether the highest or lowest cumulative score wins.
type WinDirection string

const (
	WinHighest WinDirection = "highest"
	WinLowest  WinDirection = "lowest"
)

// Settings are the fixed per-variant parameters of a session.
type Settings struct {
	CardsPerPlayer int          `json:"cards_per_player"`
	MaxTricks      int          `json:"max_tricks"`
	MaxRounds      int          `json:"max_rounds"`
	WinThreshold   int          `json:"win_threshold"`
	WinDirection   WinDirection `json:"win_direction"`
	TrumpEnabled   bool         `json:"trump_enabled"`
	UseTurnup      bool         `json:"use_turnup"`
}

// TrickHistory archives one completed trick.
type TrickHistory struct {
	Round      int       `json:"round"`
	Trick      int       `json:"trick"`
	Slots      []string  `json:"slots"`
	WinnerID   string    `json:"winner_id"`
	WinnerSeat int       `json:"winner_seat"`
	LeadSuit   Suit      `json:"lead_suit"`
	Timestamp  time.Time `json:"timestamp"`
}

// GameState is the aggregate root for one game session. It is owned by an
// engine session and mutated only through phase transitions and action
// reducers; every card id appears in exactly one container (deck, a hand, a
// bid list, a trick slot, or the discard pile) at any time.
type GameState struct {
	VariantID string `json:"variant_id"`

	Cards   map[string]*Card   `json:"cards"`
	Players map[string]*Player `json:"players"`
	Seats   []string           `json:"seats"` // player ids in seat order

	Deck     []string `json:"deck"`    // face-down draw pile, card ids
	Discard  []string `json:"discard"` // captured/spent cards
	TurnupID string   `json:"turnup_id,omitempty"`

	Phase       Phase `json:"phase"`
	Round       int   `json:"round"`
	CurrentSeat int   `json:"current_seat"`

	TrickSlots   []string `json:"trick_slots"` // len == player count, "" empty
	TrickLeader  int      `json:"trick_leader"`
	LeadSuit     Suit     `json:"lead_suit"`
	TrumpSuit    Suit     `json:"trump_suit"`
	TricksPlayed int      `json:"tricks_played"`

	// Hearts round flags; only the Hearts validator reads them.
	HeartsBroken bool `json:"hearts_broken"`
	FirstTrick   bool `json:"first_trick"`

	Settings Settings       `json:"settings"`
	History  []TrickHistory `json:"history"`

	LastErr    *GameError `json:"last_error,omitempty"`
	LastAction string     `json:"last_action,omitempty"`
}

// PlayerAt returns the player seated at the given index, or nil when out of
// range or the seat is empty.
func (s *GameState) PlayerAt(seat int) *Player {
	if seat < 0 || seat >= len(s.Seats) {
		return nil
	}
	return s.Players[s.Seats[seat]]
}

// SeatOf returns the seat index of the player id, or -1 if unknown.
func (s *GameState) SeatOf(playerID string) int {
	for i, id := range s.Seats {
		if id == playerID {
			return i
		}
	}
	return -1
}

// Card looks up a card by id in the entity store.
func (s *GameState) Card(id string) (*Card, bool) {
	c, ok := s.Cards[id]
	return c, ok
}

// NextSeat returns the seat after the given one in turn order.
func (s *GameState) NextSeat(seat int) int {
	return (seat + 1) % len(s.Seats)
}

// TrickComplete reports whether every trick slot holds a card.
func (s *GameState) TrickComplete() bool {
	for _, id := range s.TrickSlots {
		if id == "" {
			return false
		}
	}
	return len(s.TrickSlots) > 0
}

// TrickOpen reports whether at least one card has been played into the
// current trick.
func (s *GameState) TrickOpen() bool {
	for _, id := range s.TrickSlots {
		if id != "" {
			return true
		}
	}
	return false
}

// TrickCards resolves the current trick slots to cards, seat-indexed.
// Only meaningful on a complete trick.
func (s *GameState) TrickCards() []Card {
	cards := make([]Card, len(s.TrickSlots))
	for i, id := range s.TrickSlots {
		if c, ok := s.Cards[id]; ok {
			cards[i] = *c
		}
	}
	return cards
}

// ClearTrick empties the trick slots and lead suit.
func (s *GameState) ClearTrick() {
	for i := range s.TrickSlots {
		s.TrickSlots[i] = ""
	}
	s.LeadSuit = SuitNone
}

// HandHasSuit reports whether the player holds at least one card of the suit.
func (s *GameState) HandHasSuit(playerID string, suit Suit) bool {
	p := s.Players[playerID]
	if p == nil {
		return false
	}
	for _, id := range p.Hand {
		if c, ok := s.Cards[id]; ok && c.Suit == suit {
			return true
		}
	}
	return false
}

// HandOnlyHearts reports whether the player's non-empty hand is all hearts.
func (s *GameState) HandOnlyHearts(playerID string) bool {
	p := s.Players[playerID]
	if p == nil || len(p.Hand) == 0 {
		return false
	}
	for _, id := range p.Hand {
		if c, ok := s.Cards[id]; ok && !c.IsHearts() {
			return false
		}
	}
	return true
}

// ContainerOf names the container currently holding the card id: "deck",
// "discard", "trick", "hand:<player>", "bid:<player>" or "" when orphaned.
// Exists to make the single-container invariant checkable.
func (s *GameState) ContainerOf(cardID string) string {
	for _, id := range s.Deck {
		if id == cardID {
			return "deck"
		}
	}
	for _, id := range s.Discard {
		if id == cardID {
			return "discard"
		}
	}
	for _, id := range s.TrickSlots {
		if id == cardID {
			return "trick"
		}
	}
	for pid, p := range s.Players {
		for _, id := range p.Hand {
			if id == cardID {
				return "hand:" + pid
			}
		}
		for _, id := range p.BidCards {
			if id == cardID {
				return "bid:" + pid
			}
		}
	}
	return ""
}

// SetError records the current advisory error.
func (s *GameState) SetError(e *GameError) {
	s.LastErr = e
}

// ClearError clears the advisory error slot.
func (s *GameState) ClearError() {
	s.LastErr = nil
}

// Clone returns a deep copy. Transitions apply to a clone and swap it in on
// success, so a failed action can never leave a partial mutation behind.
func (s *GameState) Clone() *GameState {
	out := *s

	out.Cards = make(map[string]*Card, len(s.Cards))
	for id, c := range s.Cards {
		cc := *c
		out.Cards[id] = &cc
	}
	out.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		pp := *p
		pp.Hand = append([]string{}, p.Hand...)
		pp.BidCards = append([]string{}, p.BidCards...)
		out.Players[id] = &pp
	}
	out.Seats = append([]string{}, s.Seats...)
	out.Deck = append([]string{}, s.Deck...)
	out.Discard = append([]string{}, s.Discard...)
	out.TrickSlots = append([]string{}, s.TrickSlots...)
	out.History = make([]TrickHistory, len(s.History))
	for i, h := range s.History {
		h.Slots = append([]string{}, h.Slots...)
		out.History[i] = h
	}
	if s.LastErr != nil {
		e := *s.LastErr
		out.LastErr = &e
	}
	return &out
}
