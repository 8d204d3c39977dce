package engine

import "tricktable/internal/domain"

// EventKind identifies emitted engine events for transport dispatch.
type EventKind string

const (
	EventRoundStarted  EventKind = "round_started"
	EventHandDealt     EventKind = "hand_dealt"
	EventBidPlaced     EventKind = "bid_placed"
	EventBidRevealed   EventKind = "bid_revealed"
	EventDeclared      EventKind = "declared"
	EventCardsPassed   EventKind = "cards_passed"
	EventCardPlayed    EventKind = "card_played"
	EventTrickResolved EventKind = "trick_resolved"
	EventRoundScored   EventKind = "round_scored"
	EventPhaseChanged  EventKind = "phase_changed"
	EventGameEnded     EventKind = "game_ended"
)

// Event is an engine event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player ids; empty means broadcast
}

type RoundStartedPayload struct {
	Round     int         `json:"round"`
	Phase     domain.Phase `json:"phase"`
	TurnupID  string      `json:"turnup_id,omitempty"`
	TrumpSuit domain.Suit `json:"trump_suit,omitempty"`
	LeadSeat  int         `json:"lead_seat"`
}

type HandDealtPayload struct {
	PlayerID string        `json:"player_id"`
	Hand     []domain.Card `json:"hand"`
}

type BidPlacedPayload struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

type BidRevealedPayload struct {
	PlayerID string        `json:"player_id"`
	Cards    []domain.Card `json:"cards"`
}

type DeclaredPayload struct {
	PlayerID string `json:"player_id"`
}

type CardsPassedPayload struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

type CardPlayedPayload struct {
	PlayerID string      `json:"player_id"`
	Seat     int         `json:"seat"`
	Card     domain.Card `json:"card"`
	NextSeat int         `json:"next_seat"`
}

type TrickResolvedPayload struct {
	Round      int           `json:"round"`
	Trick      int           `json:"trick"`
	WinnerID   string        `json:"winner_id"`
	WinnerSeat int           `json:"winner_seat"`
	LeadSuit   domain.Suit   `json:"lead_suit"`
	Cards      []domain.Card `json:"cards"`
}

type RoundScoredPayload struct {
	Round       int            `json:"round"`
	RoundPoints map[string]int `json:"round_points"`
	Totals      map[string]int `json:"totals"`
}

type PhaseChangedPayload struct {
	From domain.Phase `json:"from"`
	To   domain.Phase `json:"to"`
}

type GameEndedPayload struct {
	WinnerID string         `json:"winner_id"`
	Totals   map[string]int `json:"totals"`
}
