// Package engine owns the phase state machine: it validates dispatched
// actions against the active variant, applies reducers atomically, and runs
// the generic trick-completion and round-scoring transitions. One Session
// owns one GameState aggregate; there is no process-wide store.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"tricktable/internal/domain"
	"tricktable/internal/variant"
)

// Session is a single game session. Actions are applied one at a time and
// run to completion; callers serialize dispatch (the match loop already
// does).
type Session struct {
	rng        *rand.Rand
	variant    variant.GameVariant
	state      *domain.GameState
	generation uint64
}

// NewSession constructs a session for the given variant and seats with the
// provided rng or a time-seeded default. Replaying the same actions against
// the same seed reproduces identical state.
func NewSession(v variant.GameVariant, seats []variant.PlayerSeat, rng *rand.Rand) (*Session, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(seats) < v.MinPlayers() || len(seats) > v.MaxPlayers() {
		return nil, fmt.Errorf("%s needs %d-%d players, got %d",
			v.ID(), v.MinPlayers(), v.MaxPlayers(), len(seats))
	}
	st, err := v.NewGame(seats)
	if err != nil {
		return nil, err
	}
	return &Session{rng: rng, variant: v, state: st, generation: 1}, nil
}

// Resume rebuilds a session around a previously serialized state snapshot.
func Resume(v variant.GameVariant, state *domain.GameState, rng *rand.Rand) (*Session, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if state == nil || state.VariantID != v.ID() {
		return nil, fmt.Errorf("snapshot does not belong to variant %s", v.ID())
	}
	return &Session{rng: rng, variant: v, state: state.Clone(), generation: 1}, nil
}

// Generation increments whenever a deal resets the round. Deferred automated
// turns capture it when scheduled and must not act if it has moved on.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Variant exposes the active rule set.
func (s *Session) Variant() variant.GameVariant {
	return s.variant
}

// Dispatch validates and applies one action. On success it returns the
// events the transition produced; on failure the typed error is recorded on
// state and no other field changes.
func (s *Session) Dispatch(act domain.Action) ([]Event, error) {
	if s.state.Phase == domain.PhaseGameOver && act.Name != domain.ActionStartNextRound {
		return nil, s.fail(act, domain.NewGameStateError("game is over"))
	}
	if gerr := s.variant.ValidateAction(s.state, act); gerr != nil {
		return nil, s.fail(act, gerr)
	}
	red, ok := s.variant.Reducers()[act.Name]
	if !ok {
		return nil, s.fail(act, domain.NewGameStateError("unsupported action %s", act.Name))
	}

	next := s.state.Clone()
	next.ClearError()
	next.LastAction = string(act.Name)
	prevPhase := s.state.Phase

	if gerr := red(next, act, s.rng); gerr != nil {
		return nil, s.fail(act, gerr)
	}

	events := s.postProcess(next, act)
	if next.Phase != prevPhase {
		events = append(events, Event{
			Kind:    EventPhaseChanged,
			Payload: PhaseChangedPayload{From: prevPhase, To: next.Phase},
		})
	}
	if act.Name == domain.ActionDealCards || act.Name == domain.ActionStartNextRound {
		s.generation++
	}
	s.state = next
	return events, nil
}

// fail records the advisory error and last-action tag; everything else stays
// untouched.
func (s *Session) fail(act domain.Action, gerr *domain.GameError) error {
	s.state.SetError(gerr)
	s.state.LastAction = string(act.Name)
	return gerr
}

// postProcess runs the machine transitions that follow a successful reducer
// and builds the event list.
func (s *Session) postProcess(next *domain.GameState, act domain.Action) []Event {
	var events []Event

	switch act.Name {
	case domain.ActionDealCards, domain.ActionStartNextRound:
		if next.Phase == domain.PhaseGameOver {
			return append(events, Event{
				Kind: EventGameEnded,
				Payload: GameEndedPayload{
					WinnerID: s.variant.Winner(next),
					Totals:   totals(next),
				},
			})
		}
		events = append(events, Event{
			Kind: EventRoundStarted,
			Payload: RoundStartedPayload{
				Round:     next.Round,
				Phase:     next.Phase,
				TurnupID:  next.TurnupID,
				TrumpSuit: next.TrumpSuit,
				LeadSeat:  next.CurrentSeat,
			},
		})
		for _, pid := range next.Seats {
			events = append(events, Event{
				Kind:       EventHandDealt,
				Payload:    HandDealtPayload{PlayerID: pid, Hand: handCards(next, pid)},
				Recipients: []string{pid},
			})
		}

	case domain.ActionPlaceBid:
		events = append(events, Event{
			Kind:    EventBidPlaced,
			Payload: BidPlacedPayload{PlayerID: act.PlayerID, Count: len(act.CardIDs)},
		})

	case domain.ActionRevealBid:
		events = append(events, Event{
			Kind: EventBidRevealed,
			Payload: BidRevealedPayload{
				PlayerID: act.PlayerID,
				Cards:    bidCards(next, act.PlayerID),
			},
		})

	case domain.ActionDeclare:
		events = append(events, Event{
			Kind:    EventDeclared,
			Payload: DeclaredPayload{PlayerID: act.PlayerID},
		})

	case domain.ActionPassCards:
		events = append(events, Event{
			Kind:    EventCardsPassed,
			Payload: CardsPassedPayload{PlayerID: act.PlayerID, Count: len(act.CardIDs)},
		})
		if next.Phase == domain.PhasePlaying {
			// Exchange just resolved; every hand changed.
			for _, pid := range next.Seats {
				events = append(events, Event{
					Kind:       EventHandDealt,
					Payload:    HandDealtPayload{PlayerID: pid, Hand: handCards(next, pid)},
					Recipients: []string{pid},
				})
			}
		}

	case domain.ActionPlayCard:
		seat := next.SeatOf(act.PlayerID)
		played := CardPlayedPayload{PlayerID: act.PlayerID, Seat: seat}
		if c, ok := next.Card(act.CardID); ok {
			played.Card = *c
		}

		if next.TrickComplete() {
			events = append(events, s.resolveTrick(next, &played)...)
		} else {
			next.CurrentSeat = next.NextSeat(seat)
		}
		played.NextSeat = next.CurrentSeat
		events = append([]Event{{Kind: EventCardPlayed, Payload: played}}, events...)
	}

	return events
}

// resolveTrick credits the winner, archives the trick, clears the slots and,
// at the round boundary, applies scoring exactly once.
func (s *Session) resolveTrick(next *domain.GameState, played *CardPlayedPayload) []Event {
	winnerSeat := s.variant.TrickWinner(next)
	winnerID := next.Seats[winnerSeat]
	next.Players[winnerID].TricksWon++
	next.TricksPlayed++

	hist := domain.TrickHistory{
		Round:      next.Round,
		Trick:      next.TricksPlayed,
		Slots:      append([]string{}, next.TrickSlots...),
		WinnerID:   winnerID,
		WinnerSeat: winnerSeat,
		LeadSuit:   next.LeadSuit,
		Timestamp:  time.Now().UTC(),
	}
	next.History = append(next.History, hist)

	events := []Event{{
		Kind: EventTrickResolved,
		Payload: TrickResolvedPayload{
			Round:      hist.Round,
			Trick:      hist.Trick,
			WinnerID:   winnerID,
			WinnerSeat: winnerSeat,
			LeadSuit:   hist.LeadSuit,
			Cards:      next.TrickCards(),
		},
	}}

	next.Discard = append(next.Discard, hist.Slots...)
	next.ClearTrick()
	next.FirstTrick = false
	next.TrickLeader = winnerSeat
	next.CurrentSeat = winnerSeat

	if next.TricksPlayed >= next.Settings.MaxTricks || variant.AnyHandEmpty(next) {
		events = append(events, s.scoreRound(next))
	}
	return events
}

// scoreRound applies each player's round score to their running total and
// enters the scoring phase. Guarded by the phase transition so it can only
// fire once per round end.
func (s *Session) scoreRound(next *domain.GameState) Event {
	points := make(map[string]int, len(next.Seats))
	for _, pid := range next.Seats {
		points[pid] = s.variant.Score(next, pid)
	}
	for pid, pts := range points {
		next.Players[pid].Score += pts
	}
	next.Phase = domain.PhaseScoring

	return Event{
		Kind: EventRoundScored,
		Payload: RoundScoredPayload{
			Round:       next.Round,
			RoundPoints: points,
			Totals:      totals(next),
		},
	}
}

func totals(s *domain.GameState) map[string]int {
	out := make(map[string]int, len(s.Seats))
	for _, pid := range s.Seats {
		out[pid] = s.Players[pid].Score
	}
	return out
}

func handCards(s *domain.GameState, playerID string) []domain.Card {
	p := s.Players[playerID]
	if p == nil {
		return nil
	}
	out := make([]domain.Card, 0, len(p.Hand))
	for _, id := range p.Hand {
		if c, ok := s.Card(id); ok {
			out = append(out, *c)
		}
	}
	return out
}

func bidCards(s *domain.GameState, playerID string) []domain.Card {
	p := s.Players[playerID]
	if p == nil {
		return nil
	}
	out := make([]domain.Card, 0, len(p.BidCards))
	for _, id := range p.BidCards {
		if c, ok := s.Card(id); ok {
			out = append(out, *c)
		}
	}
	return out
}
