package bot

import (
	"fmt"
	"math/rand"

	"tricktable/internal/domain"
	"tricktable/internal/engine"
)

// RandomBrain plays uniformly random legal moves. It is the baseline strategy
// and good enough to keep a table moving when humans drop.
type RandomBrain struct {
	rng *rand.Rand
}

// NewRandomBrain builds a random strategy around the given rng.
func NewRandomBrain(rng *rand.Rand) *RandomBrain {
	return &RandomBrain{rng: rng}
}

func (b *RandomBrain) CalculateMove(sess *engine.Session, playerID string) (domain.Action, bool, error) {
	pending := sess.RequiredActions(playerID)
	if len(pending) == 0 {
		return domain.Action{}, false, nil
	}

	name := pending[b.rng.Intn(len(pending))]
	switch name {
	case domain.ActionDealCards, domain.ActionStartNextRound:
		return domain.Action{Name: name, PlayerID: playerID}, true, nil

	case domain.ActionPlaceBid:
		ids := b.pickCards(sess, playerID, 1+b.rng.Intn(3))
		return domain.Action{Name: name, PlayerID: playerID, CardIDs: ids}, true, nil

	case domain.ActionPassCards:
		ids := b.pickCards(sess, playerID, 3)
		return domain.Action{Name: name, PlayerID: playerID, CardIDs: ids}, true, nil

	case domain.ActionPlayCard:
		hand := sess.PlayerHand(playerID)
		b.rng.Shuffle(len(hand), func(i, j int) { hand[i], hand[j] = hand[j], hand[i] })
		for _, c := range hand {
			act := domain.Action{Name: name, PlayerID: playerID, CardID: c.ID}
			if sess.IsValidAction(act) {
				return act, true, nil
			}
		}
		return domain.Action{}, false, fmt.Errorf("no legal card for %s", playerID)

	default:
		return domain.Action{}, false, fmt.Errorf("no strategy for action %s", name)
	}
}

// pickCards draws n distinct random cards from the player's hand.
func (b *RandomBrain) pickCards(sess *engine.Session, playerID string, n int) []string {
	hand := sess.PlayerHand(playerID)
	b.rng.Shuffle(len(hand), func(i, j int) { hand[i], hand[j] = hand[j], hand[i] })
	if n > len(hand) {
		n = len(hand)
	}
	ids := make([]string, 0, n)
	for _, c := range hand[:n] {
		ids = append(ids, c.ID)
	}
	return ids
}
