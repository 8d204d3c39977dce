package domain

import (
	"errors"
	"math/rand"
)

// ErrDeckTooSmall is returned by Deal when the requested hands plus turnup
// exceed the deck size.
var ErrDeckTooSmall = errors.New("deck too small for requested deal")

// BuildDeck returns the standard 52-card deck in deterministic suit-major
// order. Every card starts face down at the origin, with a z-index derived
// from insertion order for stable default stacking.
func BuildDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits() {
		for _, r := range Ranks() {
			c := NewCard(s, r)
			c.Pos.Z = len(deck)
			deck = append(deck, c)
		}
	}
	return deck
}

// Shuffle returns a uniformly shuffled copy of the given deck. The caller
// supplies the rng so a fixed seed reproduces the same permutation.
func Shuffle(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealResult is the outcome of partitioning a deck into hands.
type DealResult struct {
	Hands     [][]Card
	Remaining []Card
	Turnup    *Card
}

// Deal partitions the deck round-robin into playerCount hands of exactly
// cardsPerPlayer cards. When withTurnup is set one further card is popped and
// flipped face up; its suit becomes the round's trump in variants that use it.
// The remainder stays in Remaining. Returns ErrDeckTooSmall instead of
// panicking when the deck cannot cover the request.
func Deal(deck []Card, playerCount, cardsPerPlayer int, withTurnup bool) (DealResult, error) {
	need := playerCount * cardsPerPlayer
	if withTurnup {
		need++
	}
	if playerCount <= 0 || cardsPerPlayer <= 0 || need > len(deck) {
		return DealResult{}, ErrDeckTooSmall
	}

	hands := make([][]Card, playerCount)
	for i := range hands {
		hands[i] = make([]Card, 0, cardsPerPlayer)
	}
	for i := 0; i < playerCount*cardsPerPlayer; i++ {
		hands[i%playerCount] = append(hands[i%playerCount], deck[i])
	}

	rest := deck[playerCount*cardsPerPlayer:]
	res := DealResult{Hands: hands}
	if withTurnup {
		turnup := rest[0]
		turnup.FaceUp = true
		res.Turnup = &turnup
		rest = rest[1:]
	}
	res.Remaining = append([]Card{}, rest...)
	return res, nil
}
