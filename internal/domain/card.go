package domain

import "github.com/google/uuid"

// Suit is one of the four French suits.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"

	// SuitNone marks "no suit", used for an open trick's lead suit and for
	// variants played without trump.
	SuitNone Suit = ""
)

// Suits returns the four suits in deck-building order.
func Suits() []Suit {
	return []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}
}

// Rank is a card rank. Joker exists in the type for variants that opt in,
// but neither shipped variant deals it and it carries no rank value.
type Rank string

const (
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
	RankAce   Rank = "A"
	RankJoker Rank = "JOKER"
)

// Ranks returns the thirteen standard ranks in ascending order.
func Ranks() []Rank {
	return []Rank{
		RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
		RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
	}
}

var rankValues = map[Rank]int{
	RankTwo: 2, RankThree: 3, RankFour: 4, RankFive: 5, RankSix: 6,
	RankSeven: 7, RankEight: 8, RankNine: 9, RankTen: 10,
	RankJack: 11, RankQueen: 12, RankKing: 13, RankAce: 14,
}

// RankValue returns the trick-resolution value of a rank (2..10, J, Q, K, A
// ascending). Unknown ranks, including Joker, return 0 and never win a trick.
func RankValue(r Rank) int {
	return rankValues[r]
}

// Position is presentation-only placement for a card on the board.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z int     `json:"z"`
}

// Card is a single playing card in the entity store. Suit and rank are fixed
// once dealt; only the face-up flag and position mutate.
type Card struct {
	ID     string   `json:"id"`
	Suit   Suit     `json:"suit"`
	Rank   Rank     `json:"rank"`
	FaceUp bool     `json:"face_up"`
	Pos    Position `json:"pos"`
}

// NewCard creates a face-down card with a fresh unique id.
func NewCard(suit Suit, rank Rank) Card {
	return Card{ID: uuid.NewString(), Suit: suit, Rank: rank}
}

// String renders the card as rank+suit, e.g. "QS" for the queen of spades.
func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// IsHearts reports whether the card is a heart.
func (c Card) IsHearts() bool {
	return c.Suit == SuitHearts
}

// IsQueenOfSpades reports whether the card is the queen of spades.
func (c Card) IsQueenOfSpades() bool {
	return c.Suit == SuitSpades && c.Rank == RankQueen
}

// IsTwoOfClubs reports whether the card is the two of clubs.
func (c Card) IsTwoOfClubs() bool {
	return c.Suit == SuitClubs && c.Rank == RankTwo
}
