package domain

// beats reports whether the challenger takes the trick from the current
// winning card: trump beats any non-trump, otherwise only a strictly higher
// rank of the current winner's suit wins. Cards of neither suit never win.
func beats(challenger, current Card, trump Suit) bool {
	if trump != SuitNone {
		if challenger.Suit == trump && current.Suit != trump {
			return true
		}
		if current.Suit == trump && challenger.Suit != trump {
			return false
		}
	}
	if challenger.Suit != current.Suit {
		return false
	}
	return RankValue(challenger.Rank) > RankValue(current.Rank)
}

// ResolveTrick determines the winning seat of a complete trick. cards is
// seat-indexed (one card per seat), leader is the seat that led, and trump is
// SuitNone when the variant plays without trump. The leader's card fixes the
// lead suit; evaluation walks the seats in play order from the leader.
// A complete trick is a caller precondition.
func ResolveTrick(cards []Card, leader int, trump Suit) int {
	n := len(cards)
	winner := leader
	for i := 1; i < n; i++ {
		seat := (leader + i) % n
		if beats(cards[seat], cards[winner], trump) {
			winner = seat
		}
	}
	return winner
}
