package domain

// Player holds per-seat state for a participant. Players are created once at
// game setup for a fixed id list and mutated across rounds, never destroyed
// mid-game.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Hand and BidCards are ordered card-id lists. BidCards doubles as the
	// variant-specific set-aside list: Ninety-Nine bids and Hearts pass
	// selections both live here.
	Hand     []string `json:"hand"`
	BidCards []string `json:"bid_cards"`

	TricksWon   int  `json:"tricks_won"`
	Score       int  `json:"score"`
	BidRevealed bool `json:"bid_revealed"`
	Declared    bool `json:"declared"`
	Active      bool `json:"active"`
}

// HasCard reports whether the card id is in the player's hand.
func (p *Player) HasCard(cardID string) bool {
	for _, id := range p.Hand {
		if id == cardID {
			return true
		}
	}
	return false
}

// RemoveFromHand removes a card id from the hand, reporting whether it was
// present.
func (p *Player) RemoveFromHand(cardID string) bool {
	for i, id := range p.Hand {
		if id == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
