package domain

// ActionName identifies a dispatchable game action.
type ActionName string

const (
	ActionDealCards      ActionName = "DEAL_CARDS"
	ActionPlaceBid       ActionName = "PLACE_BID"
	ActionRevealBid      ActionName = "REVEAL_BID"
	ActionDeclare        ActionName = "DECLARE"
	ActionPassCards      ActionName = "PASS_CARDS"
	ActionPlayCard       ActionName = "PLAY_CARD"
	ActionStartNextRound ActionName = "START_NEXT_ROUND"
)

// Action is the typed dispatch triple accepted by the engine. CardID carries
// single-card payloads (PLAY_CARD); CardIDs carries multi-card payloads
// (PLACE_BID, PASS_CARDS).
type Action struct {
	Name     ActionName `json:"name"`
	PlayerID string     `json:"player_id"`
	CardID   string     `json:"card_id,omitempty"`
	CardIDs  []string   `json:"card_ids,omitempty"`
}
