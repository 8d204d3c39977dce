package bot

import (
	"tricktable/internal/domain"
	"tricktable/internal/engine"
)

// Brain is the interface all bot strategies implement. CalculateMove returns
// the action the bot wants to dispatch, or ok=false when the game is not
// waiting on the bot.
type Brain interface {
	CalculateMove(sess *engine.Session, playerID string) (domain.Action, bool, error)
}
