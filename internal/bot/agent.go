package bot

import (
	"tricktable/internal/domain"
	"tricktable/internal/engine"
)

// Agent represents an autonomous bot player occupying a seat.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent for its next action based on the current session state.
func (a *Agent) Play(sess *engine.Session) (domain.Action, bool, error) {
	return a.Strategy.CalculateMove(sess, a.ID)
}
