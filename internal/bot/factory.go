package bot

import (
	"math/rand"
	"time"
)

// NewAgent creates an agent for the given bot user, choosing the strategy by
// configured difficulty. Unknown difficulties get the random baseline.
func NewAgent(userID string, rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	name := userID
	if identity, ok := GetBotConfig(userID); ok && identity.DisplayName != "" {
		name = identity.DisplayName
	}

	return &Agent{
		ID:       userID,
		Name:     name,
		Strategy: NewRandomBrain(rng),
	}
}
