package nakama

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"tricktable/internal/bot"
	"tricktable/internal/domain"
	"tricktable/internal/engine"
	"tricktable/internal/session"
	"tricktable/internal/variant"
	"tricktable/internal/variant/ninetynine"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy
// the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	opCodes        []int64
	lastData       []byte
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.opCodes = append(md.opCodes, opCode)
	md.lastData = append([]byte(nil), data...)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	return nil
}

func (md *mockDispatcher) sawOpCode(op int64) bool {
	for _, got := range md.opCodes {
		if got == op {
			return true
		}
	}
	return false
}

// stubPresence satisfies runtime.Presence with just a user id.
type stubPresence struct {
	userID string
}

func (p stubPresence) GetUserId() string                 { return p.userID }
func (p stubPresence) GetSessionId() string              { return "session-" + p.userID }
func (p stubPresence) GetNodeId() string                 { return "node" }
func (p stubPresence) GetHidden() bool                   { return false }
func (p stubPresence) GetPersistence() bool              { return false }
func (p stubPresence) GetUsername() string               { return p.userID }
func (p stubPresence) GetStatus() string                 { return "" }
func (p stubPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

func botTableState(t *testing.T, seed int64) *MatchState {
	t.Helper()
	seats := []variant.PlayerSeat{
		{ID: "bot-0"}, {ID: "bot-1"}, {ID: "bot-2"},
	}
	sess, err := engine.NewSession(ninetynine.New(), seats, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	state := &MatchState{
		VariantID:   ninetynine.VariantID,
		Seats:       []string{"bot-0", "bot-1", "bot-2"},
		OwnerSeat:   -1,
		Presences:   make(map[string]runtime.Presence),
		Variant:     ninetynine.New(),
		Session:     sess,
		Bots:        make(map[string]*bot.Agent),
		Rng:         rand.New(rand.NewSource(seed)),
		BotsEnabled: true,
	}
	return state
}

func TestFindFirstHumanSeat(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{"FirstHumanAfterBot", []string{"bot-0", "user-1", ""}, 1},
		{"AllBots", []string{"bot-0", "bot-1", ""}, -1},
		{"AllEmpty", []string{"", "", ""}, -1},
		{"FirstHumanIsSeatZero", []string{"user-1", "bot-0", "user-2"}, 0},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{"BotsOnly", []string{"bot-0", "bot-1", "bot-2"}, true},
		{"BotsAndEmpty", []string{"bot-0", "", "bot-2"}, true},
		{"HumansPresent", []string{"bot-0", "user-1", ""}, false},
		{"AllEmpty", []string{"", "", ""}, true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(test.seats); got != test.want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, test.want)
			}
		})
	}
}

func TestLabelMarshal(t *testing.T) {
	tests := []struct {
		name     string
		label    Label
		expected string
	}{
		{
			name:     "LobbyState",
			label:    Label{Open: 3, Variant: "ninetynine", State: "lobby"},
			expected: `{"open":3,"variant":"ninetynine","state":"lobby"}`,
		},
		{
			name:     "PlayingState",
			label:    Label{Open: 0, Variant: "hearts", State: "playing"},
			expected: `{"open":0,"variant":"hearts","state":"playing"}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload, err := json.Marshal(test.label)
			if err != nil {
				t.Fatalf("Failed to marshal label: %v", err)
			}
			if string(payload) != test.expected {
				t.Errorf("Got %s, want %s", payload, test.expected)
			}
		})
	}
}

func TestProcessBots_AutoFillsSoloHumanLobby(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := &MatchState{
		VariantID:            ninetynine.VariantID,
		Seats:                []string{"user-1", "", ""},
		Presences:            make(map[string]runtime.Presence),
		Bots:                 make(map[string]*bot.Agent),
		Rng:                  rand.New(rand.NewSource(1)),
		BotsEnabled:          true,
		BotAutoFillDelay:     2,
		LastSinglePlayerTick: 8,
		Tick:                 10,
	}

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	if botCount != 2 {
		t.Fatalf("Expected 2 bots, got %d", botCount)
	}
	if state.GetOpenSeatsCount() != 0 {
		t.Fatalf("Expected no open seats after auto-fill, got %d", state.GetOpenSeatsCount())
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if dispatcher.broadcastCount == 0 || dispatcher.labelUpdates == 0 {
		t.Fatal("Expected table state broadcast and label update after auto-fill")
	}
}

func TestProcessBots_WaitsBeforeActing(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := botTableState(t, 1)
	state.BotMinDelay = 2
	state.BotMaxDelay = 2
	state.Tick = 10

	// First call arms the delay, nothing is dispatched.
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if state.BotWaitUntil != 12 {
		t.Fatalf("BotWaitUntil = %d, want 12", state.BotWaitUntil)
	}
	if dispatcher.broadcastCount != 0 {
		t.Fatal("bot acted before its delay elapsed")
	}

	// Before the deadline nothing happens.
	state.Tick = 11
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if dispatcher.broadcastCount != 0 {
		t.Fatal("bot acted before its delay elapsed")
	}

	// At the deadline the bot deals.
	state.Tick = 12
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if dispatcher.broadcastCount == 0 {
		t.Fatal("bot did not act at its deadline")
	}
	if state.Session.Phase() != domain.PhaseBidding {
		t.Fatalf("phase = %s, want %s after bot deal", state.Session.Phase(), domain.PhaseBidding)
	}
}

func TestProcessBots_DropsStaleTurnAfterRedeal(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := botTableState(t, 2)
	state.BotMinDelay = 3
	state.BotMaxDelay = 3
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if state.BotWaitUntil == 0 {
		t.Fatal("expected armed bot delay")
	}

	// The round is dealt while the bot turn is pending; its generation token
	// is now stale.
	if _, err := state.Session.Dispatch(domain.Action{Name: domain.ActionDealCards, PlayerID: "bot-0"}); err != nil {
		t.Fatalf("deal: %v", err)
	}

	state.Tick = state.BotWaitUntil
	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if dispatcher.broadcastCount != 0 {
		t.Fatal("stale bot turn was not dropped")
	}
	if state.BotWaitUntil != 0 {
		t.Fatal("stale delay was not cleared")
	}
}

func TestProcessBots_PlaysFullGameUnattended(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := botTableState(t, 3)

	for tick := int64(0); state.Session != nil && tick < 10000; tick++ {
		state.Tick = tick
		handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	}
	if state.Session != nil {
		t.Fatalf("bots did not finish the game, phase %s round %d",
			state.Session.Phase(), state.Session.Round())
	}
	if !dispatcher.sawOpCode(OpGameEnded) {
		t.Error("no game_ended broadcast")
	}
	if !dispatcher.sawOpCode(OpRoundScored) {
		t.Error("no round_scored broadcast")
	}
}

func TestMatchJoinAttempt_RejoinTokenBoundToTable(t *testing.T) {
	handler := &matchHandler{}
	state := botTableState(t, 5)
	// A full mid-game table of humans; the only way in is a rejoin token.
	state.Seats = []string{"user-1", "user-2", "user-3"}
	state.Tokens = session.NewTokenService("test-secret")

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "table-a")

	tests := []struct {
		name    string
		tableID string
		player  string
		want    bool
	}{
		{"TokenForThisTable", "table-a", "drifter", true},
		{"TokenForAnotherTable", "table-b", "drifter", false},
		{"TokenForAnotherPlayer", "table-a", "user-2", false},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			token, err := state.Tokens.GenerateRejoinToken(test.tableID, test.player, 1, time.Hour)
			if err != nil {
				t.Fatalf("GenerateRejoinToken: %v", err)
			}
			_, allowed, _ := handler.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, nil,
				10, state, stubPresence{userID: "drifter"},
				map[string]string{"rejoin_token": token})
			if allowed != test.want {
				t.Fatalf("allowed = %t, want %t", allowed, test.want)
			}
		})
	}
}

func TestDispatchRejectsIllegalAction(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := botTableState(t, 4)

	handler.dispatch(context.Background(), state, dispatcher, noopLogger{},
		domain.Action{Name: domain.ActionPlayCard, PlayerID: "bot-0", CardID: "nope"})

	// The sender is a bot with no presence, so no error payload goes out,
	// but the session must stay consistent.
	if dispatcher.broadcastCount != 0 {
		t.Fatal("illegal action produced broadcasts")
	}
	if state.Session.Phase() != domain.PhaseDealing {
		t.Fatalf("phase = %s, want %s", state.Session.Phase(), domain.PhaseDealing)
	}
	if state.Session.LastError() != nil {
		t.Error("error slot should be cleared after reporting")
	}
}
