package engine_test

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"tricktable/internal/domain"
	"tricktable/internal/engine"
	"tricktable/internal/variant"
	"tricktable/internal/variant/ninetynine"
)

func newSession(t *testing.T, seed int64) *engine.Session {
	t.Helper()
	seats := []variant.PlayerSeat{
		{ID: "p1", Name: "Ann"},
		{ID: "p2", Name: "Ben"},
		{ID: "p3", Name: "Cat"},
	}
	sess, err := engine.NewSession(ninetynine.New(), seats, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func dispatch(t *testing.T, sess *engine.Session, act domain.Action) []engine.Event {
	t.Helper()
	events, err := sess.Dispatch(act)
	if err != nil {
		t.Fatalf("dispatch %s: %v", act.Name, err)
	}
	return events
}

func dealAndBid(t *testing.T, sess *engine.Session) {
	t.Helper()
	dispatch(t, sess, domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})
	for _, pid := range []string{"p1", "p2", "p3"} {
		hand := sess.PlayerHand(pid)
		dispatch(t, sess, domain.Action{
			Name: domain.ActionPlaceBid, PlayerID: pid,
			CardIDs: []string{hand[0].ID, hand[1].ID},
		})
	}
}

func playLegal(t *testing.T, sess *engine.Session) {
	t.Helper()
	pid := sess.CurrentPlayerID()
	for _, c := range sess.PlayerHand(pid) {
		act := domain.Action{Name: domain.ActionPlayCard, PlayerID: pid, CardID: c.ID}
		if sess.IsValidAction(act) {
			dispatch(t, sess, act)
			return
		}
	}
	t.Fatalf("no legal card for %s", pid)
}

// checkContainers asserts every card in the entity store sits in exactly one
// container.
func checkContainers(t *testing.T, st *domain.GameState) {
	t.Helper()
	for id := range st.Cards {
		count := 0
		for _, d := range st.Deck {
			if d == id {
				count++
			}
		}
		for _, d := range st.Discard {
			if d == id {
				count++
			}
		}
		for _, d := range st.TrickSlots {
			if d == id {
				count++
			}
		}
		for _, p := range st.Players {
			for _, d := range p.Hand {
				if d == id {
					count++
				}
			}
			for _, d := range p.BidCards {
				if d == id {
					count++
				}
			}
		}
		if count != 1 {
			t.Fatalf("card %s is in %d containers (%s)", id, count, st.ContainerOf(id))
		}
	}
}

func TestWrongPhaseIsRejectedWithoutMutation(t *testing.T) {
	sess := newSession(t, 1)
	dispatch(t, sess, domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})

	before := sess.Snapshot()
	hand := sess.PlayerHand("p1")
	act := domain.Action{Name: domain.ActionPlayCard, PlayerID: "p1", CardID: hand[0].ID}
	if _, err := sess.Dispatch(act); err == nil {
		t.Fatal("playing during bidding should fail")
	}

	gerr := sess.LastError()
	if gerr == nil || gerr.Code != domain.ErrorGameState {
		t.Fatalf("last error = %+v, want %s", gerr, domain.ErrorGameState)
	}

	after := sess.Snapshot()
	after.LastErr, before.LastErr = nil, nil
	after.LastAction, before.LastAction = "", ""
	if !reflect.DeepEqual(before, after) {
		t.Error("failed dispatch mutated state beyond the error slot")
	}
}

func TestForeignCardIsRejected(t *testing.T) {
	sess := newSession(t, 2)
	dealAndBid(t, sess)

	pid := sess.CurrentPlayerID()
	other := "p1"
	if pid == "p1" {
		other = "p2"
	}
	act := domain.Action{Name: domain.ActionPlayCard, PlayerID: pid, CardID: sess.PlayerHand(other)[0].ID}
	if _, err := sess.Dispatch(act); err == nil {
		t.Fatal("playing another player's card should fail")
	}
	if gerr := sess.LastError(); gerr == nil || gerr.Code != domain.ErrorValidation {
		t.Fatalf("last error = %+v, want %s", gerr, domain.ErrorValidation)
	}
}

func TestContainerInvariantAcrossRound(t *testing.T) {
	sess := newSession(t, 3)
	dispatch(t, sess, domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})
	checkContainers(t, sess.Snapshot())

	for _, pid := range []string{"p1", "p2", "p3"} {
		hand := sess.PlayerHand(pid)
		dispatch(t, sess, domain.Action{
			Name: domain.ActionPlaceBid, PlayerID: pid,
			CardIDs: []string{hand[0].ID, hand[1].ID, hand[2].ID},
		})
		checkContainers(t, sess.Snapshot())
	}
	for sess.Phase() == domain.PhasePlaying {
		playLegal(t, sess)
		checkContainers(t, sess.Snapshot())
	}
	if sess.Phase() != domain.PhaseScoring {
		t.Fatalf("round did not end in scoring: %s", sess.Phase())
	}
}

func TestTrickResolutionAdvancesWinnerToLead(t *testing.T) {
	sess := newSession(t, 4)
	dealAndBid(t, sess)

	var resolved *engine.TrickResolvedPayload
	for i := 0; i < 3; i++ {
		pid := sess.CurrentPlayerID()
		for _, c := range sess.PlayerHand(pid) {
			act := domain.Action{Name: domain.ActionPlayCard, PlayerID: pid, CardID: c.ID}
			if sess.IsValidAction(act) {
				for _, ev := range dispatch(t, sess, act) {
					if ev.Kind == engine.EventTrickResolved {
						p := ev.Payload.(engine.TrickResolvedPayload)
						resolved = &p
					}
				}
				break
			}
		}
	}
	if resolved == nil {
		t.Fatal("no trick_resolved event after three plays")
	}

	st := sess.Snapshot()
	if st.CurrentSeat != resolved.WinnerSeat || st.TrickLeader != resolved.WinnerSeat {
		t.Errorf("lead after trick = %d/%d, want winner seat %d",
			st.CurrentSeat, st.TrickLeader, resolved.WinnerSeat)
	}
	if st.Players[resolved.WinnerID].TricksWon != 1 {
		t.Errorf("winner credited %d tricks, want 1", st.Players[resolved.WinnerID].TricksWon)
	}
	if got := len(st.Discard); got != 3 {
		t.Errorf("discard = %d cards, want 3", got)
	}
	if st.TrickOpen() {
		t.Error("trick slots should be cleared")
	}
}

func TestScoringAppliedExactlyOnce(t *testing.T) {
	sess := newSession(t, 5)
	dealAndBid(t, sess)
	for sess.Phase() == domain.PhasePlaying {
		playLegal(t, sess)
	}

	totals := sess.ScoreTable()
	// Failed dispatches in the scoring phase must not re-score.
	sess.Dispatch(domain.Action{Name: domain.ActionPlayCard, PlayerID: "p1", CardID: "nope"})
	sess.Dispatch(domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})
	if !reflect.DeepEqual(totals, sess.ScoreTable()) {
		t.Error("totals changed after failed dispatches")
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func(seed int64) *domain.GameState {
		sess := newSession(t, seed)
		dealAndBid(t, sess)
		for sess.Phase() == domain.PhasePlaying {
			playLegal(t, sess)
		}
		st := sess.Snapshot()
		for i := range st.History {
			st.History[i].Timestamp = time.Time{}
		}
		return st
	}

	a, b := run(42), run(42)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed and action script produced different states")
	}
	c := run(43)
	if reflect.DeepEqual(a.Players, c.Players) {
		t.Error("different seeds produced identical hands")
	}
}

func TestGenerationAdvancesOnDeal(t *testing.T) {
	sess := newSession(t, 6)
	g0 := sess.Generation()
	dispatch(t, sess, domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})
	if sess.Generation() != g0+1 {
		t.Errorf("generation = %d after deal, want %d", sess.Generation(), g0+1)
	}

	hand := sess.PlayerHand("p1")
	dispatch(t, sess, domain.Action{
		Name: domain.ActionPlaceBid, PlayerID: "p1", CardIDs: []string{hand[0].ID},
	})
	if sess.Generation() != g0+1 {
		t.Error("non-deal action moved the generation")
	}
}

func TestGameOverRejectsPlay(t *testing.T) {
	sess := newSession(t, 7)
	st := sess.Snapshot()
	st.Phase = domain.PhaseGameOver
	sess, err := engine.Resume(ninetynine.New(), st, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if _, err := sess.Dispatch(domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"}); err == nil {
		t.Fatal("dispatch after game over should fail")
	}
	if gerr := sess.LastError(); gerr == nil || gerr.Code != domain.ErrorGameState {
		t.Fatalf("last error = %+v, want %s", gerr, domain.ErrorGameState)
	}
}

func TestResumeContinuesSession(t *testing.T) {
	sess := newSession(t, 8)
	dealAndBid(t, sess)
	playLegal(t, sess)

	snap := sess.Snapshot()
	resumed, err := engine.Resume(ninetynine.New(), snap, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Phase() != domain.PhasePlaying {
		t.Fatalf("resumed phase = %s", resumed.Phase())
	}
	for resumed.Phase() == domain.PhasePlaying {
		playLegal(t, resumed)
	}
	if resumed.Phase() != domain.PhaseScoring {
		t.Errorf("resumed session did not reach scoring: %s", resumed.Phase())
	}

	if _, err := engine.Resume(ninetynine.New(), nil, nil); err == nil {
		t.Error("nil snapshot should be rejected")
	}
}

func TestErrorSlotClears(t *testing.T) {
	sess := newSession(t, 9)
	sess.Dispatch(domain.Action{Name: domain.ActionPlayCard, PlayerID: "p1", CardID: "x"})
	if sess.LastError() == nil {
		t.Fatal("expected recorded error")
	}
	sess.ClearError()
	if sess.LastError() != nil {
		t.Error("ClearError left the slot set")
	}

	// A successful dispatch also clears a stale error.
	sess.Dispatch(domain.Action{Name: domain.ActionPlayCard, PlayerID: "p1", CardID: "x"})
	dispatch(t, sess, domain.Action{Name: domain.ActionDealCards, PlayerID: "p1"})
	if sess.LastError() != nil {
		t.Error("successful dispatch should clear the error slot")
	}
}
