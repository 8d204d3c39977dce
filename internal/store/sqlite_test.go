package store

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"tricktable/internal/engine"
	"tricktable/internal/ports"
	"tricktable/internal/variant"
	"tricktable/internal/variant/ninetynine"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(t *testing.T) *engine.Session {
	t.Helper()
	seats := []variant.PlayerSeat{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	sess, err := engine.NewSession(ninetynine.New(), seats, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := snapshot(t)

	st := sess.Snapshot()
	if err := s.SaveSnapshot(ctx, "table-1", st); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx, "table-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Error("loaded snapshot differs from saved state")
	}

	// A loaded snapshot resumes into a working session.
	resumed, err := engine.Resume(ninetynine.New(), loaded, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Resume from snapshot: %v", err)
	}
	if resumed.Phase() != sess.Phase() {
		t.Errorf("resumed phase = %s, want %s", resumed.Phase(), sess.Phase())
	}
}

func TestSaveSnapshotUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := snapshot(t)

	if err := s.SaveSnapshot(ctx, "table-1", sess.Snapshot()); err != nil {
		t.Fatal(err)
	}
	st := sess.Snapshot()
	st.Round = 5
	if err := s.SaveSnapshot(ctx, "table-1", st); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadSnapshot(ctx, "table-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Round != 5 {
		t.Errorf("round after upsert = %d, want 5", loaded.Round)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadSnapshot(context.Background(), "nope")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := snapshot(t)

	if err := s.SaveSnapshot(ctx, "table-1", sess.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSnapshot(ctx, "table-1"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, err := s.LoadSnapshot(ctx, "table-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("err after delete = %v, want ErrSnapshotNotFound", err)
	}
	// Deleting a missing table is not an error.
	if err := s.DeleteSnapshot(ctx, "table-1"); err != nil {
		t.Errorf("double delete: %v", err)
	}
}

func TestRoundResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for round := 1; round <= 2; round++ {
		err := s.RecordRoundResult(ctx, ports.RoundResult{
			TableID: "table-1",
			Round:   round,
			Points:  map[string]int{"p1": round * 10, "p2": 20},
			Totals:  map[string]int{"p1": round * 10, "p2": round * 20},
		})
		if err != nil {
			t.Fatalf("RecordRoundResult: %v", err)
		}
	}

	results, err := s.RoundResults(ctx, "table-1")
	if err != nil {
		t.Fatalf("RoundResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Round != 1 || results[1].Round != 2 {
		t.Error("results out of order")
	}
	if results[1].Points["p1"] != 20 {
		t.Errorf("round 2 points = %+v", results[1].Points)
	}

	other, err := s.RoundResults(ctx, "table-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("foreign table results = %d, want 0", len(other))
	}
}
