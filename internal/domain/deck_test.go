package domain

import (
	"math/rand"
	"testing"
)

func TestBuildDeck(t *testing.T) {
	deck := BuildDeck()
	if len(deck) != 52 {
		t.Fatalf("deck size = %d, want 52", len(deck))
	}

	seen := make(map[string]bool)
	ids := make(map[string]bool)
	for i, c := range deck {
		key := string(c.Suit) + "-" + string(c.Rank)
		if seen[key] {
			t.Fatalf("duplicate card found: %s", key)
		}
		seen[key] = true
		if c.ID == "" || ids[c.ID] {
			t.Fatalf("card %s has missing or duplicate id %q", key, c.ID)
		}
		ids[c.ID] = true
		if c.FaceUp {
			t.Fatalf("card %s dealt face up", key)
		}
		if c.Pos.X != 0 || c.Pos.Y != 0 {
			t.Fatalf("card %s position not zeroed: %+v", key, c.Pos)
		}
		if c.Pos.Z != i {
			t.Fatalf("card %s z-index = %d, want insertion order %d", key, c.Pos.Z, i)
		}
		if c.Rank == RankJoker {
			t.Fatalf("standard deck must not contain a joker")
		}
	}
}

func TestShuffleDeterministic(t *testing.T) {
	deck := BuildDeck()
	a := Shuffle(deck, rand.New(rand.NewSource(42)))
	b := Shuffle(deck, rand.New(rand.NewSource(42)))

	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("same seed produced different permutations at index %d", i)
		}
	}

	c := Shuffle(deck, rand.New(rand.NewSource(43)))
	same := true
	for i := range a {
		if a[i].ID != c[i].ID {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical permutations")
	}
}

func TestShuffleUniformity(t *testing.T) {
	// Track where the first deck card lands over many seeded shuffles; every
	// final position should be hit roughly 1/52 of the time.
	deck := BuildDeck()
	target := deck[0].ID
	rng := rand.New(rand.NewSource(7))

	const runs = 5200
	counts := make([]int, len(deck))
	for i := 0; i < runs; i++ {
		out := Shuffle(deck, rng)
		for pos, c := range out {
			if c.ID == target {
				counts[pos]++
				break
			}
		}
	}

	want := runs / len(deck) // 100
	for pos, n := range counts {
		if n < want/2 || n > want*2 {
			t.Fatalf("position %d hit %d times, want about %d", pos, n, want)
		}
	}
}

func TestDeal(t *testing.T) {
	tests := []struct {
		name       string
		players    int
		perPlayer  int
		withTurnup bool
		wantErr    bool
	}{
		{name: "ninety-nine shape", players: 3, perPlayer: 12, withTurnup: true},
		{name: "hearts shape", players: 4, perPlayer: 13},
		{name: "too many cards", players: 4, perPlayer: 14, wantErr: true},
		{name: "turnup overflows", players: 4, perPlayer: 13, withTurnup: true, wantErr: true},
		{name: "zero players", players: 0, perPlayer: 13, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := Shuffle(BuildDeck(), rand.New(rand.NewSource(1)))
			res, err := Deal(deck, tt.players, tt.perPlayer, tt.withTurnup)
			if tt.wantErr {
				if err != ErrDeckTooSmall {
					t.Fatalf("Deal() error = %v, want ErrDeckTooSmall", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Deal() unexpected error: %v", err)
			}

			if len(res.Hands) != tt.players {
				t.Fatalf("hands = %d, want %d", len(res.Hands), tt.players)
			}
			total := 0
			for i, hand := range res.Hands {
				if len(hand) != tt.perPlayer {
					t.Fatalf("hand %d has %d cards, want %d", i, len(hand), tt.perPlayer)
				}
				total += len(hand)
			}
			turnup := 0
			if tt.withTurnup {
				if res.Turnup == nil {
					t.Fatalf("expected a turnup card")
				}
				if !res.Turnup.FaceUp {
					t.Fatalf("turnup must be face up")
				}
				turnup = 1
			}
			if total+len(res.Remaining)+turnup != len(deck) {
				t.Fatalf("card conservation broken: %d dealt + %d remaining + %d turnup != %d",
					total, len(res.Remaining), turnup, len(deck))
			}
		})
	}
}
