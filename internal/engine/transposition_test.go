package engine

import (
	"testing"

	"github.com/plentychess/plenty/internal/board"
)

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0xDEADBEEFCAFE1234)
	move := board.NewMove(board.E2, board.E4, board.Quiet)

	if _, ok := tt.Probe(hash); ok {
		t.Fatal("probe hit on an empty table")
	}

	tt.Store(hash, 5, 42, TTExact, move)
	entry, ok := tt.Probe(hash)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if entry.BestMove != move || entry.Score != 42 || entry.Depth != 5 || entry.Flag != TTExact {
		t.Errorf("entry round trip mangled: %+v", entry)
	}

	// A different hash mapping to the same slot must not be reported.
	other := hash ^ (tt.Size() << 1)
	if _, ok := tt.Probe(other); ok {
		t.Error("probe returned an entry for the wrong key")
	}
}

func TestTTReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0x1111222233334444)
	collide := hash + tt.Size() // same slot, different key

	tt.Store(hash, 8, 10, TTExact, board.NoMove)

	// Shallower store from the same generation loses.
	tt.Store(collide, 3, 99, TTExact, board.NoMove)
	if _, ok := tt.Probe(collide); ok {
		t.Error("shallow store replaced a deeper same-generation entry")
	}
	if _, ok := tt.Probe(hash); !ok {
		t.Error("deeper entry evicted by a shallow store")
	}

	// A new generation wins regardless of depth.
	tt.NewSearch()
	tt.Store(collide, 3, 99, TTExact, board.NoMove)
	if _, ok := tt.Probe(collide); !ok {
		t.Error("new-generation store could not replace a stale entry")
	}
}

func TestTTMateScoreNormalization(t *testing.T) {
	// Mate found 5 plies from the root, stored at ply 2: the entry holds
	// the distance from the storing node and is correct re-read from any
	// ply.
	score := MateScore - 5
	stored := AdjustScoreToTT(score, 2)
	if got := AdjustScoreFromTT(stored, 2); got != score {
		t.Errorf("round trip at the same ply: %d != %d", got, score)
	}
	// Probed from ply 4, the mate lies 2 plies further from the root.
	if got := AdjustScoreFromTT(stored, 4); got != score-2 {
		t.Errorf("probe at deeper ply = %d, want %d", got, score-2)
	}

	// Ordinary scores pass through untouched.
	if got := AdjustScoreToTT(100, 7); got != 100 {
		t.Errorf("plain score adjusted to %d", got)
	}
	if got := AdjustScoreFromTT(-250, 9); got != -250 {
		t.Errorf("plain score adjusted from TT to %d", got)
	}
}

// A TT hit must never contradict a recomputed search of the same
// position at the same depth.
func TestTTConsistentWithResearch(t *testing.T) {
	pos, err := board.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	eng := NewEngine(8)
	eng.searcher.prepare(pos, 0, 0)
	first := eng.searcher.negamax(4, 0, -Infinity, Infinity)

	// Same position, fresh table: the exact full-window score agrees.
	eng2 := NewEngine(8)
	eng2.searcher.prepare(pos, 0, 0)
	second := eng2.searcher.negamax(4, 0, -Infinity, Infinity)

	if first != second {
		t.Errorf("full-window scores differ across instances: %d vs %d", first, second)
	}
}
