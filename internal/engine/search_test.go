package engine

import (
	"testing"
	"time"

	"github.com/plentychess/plenty/internal/board"
)

func TestSearchStartingPosition(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move := eng.Search(pos, SearchLimits{Depth: 4})
	if move == board.NoMove {
		t.Fatal("search returned no move for the starting position")
	}

	reasonable := map[string]bool{
		"e2e4": true, "d2d4": true, "g1f3": true, "b1c3": true, "c2c4": true,
	}
	if !reasonable[move.String()] {
		t.Errorf("best move %s is not a reasonable opening move", move)
	}
}

func TestSearchFindsMate(t *testing.T) {
	// KR vs K with the black king cornered: white mates shortly.
	pos, err := board.ParseFEN("8/8/8/8/8/8/R7/4K2k w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	eng := NewEngine(16)

	var lastScore int
	eng.OnInfo = func(info SearchInfo) {
		lastScore = info.Score
	}

	move := eng.Search(pos, SearchLimits{Depth: 12})
	if move == board.NoMove {
		t.Fatal("search returned no move")
	}
	if !IsMateScore(lastScore) || lastScore <= 0 {
		t.Errorf("score %d should report a winning mate", lastScore)
	}
	if n := MateIn(lastScore); n <= 0 {
		t.Errorf("MateIn(%d) = %d, want positive", lastScore, n)
	}
}

func TestSearchBareKings(t *testing.T) {
	pos, err := board.ParseFEN("7k/8/8/8/8/8/8/7K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	if ev := Evaluate(pos); ev < -50 || ev > 50 {
		t.Errorf("bare kings evaluate to %d, want near zero", ev)
	}

	eng := NewEngine(16)
	move := eng.Search(pos, SearchLimits{Depth: 4})
	if !pos.GenerateLegalMoves().Contains(move) {
		t.Errorf("search returned %s, not a legal king move", move)
	}
}

func TestSearchAfterOpeningMoves(t *testing.T) {
	// position startpos moves e2e4 e7e5 g1f3 b8c6 f1b5: black to move.
	pos := board.NewPosition()
	hashes := []uint64{pos.Hash}
	for _, ms := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		m := findLegalMove(t, pos, ms)
		var undo board.Undo
		pos.MakeMove(m, &undo)
		hashes = append(hashes, pos.Hash)
	}
	if pos.SideToMove != board.Black {
		t.Fatalf("expected black to move")
	}

	eng := NewEngine(16)
	eng.SetPositionHistory(hashes)
	move := eng.Search(pos, SearchLimits{Depth: 4})
	if !pos.GenerateLegalMoves().Contains(move) {
		t.Errorf("search returned %s, not legal for black here", move)
	}
}

func findLegalMove(t *testing.T, pos *board.Position, s string) board.Move {
	t.Helper()
	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i).String() == s {
			return legal.Get(i)
		}
	}
	t.Fatalf("move %s not legal in %s", s, pos.ToFEN())
	return board.NoMove
}

func TestStalemateAndCheckmateScores(t *testing.T) {
	eng := NewEngine(16)

	// Black is checkmated: back-rank mate already delivered.
	mate, err := board.ParseFEN("R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !mate.InCheck() || mate.HasLegalMoves() {
		t.Fatalf("test position is not checkmate")
	}
	eng.searcher.prepare(mate, 0, 0)
	if score := eng.searcher.negamax(3, 1, -Infinity, Infinity); score != -(MateScore - 1) {
		t.Errorf("checkmate at ply 1 scored %d, want %d", score, -(MateScore - 1))
	}

	// Black is stalemated: king in the corner, no moves, no check.
	stale, err := board.ParseFEN("7k/5Q2/8/8/8/8/8/6K1 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if stale.InCheck() || stale.HasLegalMoves() {
		t.Fatalf("test position is not stalemate")
	}
	eng.searcher.prepare(stale, 0, 0)
	if score := eng.searcher.negamax(3, 1, -Infinity, Infinity); score != 0 {
		t.Errorf("stalemate scored %d, want 0", score)
	}
}

func TestSearchRespectsTimeLimit(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	start := time.Now()
	move := eng.Search(pos, SearchLimits{MoveTime: 50 * time.Millisecond})
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Error("timed search returned no move")
	}
	// The clock is checked every 4096 nodes, so the search overruns the
	// budget slightly; the bound here is loose on purpose.
	if elapsed > 2*time.Second {
		t.Errorf("search ran %v against a 50ms budget", elapsed)
	}
}

func TestSearchStop(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	done := make(chan board.Move, 1)
	go func() {
		done <- eng.Search(pos, SearchLimits{Infinite: true})
	}()

	time.Sleep(100 * time.Millisecond)
	eng.Stop()

	select {
	case move := <-done:
		if move == board.NoMove {
			t.Error("stopped search returned no move")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop")
	}
}

func TestThreefoldRepetitionScoresDraw(t *testing.T) {
	// Shuffle a knight and the king back and forth so the root
	// position recurs.
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/1N2K3 w - - 10 30")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	hashes := []uint64{pos.Hash}
	var undo board.Undo
	for _, ms := range []string{"b1c3", "e8d8", "c3b1", "d8e8", "b1c3", "e8d8", "c3b1", "d8e8"} {
		m := findLegalMove(t, pos, ms)
		pos.MakeMove(m, &undo)
		hashes = append(hashes, pos.Hash)
	}

	eng := NewEngine(16)
	eng.SetPositionHistory(hashes)
	eng.searcher.prepare(pos, 0, 0)
	if !eng.searcher.isRepetition() {
		t.Errorf("position repeated in the game history was not flagged")
	}
}

func TestFormatScore(t *testing.T) {
	if got := FormatScore(123); got != "cp 123" {
		t.Errorf("FormatScore(123) = %q", got)
	}
	if got := FormatScore(MateScore - 3); got != "mate 2" {
		t.Errorf("FormatScore(mate in 2) = %q", got)
	}
	if got := FormatScore(-(MateScore - 4)); got != "mate -2" {
		t.Errorf("FormatScore(mated in 2) = %q", got)
	}
}
