package board

import (
	"math/rand"
	"testing"
)

// Walk random legal games and verify that unmake restores the exact
// prior state, including the hash and cached material, and that the
// incrementally maintained hash always matches a from-scratch rehash.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	rng := rand.New(rand.NewSource(42))

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		for step := 0; step < 60; step++ {
			legal := pos.GenerateLegalMoves()
			if legal.Len() == 0 {
				break
			}
			m := legal.Get(rng.Intn(legal.Len()))

			before := *pos
			var undo Undo
			pos.MakeMove(m, &undo)

			if got, want := pos.Hash, pos.ComputeHash(); got != want {
				t.Fatalf("%q after %v: incremental hash %016x != recomputed %016x", fen, m, got, want)
			}
			var matCheck Position
			matCheck = *pos
			matCheck.computeMaterial()
			if pos.Material != matCheck.Material {
				t.Fatalf("%q after %v: cached material %d != recomputed %d", fen, m, pos.Material, matCheck.Material)
			}

			pos.UnmakeMove(&undo)
			if *pos != before {
				t.Fatalf("%q: unmake of %v did not restore the position", fen, m)
			}

			// Walk on so deeper states get covered too.
			pos.MakeMove(m, &undo)
		}
	}
}

func TestNullMoveRoundTrip(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos
	undo := pos.MakeNullMove()

	if pos.SideToMove != Black {
		t.Errorf("null move did not flip the side to move")
	}
	if pos.EnPassant != NoSquare {
		t.Errorf("null move must clear the en passant target")
	}
	if got, want := pos.Hash, pos.ComputeHash(); got != want {
		t.Errorf("hash after null move %016x != recomputed %016x", got, want)
	}

	pos.UnmakeNullMove(undo)
	if *pos != before {
		t.Errorf("unmake null move did not restore the position")
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"7k/8/8/8/8/8/8/7K w - - 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("round trip: got %q, want %q", got, fen)
		}
	}
}

func TestFENDefaults(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.HalfMoveClock != 0 {
		t.Errorf("half-move clock = %d, want default 0", pos.HalfMoveClock)
	}
	if pos.FullMoveNumber != 1 {
		t.Errorf("full-move number = %d, want default 1", pos.FullMoveNumber)
	}
}

func TestFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",     // 7 ranks
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -", // bad side
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w ZZ -",   // bad castling
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9", // bad ep square
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q) accepted invalid input", fen)
		}
	}
}

func TestStartPositionState(t *testing.T) {
	pos := NewPosition()
	if err := pos.Validate(); err != nil {
		t.Fatalf("starting position invalid: %v", err)
	}
	if pos.CastlingRights != AllCastling {
		t.Errorf("castling rights = %v, want KQkq", pos.CastlingRights)
	}
	if pos.KingSquare[White] != E1 || pos.KingSquare[Black] != E8 {
		t.Errorf("king squares = %v %v", pos.KingSquare[White], pos.KingSquare[Black])
	}
	// 16 pawns, 4 each of knights/bishops/rooks, 2 queens.
	want := 16*94 + 4*281 + 4*297 + 4*512 + 2*936
	if pos.Material != want {
		t.Errorf("material = %d, want %d", pos.Material, want)
	}
}

func TestCastlingRightsClearing(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	var undo Undo
	// King move clears both white rights.
	pos.MakeMove(NewMove(E1, E2, Quiet), &undo)
	if pos.CastlingRights&(WhiteKingSideCastle|WhiteQueenSideCastle) != 0 {
		t.Errorf("king move left white castling rights set: %v", pos.CastlingRights)
	}
	pos.UnmakeMove(&undo)

	// Rook move clears only the matching side.
	pos.MakeMove(NewMove(A1, A8, Capture), &undo)
	if pos.CastlingRights&WhiteQueenSideCastle != 0 {
		t.Errorf("a1 rook move left the queenside right set")
	}
	if pos.CastlingRights&BlackQueenSideCastle != 0 {
		t.Errorf("capturing the a8 rook left black's queenside right set")
	}
	if pos.CastlingRights&WhiteKingSideCastle == 0 {
		t.Errorf("kingside right should survive a queenside rook move")
	}
}

func TestEnPassantOnlyAfterDoublePush(t *testing.T) {
	pos := NewPosition()
	var undo Undo

	pos.MakeMove(NewMove(E2, E4, Quiet), &undo)
	if pos.EnPassant != E3 {
		t.Errorf("en passant = %v after e2e4, want e3", pos.EnPassant)
	}

	var reply Undo
	pos.MakeMove(NewMove(G8, F6, Quiet), &reply)
	if pos.EnPassant != NoSquare {
		t.Errorf("en passant target must clear after one ply, got %v", pos.EnPassant)
	}
}
