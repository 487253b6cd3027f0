package board

import (
	"math/rand"
	"testing"
)

// Pdep and Pext must be exact inverses over any mask; the magic table
// initialization depends on it.
func TestPdepPextEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 1000; trial++ {
		mask := Bitboard(rng.Uint64())
		bits := mask.PopCount()
		src := rng.Uint64() & (uint64(1)<<uint(bits) - 1)

		deposited := Pdep(src, mask)
		if deposited&^mask != 0 {
			t.Fatalf("Pdep(%#x, %#x) set bits outside the mask", src, uint64(mask))
		}
		if got := Pext(deposited, mask); got != src {
			t.Fatalf("Pext(Pdep(%#x)) = %#x over mask %#x", src, got, uint64(mask))
		}
	}
}

// Enumerating 0..2^n-1 through Pdep must yield every subset of the
// mask exactly once.
func TestPdepEnumeratesSubsets(t *testing.T) {
	mask := rookMask(A1)
	bits := mask.PopCount()
	seen := make(map[Bitboard]bool)
	for i := uint64(0); i < 1<<bits; i++ {
		occ := Pdep(i, mask)
		if occ&^mask != 0 {
			t.Fatalf("subset %d escapes the mask", i)
		}
		if seen[occ] {
			t.Fatalf("subset %d duplicates an earlier occupancy", i)
		}
		seen[occ] = true
	}
	if len(seen) != 1<<bits {
		t.Fatalf("enumerated %d subsets, want %d", len(seen), 1<<bits)
	}
}

func TestPopLSB(t *testing.T) {
	b := SquareBB(C3) | SquareBB(H8) | SquareBB(A1)
	if sq := b.PopLSB(); sq != A1 {
		t.Errorf("first PopLSB = %v, want a1", sq)
	}
	if sq := b.PopLSB(); sq != C3 {
		t.Errorf("second PopLSB = %v, want c3", sq)
	}
	if sq := b.PopLSB(); sq != H8 {
		t.Errorf("third PopLSB = %v, want h8", sq)
	}
	if b != 0 {
		t.Errorf("bitboard not empty after popping all bits")
	}
	if sq := b.PopLSB(); sq != NoSquare {
		t.Errorf("PopLSB on empty board = %v, want NoSquare", sq)
	}
}

func TestMagicAttacksMatchSlowGenerator(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 500; trial++ {
		occ := Bitboard(rng.Uint64() & rng.Uint64())
		sq := Square(rng.Intn(64))
		if got, want := RookAttacks(sq, occ), rookAttacksSlow(sq, occ); got != want {
			t.Fatalf("rook attacks from %v mismatch for occ %#x", sq, uint64(occ))
		}
		if got, want := BishopAttacks(sq, occ), bishopAttacksSlow(sq, occ); got != want {
			t.Fatalf("bishop attacks from %v mismatch for occ %#x", sq, uint64(occ))
		}
	}
}

func TestMoveEncoding(t *testing.T) {
	m := NewPromotion(E7, E8, Capture, Queen)
	if m.From() != E7 || m.To() != E8 {
		t.Errorf("from/to = %v %v", m.From(), m.To())
	}
	if !m.IsPromotion() || m.Promotion() != Queen {
		t.Errorf("promotion decode failed: %v", m.Promotion())
	}
	if !m.IsCapture() {
		t.Errorf("capture kind lost in promotion encoding")
	}
	if m.String() != "e7e8q" {
		t.Errorf("String() = %q, want e7e8q", m.String())
	}

	if NoMove.String() != "0000" {
		t.Errorf("null move renders as %q", NoMove.String())
	}

	castle := NewMove(E1, G1, Castle)
	if !castle.IsCastle() || castle.IsCapture() || castle.IsPromotion() {
		t.Errorf("castle kind decode failed")
	}
	if castle.String() != "e1g1" {
		t.Errorf("castling String() = %q, want e1g1", castle.String())
	}
}
