package nnue

import "github.com/plentychess/plenty/internal/board"

// Feature indexing for the 768-input transformer. Each perspective
// sees the board from its own side: the opponent perspective mirrors
// ranks and swaps piece colors, so one weight set serves both.

// FeatureIndex returns the input index of a piece on a square as seen
// from the given perspective.
func FeatureIndex(perspective board.Color, pt board.PieceType, pc board.Color, sq board.Square) int {
	if perspective == board.Black {
		sq = sq.Mirror()
		pc = pc.Other()
	}
	return (int(pc)*6+int(pt))*64 + int(sq)
}

// KingBucket selects the feature-weight matrix for a perspective from
// its king placement. Black mirrors the rank first; the back half of
// the board shares coarse buckets, the front half splits by rank and
// by king side.
func KingBucket(ksq board.Square, c board.Color) int {
	rank := ksq.Rank()
	if c == board.Black {
		rank = 7 - rank
	}
	bucket := 0
	if rank >= 4 {
		bucket = 2 + 2*(rank-4)
	}
	if ksq.File() >= 4 {
		bucket++
	}
	return bucket
}
