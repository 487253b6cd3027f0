package engine

import (
	"github.com/plentychess/plenty/internal/board"
)

// TTFlag is the kind of bound an entry stores.
type TTFlag uint8

const (
	TTNone  TTFlag = iota // empty slot
	TTExact               // exact score
	TTLower               // failed high (beta cutoff)
	TTUpper               // failed low
)

// TTEntry is one transposition table slot.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Flag     TTFlag
	Age      uint8
}

// TranspositionTable is a direct-mapped cache of search results,
// indexed by hash & (size-1). It is the only state shared across
// iterative-deepening iterations.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8
}

// DefaultHashMB is the default table size.
const DefaultHashMB = 128

// NewTranspositionTable allocates a table of the given size in MB,
// rounded down to a power-of-two entry count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(24)
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the entry for hash if present.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	entry := tt.entries[hash&tt.mask]
	if entry.Flag != TTNone && entry.Key == hash {
		return entry, true
	}
	return TTEntry{}, false
}

// Store writes an entry. Replacement prefers higher depth, then newer
// generation: a slot survives only against a shallower store from its
// own generation.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, bestMove board.Move) {
	entry := &tt.entries[hash&tt.mask]
	if entry.Flag != TTNone && entry.Age == tt.age && depth < int(entry.Depth) {
		return
	}
	entry.Key = hash
	entry.BestMove = bestMove
	entry.Score = int16(score)
	entry.Depth = int8(depth)
	entry.Flag = flag
	entry.Age = tt.age
}

// NewSearch bumps the generation counter.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
}

// HashFull estimates table occupancy in permille from a fixed sample.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if uint64(sample) > tt.size {
		sample = int(tt.size)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Flag != TTNone && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / sample
}

// Size returns the entry count.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Mate scores are stored relative to the storing node so the entry
// stays correct probed from any ply: normalize toward the root on the
// way in, back-adjust on the way out.

// AdjustScoreToTT converts a search score for storage.
func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// AdjustScoreFromTT converts a stored score for use at a probe ply.
func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
