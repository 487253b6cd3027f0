package engine

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/plentychess/plenty/internal/board"
)

// Score bounds.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// heartbeatNodes is the logging granularity for long searches.
const heartbeatNodes = 100000

// PVTable is the triangular principal-variation store, reset per
// iteration.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher runs one search session: single-threaded, synchronous,
// cooperatively cancelled. It owns the board copy, the move ordering
// tables and the repetition history; the transposition table is shared
// across its iterations.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	eval    *Evaluator

	nodes    uint64
	seldepth int

	stopFlag   atomic.Bool
	shouldStop bool
	startTime  time.Time
	timeLimit  time.Duration
	nodeLimit  uint64

	pv PVTable

	undoStack [MaxPly]board.Undo

	// Position hashes from the game history plus the current search
	// path; used for repetition detection.
	history     [MaxPly + 1024]uint64
	historyLen  int
	rootHistory []uint64
}

// NewSearcher creates a searcher bound to a shared table.
func NewSearcher(tt *TranspositionTable, eval *Evaluator) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
		eval:    eval,
	}
}

// Stop requests cooperative cancellation; the in-flight node unwinds
// with a don't-care score that the root discards.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Stopped reports whether the current search was told to stop.
func (s *Searcher) Stopped() bool {
	return s.shouldStop
}

// Nodes returns the node count of the current search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SelDepth returns the deepest ply quiescence reached.
func (s *Searcher) SelDepth() int {
	return s.seldepth
}

// SetRootHistory installs the game's position hashes for repetition
// detection; the last entry is the root position itself.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.rootHistory = append(s.rootHistory[:0], hashes...)
}

// prepare readies the searcher for a search from pos.
func (s *Searcher) prepare(pos *board.Position, timeLimit time.Duration, nodeLimit uint64) {
	s.pos = pos.Copy()
	s.nodes = 0
	s.seldepth = 0
	s.shouldStop = false
	s.stopFlag.Store(false)
	s.startTime = time.Now()
	s.timeLimit = timeLimit
	s.nodeLimit = nodeLimit

	rootLen := len(s.rootHistory)
	if max := len(s.history) - MaxPly; rootLen > max {
		copy(s.history[:max], s.rootHistory[rootLen-max:])
		rootLen = max
	} else {
		copy(s.history[:rootLen], s.rootHistory)
	}
	if rootLen == 0 || s.history[rootLen-1] != s.pos.Hash {
		s.history[rootLen] = s.pos.Hash
		rootLen++
	}
	s.historyLen = rootLen

	s.orderer.ClearKillers()
	s.eval.Reset(s.pos)
}

// Elapsed returns the time since the search started.
func (s *Searcher) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// checkStop is consulted before expanding a node. The hard time check
// runs on a 4096-node granularity; the external flag every node.
func (s *Searcher) checkStop() bool {
	if s.shouldStop {
		return true
	}
	if s.stopFlag.Load() {
		s.shouldStop = true
		return true
	}
	if s.nodes&4095 == 0 {
		if s.timeLimit > 0 && time.Since(s.startTime) >= s.timeLimit {
			s.shouldStop = true
			return true
		}
		if s.nodeLimit > 0 && s.nodes >= s.nodeLimit {
			s.shouldStop = true
			return true
		}
	}
	return false
}

// SearchDepth runs one full-window iteration and returns the score and
// the move the PV starts with.
func (s *Searcher) SearchDepth(depth int) (board.Move, int) {
	score := s.negamax(depth, 0, -Infinity, Infinity)

	var best board.Move
	if s.pv.length[0] > 0 {
		best = s.pv.moves[0][0]
	}
	return best, score
}

// PV returns the principal variation of the last iteration.
func (s *Searcher) PV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// isRepetition scans the reversible-move window of the history stack
// for the current hash and reports a threefold repetition: two earlier
// occurrences. The top entry is the current position and is skipped.
func (s *Searcher) isRepetition() bool {
	cur := s.pos.Hash
	limit := s.historyLen - 1 - s.pos.HalfMoveClock
	if limit < 0 {
		limit = 0
	}
	seen := 0
	for i := s.historyLen - 2; i >= limit; i-- {
		if s.history[i] == cur {
			seen++
			if seen >= 2 {
				return true
			}
		}
	}
	return false
}

func (s *Searcher) pushHistory() {
	if s.historyLen < len(s.history) {
		s.history[s.historyLen] = s.pos.Hash
		s.historyLen++
	}
}

func (s *Searcher) popHistory() {
	s.historyLen--
}

// negamax is the alpha-beta search. Scores are from the side to move's
// perspective; mate found at ply p scores -(MateScore - p).
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	if ply >= MaxPly-1 {
		return s.eval.Evaluate(s.pos)
	}
	if s.checkStop() {
		return 0
	}

	s.nodes++
	if s.nodes%heartbeatNodes == 0 {
		log.Printf("[Search] nodes=%d elapsed=%v", s.nodes, s.Elapsed().Round(time.Millisecond))
	}

	s.pv.length[ply] = ply

	if ply > 0 {
		if s.pos.HalfMoveClock >= 100 || s.isRepetition() || s.pos.IsInsufficientMaterial() {
			return 0
		}
	}

	// Transposition probe. The stored move always feeds ordering; the
	// score may cut only off the root.
	var ttMove board.Move
	if entry, ok := s.tt.Probe(s.pos.Hash); ok {
		ttMove = entry.BestMove
		if ply > 0 && int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLower:
				if score > alpha {
					alpha = score
				}
			case TTUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()

	// Null-move pruning: hand the opponent a free move and see whether
	// the position still fails high. Skipped with few pieces left,
	// where zugzwang makes the free move an asset.
	if depth >= 3 && ply > 0 && !inCheck && s.pos.AllOccupied.PopCount() > 7 {
		r := 2
		if depth >= 6 {
			r = 3
		}
		undo := s.pos.MakeNullMove()
		s.eval.PushNull()
		s.pushHistory()
		score := -s.negamax(depth-1-r, ply+1, -beta, -beta+1)
		s.popHistory()
		s.eval.Pop()
		s.pos.UnmakeNullMove(undo)
		if s.shouldStop {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	var moves board.MoveList
	s.pos.GenerateMoves(&moves)
	var scores [256]int
	s.orderer.ScoreMoves(s.pos, &moves, ply, ttMove, &scores)
	SortTop(&moves, &scores, sortedMoves)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpper
	legal := 0
	quiets := 0

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		if !s.pos.TryMove(move, &s.undoStack[ply]) {
			continue
		}
		legal++
		s.eval.PushMove(s.pos, move, s.undoStack[ply].Captured)
		s.pushHistory()

		isQuiet := !move.IsCapture()
		if isQuiet {
			quiets++
		}

		// Late-move reduction: late quiet moves get a shallower look
		// first and only earn the full depth by beating alpha.
		reduction := 0
		if isQuiet && quiets >= 4 && depth >= 3 && !s.pos.InCheck() {
			reduction = 1
			if quiets > 6 {
				reduction = 2
			}
			if depth >= 6 && quiets > 12 {
				reduction = 3
			}
		}

		score := -s.negamax(depth-1-reduction, ply+1, -beta, -alpha)
		if reduction > 0 && score > alpha && !s.shouldStop {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		}

		s.popHistory()
		s.eval.Pop()
		s.pos.UnmakeMove(&s.undoStack[ply])

		if s.shouldStop {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLower, bestMove)
			if isQuiet {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth)
			}
			return score
		}
	}

	if legal == 0 {
		if inCheck {
			return -(MateScore - ply)
		}
		return 0
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	return bestScore
}

// quiescence resolves captures so the evaluation never lands on a
// position mid-exchange.
func (s *Searcher) quiescence(ply, alpha, beta int) int {
	if s.checkStop() {
		return 0
	}
	s.nodes++
	if ply > s.seldepth {
		s.seldepth = ply
	}

	standPat := s.eval.Evaluate(s.pos)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= MaxPly-1 {
		return alpha
	}

	var moves board.MoveList
	s.pos.GenerateCaptures(&moves)
	var scores [256]int
	s.orderer.ScoreMoves(s.pos, &moves, ply, board.NoMove, &scores)
	SortTop(&moves, &scores, sortedMoves)

	var undo board.Undo
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		if !s.pos.TryMove(move, &undo) {
			continue
		}
		s.eval.PushMove(s.pos, move, undo.Captured)

		score := -s.quiescence(ply+1, -beta, -alpha)

		s.eval.Pop()
		s.pos.UnmakeMove(&undo)

		if s.shouldStop {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
