// Package uci implements the Universal Chess Interface protocol on
// top of the engine's programmatic search API.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/plentychess/plenty/internal/board"
	"github.com/plentychess/plenty/internal/engine"
	"github.com/plentychess/plenty/internal/storage"
)

const (
	engineName   = "Plenty"
	engineAuthor = "The Plenty authors"
)

// UCI is the protocol handler. Commands come in line by line; searches
// run on their own goroutine so stop can interrupt them.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	// Position hashes from the game start, for repetition detection.
	positionHashes []uint64

	// Persisted preferences; nil when storage is unavailable.
	store   *storage.Store
	options *storage.EngineOptions

	searching  atomic.Bool
	searchDone chan struct{}
}

// New creates a protocol handler around an engine. store may be nil.
func New(eng *engine.Engine, store *storage.Store) *UCI {
	u := &UCI{
		engine:   eng,
		position: board.NewPosition(),
		store:    store,
		options:  storage.DefaultOptions(),
	}
	u.positionHashes = []uint64{u.position.Hash}
	if store != nil {
		if opts, err := store.LoadOptions(); err == nil {
			u.options = opts
		}
	}
	return u
}

// Run reads commands from stdin until quit or EOF.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !u.handleLine(line) {
			return
		}
	}
}

// handleLine dispatches one command; false means quit.
func (u *UCI) handleLine(line string) bool {
	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		fmt.Println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "setoption":
		u.handleSetOption(args)
	case "quit":
		u.handleStop()
		return false
	// Debug commands
	case "d":
		fmt.Println(u.position.String())
	case "perft":
		u.handlePerft(args)
	default:
		fmt.Fprintf(os.Stderr, "info string Unknown command: %s\n", cmd)
	}
	return true
}

func (u *UCI) handleUCI() {
	fmt.Printf("id name %s\n", engineName)
	fmt.Printf("id author %s\n", engineAuthor)
	fmt.Println()
	fmt.Printf("option name Hash type spin default %d min 1 max 4096\n", u.options.HashMB)
	fmt.Println("option name UseNNUE type check default false")
	fmt.Println("option name EvalFile type string default <empty>")
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
	u.positionHashes = []uint64{u.position.Hash}
}

// handlePosition sets up a position from startpos or a FEN, then plays
// out the listed moves. Bad input leaves the current position alone.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *board.Position
	moveStart := len(args)

	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				moveStart = i + 2
				break
			}
		}
		parsed, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid FEN: %v\n", err)
			return
		}
		pos = parsed
	default:
		fmt.Fprintf(os.Stderr, "info string Invalid position command: %s\n", args[0])
		return
	}

	hashes := []uint64{pos.Hash}
	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := matchLegalMove(pos, moveStr)
			if move == board.NoMove {
				fmt.Fprintf(os.Stderr, "info string Invalid move: %s\n", moveStr)
				return
			}
			var undo board.Undo
			pos.MakeMove(move, &undo)
			hashes = append(hashes, pos.Hash)
		}
	}

	u.position = pos
	u.positionHashes = hashes
}

// matchLegalMove resolves a long-algebraic string against the legal
// moves, so castling and en passant come back correctly tagged.
func matchLegalMove(pos *board.Position, moveStr string) board.Move {
	if len(moveStr) < 4 || len(moveStr) > 5 {
		return board.NoMove
	}
	from, err := board.ParseSquare(moveStr[0:2])
	if err != nil {
		return board.NoMove
	}
	to, err := board.ParseSquare(moveStr[2:4])
	if err != nil {
		return board.NoMove
	}

	var promo board.PieceType = board.NoPieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		default:
			return board.NoMove
		}
	}

	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if promo != board.NoPieceType {
			if m.IsPromotion() && m.Promotion() == promo {
				return m
			}
		} else if !m.IsPromotion() {
			return m
		}
	}
	return board.NoMove
}

// goOptions are the parsed arguments of a go command.
type goOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

func (u *UCI) handleGo(args []string) {
	if u.searching.Load() {
		fmt.Fprintln(os.Stderr, "info string Search already running")
		return
	}

	opts := parseGoOptions(args)
	limits := u.limitsFor(opts)

	u.engine.SetPositionHistory(u.positionHashes)

	var lastDepth int
	var lastNodes uint64
	u.engine.OnInfo = func(info engine.SearchInfo) {
		lastDepth = info.Depth
		lastNodes = info.Nodes
		u.sendInfo(info)
	}

	u.searching.Store(true)
	u.searchDone = make(chan struct{})
	pos := u.position.Copy()

	go func() {
		defer close(u.searchDone)
		defer u.searching.Store(false)

		start := time.Now()
		bestMove := u.engine.Search(pos, limits)
		u.recordSearch(lastNodes, lastDepth, start)

		// Never emit a move the current position does not allow.
		legal := u.position.GenerateLegalMoves()
		if bestMove != board.NoMove && legal.Contains(bestMove) {
			fmt.Printf("bestmove %s\n", bestMove)
			return
		}
		if bestMove != board.NoMove {
			fmt.Fprintf(os.Stderr, "info string Search returned illegal move %s\n", bestMove)
		}
		if legal.Len() > 0 {
			fmt.Printf("bestmove %s\n", legal.Get(0))
		} else {
			fmt.Println("bestmove 0000")
		}
	}()
}

func (u *UCI) recordSearch(nodes uint64, depth int, start time.Time) {
	if u.store == nil {
		return
	}
	if err := u.store.RecordSearch(nodes, depth, time.Since(start)); err != nil {
		fmt.Fprintf(os.Stderr, "info string Stats not recorded: %v\n", err)
	}
}

func parseGoOptions(args []string) goOptions {
	opts := goOptions{}
	ms := func(i int) time.Duration {
		v, _ := strconv.Atoi(args[i])
		return time.Duration(v) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				opts.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				opts.MoveTime = ms(i + 1)
				i++
			}
		case "wtime":
			if i+1 < len(args) {
				opts.WTime = ms(i + 1)
				i++
			}
		case "btime":
			if i+1 < len(args) {
				opts.BTime = ms(i + 1)
				i++
			}
		case "winc":
			if i+1 < len(args) {
				opts.WInc = ms(i + 1)
				i++
			}
		case "binc":
			if i+1 < len(args) {
				opts.BInc = ms(i + 1)
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "infinite":
			opts.Infinite = true
		}
	}
	return opts
}

// limitsFor converts go arguments into engine limits, budgeting clock
// time when only wtime/btime are given.
func (u *UCI) limitsFor(opts goOptions) engine.SearchLimits {
	limits := engine.SearchLimits{
		Depth: opts.Depth,
		Nodes: opts.Nodes,
	}
	if opts.Infinite {
		limits.Infinite = true
		return limits
	}
	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
		return limits
	}
	if opts.WTime > 0 || opts.BTime > 0 {
		limits.MoveTime = u.timeForMove(opts)
	}
	return limits
}

func (u *UCI) timeForMove(opts goOptions) time.Duration {
	ourTime, ourInc := opts.WTime, opts.WInc
	if u.position.SideToMove == board.Black {
		ourTime, ourInc = opts.BTime, opts.BInc
	}

	movesRemaining := opts.MovesToGo
	if movesRemaining == 0 {
		movesRemaining = u.estimateMovesRemaining()
	}

	moveTime := ourTime/time.Duration(movesRemaining) + ourInc*9/10

	if max := ourTime * 9 / 10; moveTime > max {
		moveTime = max
	}
	if moveTime < 10*time.Millisecond {
		moveTime = 10 * time.Millisecond
	}
	return moveTime
}

func (u *UCI) estimateMovesRemaining() int {
	switch pieces := u.position.AllOccupied.PopCount(); {
	case pieces > 24:
		return 40
	case pieces > 12:
		return 30
	default:
		return 20
	}
}

// sendInfo prints one iteration's progress in UCI syntax.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("seldepth %d", info.SelDepth),
		fmt.Sprintf("score %s", engine.FormatScore(info.Score)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.NPS > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", info.NPS))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}
	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

func (u *UCI) handleStop() {
	if u.searching.Load() {
		u.engine.Stop()
		<-u.searchDone
	}
}

// handleSetOption parses "setoption name <name> value <value>" and
// persists recognized options.
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	target := (*string)(nil)
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target == nil {
				continue
			}
			if *target != "" {
				*target += " "
			}
			*target += arg
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		sizeMB, err := strconv.Atoi(value)
		if err != nil || sizeMB < 1 {
			fmt.Fprintf(os.Stderr, "info string Invalid Hash value: %s\n", value)
			return
		}
		u.engine.ResizeHash(sizeMB)
		u.options.HashMB = sizeMB
	case "usennue":
		use := strings.EqualFold(value, "true")
		if use {
			if u.options.EvalFile == "" {
				fmt.Fprintln(os.Stderr, "info string No EvalFile set, staying classical")
				return
			}
			if err := u.engine.Evaluator().LoadNetwork(u.options.EvalFile); err != nil {
				fmt.Fprintf(os.Stderr, "info string Failed to load network: %v\n", err)
				return
			}
		}
		u.options.UseNNUE = use
	case "evalfile":
		u.options.EvalFile = value
		if u.options.UseNNUE {
			if err := u.engine.Evaluator().LoadNetwork(value); err != nil {
				fmt.Fprintf(os.Stderr, "info string Failed to load network: %v\n", err)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "info string Unknown option: %s\n", name)
		return
	}

	if u.store != nil {
		if err := u.store.SaveOptions(u.options); err != nil {
			fmt.Fprintf(os.Stderr, "info string Options not persisted: %v\n", err)
		}
	}
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position.Copy(), depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
