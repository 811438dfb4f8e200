// Package frontier implements the BFS frontier engine (spec §4.7) and its worker pool
// (spec §5): for each mark entry, every live position is expanded by every legal move matching
// that entry's marks and conditions, deduplicated by post-move position key.
package frontier

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/board/fen"
	"github.com/herohde/steno/pkg/steno/cond"
	"github.com/herohde/steno/pkg/steno/match"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/synth"
	"github.com/herohde/steno/pkg/steno/vocab"

	"github.com/seekerror/logw"
)

// Limits bounds a single solve, per spec §6.
type Limits struct {
	MaxPositionsToExamine int
	MaxCooksToKeep        int
	MaxSolverTasks        int
}

// Engine drives the frontier forward one mark entry at a time.
type Engine struct {
	Dialect vocab.Dialect
	Limits  Limits

	// prevOwnMove supports the `"` mark (spec §4.5): the same player's previous move, keyed by
	// the position it led to. Rebuilt fresh after each step, since the mark only looks one ply
	// back.
	prevOwnMove map[string]board.Move

	// zt backs the defensive FEN-reload integrity check (spec §9): a position's Zobrist hash
	// must survive the FEN round trip unchanged, or the board service has a bug.
	zt *board.ZobristTable
}

// NewEngine constructs a frontier Engine.
func NewEngine(d vocab.Dialect, limits Limits) *Engine {
	if limits.MaxSolverTasks <= 0 {
		limits.MaxSolverTasks = 1
	}
	return &Engine{Dialect: d, Limits: limits, zt: board.NewZobristTable(0)}
}

// StepResult reports what happened advancing one mark entry.
type StepResult struct {
	Next      model.Frontier
	Aborted   bool // position cap exceeded
	Cancelled bool
}

// Step advances the frontier by one mark entry, implementing the state machine of spec §4.7.
// entries and index give the full entry list and the index of the entry being processed, so
// that fen_could_solve lookahead (spec §4.7) can inspect future entries.
func (e *Engine) Step(ctx context.Context, cur model.Frontier, entries []model.MarkEntry, index int) (*StepResult, error) {
	entry := entries[index]

	next := make(model.Frontier)
	impossible := make(map[string]struct{})
	var mu sync.Mutex
	aborted := false

	keys := cur.Keys()
	nextPrevOwnMove := make(map[string]board.Move)

	workers := e.Limits.MaxSolverTasks
	if len(keys) > 0 && workers > len(keys) {
		workers = len(keys)
	}
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	var idx counter

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				i := idx.next()
				if i >= len(keys) {
					return nil
				}
				e.expandPosition(gctx, cur[keys[i]], entry, entries, index, next, impossible, &mu, nextPrevOwnMove, &aborted)
			}
		})
	}
	_ = g.Wait() // expandPosition reports errors only via logging; no worker ever returns one

	if ctx.Err() != nil {
		return &StepResult{Cancelled: true}, nil
	}
	if aborted {
		return &StepResult{Aborted: true}, nil
	}

	for k := range impossible {
		delete(next, k)
	}

	e.prevOwnMove = nextPrevOwnMove
	return &StepResult{Next: next}, nil
}

type counter struct {
	mu sync.Mutex
	v  int
}

func (c *counter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.v
	c.v++
	return v
}

// expandPosition tries every legal move from p against entry's marks/conditions, inserting
// accepted successors into next (guarded by mu).
func (e *Engine) expandPosition(
	ctx context.Context,
	p *model.Position,
	entry model.MarkEntry,
	entries []model.MarkEntry,
	index int,
	next model.Frontier,
	impossible map[string]struct{},
	mu *sync.Mutex,
	nextPrevOwnMove map[string]board.Move,
	aborted *bool,
) {
	mctx := match.Context{Dialect: e.Dialect}
	if prev, ok := e.prevOwnMove[p.Key]; ok {
		mctx.PrevOwnMove = &prev
	}

	for _, m := range p.Board.LegalMoves() {
		if ctx.Err() != nil {
			return
		}

		r := match.Match(entry.Marks, m, mctx)
		if !r.Matched {
			continue
		}
		if !entry.MetaMarks.IsZero() {
			if mr := match.Match(entry.MetaMarks, m, mctx); !mr.Matched {
				continue
			}
		}

		// Defensive FEN-reload, per spec §9: copy the board via FEN before make-move, and
		// reject the candidate if the copy reports a pre-existing endgame the original board's
		// Classify missed.
		reloaded, ok := e.reloadViaFEN(p.Board)
		if !ok {
			continue
		}
		if reloaded.Classify().IsDecided() {
			continue
		}

		nextBoard, ok := reloaded.MakeMove(m)
		if !ok {
			continue
		}

		terminal := nextBoard.Classify()
		if r.MustDraw && !terminal.IsDraw(0) {
			continue
		}

		// Extend every source MoveSet with this move's capture/promotion before evaluating
		// conditions, per spec §4.6 ("before evaluation, extend the MoveSets with this move's
		// promotion/capture"), so X/= conditions see this move folded into the cumulative
		// history. Different cooks reaching p can carry different histories, so a move that
		// satisfies a condition via one cook's history but not another's keeps only the cooks it
		// actually satisfies.
		captured, promoted, light := moveExtension(m)
		var extended []model.MoveSet
		for _, ms := range p.MoveSets {
			ext := ms.Extend(m.String(), captured, promoted, light)
			if terminal.IsDecided() {
				ext = ext.WithResult(terminal.String())
			}
			if !cond.Evaluate(entry.Conditions, nextBoard.Position(), entry.Color, m, ext) ||
				!cond.Evaluate(entry.MetaConditions, nextBoard.Position(), entry.Color, m, ext) {
				continue
			}
			extended = append(extended, ext)
		}
		if len(extended) == 0 {
			continue
		}

		k := fen.Key(nextBoard.Position(), nextBoard.Turn())

		mu.Lock()
		if existing, found := next[k]; found {
			existing.MoveSets = capMoveSets(append(existing.MoveSets, extended...), e.Limits.MaxCooksToKeep)
			nextPrevOwnMove[k] = m
			mu.Unlock()
			continue
		}
		if e.Limits.MaxPositionsToExamine > 0 && len(next)+len(impossible) >= e.Limits.MaxPositionsToExamine {
			*aborted = true
			mu.Unlock()
			return
		}
		next[k] = &model.Position{Key: k, Board: nextBoard, CheckFuture: p.CheckFuture, MoveSets: capMoveSets(extended, e.Limits.MaxCooksToKeep)}
		np := next[k]
		mu.Unlock()

		if p.CheckFuture {
			stillLive := !CheckFuture(nextBoard.Position(), entries, index+1, e.Dialect)
			if stillLive {
				mu.Lock()
				impossible[k] = struct{}{}
				mu.Unlock()
				continue
			}
		}
		np.CheckFuture = hasFutureLookaheadMark(entries, index+1)

		mu.Lock()
		nextPrevOwnMove[k] = m
		mu.Unlock()
	}
}

// hasFutureLookaheadMark reports whether any remaining entry still carries a mark that
// fen_could_solve can usefully prune on (castling or pawn-dependent marks). Once none remain,
// CheckFuture flips to false and is inherited by successors (spec §4.7).
func hasFutureLookaheadMark(entries []model.MarkEntry, from int) bool {
	for i := from; i < len(entries); i++ {
		for _, g := range entries[i].Marks {
			for _, a := range g {
				if a.Negate {
					continue
				}
				if a.Mark == 'o' || a.Mark == 'O' || a.Mark == '0' || a.Mark == 'P' || a.Mark == 'p' {
					return true
				}
			}
		}
	}
	return false
}

func moveExtension(m board.Move) (captured, promoted board.Piece, light bool) {
	if m.IsCapture() {
		captured = m.Capture
		if captured == board.Bishop {
			light = board.SquareColor(m.To)
		}
	}
	if m.IsPromotion() {
		promoted = m.Promotion
		if promoted == board.Bishop {
			light = board.SquareColor(m.To)
		}
	}
	return
}

func capMoveSets(ms []model.MoveSet, capN int) []model.MoveSet {
	limit := capN + 1
	if capN <= 0 || len(ms) <= limit {
		return ms
	}
	return ms[:limit]
}

// reloadViaFEN is the defensive copy of spec §9: reconstruct the board from its own FEN before
// applying a move. Reports ok=false if that round trip itself fails, a hard board-service
// invariant violation that is logged and treated as internal (spec §7). The Zobrist hash of the
// reloaded position is compared against the original as a cheap integrity check on the
// encode/decode pair, independent of the FEN text itself.
func (e *Engine) reloadViaFEN(b *board.Board) (*board.Board, bool) {
	f := fen.Encode(b.Position(), b.Turn(), b.HalfmoveClock(), b.FullMoves())
	pos, turn, halfmove, fullmoves, err := fen.Decode(f)
	if err != nil {
		logw.Errorf(context.Background(), "internal board bug: FEN round trip failed for %q: %v", f, err)
		return nil, false
	}

	if want, got := e.zt.Hash(b.Position(), b.Turn()), e.zt.Hash(pos, turn); want != got {
		logw.Warningf(context.Background(), "internal board bug: zobrist hash drifted across FEN round trip for %q", f)
	}

	return board.NewBoard(pos, turn, halfmove, fullmoves), true
}

// CheckFuture is the fen_could_solve probe of spec §4.7: it returns false (prune) iff some
// future entry demands castling for a colour whose FEN castling field no longer offers it, or a
// pawn-dependent mark for a colour with no pawns left. Every other case conservatively returns
// true, per the TODO branches spec §9 explicitly permits to stay as permissive short-circuits.
func CheckFuture(pos *board.Position, entries []model.MarkEntry, fromIndex int, d vocab.Dialect) bool {
	for i := fromIndex; i < len(entries); i++ {
		e := entries[i]
		for _, g := range e.Marks {
			for _, a := range g {
				if a.Negate {
					continue
				}
				if d.IsCastleMark(a.Mark) && pos.Castling()&board.Both(e.Color) == 0 {
					return false
				}
				if (a.Mark == 'P' || a.Mark == 'p') && len(pos.Pieces(e.Color, board.Pawn)) == 0 {
					return false
				}
			}
		}
	}
	return true
}

// RunExtinctionSynthesis runs spec §4.4 rule 4 against the just-produced frontier.
func RunExtinctionSynthesis(entries []model.MarkEntry, afterIndex int, d vocab.Dialect, fr model.Frontier) {
	synth.ExtinctionRecovery(entries, afterIndex, d, func(c board.Color, p board.Piece) bool {
		for _, pos := range fr {
			if len(pos.Board.Position().Pieces(c, p)) > 0 {
				return true
			}
		}
		return false
	})
}
