// Package match decides whether a candidate move satisfies a mark expression on a given
// board, per spec §4.5.
package match

import (
	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/vocab"
)

// Context carries the extra state an atom may need beyond the move and destination board:
// the previous move made by the same player (for the `"` mark). Whether a draw claim needs
// reverification after the move is reported on Result, not carried here.
type Context struct {
	Dialect      vocab.Dialect
	StandardHome bool // true while evaluating direction marks against the mover's own base ranks

	PrevOwnMove *board.Move // the same player's previous move, if any
}

// Result carries the outcome of matching a single expression, including whether a draw claim
// needs post-move reverification (spec §4.5, the `=`/`/` mark).
type Result struct {
	Matched   bool
	MustDraw  bool
}

// Match evaluates expr against m (a legal move about to be tried from the position the move
// was generated on). It returns false as soon as any atom in the selected group yields the
// wrong outcome (spec §4.5: "once any atom yields the wrong outcome, the move fails").
func Match(expr model.MarkExpr, m board.Move, ctx Context) Result {
	if expr.IsZero() {
		return Result{Matched: true}
	}

	for _, group := range expr {
		if ok, mustDraw := matchGroup(group, m, ctx); ok {
			return Result{Matched: true, MustDraw: mustDraw}
		}
	}
	return Result{}
}

func matchGroup(group model.MarkGroup, m board.Move, ctx Context) (bool, bool) {
	mustDraw := false
	for _, atom := range group {
		ok, draw := matchAtom(atom.Mark, m, ctx)
		if draw {
			mustDraw = true
		}
		if ok == atom.Negate {
			return false, false
		}
	}
	return true, mustDraw
}

func matchAtom(mark rune, m board.Move, ctx Context) (matched bool, mustDraw bool) {
	d := ctx.Dialect

	switch {
	case isFileMark(mark):
		f, _ := board.ParseFile(mark)
		if m.To.File() == f {
			return true, false
		}
		if m.Type == board.KingSideCastle && f == board.FileG {
			return true, false
		}
		if m.Type == board.QueenSideCastle && f == board.FileC {
			return true, false
		}
		if d == vocab.PGN && m.IsCapture() && m.Piece == board.Pawn && m.From.File() == f {
			return true, false
		}
		return false, false

	case isRankMark(mark):
		r, _ := board.ParseRank(mark)
		if m.IsCastle() {
			return false, false
		}
		return m.To.Rank() == r, false

	case mark == 'P' || mark == 'N' || mark == 'R' || mark == 'Q' || mark == 'K':
		p, _ := board.ParsePiece(mark)
		if m.Piece == p {
			return true, false
		}
		if d == vocab.PGN && m.IsPromotion() && m.Promotion == p {
			return true, false
		}
		return false, false

	case mark == 'B' && d != vocab.Classic:
		if m.Piece == board.Bishop {
			return true, false
		}
		if d == vocab.PGN && m.IsPromotion() && m.Promotion == board.Bishop {
			return true, false
		}
		return false, false

	case mark == 'L':
		return m.Piece == board.Bishop, false

	case mark == 'n' || mark == 'l' || mark == 'r' || mark == 'q':
		if d == vocab.PGN {
			return false, false
		}
		return m.IsPromotion() && m.Promotion == promotionFromLower(mark), false

	case mark == 'p' && d == vocab.Extended:
		return m.IsPromotion(), false

	case mark == '=' && d == vocab.PGN:
		return m.IsPromotion(), false

	case mark == 'x':
		return m.IsCapture(), false

	case mark == '%':
		return m.Type == board.EnPassant, false

	case mark == 'o':
		if d == vocab.Classic || d == vocab.Extended {
			return m.Type == board.KingSideCastle, false
		}
		return false, false

	case mark == 'O':
		switch d {
		case vocab.Classic, vocab.Extended:
			return m.Type == board.QueenSideCastle, false
		case vocab.PGN:
			return m.IsCastle(), false
		}
		return false, false

	case mark == '-' && d == vocab.PGN:
		return m.IsCastle(), false

	case mark == '-' && d == vocab.Extended:
		return !m.IsCapture(), false

	case mark == '0' && d == vocab.Extended:
		return m.IsCastle(), false

	case mark == '+':
		return m.IsCheck && !m.IsPromotion(), false

	case mark == '#':
		return m.IsCheck && m.IsMate && !m.IsPromotion(), false

	case mark == '=' && d != vocab.PGN:
		return false, true // stalemate/forced-draw claim; caller reverifies against the resulting board

	case mark == '/' && d == vocab.PGN:
		return false, true

	case mark == '~' || mark == '.':
		return true, false

	case mark == '|' && d == vocab.Extended:
		return m.From.File() == m.To.File(), false

	case mark == '_' && d == vocab.Extended:
		return m.From.Rank() == m.To.Rank(), false

	case (mark == '/' || mark == '\\') && d != vocab.PGN:
		df := int(m.From.File()) - int(m.To.File()) // files count from H, so this is the eastward delta
		dr := int(m.To.Rank()) - int(m.From.Rank())
		if df == 0 || abs(df) != abs(dr) {
			return false, false
		}
		if mark == '/' {
			return (df > 0) == (dr > 0), false // NE/SW diagonal: "/" is the NE-going one
		}
		return (df > 0) != (dr > 0), false // NW/SE diagonal

	case mark == '<' && d == vocab.Extended:
		return int(m.To.File()) < int(m.From.File()), false
	case mark == '>' && d == vocab.Extended:
		return int(m.To.File()) > int(m.From.File()), false
	case mark == '^' && d == vocab.Extended:
		return int(m.To.Rank()) > int(m.From.Rank()), false
	case mark == 'v' && d == vocab.Extended:
		return int(m.To.Rank()) < int(m.From.Rank()), false

	case mark == '"' && d == vocab.Extended:
		if ctx.PrevOwnMove == nil {
			return false, false
		}
		prevTo := ctx.PrevOwnMove.To
		if ctx.PrevOwnMove.Type == board.KingSideCastle {
			prevTo = board.NewSquare(board.FileG, ctx.PrevOwnMove.From.Rank())
		}
		if ctx.PrevOwnMove.Type == board.QueenSideCastle {
			prevTo = board.NewSquare(board.FileC, ctx.PrevOwnMove.From.Rank())
		}
		return m.From == prevTo, false

	default:
		return false, false
	}
}

func isFileMark(r rune) bool {
	return r >= 'a' && r <= 'h'
}

func isRankMark(r rune) bool {
	return r >= '1' && r <= '8'
}

func promotionFromLower(r rune) board.Piece {
	switch r {
	case 'n':
		return board.Knight
	case 'l':
		return board.Bishop
	case 'r':
		return board.Rook
	case 'q':
		return board.Queen
	default:
		return board.NoPiece
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
