// Package cond evaluates bracketed post-move conditions against a resulting board and move
// history, per spec §4.6/§3.
package cond

import (
	"strings"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
)

// Evaluate reports whether every group in expr holds against the position reached by m (whose
// mover was color), given the MoveSet as extended by this move (captures/promotions already
// folded in by the caller via model.MoveSet.Extend).
func Evaluate(expr model.CondExpr, pos *board.Position, color board.Color, m board.Move, ms model.MoveSet) bool {
	for _, group := range expr {
		if !evalGroup(group, pos, color, m, ms) {
			return false
		}
	}
	return true
}

func evalGroup(group model.CondGroup, pos *board.Position, color board.Color, m board.Move, ms model.MoveSet) bool {
	for _, alt := range group {
		if evalAlt(alt, pos, color, m, ms) {
			return true
		}
	}
	return false
}

func evalAlt(alt model.CondAlt, pos *board.Position, color board.Color, m board.Move, ms model.MoveSet) bool {
	for _, atom := range alt {
		if !evalAtom(atom, pos, color, m, ms) {
			return false
		}
	}
	return true
}

func evalAtom(a model.CondAtom, pos *board.Position, color board.Color, m board.Move, ms model.MoveSet) bool {
	switch a.Kind {
	case model.CondCaptured:
		return m.IsCapture() && m.Capture == a.Piece

	case model.CondCapturedCum:
		return containsAllCounted(ms.Captures, a.Pieces)

	case model.CondPromotedCum:
		if len(a.Pieces) == 0 {
			return len(ms.Promotions) > 0
		}
		return containsAllCounted(ms.Promotions, a.Pieces)

	case model.CondPawnRankGE, model.CondPawnRankLE:
		return pawnAtRank(pos, color, a.Kind == model.CondPawnRankGE, a.Rank)

	case model.CondEmptySquare:
		return squareEmptyMatches(pos, a.Square)

	case model.CondPieceOnSquare:
		return pieceOnSquareMatches(pos, a)

	case model.CondOrigin:
		return a.Square.Matches(m.From)

	default:
		return false
	}
}

func containsAllCounted(accum string, pieces []board.Piece) bool {
	need := map[string]int{}
	for _, p := range pieces {
		need[p.String()]++
	}
	have := map[string]int{}
	for _, r := range accum {
		have[strings.ToUpper(string(r))]++
	}
	for k, n := range need {
		if have[strings.ToUpper(k)] < n {
			return false
		}
	}
	return true
}

func pawnAtRank(pos *board.Position, color board.Color, ge bool, rank board.Rank) bool {
	for _, sq := range pos.Pieces(color, board.Pawn) {
		if ge && sq.Rank() >= rank {
			return true
		}
		if !ge && sq.Rank() <= rank {
			return true
		}
	}
	return false
}

func squareEmptyMatches(pos *board.Position, spec model.SquareSpec) bool {
	for _, sq := range squaresFor(spec) {
		if !pos.IsEmpty(sq) {
			return false
		}
	}
	return true
}

func pieceOnSquareMatches(pos *board.Position, a model.CondAtom) bool {
	for _, sq := range squaresFor(a.Square) {
		c, p, ok := pos.Square(sq)
		if ok && p == a.Piece && (!a.HasColor || c == a.Color) {
			return true
		}
	}
	return false
}

// squaresFor expands a possibly-partial SquareSpec into the concrete squares it denotes: one
// square if fully specified, an entire file or rank otherwise.
func squaresFor(spec model.SquareSpec) []board.Square {
	if spec.HasSquare {
		return []board.Square{spec.Square}
	}

	var out []board.Square
	for f := board.ZeroFile; f < board.NumFiles; f++ {
		if spec.HasFile && f != spec.File {
			continue
		}
		for r := board.ZeroRank; r < board.NumRanks; r++ {
			if spec.HasRank && r != spec.Rank {
				continue
			}
			out = append(out, board.NewSquare(f, r))
		}
	}
	return out
}
