// Package synth injects meta-marks and meta-conditions implied by future entries, before and
// during search (spec §4.4).
package synth

import (
	"reflect"
	"strings"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/vocab"
)

// Options configures which static rules apply.
type Options struct {
	Dialect       vocab.Dialect
	StandardStart bool
}

// Annotate runs the static synthesis rules 1-3 of spec §4.4 once, before search begins.
// It is idempotent: running it twice on an already-annotated list does not duplicate marks,
// since every injection here first checks whether it was already made.
func Annotate(entries []model.MarkEntry, opt Options) {
	noPrematureEnd(entries, opt)
	promotionPrereqs(entries, opt)
	castlingSupport(entries, opt)
}

func hasMetaMark(e *model.MarkEntry, mark rune, negate bool) bool {
	for _, g := range e.MetaMarks {
		for _, a := range g {
			if a.Mark == mark && a.Negate == negate {
				return true
			}
		}
	}
	return false
}

func addMetaMark(e *model.MarkEntry, mark rune, negate bool) {
	if hasMetaMark(e, mark, negate) {
		return
	}
	e.MetaMarks = append(e.MetaMarks, model.MarkGroup{{Mark: mark, Negate: negate}})
}

func hasMetaCondAtom(e *model.MarkEntry, kind model.CondKind, match func(model.CondAtom) bool) bool {
	for _, g := range e.MetaConditions {
		for _, alt := range g {
			for _, a := range alt {
				if a.Kind == kind && match(a) {
					return true
				}
			}
		}
	}
	return false
}

func addMetaCondGroup(e *model.MarkEntry, group model.CondGroup) {
	for _, g := range e.MetaConditions {
		if reflect.DeepEqual(g, group) {
			return
		}
	}
	e.MetaConditions = append(e.MetaConditions, group)
}

// 1. No premature game end: for standard start and indices 2 <= i < last, forbid mate (and,
// past half-move 17, forced draw).
func noPrematureEnd(entries []model.MarkEntry, opt Options) {
	if !opt.StandardStart {
		return
	}
	last := len(entries) - 1
	for i := range entries {
		e := &entries[i]
		if e.Index < 2 || e.Index >= last {
			continue
		}
		addMetaMark(e, '#', true)
		if e.Index > 17 {
			drawMark := '='
			if opt.Dialect == vocab.PGN {
				drawMark = '/'
			}
			addMetaMark(e, drawMark, true)
		}
	}
}

// 2. Promotion pre-requisites: for each entry with a promotion mark, require the promoting
// side's pawn to have advanced far enough (or the piece to already exist) in the four half-move
// pairs leading up to it.
func promotionPrereqs(entries []model.MarkEntry, opt Options) {
	for i := range entries {
		e := &entries[i]
		promoted, anyPiece := promotionTarget(e.Marks, opt.Dialect)
		if promoted == board.NoPiece && !anyPiece {
			continue
		}

		for turn := 1; turn <= 4; turn++ {
			for _, target := range []int{e.Index - 2*turn, e.Index - 2*turn + 1} {
				if target < 0 || target >= len(entries) {
					continue
				}
				injectPromotionPrereq(&entries[target], e.Color, turn, promoted, anyPiece)
			}
		}
	}
}

func promotionTarget(marks model.MarkExpr, d vocab.Dialect) (piece board.Piece, any bool) {
	for _, g := range marks {
		for _, a := range g {
			if a.Negate {
				continue
			}
			if !d.IsPromotionMark(a.Mark) {
				continue
			}
			switch a.Mark {
			case 'p', '=':
				return board.NoPiece, true
			default:
				if p, ok := board.ParsePiece(a.Mark); ok {
					return p, false
				}
				return board.NoPiece, true
			}
		}
	}
	return board.NoPiece, false
}

func injectPromotionPrereq(e *model.MarkEntry, color board.Color, turn int, promoted board.Piece, anyPiece bool) {
	humanRank := 8 - turn // spec's "colorBase >= (8-turn)", 1-indexed, White's direction
	if color == board.Black {
		humanRank = 9 - humanRank // mirror across the board for Black's direction of advance
	}
	rank := board.Rank(humanRank - 1)

	var pieces []board.Piece
	if anyPiece {
		pieces = []board.Piece{board.Queen, board.Rook, board.Bishop, board.Knight}
	} else {
		pieces = []board.Piece{promoted}
	}

	kind := model.CondPawnRankGE
	if color == board.Black {
		kind = model.CondPawnRankLE
	}

	alt1 := model.CondAlt{{Kind: kind, Rank: rank}}
	alt2 := model.CondAlt{{Kind: model.CondPromotedCum, Pieces: pieces}}

	if hasMetaCondAtom(e, kind, func(a model.CondAtom) bool { return a.Rank == rank }) {
		return
	}
	addMetaCondGroup(e, model.CondGroup{alt1, alt2})
}

// 3. Castling support: forbid the king from having moved, pin the rook home, forbid castling
// out of check, and require the intervening squares to have been empty one half-move earlier.
func castlingSupport(entries []model.MarkEntry, opt Options) {
	for i := range entries {
		e := &entries[i]
		side, ok := castleSide(e.Marks, opt, e.Index)
		if !ok {
			continue
		}

		homeRank := e.Color.HomeRank()
		rookFile := board.FileH
		if side == queenSide {
			rookFile = board.FileA
		}

		for j := 0; j < e.Index; j++ {
			if entries[j].Color != e.Color {
				continue
			}
			addMetaMark(&entries[j], 'K', true)
			addMetaCondGroup(&entries[j], model.CondGroup{{{
				Kind:   model.CondPieceOnSquare,
				Piece:  board.Rook,
				Color:  e.Color,
				HasColor: true,
				Square: model.SquareSpec{HasSquare: true, Square: board.NewSquare(rookFile, homeRank)},
			}}})
		}

		if e.Index-1 >= 0 && entries[e.Index-1].Color != e.Color {
			addMetaMark(&entries[e.Index-1], '+', true)
		}

		emptyFiles := []board.File{board.FileF, board.FileG}
		if side == queenSide {
			emptyFiles = []board.File{board.FileB, board.FileC, board.FileD}
		}
		if e.Index-1 >= 0 {
			for _, f := range emptyFiles {
				addMetaCondGroup(&entries[e.Index-1], model.CondGroup{{{
					Kind:   model.CondEmptySquare,
					Square: model.SquareSpec{HasSquare: true, Square: board.NewSquare(f, homeRank)},
				}}})
			}
		}
		if opt.StandardStart && e.Index-2 >= 0 {
			for _, f := range emptyFiles {
				addMetaCondGroup(&entries[e.Index-2], model.CondGroup{{{
					Kind:   model.CondEmptySquare,
					Square: model.SquareSpec{HasSquare: true, Square: board.NewSquare(f, homeRank)},
				}}})
			}
		}
	}
}

type side int

const (
	kingSide side = iota
	queenSide
)

func castleSide(marks model.MarkExpr, opt Options, index int) (side, bool) {
	for _, g := range marks {
		for _, a := range g {
			if a.Negate || !opt.Dialect.IsCastleMark(a.Mark) {
				continue
			}
			switch opt.Dialect {
			case vocab.Classic:
				if a.Mark == 'o' {
					return kingSide, true
				}
				return queenSide, true
			case vocab.Extended:
				if a.Mark == 'o' {
					return kingSide, true
				}
				if a.Mark == 'O' {
					return queenSide, true
				}
				if a.Mark == '0' {
					if opt.StandardStart && index == 3 {
						return kingSide, true
					}
					return kingSide, true
				}
			case vocab.PGN:
				return kingSide, true
			}
		}
	}
	return 0, false
}

// ExtinctionRecovery runs rule 4 dynamically after processing entry i against the live
// frontier: if every live position is missing a piece type+colour that a future entry still
// requires, inject a promotion forecast at the earliest such entry.
//
// present reports, for a piece+colour, whether at least one live position still has it on the
// board (via its FEN piece-placement field).
func ExtinctionRecovery(entries []model.MarkEntry, afterIndex int, d vocab.Dialect, present func(board.Color, board.Piece) bool) {
	for future := afterIndex + 1; future < len(entries); future++ {
		e := &entries[future]
		need, color, ok := requiredPiece(e.Marks, d, e.Color)
		if !ok || present(color, need) {
			continue
		}

		target := future
		if d != vocab.PGN {
			target -= 2
		}
		if target < 0 {
			continue
		}

		marker := "=" + need.String()
		if hasMetaCondMarker(&entries[target], marker) {
			return
		}
		entries[target].MetaConditions = append(entries[target].MetaConditions, model.CondGroup{{{
			Kind:   model.CondPromotedCum,
			Pieces: []board.Piece{need},
		}}})

		for turn := 1; turn <= 4; turn++ {
			for _, t := range []int{future - 2*turn, future - 2*turn + 1} {
				if t >= 0 && t < len(entries) {
					injectPromotionPrereq(&entries[t], color, turn, need, false)
				}
			}
		}
		return // only one piece type forecast per step
	}
}

func hasMetaCondMarker(e *model.MarkEntry, marker string) bool {
	for _, g := range e.MetaConditions {
		if groupSignature(g) == marker {
			return true
		}
	}
	return false
}

func groupSignature(g model.CondGroup) string {
	var sb strings.Builder
	for _, alt := range g {
		for _, a := range alt {
			if a.Kind == model.CondPromotedCum && len(a.Pieces) == 1 {
				sb.WriteString("=")
				sb.WriteString(a.Pieces[0].String())
			}
		}
	}
	return sb.String()
}

func requiredPiece(marks model.MarkExpr, d vocab.Dialect, mover board.Color) (board.Piece, board.Color, bool) {
	for _, g := range marks {
		for _, a := range g {
			if a.Negate {
				continue
			}
			switch a.Mark {
			case 'P', 'N', 'B', 'L', 'R', 'Q', 'K':
				p, _ := board.ParsePiece(a.Mark)
				return p, mover, true
			case 'n', 'l', 'r', 'q', 'k':
				p, _ := board.ParsePiece(a.Mark)
				return p, board.Black, true
			}
		}
	}
	return board.NoPiece, board.White, false
}
