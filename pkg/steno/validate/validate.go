// Package validate rejects impossible stenos before search begins (spec §4.3).
package validate

import (
	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/stenoerr"
	"github.com/herohde/steno/pkg/steno/vocab"
)

// StandardStart reports whether the position-specific rules (the second half of spec §4.3)
// apply: they are conditioned on starting from the standard initial position.
type Options struct {
	Dialect       vocab.Dialect
	StandardStart bool
}

// Validate applies the static rules of spec §4.3 to a fully parsed (but not yet
// meta-annotated) mark-entry list, returning the first violated rule as a *stenoerr.Error.
func Validate(entries []model.MarkEntry, opt Options) error {
	last := len(entries) - 1

	var castles, promotions, enpassants, captures [2]int // indexed by color

	for _, e := range entries {
		ci := colorIndex(e.Color)

		for _, g := range e.Marks {
			for _, a := range g {
				if a.Negate {
					continue
				}
				r := a.Mark

				if opt.Dialect.IsEndgameMark(r) && e.Index != last {
					return stenoerr.At(stenoerr.InvalidSteno, e.Index, "endgame mark %q before the last entry", r)
				}
				if opt.Dialect.IsCastleMark(r) {
					castles[ci]++
					if castles[ci] > 1 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "more than one castling mark for %v", e.Color)
					}
				}
				if opt.Dialect.IsPromotionMark(r) {
					promotions[ci]++
					if promotions[ci] > 8 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "more than 8 promotions for %v", e.Color)
					}
				}
				if opt.Dialect.IsEnPassantMark(r) {
					enpassants[ci]++
					if enpassants[ci] > 8 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "more than 8 en-passant marks for %v", e.Color)
					}
				}
				if opt.Dialect.IsCaptureMark(r) {
					captures[ci]++
					if captures[ci] > 15 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "more than 15 captures for %v", e.Color)
					}
				}

				if e.Index < 4 && opt.Dialect.IsEnPassantMark(r) {
					return stenoerr.At(stenoerr.InvalidSteno, e.Index, "en passant in the first four half-moves")
				}
				if e.Index < 8 && opt.Dialect.IsPromotionMark(r) {
					return stenoerr.At(stenoerr.InvalidSteno, e.Index, "promotion in the first eight half-moves")
				}
				if e.Index < 2 && (opt.Dialect.IsCaptureMark(r) || r == '+' || r == '#') {
					return stenoerr.At(stenoerr.InvalidSteno, e.Index, "capture or check on the first two half-moves")
				}
				awayFromOwnBase := (r == '^' && e.Color == board.White) || (r == 'v' && e.Color == board.Black)
				if e.Index < 2 && opt.Dialect.IsDirectionMark(r) && !awayFromOwnBase {
					return stenoerr.At(stenoerr.InvalidSteno, e.Index, "direction mark %q against own base on the first two half-moves", r)
				}
			}
		}
	}

	if opt.StandardStart {
		for _, e := range entries {
			for _, g := range e.Marks {
				for _, a := range g {
					if a.Negate {
						continue
					}
					r := a.Mark
					if opt.Dialect.IsEndgameMark(r) && r == '#' && e.Index < 3 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "mate before Black's second move")
					}
					if isShortCastle(opt.Dialect, r) && e.Index < 5 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "short castle before half-move 6")
					}
					if opt.Dialect.IsCastleMark(r) {
						min := 7
						if opt.Dialect == vocab.PGN {
							min = 5
						}
						if e.Index < min {
							return stenoerr.At(stenoerr.InvalidSteno, e.Index, "castle too early")
						}
					}
					if isForcedDrawMark(opt.Dialect, r) && e.Index < 17 {
						return stenoerr.At(stenoerr.InvalidSteno, e.Index, "forced draw before Black's ninth move")
					}
				}
			}
		}
	}

	return nil
}

func isShortCastle(d vocab.Dialect, r rune) bool {
	switch d {
	case vocab.Classic, vocab.Extended:
		return r == 'o'
	default:
		return false
	}
}

func isForcedDrawMark(d vocab.Dialect, r rune) bool {
	if d == vocab.PGN {
		return r == '/'
	}
	return r == '='
}

func colorIndex(c board.Color) int {
	if c == board.Black {
		return 1
	}
	return 0
}
