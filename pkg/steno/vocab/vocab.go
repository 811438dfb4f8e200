// Package vocab defines the three Steno-Chess mark dialects: which marks exist and how each
// is written. Mark *meaning* (what a mark matches against a candidate move) lives in
// pkg/steno/match; this package only knows the lexical shape of each dialect.
package vocab

import (
	"strings"

	"github.com/herohde/steno/pkg/steno/stenoerr"
)

// Dialect selects the mark vocabulary in force for a solve.
type Dialect uint8

const (
	Classic Dialect = iota
	Extended
	PGN
)

// Parse accepts "C"/"Classic", "E"/"Extended", "P"/"PGN" (case-insensitive).
func Parse(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "c", "classic":
		return Classic, nil
	case "e", "extended":
		return Extended, nil
	case "p", "pgn":
		return PGN, nil
	default:
		return 0, stenoerr.New(stenoerr.InvalidVocabulary, "unknown vocabulary: %q", s)
	}
}

func (d Dialect) String() string {
	switch d {
	case Classic:
		return "Classic"
	case Extended:
		return "Extended"
	case PGN:
		return "PGN"
	default:
		return "?"
	}
}

// classicMarks, extendedMarks and pgnMarks list the single-character mark tokens valid in each
// dialect, per spec §4.1. They are used by the lexer to recognise a mark atom versus a
// condition/structural character ('[', ']', '&', '!', '$', '(', ')' for comments, and '|',
// which Extended also lists as a mark). The digits 1-8 are rank marks in every dialect.
const (
	classicMarks  = "abcdefgh12345678PNLRQKnlrqx%oO+=#~"
	extendedMarks = classicMarks + `B|_/\<>^v"-0p`
	pgnMarks      = `abcdefgh12345678PNBRQKnbrq~.x=O-/#+`
)

// IsMark reports whether r is a valid mark character in the dialect.
func (d Dialect) IsMark(r rune) bool {
	switch d {
	case Extended:
		return containsRune(extendedMarks, r)
	case PGN:
		return containsRune(pgnMarks, r)
	default:
		return containsRune(classicMarks, r)
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// NormalizeBishop maps the Classic/Extended apostrophe shorthand for bishop-colour letters
// (L' -> l, D' -> d) per spec §4.1. PGN does not support the shorthand and passes s through.
func (d Dialect) NormalizeBishop(s string) string {
	if d == PGN {
		return s
	}
	out := make([]rune, 0, len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if i+1 < len(runes) && runes[i+1] == '\'' && (r == 'L' || r == 'D') {
			out = append(out, toLowerASCII(r))
			i++
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// IsEndgameMark reports whether the mark signals mate/stalemate/draw, used by the validator's
// "no endgame mark before the last entry" rule (spec §4.3).
func (d Dialect) IsEndgameMark(r rune) bool {
	switch d {
	case PGN:
		return r == '#' || r == '/'
	default:
		return r == '#' || r == '='
	}
}

// IsCastleMark reports whether the mark denotes castling of either side, used by the
// validator's "at most one castling mark per colour" rule.
func (d Dialect) IsCastleMark(r rune) bool {
	switch d {
	case PGN:
		return r == 'O' || r == '-'
	case Extended:
		return r == 'o' || r == 'O' || r == '0'
	default:
		return r == 'o' || r == 'O'
	}
}

// IsPromotionMark reports whether the mark denotes a promotion (to a specific piece, or any).
func (d Dialect) IsPromotionMark(r rune) bool {
	switch d {
	case PGN:
		return r == '=' || r == 'N' || r == 'B' || r == 'R' || r == 'Q'
	case Extended:
		return r == 'p' || r == 'n' || r == 'l' || r == 'r' || r == 'q'
	default:
		return r == 'n' || r == 'l' || r == 'r' || r == 'q'
	}
}

// IsEnPassantMark reports whether the mark denotes an en-passant capture.
func (d Dialect) IsEnPassantMark(r rune) bool {
	return r == '%'
}

// IsCaptureMark reports whether the mark denotes a capture, including en passant.
func (d Dialect) IsCaptureMark(r rune) bool {
	if d.IsEnPassantMark(r) {
		return true
	}
	return r == 'x'
}

// IsCheckMark reports whether the mark requires the move to give check (mating moves included).
func (d Dialect) IsCheckMark(r rune) bool {
	return r == '+'
}

// IsDirectionMark reports whether the mark is one of the board-relative direction marks that
// the validator forbids against one's own base on the first two half-moves (Extended only).
func (d Dialect) IsDirectionMark(r rune) bool {
	if d != Extended {
		return false
	}
	switch r {
	case '_', '/', '\\', '"', '^', 'v':
		return true
	default:
		return false
	}
}
