// Package model holds the Steno-Chess data model shared by the parser, validator, synthesiser,
// matcher, evaluator, frontier engine and checkpoint codec: mark entries, mark/condition
// expressions, and the position frontier itself.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/herohde/steno/pkg/board"
)

// MarkAtom is a single mark character with its polarity.
type MarkAtom struct {
	Mark   rune
	Negate bool
}

func (a MarkAtom) String() string {
	if a.Negate {
		return "!" + string(a.Mark)
	}
	return string(a.Mark)
}

// MarkGroup is a conjunction of atoms: "A&B&!C" in the authored grammar.
type MarkGroup []MarkAtom

// MarkExpr is a disjunction of groups: the lexer opens a further group for each "!"-prefixed
// atom not joined by "&" ("A!B" is A OR NOT B), while bare concatenation "AB" is read as two
// entries rather than one expression; "A&B" is one group of two atoms. A move matches the
// expression iff it matches any one group, and matches a group iff it matches every atom in it
// (per atom polarity).
type MarkExpr []MarkGroup

// IsZero reports whether the expression carries no marks at all (an entry with only
// meta-marks, for instance).
func (e MarkExpr) IsZero() bool {
	return len(e) == 0
}

// CondKind identifies which condition atom variant (spec §3) a CondAtom represents.
type CondKind uint8

const (
	CondCaptured      CondKind = iota // xP: this move captured piece P
	CondCapturedCum                   // XPPP...: all listed pieces captured cumulatively
	CondPromotedCum                   // =PP...: all listed pieces promoted-to cumulatively (empty = any)
	CondPawnRankGE                    // ^R: a pawn of the stated colour sits at rank >= R
	CondPawnRankLE                    // vR: a pawn of the stated colour sits at rank <= R
	CondEmptySquare                   // -sq: sq (or rank/file) is empty
	CondPieceOnSquare                 // pSQ: piece p on sq (or rank/file)
	CondOrigin                        // @sq: moving piece originated on sq (or rank/file)
)

// SquareSpec is a possibly-partial square reference: a full square, a bare file, a bare rank,
// or (rare, but allowed by "entire rank/file empty") neither, meaning "anywhere".
type SquareSpec struct {
	HasSquare bool
	Square    board.Square
	HasFile   bool
	File      board.File
	HasRank   bool
	Rank      board.Rank
}

// Matches reports whether sq satisfies the (possibly partial) spec.
func (s SquareSpec) Matches(sq board.Square) bool {
	if s.HasSquare {
		return sq == s.Square
	}
	ok := true
	if s.HasFile {
		ok = ok && sq.File() == s.File
	}
	if s.HasRank {
		ok = ok && sq.Rank() == s.Rank
	}
	return ok
}

// CondAtom is one condition-expression atom (spec §3).
type CondAtom struct {
	Kind CondKind

	Piece    board.Piece // CondCaptured, CondPieceOnSquare
	Pieces   []board.Piece // CondCapturedCum, CondPromotedCum (empty = "any" for CondPromotedCum)
	HasColor bool
	Color    board.Color // explicit colour, when the letter case alone is ambiguous (bare xP uses the moving side implicitly)

	Rank board.Rank // CondPawnRankGE/LE

	Square SquareSpec // CondEmptySquare, CondPieceOnSquare, CondOrigin
}

// CondAlt is a conjunction of atoms (A&B inside one bracket alternative).
type CondAlt []CondAtom

// CondGroup is a disjunction of alternatives (A|B inside one bracket).
type CondGroup []CondAlt

// CondExpr is a conjunction of groups: every bracket group in the entry must hold.
type CondExpr []CondGroup

// MarkEntry is one half-move slot in a parsed steno, annotated by the meta-condition
// synthesiser (spec §3/§4.4).
type MarkEntry struct {
	Index          int
	Color          board.Color
	Marks          MarkExpr
	MetaMarks      MarkExpr
	Conditions     CondExpr
	MetaConditions CondExpr

	// Resume marks the single entry, if any, carrying a trailing '$' checkpoint marker.
	Resume bool
}

func (e MarkEntry) String() string {
	return fmt.Sprintf("entry[%d]{color=%v marks=%v meta=%v conds=%d metaconds=%d}",
		e.Index, e.Color, e.Marks, e.MetaMarks, len(e.Conditions), len(e.MetaConditions))
}

// MoveSet is one path that reached a Position (spec §3).
type MoveSet struct {
	SAN        []string
	Result     string
	Captures   string
	Promotions string
}

// Extend returns a copy of the MoveSet with one more half-move appended. captured and promoted
// are NoPiece when not applicable; bishopLight only matters when the relevant piece is a bishop.
func (ms MoveSet) Extend(san string, captured, promoted board.Piece, bishopLight bool) MoveSet {
	san2 := make([]string, len(ms.SAN)+1)
	copy(san2, ms.SAN)
	san2[len(ms.SAN)] = san

	out := MoveSet{SAN: san2, Result: ms.Result, Captures: ms.Captures, Promotions: ms.Promotions}
	if captured != board.NoPiece {
		out.Captures = ms.Captures + pieceChar(captured, bishopLight)
	}
	if promoted != board.NoPiece {
		out.Promotions = ms.Promotions + pieceChar(promoted, bishopLight)
	}
	return out
}

// WithResult returns a copy of the MoveSet with its terminal result token set.
func (ms MoveSet) WithResult(result string) MoveSet {
	out := ms
	out.Result = result
	return out
}

func pieceChar(p board.Piece, bishopLight bool) string {
	if p == board.Bishop {
		if bishopLight {
			return "L"
		}
		return "D"
	}
	return strings.ToUpper(p.String())
}

// Position is a single frontier entry: the reconstructed board plus every path that reached it
// (spec §3).
type Position struct {
	Key         string
	Board       *board.Board
	CheckFuture bool
	MoveSets    []MoveSet
}

// ChunkSize is the fixed slice size used to partition a sorted frontier for multi-chunk work
// (spec §4.2/§4.8).
const ChunkSize = 1000

// ChunkSpec is a parsed "N[-M]" chunk directive: process sorted chunks From..To inclusive.
type ChunkSpec struct {
	From, To int
}

// Frontier maps position key to Position (spec §3). Duplicate-free by construction: insertion
// always goes through the map.
type Frontier map[string]*Position

// Keys returns the frontier's keys in lexicographic order, used for chunking (spec §4.8) and
// for any output that needs determinism.
func (f Frontier) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
