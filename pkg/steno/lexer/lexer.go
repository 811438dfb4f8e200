// Package lexer tokenises and parses a Steno-Chess mark stream into an ordered list of
// model.MarkEntry, per spec §3 and §4.2.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/stenoerr"
	"github.com/herohde/steno/pkg/steno/vocab"
)

// Result is the parsed shape of a steno string: an optional chunk directive, an optional
// leading resume marker, and the ordered mark entries.
type Result struct {
	Chunk   *model.ChunkSpec
	Resume  bool
	Entries []model.MarkEntry
}

// Parse parses a raw steno string under the given dialect. allowChunking gates the leading
// "N[-M]" chunk directive (spec §6 allow_chunking); when false, a leading digit run is parsed
// as ordinary marks instead (not a chunk spec), and a literal chunk directive is never
// reachable since the dialects' mark vocabularies already include the digits 1-8 as rank marks.
// allowChunking also gates the '$' checkpoint marker, which is rejected when it is false.
func Parse(d vocab.Dialect, raw string, allowChunking bool) (*Result, error) {
	body := raw
	var chunk *model.ChunkSpec

	if allowChunking {
		if c, rest, ok := splitChunkDirective(body); ok {
			chunk = c
			body = rest
		}
	}

	stripped, err := stripCommentsAndSpace(body)
	if err != nil {
		return nil, err
	}

	resume := false
	if strings.HasPrefix(stripped, "$") {
		resume = true
		stripped = stripped[1:]
	}

	if resume && chunk != nil {
		return nil, stenoerr.New(stenoerr.InvalidSteno, "'$' is illegal together with a multi-chunk directive")
	}

	entries, dollarCount, err := parseEntries(d, stripped)
	if err != nil {
		return nil, err
	}
	if resume {
		dollarCount++
	}
	if dollarCount > 1 {
		return nil, stenoerr.New(stenoerr.InvalidSteno, "exactly one '$' is allowed, found %d", dollarCount)
	}
	if dollarCount > 0 && !allowChunking {
		return nil, stenoerr.New(stenoerr.InvalidSteno, "'$' is not allowed when chunking is disabled")
	}

	return &Result{Chunk: chunk, Resume: resume, Entries: entries}, nil
}

// splitChunkDirective recognises a leading "N" or "N-M" token, separated from the rest of the
// raw (pre-comment-stripping) string by whitespace, as the chunk directive of spec §4.2. The
// directive is only recognisable before whitespace-stripping, since after marks are stripped of
// whitespace a leading digit run is indistinguishable from rank marks.
func splitChunkDirective(raw string) (*model.ChunkSpec, string, bool) {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	i := 0
	for i < len(trimmed) && unicode.IsDigit(rune(trimmed[i])) {
		i++
	}
	if i == 0 {
		return nil, raw, false
	}
	from, err := strconv.Atoi(trimmed[:i])
	if err != nil {
		return nil, raw, false
	}

	rest := trimmed[i:]
	to := from
	if strings.HasPrefix(rest, "-") {
		j := 1
		for j < len(rest) && unicode.IsDigit(rune(rest[j])) {
			j++
		}
		if j == 1 {
			return nil, raw, false
		}
		to, err = strconv.Atoi(rest[1:j])
		if err != nil {
			return nil, raw, false
		}
		rest = rest[j:]
	}

	if len(rest) == 0 || !unicode.IsSpace(rune(rest[0])) {
		// Not followed by a separator: this is not a standalone chunk directive token.
		return nil, raw, false
	}

	return &model.ChunkSpec{From: from, To: to}, rest, true
}

// stripCommentsAndSpace removes balanced parenthesised comments and all whitespace, per
// spec §4.2, applied iteratively until no more comments remain (comments may be nested).
func stripCommentsAndSpace(s string) (string, error) {
	for {
		out, changed, err := stripOneCommentPass(s)
		if err != nil {
			return "", err
		}
		s = out
		if !changed {
			break
		}
	}

	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String(), nil
}

func stripOneCommentPass(s string) (string, bool, error) {
	start := strings.IndexByte(s, '(')
	if start < 0 {
		return s, false, nil
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:start] + s[i+1:], true, nil
			}
		}
	}
	return "", false, stenoerr.New(stenoerr.InvalidSteno, "unbalanced comment parentheses in %q", s)
}

// parseEntries parses the mark-entry grammar
//   MARK(&MARK|!MARK)*(\[COND(|COND)?(&COND)?\])*\$?
// repeatedly over s until it is consumed, returning the entries and the number of trailing '$'
// snapshot markers seen (0 or 1; more is an error surfaced by the caller together with any
// leading resume '$').
func parseEntries(d vocab.Dialect, s string) ([]model.MarkEntry, int, error) {
	var entries []model.MarkEntry
	dollars := 0
	idx := 0

	for len(s) > 0 {
		marks, rest, err := parseMarkExpr(d, s, idx)
		if err != nil {
			return nil, 0, err
		}
		s = rest

		conds, rest2, err := parseCondExpr(s, idx)
		if err != nil {
			return nil, 0, err
		}
		s = rest2

		resume := false
		if strings.HasPrefix(s, "$") {
			resume = true
			dollars++
			s = s[1:]
		}

		color := board.White
		if idx%2 == 1 {
			color = board.Black
		}

		entries = append(entries, model.MarkEntry{
			Index:      idx,
			Color:      color,
			Marks:      marks,
			Conditions: conds,
			Resume:     resume,
		})
		idx++
	}

	return entries, dollars, nil
}

func parseMarkExpr(d vocab.Dialect, s string, entryIdx int) (model.MarkExpr, string, error) {
	var expr model.MarkExpr
	var cur model.MarkGroup
	pendingAnd := false
	first := true

	for len(s) > 0 {
		r := rune(s[0])

		switch {
		case r == '&':
			if first {
				return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "'&' with no preceding mark")
			}
			pendingAnd = true
			s = s[1:]
			continue

		case r == '!':
			s = s[1:]
			if len(s) == 0 || !d.IsMark(rune(s[0])) {
				return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "'!' not followed by a valid mark")
			}
			atom := model.MarkAtom{Mark: rune(s[0]), Negate: true}
			s = s[1:]
			cur, expr, pendingAnd, first = appendMarkAtom(expr, cur, atom, pendingAnd, first)
			continue

		case d.IsMark(r):
			if !first && !pendingAnd {
				// A bare mark not joined by '&' or preceded by '!' ends this entry, per the
				// MARK(&MARK|!MARK)* grammar of spec §4.2 — it opens the next entry instead.
				return expr, s, nil
			}
			atom := model.MarkAtom{Mark: r}
			s = s[1:]
			cur, expr, pendingAnd, first = appendMarkAtom(expr, cur, atom, pendingAnd, first)
			continue

		default:
			if first {
				return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "expected a mark, found %q", r)
			}
			if pendingAnd {
				return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "'&' with no following mark")
			}
			return expr, s, nil
		}
	}

	if first {
		return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "unexpected end of steno inside mark expression")
	}
	if pendingAnd {
		return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "'&' with no following mark")
	}
	return expr, s, nil
}

func appendMarkAtom(expr model.MarkExpr, cur model.MarkGroup, atom model.MarkAtom, pendingAnd, first bool) (model.MarkGroup, model.MarkExpr, bool, bool) {
	if first || !pendingAnd {
		cur = model.MarkGroup{atom}
		expr = append(expr, cur)
	} else {
		cur = append(cur, atom)
		expr[len(expr)-1] = cur
	}
	return cur, expr, false, false
}

func parseCondExpr(s string, entryIdx int) (model.CondExpr, string, error) {
	var expr model.CondExpr

	for strings.HasPrefix(s, "[") {
		s = s[1:]

		var group model.CondGroup
		for {
			alt, rest, err := parseCondAlt(s, entryIdx)
			if err != nil {
				return nil, "", err
			}
			group = append(group, alt)
			s = rest

			if strings.HasPrefix(s, "|") {
				s = s[1:]
				continue
			}
			break
		}

		if !strings.HasPrefix(s, "]") {
			return nil, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "unterminated condition bracket")
		}
		s = s[1:]

		expr = append(expr, group)
	}

	return expr, s, nil
}

func parseCondAlt(s string, entryIdx int) (model.CondAlt, string, error) {
	var alt model.CondAlt
	for {
		atom, rest, err := parseCondAtom(s, entryIdx)
		if err != nil {
			return nil, "", err
		}
		alt = append(alt, atom)
		s = rest

		if strings.HasPrefix(s, "&") {
			s = s[1:]
			continue
		}
		return alt, s, nil
	}
}

func parseCondAtom(s string, entryIdx int) (model.CondAtom, string, error) {
	if len(s) == 0 {
		return model.CondAtom{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "expected a condition atom")
	}

	switch s[0] {
	case 'x':
		p, rest, err := parsePieceLetter(s[1:], entryIdx)
		if err != nil {
			return model.CondAtom{}, "", err
		}
		return model.CondAtom{Kind: model.CondCaptured, Piece: p}, rest, nil

	case 'X':
		s = s[1:]
		var pieces []board.Piece
		for len(s) > 0 && isPieceLetter(rune(s[0])) {
			p, rest, err := parsePieceLetter(s, entryIdx)
			if err != nil {
				return model.CondAtom{}, "", err
			}
			pieces = append(pieces, p)
			s = rest
		}
		if len(pieces) == 0 {
			return model.CondAtom{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "'X' with no piece letters")
		}
		return model.CondAtom{Kind: model.CondCapturedCum, Pieces: pieces}, s, nil

	case '=':
		s = s[1:]
		var pieces []board.Piece
		for len(s) > 0 && isPieceLetter(rune(s[0])) {
			p, rest, err := parsePieceLetter(s, entryIdx)
			if err != nil {
				return model.CondAtom{}, "", err
			}
			pieces = append(pieces, p)
			s = rest
		}
		return model.CondAtom{Kind: model.CondPromotedCum, Pieces: pieces}, s, nil

	case '^', 'v':
		kind := model.CondPawnRankGE
		if s[0] == 'v' {
			kind = model.CondPawnRankLE
		}
		s = s[1:]
		if len(s) == 0 {
			return model.CondAtom{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "missing rank after '^'/'v'")
		}
		r, ok := board.ParseRank(rune(s[0]))
		if !ok {
			return model.CondAtom{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "invalid rank %q", s[0])
		}
		return model.CondAtom{Kind: kind, Rank: r}, s[1:], nil

	case '-':
		sq, rest, err := parseSquareSpec(s[1:], entryIdx)
		if err != nil {
			return model.CondAtom{}, "", err
		}
		return model.CondAtom{Kind: model.CondEmptySquare, Square: sq}, rest, nil

	case '@':
		sq, rest, err := parseSquareSpec(s[1:], entryIdx)
		if err != nil {
			return model.CondAtom{}, "", err
		}
		return model.CondAtom{Kind: model.CondOrigin, Square: sq}, rest, nil

	default:
		p, color, rest, err := parseColoredPieceLetter(s, entryIdx)
		if err != nil {
			return model.CondAtom{}, "", err
		}
		sq, rest2, err := parseSquareSpec(rest, entryIdx)
		if err != nil {
			return model.CondAtom{}, "", err
		}
		return model.CondAtom{Kind: model.CondPieceOnSquare, Piece: p, Color: color, HasColor: true, Square: sq}, rest2, nil
	}
}

func isPieceLetter(r rune) bool {
	switch unicode.ToUpper(r) {
	case 'P', 'N', 'B', 'R', 'Q', 'K', 'L', 'D':
		return true
	default:
		return false
	}
}

// parsePieceLetter parses a type-only piece letter (case carries no colour information),
// folding the light/dark bishop letters L/D onto Bishop.
func parsePieceLetter(s string, entryIdx int) (board.Piece, string, error) {
	if len(s) == 0 {
		return 0, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "expected a piece letter")
	}
	r := unicode.ToUpper(rune(s[0]))
	if r == 'L' || r == 'D' {
		return board.Bishop, s[1:], nil
	}
	p, ok := board.ParsePiece(rune(s[0]))
	if !ok {
		return 0, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "invalid piece letter %q", s[0])
	}
	return p, s[1:], nil
}

// parseColoredPieceLetter parses a piece letter where letter case denotes colour, as used by
// the `pSQ` condition atom (upper = White, lower = Black). L/l and D/d are read as bishops;
// whether the bishop stands on a light or dark square is not recorded.
func parseColoredPieceLetter(s string, entryIdx int) (board.Piece, board.Color, string, error) {
	if len(s) == 0 {
		return 0, 0, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "expected a piece letter")
	}
	r := rune(s[0])
	color := board.Black
	if unicode.IsUpper(r) {
		color = board.White
	}
	if unicode.ToUpper(r) == 'L' || unicode.ToUpper(r) == 'D' {
		return board.Bishop, color, s[1:], nil
	}
	p, ok := board.ParsePiece(r)
	if !ok {
		return 0, 0, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "invalid piece letter %q", r)
	}
	return p, color, s[1:], nil
}

// parseSquareSpec parses a (possibly partial) square: "e4" (full), "e" (file only),
// "4" (rank only).
func parseSquareSpec(s string, entryIdx int) (model.SquareSpec, string, error) {
	if len(s) == 0 {
		return model.SquareSpec{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "expected a square")
	}

	r := rune(s[0])
	if f, ok := board.ParseFile(r); ok {
		if len(s) >= 2 {
			if rk, ok := board.ParseRank(rune(s[1])); ok {
				return model.SquareSpec{HasSquare: true, Square: board.NewSquare(f, rk)}, s[2:], nil
			}
		}
		return model.SquareSpec{HasFile: true, File: f}, s[1:], nil
	}
	if rk, ok := board.ParseRank(r); ok {
		return model.SquareSpec{HasRank: true, Rank: rk}, s[1:], nil
	}
	return model.SquareSpec{}, "", stenoerr.At(stenoerr.InvalidSteno, entryIdx, "invalid square %q", r)
}
