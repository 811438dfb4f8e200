package fen

import (
	"fmt"
	"sort"
	"strings"
)

// BuildStartFEN interprets a configuration's start_fen setting and returns a full, 6-field
// FEN string ready for Decode. Three forms are accepted:
//
//   - the empty string: the standard starting position.
//   - an 8-character string of piece letters (e.g. "BBQNNRKR"): a Chess960 back rank. The
//     letters are placed on rank 1 (White, uppercase) and rank 8 (Black, lowercase) in the
//     given order, with both sides' pawns on their home ranks and full castling rights. Only
//     the "BBKNNQRR" multiset is accepted; any other combination of 8 letters is rejected,
//     since it could not be a legal back rank.
//   - otherwise, the first 3 to 6 space-separated fields of a FEN record (placement, active
//     color and castling availability are mandatory; en passant, halfmove clock and fullmove
//     number default to "-", "0" and "1" when omitted).
func BuildStartFEN(startFEN string) (string, error) {
	s := strings.TrimSpace(startFEN)
	switch {
	case s == "":
		return Initial, nil
	case isChess960BackRank(s):
		return chess960FEN(s)
	default:
		return normalizePartialFEN(s)
	}
}

func isChess960BackRank(s string) bool {
	return len(s) == 8 && !strings.ContainsAny(s, " /")
}

func chess960FEN(s string) (string, error) {
	letters := []rune(strings.ToUpper(s))

	sorted := append([]rune{}, letters...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if string(sorted) != "BBKNNQRR" {
		return "", fmt.Errorf("invalid chess960 back rank (want a permutation of BBKNNQRR): '%v'", s)
	}

	rank8 := strings.ToLower(string(letters))
	rank1 := string(letters)
	return fmt.Sprintf("%v/pppppppp/8/8/8/8/PPPPPPPP/%v w KQkq - 0 1", rank8, rank1), nil
}

// normalizePartialFEN pads a 3-6 field partial FEN out to the full 6 fields Decode expects.
func normalizePartialFEN(s string) (string, error) {
	parts := strings.Fields(s)
	if len(parts) < 3 || len(parts) > 6 {
		return "", fmt.Errorf("invalid start_fen, want 3-6 fields: '%v'", s)
	}

	defaults := []string{"", "", "", "-", "0", "1"}
	for len(parts) < 6 {
		parts = append(parts, defaults[len(parts)])
	}
	return strings.Join(parts, " "), nil
}
