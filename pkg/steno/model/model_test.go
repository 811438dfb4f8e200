package model_test

import (
	"testing"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/stretchr/testify/assert"
)

func TestMarkExprIsZero(t *testing.T) {
	assert.True(t, model.MarkExpr(nil).IsZero())
	assert.False(t, model.MarkExpr{{{Mark: 'a'}}}.IsZero())
}

func TestSquareSpecMatches(t *testing.T) {
	sq := board.NewSquare(board.FileE, board.Rank4)

	assert.True(t, model.SquareSpec{HasSquare: true, Square: sq}.Matches(sq))
	assert.False(t, model.SquareSpec{HasSquare: true, Square: sq}.Matches(board.NewSquare(board.FileE, board.Rank5)))
	assert.True(t, model.SquareSpec{HasFile: true, File: board.FileE}.Matches(sq))
	assert.False(t, model.SquareSpec{HasFile: true, File: board.FileD}.Matches(sq))
	assert.True(t, model.SquareSpec{}.Matches(sq))
}

func TestMoveSetExtend(t *testing.T) {
	ms := model.MoveSet{}
	ms = ms.Extend("e4", board.NoPiece, board.NoPiece, false)
	ms = ms.Extend("exd5", board.Pawn, board.NoPiece, false)

	assert.Equal(t, []string{"e4", "exd5"}, ms.SAN)
	assert.Equal(t, "P", ms.Captures)
	assert.Equal(t, "", ms.Promotions)
}

func TestMoveSetExtendBishopColor(t *testing.T) {
	ms := model.MoveSet{}
	ms = ms.Extend("bxc8=B", board.NoPiece, board.Bishop, true)
	assert.Equal(t, "L", ms.Promotions)

	ms2 := model.MoveSet{}
	ms2 = ms2.Extend("bxc8=B", board.NoPiece, board.Bishop, false)
	assert.Equal(t, "D", ms2.Promotions)
}

func TestMoveSetWithResult(t *testing.T) {
	ms := model.MoveSet{}.WithResult("1-0")
	assert.Equal(t, "1-0", ms.Result)
}

func TestFrontierKeysSorted(t *testing.T) {
	fr := model.Frontier{
		"z": {},
		"a": {},
		"m": {},
	}
	assert.Equal(t, []string{"a", "m", "z"}, fr.Keys())
}
