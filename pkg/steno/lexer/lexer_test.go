package lexer_test

import (
	"testing"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/steno/lexer"
	"github.com/herohde/steno/pkg/steno/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFoolsMate(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "~ ~ ~ #", true)
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)

	assert.Equal(t, board.White, res.Entries[0].Color)
	assert.Equal(t, board.Black, res.Entries[1].Color)
	assert.Equal(t, board.White, res.Entries[2].Color)
	assert.Equal(t, board.Black, res.Entries[3].Color)
	assert.False(t, res.Resume)
	assert.Nil(t, res.Chunk)
}

func TestParseBareMarksStartNewEntries(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "ab", true)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, 'a', res.Entries[0].Marks[0][0].Mark)
	assert.Equal(t, 'b', res.Entries[1].Marks[0][0].Mark)
}

func TestParseOrGroup(t *testing.T) {
	// Per the MARK(&MARK|!MARK)* grammar, a mark prefixed by '!' continues the same entry as a
	// new (negated) OR alternative instead of opening a new entry.
	res, err := lexer.Parse(vocab.Classic, "a!b", true)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Len(t, res.Entries[0].Marks, 2)
	assert.Equal(t, 'a', res.Entries[0].Marks[0][0].Mark)
	assert.False(t, res.Entries[0].Marks[0][0].Negate)
	assert.Equal(t, 'b', res.Entries[0].Marks[1][0].Mark)
	assert.True(t, res.Entries[0].Marks[1][0].Negate)
}

func TestParseAndGroup(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "a&x", true)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Len(t, res.Entries[0].Marks, 1)
	assert.Len(t, res.Entries[0].Marks[0], 2)
}

func TestParseNegation(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "a&!x", true)
	require.NoError(t, err)
	require.True(t, res.Entries[0].Marks[0][1].Negate)
}

func TestParseStripsComments(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "~(this is a comment)~", true)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
}

func TestParseUnbalancedComment(t *testing.T) {
	_, err := lexer.Parse(vocab.PGN, "~(oops", true)
	assert.Error(t, err)
}

func TestParseChunkDirective(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "2-5 ~ ~", true)
	require.NoError(t, err)
	require.NotNil(t, res.Chunk)
	assert.Equal(t, 2, res.Chunk.From)
	assert.Equal(t, 5, res.Chunk.To)
	assert.Len(t, res.Entries, 2)
}

func TestParseChunkDirectiveDisabled(t *testing.T) {
	res, err := lexer.Parse(vocab.Extended, "2-5 12", false)
	require.NoError(t, err)
	assert.Nil(t, res.Chunk)
	assert.Len(t, res.Entries, 5)
}

func TestParseResumeMarker(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "$~~", true)
	require.NoError(t, err)
	assert.True(t, res.Resume)
	assert.Len(t, res.Entries, 2)
}

func TestParseResumeWithChunkIsInvalid(t *testing.T) {
	_, err := lexer.Parse(vocab.PGN, "2-5 $~~", true)
	assert.Error(t, err)
}

func TestParseTooManyDollars(t *testing.T) {
	_, err := lexer.Parse(vocab.PGN, "~$~$", true)
	assert.Error(t, err)
}

func TestParseConditionGroup(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "x[xP|xN]", true)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Len(t, res.Entries[0].Conditions, 1)
	assert.Len(t, res.Entries[0].Conditions[0], 2)
}

func TestParseInvalidMark(t *testing.T) {
	_, err := lexer.Parse(vocab.Classic, "B", true)
	assert.Error(t, err)
}
