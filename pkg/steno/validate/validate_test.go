package validate_test

import (
	"testing"

	"github.com/herohde/steno/pkg/steno/lexer"
	"github.com/herohde/steno/pkg/steno/validate"
	"github.com/herohde/steno/pkg/steno/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFoolsMateOK(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "~~~#", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.PGN, StandardStart: true})
	assert.NoError(t, err)
}

func TestValidateMateBeforeBlacksSecondMove(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "~#", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.PGN, StandardStart: true})
	assert.Error(t, err)
}

func TestValidateEndgameMarkNotLast(t *testing.T) {
	res, err := lexer.Parse(vocab.PGN, "~#~~~~~", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.PGN, StandardStart: false})
	assert.Error(t, err)
}

func TestValidateCaptureOnFirstTwoHalfMoves(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "x", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.Classic})
	assert.Error(t, err)
}

func TestValidateTooManyCastlingMarks(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "o~o~~~~~~~~", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.Classic})
	assert.Error(t, err)
}

func TestValidatePromotionTooEarly(t *testing.T) {
	res, err := lexer.Parse(vocab.Classic, "~~~~~~~q", true)
	require.NoError(t, err)

	err = validate.Validate(res.Entries, validate.Options{Dialect: vocab.Classic})
	assert.Error(t, err)
}
