package steno_test

import (
	"context"
	"testing"

	"github.com/herohde/steno/pkg/steno"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan steno.Message) []steno.Message {
	t.Helper()
	var out []steno.Message
	for m := range ch {
		out = append(out, m)
	}
	return out
}

func lastOfKind(msgs []steno.Message, k steno.MessageKind) (steno.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == k {
			return msgs[i], true
		}
	}
	return steno.Message{}, false
}

// TestSolveFoolsMate is scenario S1: "~ ~ ~ #" from standard start, PGN dialect, has the
// unique solution 1. f3 e5 2. g4 Qh4#.
func TestSolveFoolsMate(t *testing.T) {
	cfg, err := steno.NewConfig(
		steno.WithVocabulary("P"),
		steno.WithMaxPositionsToExamine("MAX"),
		steno.WithMaxCooksToKeep("5"),
		steno.WithMaxSolverTasks(4),
	)
	require.NoError(t, err)

	solver := steno.NewSolver(cfg)
	msgs := drain(t, solver.Solve(context.Background(), "~~~#", nil))

	success, ok := lastOfKind(msgs, steno.Success)
	require.True(t, ok, "expected a Success message, got %+v", msgs)
	assert.Equal(t, 1, success.Positions)
}

// TestSolvePositionLimit is scenario S5: steno "~" with max_positions_to_examine = 5 aborts
// with exactly 5 positions reported.
func TestSolvePositionLimit(t *testing.T) {
	cfg, err := steno.NewConfig(
		steno.WithVocabulary("C"),
		steno.WithMaxPositionsToExamine("5"),
		steno.WithMaxCooksToKeep("1"),
		steno.WithMaxSolverTasks(2),
	)
	require.NoError(t, err)

	solver := steno.NewSolver(cfg)
	msgs := drain(t, solver.Solve(context.Background(), "~", nil))

	abort, ok := lastOfKind(msgs, steno.Abort)
	require.True(t, ok, "expected an Abort message, got %+v", msgs)
	assert.Equal(t, 5, abort.Positions)
}

func TestSolveInvalidStenoReportsError(t *testing.T) {
	cfg, err := steno.NewConfig(steno.WithVocabulary("C"))
	require.NoError(t, err)

	solver := steno.NewSolver(cfg)
	msgs := drain(t, solver.Solve(context.Background(), "B", nil))

	errMsg, ok := lastOfKind(msgs, steno.Error)
	require.True(t, ok)
	assert.Error(t, errMsg.Err)
}
