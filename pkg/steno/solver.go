// Package steno wires the lexer, validator, meta-condition synthesiser, mark matcher,
// condition evaluator, frontier engine and checkpoint codec into a single solver, per spec §6's
// "steno.Solver" ambient interface.
package steno

import (
	"context"
	"fmt"
	"strings"

	"github.com/herohde/steno/pkg/board"
	"github.com/herohde/steno/pkg/board/fen"
	"github.com/herohde/steno/pkg/steno/checkpoint"
	"github.com/herohde/steno/pkg/steno/frontier"
	"github.com/herohde/steno/pkg/steno/lexer"
	"github.com/herohde/steno/pkg/steno/model"
	"github.com/herohde/steno/pkg/steno/stenoerr"
	"github.com/herohde/steno/pkg/steno/synth"
	"github.com/herohde/steno/pkg/steno/validate"

	"github.com/seekerror/logw"
)

// Solver is the package's single public entry point.
type Solver struct {
	cfg Config
}

// NewSolver constructs a Solver from a validated Config.
func NewSolver(cfg Config) *Solver {
	return &Solver{cfg: cfg}
}

// Solve parses stenoStr, runs the frontier engine to completion (or abort), and reports
// progress and the final result on the returned channel, which it closes on return. snapshot
// is the checkpoint blob to resume from when stenoStr opens with '$'; nil starts fresh.
func (s *Solver) Solve(ctx context.Context, stenoStr string, snapshot []byte) <-chan Message {
	out := make(chan Message, 8)
	go func() {
		defer close(out)
		s.run(ctx, stenoStr, snapshot, out)
	}()
	return out
}

func (s *Solver) run(ctx context.Context, stenoStr string, snapshot []byte, out chan<- Message) {
	res, err := lexer.Parse(s.cfg.Dialect, stenoStr, s.cfg.AllowChunking)
	if err != nil {
		out <- Message{Kind: Error, Text: "parsing steno", Err: err}
		return
	}
	entries := res.Entries

	standardStart := s.cfg.StartFEN == ""
	var loaded *checkpoint.Loaded
	if res.Resume {
		if snapshot == nil {
			out <- Message{Kind: Error, Text: "resume", Err: stenoerr.New(stenoerr.InvalidCheckpointChunk, "resume requested but no checkpoint provided")}
			return
		}
		l, err := checkpoint.Load(snapshot)
		if err != nil {
			out <- Message{Kind: Error, Text: "loading checkpoint", Err: err}
			return
		}
		loaded = l
	}

	if err := validate.Validate(entries, validate.Options{Dialect: s.cfg.Dialect, StandardStart: standardStart}); err != nil {
		out <- Message{Kind: Error, Text: "validating steno", Err: err}
		return
	}
	synth.Annotate(entries, synth.Options{Dialect: s.cfg.Dialect, StandardStart: standardStart})

	cur, err := s.initialFrontier(loaded)
	if err != nil {
		out <- Message{Kind: Error, Text: "building starting position", Err: err}
		return
	}

	engine := frontier.NewEngine(s.cfg.Dialect, frontier.Limits{
		MaxPositionsToExamine: s.cfg.MaxPositionsToExamine,
		MaxCooksToKeep:        s.cfg.MaxCooksToKeep,
		MaxSolverTasks:        s.cfg.MaxSolverTasks,
	})

	logw.Infof(ctx, "starting solve: %v entries, dialect=%v, config=%v", len(entries), s.cfg.Dialect, s.cfg)
	out <- Message{Kind: Status, Text: fmt.Sprintf("parsed %d entries", len(entries)), Positions: len(cur)}

	for i := range entries {
		if ctx.Err() != nil {
			out <- Message{Kind: Abort, Text: "cancelled", Positions: len(cur)}
			return
		}

		step, err := engine.Step(ctx, cur, entries, i)
		if err != nil {
			out <- Message{Kind: Error, Text: fmt.Sprintf("stepping entry %d", i), Err: err}
			return
		}
		if step.Cancelled {
			out <- Message{Kind: Abort, Text: "cancelled", Positions: len(cur)}
			return
		}
		if step.Aborted {
			out <- Message{Kind: Abort, Text: fmt.Sprintf("position cap %d reached at entry %d", s.cfg.MaxPositionsToExamine, i), Positions: s.cfg.MaxPositionsToExamine}
			return
		}

		cur = step.Next
		frontier.RunExtinctionSynthesis(entries, i, s.cfg.Dialect, cur)

		logw.Debugf(ctx, "entry %d done: %d live positions", i, len(cur))
		if s.cfg.ShowMetaMarks {
			logw.Debugf(ctx, "entry %d meta-marks: %v %v", i, renderMarkExpr(entries[i].MetaMarks), renderCondExpr(entries[i].MetaConditions))
		}
		out <- Message{Kind: InProgress, Text: fmt.Sprintf("entry %d/%d", i+1, len(entries)), Positions: len(cur)}

		if entries[i].Resume {
			blob, err := checkpoint.Save(cur, entries[:i+1], renderEntry)
			if err != nil {
				out <- Message{Kind: Error, Text: "saving checkpoint", Err: err}
				return
			}
			out <- Message{Kind: Status, Text: "checkpoint saved", Positions: len(cur), Checkpoint: blob}
		}
	}

	out <- Message{Kind: Success, Text: "solve complete", Positions: len(cur)}
}

func (s *Solver) initialFrontier(loaded *checkpoint.Loaded) (model.Frontier, error) {
	if loaded != nil {
		return loaded.Frontier, nil
	}

	startFEN, err := fen.BuildStartFEN(s.cfg.StartFEN)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidFen, err, "building start position")
	}
	pos, turn, halfmove, fullmoves, err := fen.Decode(startFEN)
	if err != nil {
		return nil, stenoerr.Wrap(stenoerr.InvalidFen, err, "decoding start position")
	}

	b := board.NewBoard(pos, turn, halfmove, fullmoves)
	key := fen.Key(pos, turn)
	return model.Frontier{key: &model.Position{Key: key, Board: b, CheckFuture: true, MoveSets: []model.MoveSet{{}}}}, nil
}

// renderEntry renders an entry's authored marks and conditions back to their mark-language
// text, for checkpoint display purposes (spec §4.8: "each entry keeping marks and conditions
// with trailing $ removed").
func renderEntry(e model.MarkEntry) (marks, conds string) {
	return renderMarkExpr(e.Marks), renderCondExpr(e.Conditions)
}

func renderMarkExpr(expr model.MarkExpr) string {
	var groups []string
	for _, g := range expr {
		var atoms []string
		for _, a := range g {
			atoms = append(atoms, a.String())
		}
		groups = append(groups, strings.Join(atoms, "&"))
	}
	return strings.Join(groups, "")
}

func renderCondExpr(expr model.CondExpr) string {
	var out strings.Builder
	for _, g := range expr {
		out.WriteByte('[')
		var alts []string
		for _, alt := range g {
			var atoms []string
			for _, a := range alt {
				atoms = append(atoms, renderCondAtom(a))
			}
			alts = append(alts, strings.Join(atoms, "&"))
		}
		out.WriteString(strings.Join(alts, "|"))
		out.WriteByte(']')
	}
	return out.String()
}

func renderCondAtom(a model.CondAtom) string {
	switch a.Kind {
	case model.CondCaptured:
		return "x" + a.Piece.String()
	case model.CondCapturedCum:
		return "X" + piecesString(a.Pieces)
	case model.CondPromotedCum:
		return "=" + piecesString(a.Pieces)
	case model.CondPawnRankGE:
		return fmt.Sprintf("^%d", a.Rank+1)
	case model.CondPawnRankLE:
		return fmt.Sprintf("v%d", a.Rank+1)
	case model.CondEmptySquare:
		return "-" + renderSquareSpec(a.Square)
	case model.CondPieceOnSquare:
		letter := a.Piece.String()
		if a.Color == board.White {
			letter = strings.ToUpper(letter)
		}
		return letter + renderSquareSpec(a.Square)
	case model.CondOrigin:
		return "@" + renderSquareSpec(a.Square)
	default:
		return ""
	}
}

func piecesString(ps []board.Piece) string {
	var sb strings.Builder
	for _, p := range ps {
		sb.WriteString(p.String())
	}
	return sb.String()
}

func renderSquareSpec(s model.SquareSpec) string {
	if s.HasSquare {
		return s.Square.String()
	}
	var sb strings.Builder
	if s.HasFile {
		sb.WriteString(s.File.SAN())
	}
	if s.HasRank {
		sb.WriteString(fmt.Sprintf("%d", int(s.Rank)+1))
	}
	return sb.String()
}
