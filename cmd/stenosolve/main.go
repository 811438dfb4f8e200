// stenosolve is a command-line driver for the Steno-Chess solver. It prints progress and
// results to stdout; the interactive terminal loop and web front-end are out of scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/herohde/steno/pkg/steno"

	"github.com/seekerror/logw"
)

var (
	vocabulary  = flag.String("vocabulary", "Classic", "Mark vocabulary: Classic, Extended, or PGN")
	maxPos      = flag.String("max-positions", "MAX", "Max positions to examine (decimal, K/M/B suffix, or MAX)")
	maxCooks    = flag.String("max-cooks", "1", "Max MoveSets to keep per position")
	maxTasks    = flag.Int("max-tasks", 4, "Worker pool size")
	startFEN    = flag.String("start-fen", "", "Starting position: empty for standard, 8 letters for Chess960, or a partial FEN")
	allowChunk  = flag.Bool("allow-chunking", true, "Allow N[-M] chunk directives and '$' checkpoint markers")
	showMeta    = flag.Bool("show-meta-marks", false, "Log synthesized meta-marks/meta-conditions during progress")
	outputFile  = flag.String("output-file", "", "Append Status messages to this file as plain text")
	checkpoint  = flag.String("checkpoint-in", "", "Path to a checkpoint file to resume from")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	if flag.NArg() != 1 {
		logw.Exitf(ctx, "usage: stenosolve [flags] <steno-string>")
	}

	cfg, err := steno.NewConfig(
		steno.WithVocabulary(*vocabulary),
		steno.WithMaxPositionsToExamine(*maxPos),
		steno.WithMaxCooksToKeep(*maxCooks),
		steno.WithMaxSolverTasks(*maxTasks),
		steno.WithStartFEN(*startFEN),
		steno.WithAllowChunking(*allowChunk),
		steno.WithShowMetaMarks(*showMeta),
		steno.WithOutputFile(*outputFile),
	)
	if err != nil {
		logw.Exitf(ctx, "invalid configuration: %v", err)
	}

	var snapshot []byte
	if *checkpoint != "" {
		data, err := os.ReadFile(*checkpoint)
		if err != nil {
			logw.Exitf(ctx, "reading checkpoint %v: %v", *checkpoint, err)
		}
		snapshot = data
	}

	solver := steno.NewSolver(cfg)
	for msg := range solver.Solve(ctx, flag.Arg(0), snapshot) {
		fmt.Println(msg)
		if msg.Kind == steno.Status && cfg.OutputFile != "" {
			f, err := os.OpenFile(cfg.OutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				logw.Errorf(ctx, "appending to %v: %v", cfg.OutputFile, err)
			} else {
				fmt.Fprintln(f, msg)
				f.Close()
			}
		}
		if msg.Checkpoint != nil {
			writeCheckpoint(ctx, msg.Checkpoint)
		}
		if msg.Kind == steno.Error {
			os.Exit(1)
		}
	}
}

func writeCheckpoint(ctx context.Context, blob []byte) {
	path := "steno.checkpoint"
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		logw.Errorf(ctx, "writing checkpoint to %v: %v", path, err)
	}
}
