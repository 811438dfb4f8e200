package steno

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/herohde/steno/pkg/steno/stenoerr"
	"github.com/herohde/steno/pkg/steno/vocab"
)

const maxLimit = 2_000_000_000

// Config holds solver construction options, populated via functional options (spec §6).
type Config struct {
	Dialect vocab.Dialect

	MaxPositionsToExamine int
	MaxCooksToKeep        int
	MaxSolverTasks        int

	MaxSolutionsToList int
	DisplayPositions   bool

	ShowMetaMarks bool
	AllowChunking bool

	StartFEN   string
	OutputFile string
}

func (c Config) String() string {
	return fmt.Sprintf("{dialect=%v, max_positions=%v, max_cooks=%v, max_tasks=%v}",
		c.Dialect, c.MaxPositionsToExamine, c.MaxCooksToKeep, c.MaxSolverTasks)
}

// Option is a Config construction option.
type Option func(*Config) error

// WithVocabulary sets the mark dialect. Accepts the full names or the single-letter
// abbreviations C/E/P (spec §6).
func WithVocabulary(s string) Option {
	return func(c *Config) error {
		switch strings.ToUpper(s) {
		case "C":
			s = "Classic"
		case "E":
			s = "Extended"
		case "P":
			s = "PGN"
		}
		d, err := vocab.Parse(s)
		if err != nil {
			return stenoerr.Wrap(stenoerr.InvalidVocabulary, err, "parsing vocabulary %q", s)
		}
		c.Dialect = d
		return nil
	}
}

// WithMaxPositionsToExamine sets the frontier size cap. Accepts a decimal with an optional
// K/M/B suffix, or the sentinel "MAX" for the upper bound (spec §6).
func WithMaxPositionsToExamine(s string) Option {
	return func(c *Config) error {
		v, err := parseLimit(s)
		if err != nil {
			return stenoerr.Wrap(stenoerr.InvalidLimit, err, "parsing max_positions_to_examine %q", s)
		}
		c.MaxPositionsToExamine = v
		return nil
	}
}

// WithMaxCooksToKeep sets the per-position MoveSet cap.
func WithMaxCooksToKeep(s string) Option {
	return func(c *Config) error {
		v, err := parseLimit(s)
		if err != nil {
			return stenoerr.Wrap(stenoerr.InvalidLimit, err, "parsing max_cooks_to_keep %q", s)
		}
		c.MaxCooksToKeep = v
		return nil
	}
}

// WithMaxSolverTasks sets the worker pool size.
func WithMaxSolverTasks(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return stenoerr.New(stenoerr.InvalidLimit, "max_solver_tasks must be positive, got %v", n)
		}
		c.MaxSolverTasks = n
		return nil
	}
}

// WithMaxSolutionsToList sets how many solutions the caller intends to print; 0 or >1.
func WithMaxSolutionsToList(n int, displayPositions bool) Option {
	return func(c *Config) error {
		if n == 1 {
			return stenoerr.New(stenoerr.InvalidLimit, "max_solutions_to_list must be 0 or >1, got 1")
		}
		if n < 0 {
			return stenoerr.New(stenoerr.InvalidLimit, "max_solutions_to_list must not be negative, got %v", n)
		}
		c.MaxSolutionsToList = n
		c.DisplayPositions = displayPositions
		return nil
	}
}

// WithShowMetaMarks controls progress-report verbosity only.
func WithShowMetaMarks(show bool) Option {
	return func(c *Config) error {
		c.ShowMetaMarks = show
		return nil
	}
}

// WithAllowChunking enables or disables the N*... and $ multi-chunk directives.
func WithAllowChunking(allow bool) Option {
	return func(c *Config) error {
		c.AllowChunking = allow
		return nil
	}
}

// WithStartFEN sets the starting position: empty for standard, an 8-character back-rank
// permutation for Chess960, or a partial FEN (spec §6).
func WithStartFEN(fen string) Option {
	return func(c *Config) error {
		c.StartFEN = fen
		return nil
	}
}

// WithOutputFile sets the path that cmd/stenosolve appends every Status message to as plain
// text. Solve itself does not write to it.
func WithOutputFile(path string) Option {
	return func(c *Config) error {
		c.OutputFile = path
		return nil
	}
}

// NewConfig builds a validated Config, failing fast on any out-of-range option rather than
// surfacing a bad value deep inside a solve.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		Dialect:               vocab.Classic,
		MaxPositionsToExamine: maxLimit,
		MaxCooksToKeep:        1,
		MaxSolverTasks:        1,
		AllowChunking:         true,
	}
	for _, fn := range opts {
		if err := fn(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

func parseLimit(s string) (int, error) {
	if strings.EqualFold(s, "MAX") {
		return maxLimit, nil
	}

	mult := 1
	switch {
	case strings.HasSuffix(s, "K") || strings.HasSuffix(s, "k"):
		mult, s = 1_000, s[:len(s)-1]
	case strings.HasSuffix(s, "M") || strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, s[:len(s)-1]
	case strings.HasSuffix(s, "B") || strings.HasSuffix(s, "b"):
		mult, s = 1_000_000_000, s[:len(s)-1]
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", s, err)
	}
	v := n * mult
	if v < 1 || v > maxLimit {
		return 0, fmt.Errorf("limit %v out of range [1, %v]", v, maxLimit)
	}
	return v, nil
}
