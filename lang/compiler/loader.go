package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/expr-lang/expr"

	"github.com/ardnew/xel/log"
)

// GenerationLimit is the default number of programs a [Loader] loads into
// one generation before starting the next.
const GenerationLimit = 100

// ErrLoad is wrapped by errors returned from [Loader.Load].
var ErrLoad = errors.New("cannot load compiled expression")

// DefaultLoader is the process-wide loader.
//
//nolint:gochecknoglobals
var DefaultLoader = NewLoader()

// Loader compiles units into artifacts. Programs are counted against the
// current generation, which is replaced by a fresh one when it reaches
// its limit. Artifacts remember the generation that loaded them.
//
// A Loader is safe for concurrent use.
type Loader struct {
	current atomic.Pointer[generation]
	logger  log.Logger
	limit   int
}

type generation struct {
	id     uint64
	loaded atomic.Int64
}

type config struct {
	logger log.Logger
	limit  int
}

// Option configures a [Loader].
type Option func(config) config

// WithLimit sets the number of programs per generation.
// Values less than 1 are ignored.
func WithLimit(n int) Option {
	return func(c config) config {
		if n > 0 {
			c.limit = n
		}

		return c
	}
}

// WithLogger sets the logger for load and rotation events.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// NewLoader returns a loader starting at generation 1.
func NewLoader(opts ...Option) *Loader {
	c := config{limit: GenerationLimit}
	for _, opt := range opts {
		c = opt(c)
	}

	l := &Loader{logger: c.logger, limit: c.limit}
	l.current.Store(&generation{id: 1})

	return l
}

// log returns the configured logger, or the current default logger if
// none was given.
func (l *Loader) log() log.Logger {
	if l.logger.Logger == nil {
		return log.Default().Component("loader")
	}

	return l.logger
}

// Generation returns the id of the current generation.
func (l *Loader) Generation() uint64 { return l.current.Load().id }

// Loaded returns the number of programs loaded into the current
// generation.
func (l *Loader) Loaded() int {
	return int(min(l.current.Load().loaded.Load(), int64(l.limit)))
}

// Limit returns the number of programs per generation.
func (l *Loader) Limit() int { return l.limit }

// Load compiles u into an artifact.
func (l *Loader) Load(u *Unit) (*Artifact, error) {
	opts := make([]expr.Option, 0, len(u.Sites)+2)
	opts = append(opts, expr.Env(u.Env()), expr.DisableAllBuiltins())

	for _, s := range u.Sites {
		opts = append(opts, expr.Function(s.Name, s.Fn))
	}

	program, err := expr.Compile(u.Source, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	g := l.reserve()

	l.log().Trace("load",
		slog.String("source", u.Source),
		slog.Int("sites", len(u.Sites)),
		slog.Uint64("generation", g.id),
	)

	return &Artifact{program: program, unit: u, generation: g.id}, nil
}

// reserve counts a program against the current generation, starting a
// new generation when the current one is full.
func (l *Loader) reserve() *generation {
	for {
		g := l.current.Load()
		if g.loaded.Add(1) <= int64(l.limit) {
			return g
		}

		next := &generation{id: g.id + 1}
		if l.current.CompareAndSwap(g, next) {
			l.log().Debug("rotate generation",
				slog.Uint64("retired", g.id),
				slog.Uint64("generation", next.id),
			)
		}
	}
}
