package lang

import (
	"strconv"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/cache"
	"github.com/ardnew/xel/lang/compiler"
	"github.com/ardnew/xel/lang/parser"
	"github.com/ardnew/xel/log"
)

const (
	// DefaultThreshold is the number of interpretations [ModeMixed]
	// performs before attempting compilation.
	DefaultThreshold = 100
	// DefaultMaxAttempts is the number of failed compilations after which
	// an expression stops trying.
	DefaultMaxAttempts = 100
)

// Option configures an [Expression].
type Option func(*config)

type config struct {
	loader      *compiler.Loader
	cache       *cache.Cache[*ast.Node]
	logger      log.Logger
	threshold   int64
	maxAttempts int64
	maxDepth    int
	maxLength   int
	mode        Mode
}

func makeConfig(opts ...Option) config {
	c := config{
		loader:      compiler.DefaultLoader,
		logger:      log.Default(),
		threshold:   DefaultThreshold,
		maxAttempts: DefaultMaxAttempts,
		maxDepth:    parser.DefaultMaxDepth,
		maxLength:   parser.DefaultMaxLength,
		mode:        ModeOff,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// cacheKey identifies a parse of source under these options.
func (c config) cacheKey(source string) string {
	return cache.Key(source, strconv.Itoa(c.maxDepth), strconv.Itoa(c.maxLength))
}

func (c config) parserOptions() []parser.Option {
	return []parser.Option{
		parser.WithMaxDepth(c.maxDepth),
		parser.WithMaxLength(c.maxLength),
	}
}

// WithMode sets the compiler mode. The default is [ModeOff].
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithThreshold sets the number of successful interpretations
// [ModeMixed] performs before attempting compilation.
// Values less than 1 are ignored.
func WithThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.threshold = int64(n)
		}
	}
}

// WithMaxAttempts sets the number of failed compilations after which the
// expression stays interpreted. Values less than 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = int64(n)
		}
	}
}

// WithLoader sets the loader compiled programs are counted against.
// The default is [compiler.DefaultLoader].
func WithLoader(l *compiler.Loader) Option {
	return func(c *config) {
		if l != nil {
			c.loader = l
		}
	}
}

// WithLogger sets the logger for compilation and fallback events.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMaxDepth limits the nesting depth of the parsed expression.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithMaxLength limits the length of the expression source in bytes.
func WithMaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// WithCache caches syntax trees by source and limits. Each expression
// parsed through the cache receives its own copy of the cached tree.
func WithCache(cc *cache.Cache[*ast.Node]) Option {
	return func(c *config) { c.cache = cc }
}
