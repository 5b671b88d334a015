package parser

// DefaultMaxLength is the default limit on the length of an expression.
const DefaultMaxLength = 10000

// DefaultMaxDepth is the default limit on expression nesting.
const DefaultMaxDepth = 512

// Option configures a parse.
type Option func(config) config

type config struct {
	maxLength int
	maxDepth  int
}

func makeConfig(opts ...Option) config {
	c := config{maxLength: DefaultMaxLength, maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithMaxLength limits the source length of an expression. A value less than
// or equal to zero disables the limit.
func WithMaxLength(n int) Option {
	return func(c config) config {
		c.maxLength = n

		return c
	}
}

// WithMaxDepth limits how deeply expressions may nest. A value less than or
// equal to zero disables the limit.
func WithMaxDepth(n int) Option {
	return func(c config) config {
		c.maxDepth = n

		return c
	}
}
