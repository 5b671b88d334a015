package eval

import (
	"log/slog"
	"maps"
	"reflect"

	"github.com/ardnew/xel/log"
)

// Context supplies everything an evaluation needs besides the syntax tree:
// the root object, variables and functions, and the strategies used to
// resolve properties, methods, constructors, types, and beans.
//
// A Context may be shared by repeated evaluations but is not synchronized;
// callers that mutate variables must not evaluate concurrently.
type Context struct {
	root      any
	converter TypeConverter
	locator   TypeLocator
	beans     BeanResolver
	variables map[string]any
	functions map[string]any
	logger    log.Logger
	accessors []PropertyAccessor
	methods   []MethodResolver
	ctors     []ConstructorResolver
}

// Option configures a [Context].
type Option func(Context) Context

// NewContext returns a context with the default strategies: the type,
// map, and reflective property accessors in that order, the reflective
// method resolver, the standard constructor resolver, type converter, and
// type locator, and the default logger.
func NewContext(opts ...Option) *Context {
	c := Context{
		variables: make(map[string]any),
		functions: make(map[string]any),
		accessors: []PropertyAccessor{TypeAccessor{}, MapAccessor{}, ReflectiveAccessor{}},
		methods:   []MethodResolver{ReflectiveMethodResolver{}},
		ctors:     []ConstructorResolver{StandardConstructorResolver{}},
		converter: StandardTypeConverter{},
		locator:   NewStandardTypeLocator(),
		logger:    log.Default(),
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return &c
}

// WithRoot sets the root object.
func WithRoot(root any) Option {
	return func(c Context) Context {
		c.root = root

		return c
	}
}

// WithVariable binds a variable.
func WithVariable(name string, value any) Option {
	return func(c Context) Context {
		c.variables[name] = value

		return c
	}
}

// WithVariables binds every entry of vars as a variable.
func WithVariables(vars map[string]any) Option {
	return func(c Context) Context {
		maps.Copy(c.variables, vars)

		return c
	}
}

// WithFunction registers fn, which must be a func, for #name(...) calls.
func WithFunction(name string, fn any) Option {
	return func(c Context) Context {
		c.functions[name] = fn

		return c
	}
}

// WithPropertyAccessor adds an accessor tried before those already
// registered.
func WithPropertyAccessor(a PropertyAccessor) Option {
	return func(c Context) Context {
		c.accessors = append([]PropertyAccessor{a}, c.accessors...)

		return c
	}
}

// WithMethodResolver adds a resolver tried before those already
// registered.
func WithMethodResolver(r MethodResolver) Option {
	return func(c Context) Context {
		c.methods = append([]MethodResolver{r}, c.methods...)

		return c
	}
}

// WithConstructorResolver adds a resolver tried before those already
// registered.
func WithConstructorResolver(r ConstructorResolver) Option {
	return func(c Context) Context {
		c.ctors = append([]ConstructorResolver{r}, c.ctors...)

		return c
	}
}

// WithTypeConverter replaces the type converter.
func WithTypeConverter(tc TypeConverter) Option {
	return func(c Context) Context {
		c.converter = tc

		return c
	}
}

// WithTypeLocator replaces the type locator.
func WithTypeLocator(tl TypeLocator) Option {
	return func(c Context) Context {
		c.locator = tl

		return c
	}
}

// WithBeanResolver sets the resolver for @name references.
func WithBeanResolver(br BeanResolver) Option {
	return func(c Context) Context {
		c.beans = br

		return c
	}
}

// WithLogger sets the logger used for trace output.
func WithLogger(l log.Logger) Option {
	return func(c Context) Context {
		c.logger = l

		return c
	}
}

// Root returns the root object.
func (c *Context) Root() any { return c.root }

// SetRoot replaces the root object.
func (c *Context) SetRoot(root any) { c.root = root }

// Variable returns the value bound to name. Registered functions are
// also visible as variables so they can be passed as arguments.
func (c *Context) Variable(name string) (any, bool) {
	if v, ok := c.variables[name]; ok {
		return v, true
	}

	fn, ok := c.functions[name]

	return fn, ok
}

// SetVariable binds name to value.
func (c *Context) SetVariable(name string, value any) { c.variables[name] = value }

// Variables returns a copy of the variable bindings.
func (c *Context) Variables() map[string]any { return maps.Clone(c.variables) }

// Function returns the function registered as name, falling back to a
// variable holding a func.
func (c *Context) Function(name string) (any, bool) {
	if fn, ok := c.functions[name]; ok {
		return fn, true
	}

	if v, ok := c.variables[name]; ok && v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return v, true
	}

	return nil, false
}

// Functions returns a copy of the registered functions.
func (c *Context) Functions() map[string]any { return maps.Clone(c.functions) }

// RegisterFunction registers fn for #name(...) calls.
func (c *Context) RegisterFunction(name string, fn any) { c.functions[name] = fn }

// Converter returns the type converter.
func (c *Context) Converter() TypeConverter { return c.converter }

// Locator returns the type locator.
func (c *Context) Locator() TypeLocator { return c.locator }

// Beans returns the bean resolver, which may be nil.
func (c *Context) Beans() BeanResolver { return c.beans }

// Logger returns the logger.
func (c *Context) Logger() log.Logger { return c.logger }

// LogValue implements [slog.LogValuer].
func (c *Context) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("root", TypeName(c.root)),
		slog.Int("variables", len(c.variables)),
		slog.Int("functions", len(c.functions)),
		slog.Int("accessors", len(c.accessors)),
	)
}
