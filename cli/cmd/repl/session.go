package repl

import (
	"log/slog"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/log"
)

// session is the evaluation state shared by every input line: one
// evaluation context, so assignments persist, and one parsed expression per
// distinct source, so repeated input reaches the compiler.
type session struct {
	ectx   *eval.Context
	logger log.Logger
	exprs  map[string]*lang.Expression
	opts   []lang.Option
	mode   lang.Mode
	mu     sync.Mutex
}

func newSession(ectx *eval.Context, logger log.Logger, mode lang.Mode, opts ...lang.Option) *session {
	return &session{
		ectx:   ectx,
		logger: logger,
		exprs:  make(map[string]*lang.Expression),
		opts:   opts,
		mode:   mode,
	}
}

// options returns the parse options for new expressions.
func (s *session) options() []lang.Option {
	return append(slices.Clone(s.opts), lang.WithMode(s.mode), lang.WithLogger(s.logger))
}

// expression returns the parsed expression for source, parsing it on first
// use.
func (s *session) expression(source string) (*lang.Expression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.exprs[source]; ok {
		return e, nil
	}

	e, err := lang.Parse(source, s.options()...)
	if err != nil {
		return nil, err
	}

	s.exprs[source] = e

	return e, nil
}

// evaluate evaluates source against the session context.
func (s *session) evaluate(source string) (any, *lang.Expression, error) {
	e, err := s.expression(source)
	if err != nil {
		return nil, nil, err
	}

	v, err := e.Value(s.ectx)

	s.logger.Trace("repl evaluated",
		slog.String("expr", source),
		slog.Bool("compiled", e.Compiled()),
		slog.Bool("error", err != nil),
	)

	return v, e, err
}

// setMode changes the compiler mode of expressions parsed from now on and
// forgets every cached expression.
func (s *session) setMode(mode lang.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = mode
	clear(s.exprs)
}

// currentMode returns the compiler mode for new expressions.
func (s *session) currentMode() lang.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

// expressions returns the cached expressions ordered by source.
func (s *session) expressions() []*lang.Expression {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := slices.Sorted(maps.Keys(s.exprs))
	exprs := make([]*lang.Expression, len(keys))

	for i, k := range keys {
		exprs[i] = s.exprs[k]
	}

	return exprs
}

func (s *session) root() any { return s.ectx.Root() }

func (s *session) setRoot(root any) { s.ectx.SetRoot(root) }

// variables returns the sorted variable names.
func (s *session) variables() []string {
	return slices.Sorted(maps.Keys(s.ectx.Variables()))
}

// functions returns the sorted function names.
func (s *session) functions() []string {
	return slices.Sorted(maps.Keys(s.ectx.Functions()))
}

// types returns the sorted names known to the type locator.
func (s *session) types() []string {
	l, ok := s.ectx.Locator().(interface{ Names() []string })
	if !ok {
		return nil
	}

	names := l.Names()
	slices.Sort(names)

	return names
}

// chainPattern matches a side-effect-free reference chain, such as
// "server.host" or "#cfg?.items".
var chainPattern = regexp.MustCompile(
	`^#?[\p{L}_$][\p{L}\p{N}_$]*(\??\.[\p{L}_$][\p{L}\p{N}_$]*)*$`,
)

// resolve evaluates a reference chain for completion. Anything other than a
// plain chain of variable and property references is not evaluated.
func (s *session) resolve(chain string) (any, bool) {
	if !chainPattern.MatchString(chain) {
		return nil, false
	}

	e, err := lang.Parse(chain, lang.WithLogger(s.logger))
	if err != nil {
		return nil, false
	}

	v, err := e.Value(s.ectx)
	if err != nil || v == nil {
		return nil, false
	}

	return v, true
}

// properties returns the property names readable on v: the string keys of a
// map, or the exported fields and getters of a struct.
func properties(v any) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}

	var names []string

	if rv.Kind() == reflect.Map {
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}

		for _, k := range rv.MapKeys() {
			names = append(names, k.String())
		}

		slices.Sort(names)

		return names
	}

	t := rv.Type()

	for i := range t.NumMethod() {
		if m := t.Method(i); m.Type.NumIn() == 1 && m.Type.NumOut() > 0 {
			names = append(names, getterName(m.Name))
		}
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() && !f.Anonymous {
				names = append(names, decapitalize(f.Name))
			}
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// getterName strips a Get or Is prefix from a method name and decapitalizes
// the rest.
func getterName(name string) string {
	for _, prefix := range []string{"Get", "Is"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && rest != "" {
			if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
				return decapitalize(rest)
			}
		}
	}

	return decapitalize(name)
}

func decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}
