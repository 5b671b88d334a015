package stdlib

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/xel/lang/cache"
	"github.com/ardnew/xel/lang/eval"
)

// Methods resolves the builtin methods of strings, slices, arrays, and
// maps. Methods a Go type declares itself take precedence.
type Methods struct{}

var errIndex = errors.New("index out of range")

//nolint:gochecknoglobals
var separators = cache.New[*regexp.Regexp](cache.DefaultCapacity)

//nolint:gochecknoglobals
var (
	stringMethods = map[string][]any{
		"length":      {func(s string) int { return utf8.RuneCountInString(s) }},
		"isEmpty":     {func(s string) bool { return s == "" }},
		"toUpperCase": {strings.ToUpper},
		"toLowerCase": {strings.ToLower},
		"trim":        {strings.TrimSpace},
		"charAt":      {charAt},
		"substring":   {substringFrom, substring},
		"contains":    {strings.Contains},
		"startsWith":  {strings.HasPrefix},
		"endsWith":    {strings.HasSuffix},
		"indexOf":     {indexOf},
		"split":       {split},
		"replace":     {strings.ReplaceAll},
		"concat":      {func(s, t string) string { return s + t }},
		"equals":      {func(s string, v any) bool { return eval.Equal(s, v) }},
		"repeat":      {strings.Repeat},
	}
	listMethods = map[string][]any{
		"size":     {func(l any) int { return reflect.ValueOf(l).Len() }},
		"isEmpty":  {func(l any) bool { return reflect.ValueOf(l).Len() == 0 }},
		"get":      {listGet},
		"contains": {func(l, v any) bool { return listIndex(l, v) >= 0 }},
		"indexOf":  {listIndex},
	}
	mapMethods = map[string][]any{
		"size":          {func(m any) int { return reflect.ValueOf(m).Len() }},
		"isEmpty":       {func(m any) bool { return reflect.ValueOf(m).Len() == 0 }},
		"get":           {mapGet},
		"containsKey":   {containsKey},
		"containsValue": {containsValue},
		"keySet":        {keySet},
		"values":        {values},
	}
)

// ResolveMethod implements [eval.MethodResolver].
func (Methods) ResolveMethod(
	ctx *eval.Context, target any, name string, argTypes []reflect.Type,
) (*eval.Member, error) {
	t := reflect.TypeOf(target)
	if t == nil {
		return nil, nil
	}

	if _, ok := t.MethodByName(eval.Capitalize(name)); ok {
		return nil, nil
	}

	var table map[string][]any

	switch {
	case t == reflect.TypeFor[string]():
		table = stringMethods
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		table = listMethods
	case t.Kind() == reflect.Map:
		table = mapMethods
	default:
		return nil, nil
	}

	for _, fn := range table[name] {
		m, err := eval.ExtensionMember(t, name, fn)
		if err != nil {
			return nil, err
		}

		if m.Accepts(ctx, argTypes) {
			return m, nil
		}
	}

	return nil, nil
}

func charAt(s string, i int) (string, error) {
	r := []rune(s)
	if i < 0 || i >= len(r) {
		return "", fmt.Errorf("%w: %d", errIndex, i)
	}

	return string(r[i]), nil
}

func substringFrom(s string, begin int) (string, error) {
	return substring(s, begin, utf8.RuneCountInString(s))
}

func substring(s string, begin, end int) (string, error) {
	r := []rune(s)
	if begin < 0 || end > len(r) || begin > end {
		return "", fmt.Errorf("%w: begin %d, end %d, length %d", errIndex, begin, end, len(r))
	}

	return string(r[begin:end]), nil
}

// indexOf returns the rune index of the first instance of sub in s, or -1.
func indexOf(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return i
	}

	return utf8.RuneCountInString(s[:i])
}

// split splits s around each match of the regular expression sep,
// dropping trailing empty strings.
func split(s, sep string) ([]string, error) {
	re, err := separators.GetOrCreate(sep, func() (*regexp.Regexp, error) {
		return regexp.Compile(sep)
	})
	if err != nil {
		return nil, err
	}

	out := re.Split(s, -1)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return out, nil
}

func listGet(l any, i int) (any, error) {
	rv := reflect.ValueOf(l)
	if i < 0 || i >= rv.Len() {
		return nil, fmt.Errorf("%w: %d", errIndex, i)
	}

	return rv.Index(i).Interface(), nil
}

func listIndex(l, v any) int {
	rv := reflect.ValueOf(l)
	for i := range rv.Len() {
		if eval.Equal(rv.Index(i).Interface(), v) {
			return i
		}
	}

	return -1
}

// mapKey converts k to the key type of m, reporting false if it cannot.
func mapKey(m reflect.Value, k any) (reflect.Value, bool) {
	kt := m.Type().Key()
	if k == nil {
		return reflect.Value{}, false
	}

	kv := reflect.ValueOf(k)
	if kv.Type().AssignableTo(kt) {
		return kv, true
	}

	// Numbers convert only to numeric keys, so 65 never finds "A".
	numeric := eval.CategoryOf(kv.Type()) != eval.NotNumeric
	if kv.Type().ConvertibleTo(kt) && numeric == (eval.CategoryOf(kt) != eval.NotNumeric) {
		return kv.Convert(kt), true
	}

	return reflect.Value{}, false
}

func mapGet(m, k any) any {
	rv := reflect.ValueOf(m)

	kv, ok := mapKey(rv, k)
	if !ok {
		return nil
	}

	v := rv.MapIndex(kv)
	if !v.IsValid() {
		return nil
	}

	return v.Interface()
}

func containsKey(m, k any) bool {
	rv := reflect.ValueOf(m)

	kv, ok := mapKey(rv, k)

	return ok && rv.MapIndex(kv).IsValid()
}

func containsValue(m, v any) bool {
	return slices.ContainsFunc(values(m), func(e any) bool { return eval.Equal(e, v) })
}

// keySet returns the keys of m in sorted order.
func keySet(m any) []any {
	rv := reflect.ValueOf(m)
	out := make([]any, 0, rv.Len())

	for _, k := range rv.MapKeys() {
		out = append(out, k.Interface())
	}

	slices.SortStableFunc(out, func(a, b any) int {
		c, err := eval.Order(a, b)
		if err != nil {
			return strings.Compare(eval.Stringify(a), eval.Stringify(b))
		}

		return c
	})

	return out
}

// values returns the values of m in the order of [keySet].
func values(m any) []any {
	rv := reflect.ValueOf(m)
	keys := keySet(m)
	out := make([]any, len(keys))

	for i, k := range keys {
		out[i] = rv.MapIndex(reflect.ValueOf(k)).Interface()
	}

	return out
}
