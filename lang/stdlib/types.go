package stdlib

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ardnew/xel/lang/eval"
)

// Math is the type of T(Math), a holder of numeric functions and
// constants.
type Math struct{}

// System is the type of T(System), a holder of process functions.
type System struct{}

// Register adds the builtin types to l.
func Register(l *eval.StandardTypeLocator) {
	for _, ref := range []*eval.TypeRef{
		integerType("Integer", reflect.TypeFor[int](), math.MaxInt32, math.MinInt32, 32),
		integerType("Long", reflect.TypeFor[int64](), math.MaxInt64, math.MinInt64, 64),
		integerType("Short", reflect.TypeFor[int16](), math.MaxInt16, math.MinInt16, 16),
		integerType("Byte", reflect.TypeFor[int8](), math.MaxInt8, math.MinInt8, 8),
		realType("Double", reflect.TypeFor[float64](), math.MaxFloat64, math.SmallestNonzeroFloat64, 64),
		realType("Float", reflect.TypeFor[float32](), math.MaxFloat32, math.SmallestNonzeroFloat32, 32),
		booleanType(),
		stringType(),
		mathType(),
		systemType(),
		{Name: qualify("Object"), Type: reflect.TypeFor[any]()},
		{Name: qualify("Character"), Type: reflect.TypeFor[rune]()},
	} {
		l.Register(ref)
	}

	l.Register(&eval.TypeRef{
		Name: "strings",
		Type: reflect.TypeFor[string](),
		Statics: map[string]any{
			"Contains":   strings.Contains,
			"HasPrefix":  strings.HasPrefix,
			"HasSuffix":  strings.HasSuffix,
			"Index":      strings.Index,
			"Join":       strings.Join,
			"Repeat":     strings.Repeat,
			"ReplaceAll": strings.ReplaceAll,
			"Split":      strings.Split,
			"ToLower":    strings.ToLower,
			"ToUpper":    strings.ToUpper,
			"TrimSpace":  strings.TrimSpace,
			"Fields":     strings.Fields,
		},
	})
	l.Register(&eval.TypeRef{
		Name: "filepath",
		Type: reflect.TypeFor[string](),
		Statics: map[string]any{
			"Abs":           filepath.Abs,
			"Base":          filepath.Base,
			"Clean":         filepath.Clean,
			"Dir":           filepath.Dir,
			"Ext":           filepath.Ext,
			"IsAbs":         filepath.IsAbs,
			"Join":          filepath.Join,
			"Separator":     string(filepath.Separator),
			"ListSeparator": string(filepath.ListSeparator),
		},
	})
}

func qualify(name string) string { return eval.DefaultImport + "." + name }

func integerType(name string, t reflect.Type, maxValue, minValue int64, bits int) *eval.TypeRef {
	conv := func(v int64) any { return reflect.ValueOf(v).Convert(t).Interface() }
	parse := func(s string) (any, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
		if err != nil {
			return nil, fmt.Errorf("for input string: %q", s)
		}

		return conv(n), nil
	}

	return &eval.TypeRef{
		Name: qualify(name),
		Type: t,
		Statics: map[string]any{
			"MAX_VALUE":                 conv(maxValue),
			"MIN_VALUE":                 conv(minValue),
			"valueOf":                   valueOf(t, parse),
			"parse" + parseSuffix(name): parse,
			"toString":                  func(v int64) string { return strconv.FormatInt(v, 10) },
			"toHexString": func(v int64) string {
				return strconv.FormatUint(uint64(v)&mask(bits), 16)
			},
			"toBinaryString": func(v int64) string {
				return strconv.FormatUint(uint64(v)&mask(bits), 2)
			},
			"compare": func(a, b int64) int {
				switch {
				case a < b:
					return -1
				case a > b:
					return 1
				default:
					return 0
				}
			},
		},
		New: []any{
			func(v int64) any { return conv(v) },
			parse,
		},
	}
}

// valueOf returns a function converting numbers to t and parsing strings
// with parse.
func valueOf(t reflect.Type, parse func(string) (any, error)) func(any) (any, error) {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			return parse(s)
		}

		if !eval.IsNumber(v) {
			return nil, fmt.Errorf("cannot convert %s to %s", eval.TypeName(v), t)
		}

		return reflect.ValueOf(v).Convert(t).Interface(), nil
	}
}

// parseSuffix returns the suffix of the parse function of an integer
// type, as in Integer.parseInt and Long.parseLong.
func parseSuffix(name string) string {
	if name == "Integer" {
		return "Int"
	}

	return name
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}

	return 1<<bits - 1
}

func realType(name string, t reflect.Type, maxValue, minValue float64, bits int) *eval.TypeRef {
	conv := func(v float64) any { return reflect.ValueOf(v).Convert(t).Interface() }
	parse := func(s string) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
		if err != nil {
			return nil, fmt.Errorf("for input string: %q", s)
		}

		return conv(f), nil
	}

	return &eval.TypeRef{
		Name: qualify(name),
		Type: t,
		Statics: map[string]any{
			"MAX_VALUE":         conv(maxValue),
			"MIN_VALUE":         conv(minValue),
			"NaN":               conv(math.NaN()),
			"POSITIVE_INFINITY": conv(math.Inf(1)),
			"NEGATIVE_INFINITY": conv(math.Inf(-1)),
			"valueOf":           valueOf(t, parse),
			"parse" + name:      parse,
			"isNaN":             math.IsNaN,
			"toString":          func(v any) string { return eval.Stringify(v) },
		},
		New: []any{
			func(v float64) any { return conv(v) },
			parse,
		},
	}
}

func booleanType() *eval.TypeRef {
	parse := func(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "true") }

	return &eval.TypeRef{
		Name: qualify("Boolean"),
		Type: reflect.TypeFor[bool](),
		Statics: map[string]any{
			"TRUE":         true,
			"FALSE":        false,
			"valueOf":      parse,
			"parseBoolean": parse,
			"toString":     strconv.FormatBool,
		},
		New: []any{
			func(b bool) bool { return b },
			parse,
		},
	}
}

func stringType() *eval.TypeRef {
	return &eval.TypeRef{
		Name: qualify("String"),
		Type: reflect.TypeFor[string](),
		Statics: map[string]any{
			"valueOf": func(v any) string { return eval.Stringify(v) },
			"format":  func(format string, args ...any) string { return fmt.Sprintf(javaFormat(format), args...) },
			"join": func(sep string, elems ...any) string {
				s := make([]string, len(elems))
				for i, e := range elems {
					s[i] = eval.Stringify(e)
				}

				return strings.Join(s, sep)
			},
		},
		New: []any{
			func() string { return "" },
			func(s string) string { return s },
		},
	}
}

// javaFormat rewrites the conversions that differ from fmt: "%n" is a
// newline and "%b" formats a boolean.
func javaFormat(format string) string {
	return strings.NewReplacer("%n", "\n", "%b", "%t").Replace(format)
}

func mathType() *eval.TypeRef {
	return &eval.TypeRef{
		Name: qualify("Math"),
		Type: reflect.TypeFor[Math](),
		Statics: map[string]any{
			"PI":    math.Pi,
			"E":     math.E,
			"abs":   abs,
			"max":   maxOf,
			"min":   minOf,
			"sqrt":  math.Sqrt,
			"cbrt":  math.Cbrt,
			"pow":   math.Pow,
			"exp":   math.Exp,
			"log":   math.Log,
			"log10": math.Log10,
			"floor": math.Floor,
			"ceil":  math.Ceil,
			"round": func(f float64) int64 { return int64(math.Floor(f + 0.5)) },
			"signum": func(f float64) float64 {
				switch {
				case f > 0:
					return 1
				case f < 0:
					return -1
				default:
					return f
				}
			},
			"sin":    math.Sin,
			"cos":    math.Cos,
			"tan":    math.Tan,
			"random": rand.Float64,
		},
	}
}

func abs(v any) (any, error) {
	if !eval.IsNumber(v) {
		return nil, fmt.Errorf("abs of non-numeric %s", eval.TypeName(v))
	}

	if c, err := eval.Order(v, 0); err != nil || c >= 0 {
		return v, err
	}

	return eval.Negate(v)
}

func maxOf(a, b any) (any, error) { return pick(a, b, 1) }

func minOf(a, b any) (any, error) { return pick(a, b, -1) }

// pick returns whichever of a and b orders in direction dir, widened to
// their common numeric type.
func pick(a, b any, dir int) (any, error) {
	c, err := eval.Order(a, b)
	if err != nil {
		return nil, err
	}

	v := a
	if c*dir < 0 {
		v = b
	}

	if eval.IsNumber(a) && eval.IsNumber(b) {
		return eval.Promote(v, eval.Widest(a, b)), nil
	}

	return v, nil
}

func systemType() *eval.TypeRef {
	start := time.Now()

	return &eval.TypeRef{
		Name: qualify("System"),
		Type: reflect.TypeFor[System](),
		Statics: map[string]any{
			"currentTimeMillis": func() int64 { return time.Now().UnixMilli() },
			"nanoTime":          func() int64 { return int64(time.Since(start)) },
			"getenv":            os.Getenv,
			"lineSeparator":     func() string { return "\n" },
		},
	}
}
