package eval

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Category is the numeric promotion class of a value. Binary arithmetic
// between two categories is carried out in the wider one.
type Category uint8

const (
	NotNumeric Category = iota
	CategoryInt
	CategoryLong
	CategoryFloat
	CategoryDouble
)

func (c Category) String() string {
	switch c {
	case CategoryInt:
		return "int"
	case CategoryLong:
		return "long"
	case CategoryFloat:
		return "float"
	case CategoryDouble:
		return "double"
	default:
		return "none"
	}
}

// Type returns the Go type that values of category c are promoted to.
func (c Category) Type() reflect.Type {
	switch c {
	case CategoryInt:
		return reflect.TypeFor[int]()
	case CategoryLong:
		return reflect.TypeFor[int64]()
	case CategoryFloat:
		return reflect.TypeFor[float32]()
	case CategoryDouble:
		return reflect.TypeFor[float64]()
	default:
		return nil
	}
}

// CategoryOf returns the numeric category of values of type t.
//
// Small integers (int8, int16, int32, uint8, uint16) promote to int.
// int64, uint32, uint, uint64, and uintptr promote to long.
func CategoryOf(t reflect.Type) Category {
	if t == nil {
		return NotNumeric
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16:
		return CategoryInt
	case reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return CategoryLong
	case reflect.Float32:
		return CategoryFloat
	case reflect.Float64:
		return CategoryDouble
	default:
		return NotNumeric
	}
}

func categoryOf(v any) Category {
	switch v.(type) {
	case nil:
		return NotNumeric
	case int:
		return CategoryInt
	case int64:
		return CategoryLong
	case float64:
		return CategoryDouble
	case float32:
		return CategoryFloat
	case string, bool:
		return NotNumeric
	}

	return CategoryOf(reflect.TypeOf(v))
}

// IsNumber reports whether v has a numeric category.
func IsNumber(v any) bool { return categoryOf(v) != NotNumeric }

func asInt(v any) int {
	if i, ok := v.(int); ok {
		return i
	}

	return int(asLong(v))
}

func asLong(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint()) //nolint:gosec
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float())
	default:
		return 0
	}
}

func asDouble(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	default:
		return float64(asLong(v))
	}
}

func asFloat(v any) float32 { return float32(asDouble(v)) }

// Promote converts v to the Go type of category c.
func Promote(v any, c Category) any {
	switch c {
	case CategoryInt:
		return asInt(v)
	case CategoryLong:
		return asLong(v)
	case CategoryFloat:
		return asFloat(v)
	case CategoryDouble:
		return asDouble(v)
	default:
		return v
	}
}

// formatReal renders a floating point value the way literals are written:
// plain notation keeps a trailing ".0" when the value is integral, and very
// large or small magnitudes use exponent notation.
func formatReal(f float64, bits int) string {
	if a := math.Abs(f); a != 0 && (a < 1e-3 || a >= 1e7) || math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}

	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
