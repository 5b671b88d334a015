package eval

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/cache"
	"github.com/ardnew/xel/lang/diag"
)

// The operator functions below define the runtime semantics of every
// operator. Both the interpreter and compiled programs call them, so the
// two execution paths cannot disagree. Errors are returned without a
// position; callers attach the span of the operator node.

// TypeName returns the name used for the type of v in diagnostics.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}

	return reflect.TypeOf(v).String()
}

func unsupported(op string, a, b any) *diag.Error {
	return diag.New(diag.OperatorNotSupportedBetweenTypes, -1, op, TypeName(a), TypeName(b))
}

// Stringify renders v the way string concatenation does.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return formatReal(x, 64)
	case float32:
		return formatReal(float64(x), 32)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprint(v)
	}
}

// Add returns a + b. When either operand is a string the result is the
// concatenation of both operands rendered with [Stringify].
func Add(a, b any) (any, error) {
	sa, aok := a.(string)
	sb, bok := b.(string)

	switch {
	case aok && bok:
		return sa + sb, nil
	case aok || bok:
		return Stringify(a) + Stringify(b), nil
	}

	switch Widest(a, b) {
	case CategoryInt:
		return asInt(a) + asInt(b), nil
	case CategoryLong:
		return asLong(a) + asLong(b), nil
	case CategoryFloat:
		return asFloat(a) + asFloat(b), nil
	case CategoryDouble:
		return asDouble(a) + asDouble(b), nil
	}

	return nil, unsupported("+", a, b)
}

// Subtract returns a - b.
func Subtract(a, b any) (any, error) {
	switch Widest(a, b) {
	case CategoryInt:
		return asInt(a) - asInt(b), nil
	case CategoryLong:
		return asLong(a) - asLong(b), nil
	case CategoryFloat:
		return asFloat(a) - asFloat(b), nil
	case CategoryDouble:
		return asDouble(a) - asDouble(b), nil
	}

	return nil, unsupported("-", a, b)
}

// Multiply returns a * b. A string multiplied by an int repeats the string.
func Multiply(a, b any) (any, error) {
	if s, ok := a.(string); ok && categoryOf(b) == CategoryInt {
		if n := asInt(b); n >= 0 {
			return strings.Repeat(s, n), nil
		}
	}

	switch Widest(a, b) {
	case CategoryInt:
		return asInt(a) * asInt(b), nil
	case CategoryLong:
		return asLong(a) * asLong(b), nil
	case CategoryFloat:
		return asFloat(a) * asFloat(b), nil
	case CategoryDouble:
		return asDouble(a) * asDouble(b), nil
	}

	return nil, unsupported("*", a, b)
}

// Divide returns a / b. Integer division truncates toward zero and fails
// with DivideByZero when b is zero; real division follows IEEE 754.
func Divide(a, b any) (any, error) {
	switch Widest(a, b) {
	case CategoryInt:
		y := asInt(b)
		if y == 0 {
			return nil, diag.New(diag.DivideByZero, -1)
		}

		return asInt(a) / y, nil
	case CategoryLong:
		y := asLong(b)
		if y == 0 {
			return nil, diag.New(diag.DivideByZero, -1)
		}

		return asLong(a) / y, nil
	case CategoryFloat:
		return asFloat(a) / asFloat(b), nil
	case CategoryDouble:
		return asDouble(a) / asDouble(b), nil
	}

	return nil, unsupported("/", a, b)
}

// Modulus returns the remainder of a / b with the sign of a.
func Modulus(a, b any) (any, error) {
	switch Widest(a, b) {
	case CategoryInt:
		y := asInt(b)
		if y == 0 {
			return nil, diag.New(diag.DivideByZero, -1)
		}

		return asInt(a) % y, nil
	case CategoryLong:
		y := asLong(b)
		if y == 0 {
			return nil, diag.New(diag.DivideByZero, -1)
		}

		return asLong(a) % y, nil
	case CategoryFloat:
		return float32(math.Mod(asDouble(a), asDouble(b))), nil
	case CategoryDouble:
		return math.Mod(asDouble(a), asDouble(b)), nil
	}

	return nil, unsupported("%", a, b)
}

// Power returns a raised to b. Integral operands with a non-negative
// exponent keep their category; everything else is computed in floating
// point.
func Power(a, b any) (any, error) {
	c := Widest(a, b)

	switch {
	case c == NotNumeric:
		return nil, unsupported("^", a, b)
	case c == CategoryInt && asInt(b) >= 0:
		return int(ipow(int64(asInt(a)), int64(asInt(b)))), nil
	case c == CategoryLong && asLong(b) >= 0:
		return ipow(asLong(a), asLong(b)), nil
	case c == CategoryFloat:
		return float32(math.Pow(asDouble(a), asDouble(b))), nil
	default:
		return math.Pow(asDouble(a), asDouble(b)), nil
	}
}

func ipow(base, exp int64) int64 {
	result := int64(1)

	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}

		base *= base
		exp >>= 1
	}

	return result
}

// Negate returns -a.
func Negate(a any) (any, error) {
	switch categoryOf(a) {
	case CategoryInt:
		return -asInt(a), nil
	case CategoryLong:
		return -asLong(a), nil
	case CategoryFloat:
		return -asFloat(a), nil
	case CategoryDouble:
		return -asDouble(a), nil
	}

	return nil, diag.New(diag.OperatorNotSupportedForType, -1, "-", TypeName(a))
}

// Plus returns +a, the operand promoted to its category.
func Plus(a any) (any, error) {
	if c := categoryOf(a); c != NotNumeric {
		return Promote(a, c), nil
	}

	return nil, diag.New(diag.OperatorNotSupportedForType, -1, "+", TypeName(a))
}

// Truth returns the boolean value of a condition.
func Truth(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}

	return false, diag.New(diag.ConditionNotBoolean, -1, TypeName(v))
}

// Not returns the negation of a boolean.
func Not(v any) (bool, error) {
	b, err := Truth(v)

	return !b, err
}

// Order compares a and b and returns a negative number, zero, or a
// positive number. Numbers compare in their widest category, strings
// lexically, booleans with false first, and times chronologically. A type
// with a Compare method accepting the other operand uses that method. Null
// orders before everything else.
func Order(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	switch Widest(a, b) {
	case CategoryInt:
		return cmp.Compare(asInt(a), asInt(b)), nil
	case CategoryLong:
		return cmp.Compare(asLong(a), asLong(b)), nil
	case CategoryFloat, CategoryDouble:
		return cmp.Compare(asDouble(a), asDouble(b)), nil
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmpBool(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}

	if n, ok := compareMethod(a, b); ok {
		return n, nil
	}

	return 0, unsupported("compare", a, b)
}

func cmpBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case y:
		return -1
	default:
		return 1
	}
}

func compareMethod(a, b any) (int, bool) {
	m := reflect.ValueOf(a).MethodByName("Compare")
	if !m.IsValid() {
		return 0, false
	}

	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Int ||
		!reflect.TypeOf(b).AssignableTo(mt.In(0)) {
		return 0, false
	}

	return int(m.Call([]reflect.Value{reflect.ValueOf(b)})[0].Int()), true
}

// Compare evaluates the relational operator op (Lt, Le, Gt, Ge, Eq, or
// Ne) on a and b.
func Compare(op ast.Kind, a, b any) (bool, error) {
	switch op {
	case ast.Eq:
		return Equal(a, b), nil
	case ast.Ne:
		return !Equal(a, b), nil
	}

	// NaN is unordered.
	if Widest(a, b) >= CategoryFloat && (math.IsNaN(asDouble(a)) || math.IsNaN(asDouble(b))) {
		return false, nil
	}

	n, err := Order(a, b)
	if err != nil {
		var e *diag.Error
		if errors.As(err, &e) && e.Code == diag.OperatorNotSupportedBetweenTypes {
			return false, unsupported(op.Operator(), a, b)
		}

		return false, err
	}

	switch op {
	case ast.Lt:
		return n < 0, nil
	case ast.Le:
		return n <= 0, nil
	case ast.Gt:
		return n > 0, nil
	case ast.Ge:
		return n >= 0, nil
	}

	return false, unsupported(op.Operator(), a, b)
}

// Equal reports whether a and b are equal. Numbers of different types are
// equal when their values are equal after promotion. Other values must
// have the same type and be deeply equal, or order equally.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch Widest(a, b) {
	case CategoryInt, CategoryLong:
		return asLong(a) == asLong(b)
	case CategoryFloat, CategoryDouble:
		return asDouble(a) == asDouble(b)
	}

	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)

		return ok && ta.Equal(tb)
	}

	if reflect.TypeOf(a) == reflect.TypeOf(b) {
		return reflect.DeepEqual(a, b)
	}

	n, ok := compareMethod(a, b)

	return ok && n == 0
}

// Between reports whether low <= v <= high.
func Between(v, low, high any) (bool, error) {
	lo, err := Order(v, low)
	if err != nil {
		return false, err
	}

	hi, err := Order(v, high)
	if err != nil {
		return false, err
	}

	return lo >= 0 && hi <= 0, nil
}

// InstanceOf reports whether v is of type t or, when t is an interface,
// implements it. Null is not an instance of any type.
func InstanceOf(v any, t reflect.Type) bool {
	if v == nil || t == nil {
		return false
	}

	vt := reflect.TypeOf(v)
	if vt == t {
		return true
	}

	return t.Kind() == reflect.Interface && vt.Implements(t)
}

//nolint:gochecknoglobals
var patterns = cache.New[*regexp.Regexp](cache.DefaultCapacity)

// Matches reports whether the string s matches the regular expression
// pattern in its entirety.
func Matches(s, pattern any) (bool, error) {
	str, ok := s.(string)
	if !ok {
		return false, unsupported("matches", s, pattern)
	}

	p, ok := pattern.(string)
	if !ok {
		return false, unsupported("matches", s, pattern)
	}

	re, err := patterns.GetOrCreate(p, func() (*regexp.Regexp, error) {
		return regexp.Compile(`^(?:` + p + `)$`)
	})
	if err != nil {
		return false, diag.New(diag.InvalidPattern, -1, p).Wrap(err)
	}

	return re.MatchString(str), nil
}

// Widest returns the wider numeric category of a and b, or NotNumeric
// when either is not a number.
func Widest(a, b any) Category {
	ca, cb := categoryOf(a), categoryOf(b)
	if ca == NotNumeric || cb == NotNumeric {
		return NotNumeric
	}

	return max(ca, cb)
}
