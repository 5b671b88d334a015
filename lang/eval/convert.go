package eval

import (
	"reflect"
	"strconv"

	"github.com/ardnew/xel/lang/diag"
)

// TypeConverter converts values between types at argument binding,
// assignment, and expected-result boundaries.
type TypeConverter interface {
	CanConvert(from, to reflect.Type) bool
	Convert(value any, to reflect.Type) (any, error)
}

// StandardTypeConverter converts between numeric kinds, between strings
// and numbers or booleans, from any value to string, and between slices
// element by element. Null converts to the zero value of nillable types.
type StandardTypeConverter struct{}

var stringType = reflect.TypeFor[string]()

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func isNumericKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// CanConvert reports whether values of type from can be converted to to.
// A nil from stands for the null value.
func (c StandardTypeConverter) CanConvert(from, to reflect.Type) bool {
	switch {
	case to == nil:
		return false
	case from == nil:
		return nillable(to)
	case from.AssignableTo(to), to.Kind() == reflect.String:
		return true
	case isNumericKind(from.Kind()) && isNumericKind(to.Kind()):
		return true
	case from.Kind() == reflect.String:
		return isNumericKind(to.Kind()) || to.Kind() == reflect.Bool
	case isList(from) && to.Kind() == reflect.Slice:
		return c.CanConvert(from.Elem(), to.Elem()) || from.Elem().Kind() == reflect.Interface
	}

	return false
}

func isList(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// Convert returns value converted to type to.
func (c StandardTypeConverter) Convert(value any, to reflect.Type) (any, error) {
	if value == nil {
		if to != nil && nillable(to) {
			return reflect.Zero(to).Interface(), nil
		}

		return nil, conversionError(value, to)
	}

	rv, err := c.convert(reflect.ValueOf(value), to)
	if err != nil {
		return nil, err
	}

	return rv.Interface(), nil
}

func (c StandardTypeConverter) convert(rv reflect.Value, to reflect.Type) (reflect.Value, error) {
	from := rv.Type()

	switch {
	case from == to:
		return rv, nil
	case from.AssignableTo(to):
		out := reflect.New(to).Elem()
		out.Set(rv)

		return out, nil
	case to.Kind() == reflect.String:
		return reflect.ValueOf(Stringify(rv.Interface())).Convert(to), nil
	case isNumericKind(from.Kind()) && isNumericKind(to.Kind()):
		return rv.Convert(to), nil
	case from.Kind() == reflect.String:
		return parseString(rv.String(), to)
	case isList(from) && to.Kind() == reflect.Slice:
		out := reflect.MakeSlice(to, rv.Len(), rv.Len())

		for i := range rv.Len() {
			e := rv.Index(i)
			if e.Kind() == reflect.Interface {
				if e.IsNil() {
					if !nillable(to.Elem()) {
						return reflect.Value{}, conversionError(rv.Interface(), to)
					}

					continue
				}

				e = e.Elem()
			}

			v, err := c.convert(e, to.Elem())
			if err != nil {
				return reflect.Value{}, conversionError(rv.Interface(), to).Wrap(err)
			}

			out.Index(i).Set(v)
		}

		return out, nil
	}

	return reflect.Value{}, conversionError(rv.Interface(), to)
}

func parseString(s string, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()

	var err error

	switch to.Kind() {
	case reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(s); err == nil {
			out.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		if i, err = strconv.ParseInt(s, 0, to.Bits()); err == nil {
			out.SetInt(i)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		var u uint64
		if u, err = strconv.ParseUint(s, 0, to.Bits()); err == nil {
			out.SetUint(u)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(s, to.Bits()); err == nil {
			out.SetFloat(f)
		}
	default:
		return reflect.Value{}, conversionError(s, to)
	}

	if err != nil {
		return reflect.Value{}, conversionError(s, to).Wrap(err)
	}

	return out, nil
}

func conversionError(v any, to reflect.Type) *diag.Error {
	name := "null"
	if to != nil {
		name = to.String()
	}

	return diag.New(diag.TypeConversionError, -1, TypeName(v), name)
}

// ConvertTo converts v to T using the converter of ctx.
func ConvertTo[T any](ctx *Context, v any) (T, error) {
	var zero T

	if t, ok := v.(T); ok {
		return t, nil
	}

	out, err := ctx.Converter().Convert(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}

	if out == nil {
		return zero, nil
	}

	return out.(T), nil //nolint:forcetypeassert
}
