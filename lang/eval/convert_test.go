package eval

import (
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/ardnew/xel/lang/diag"
)

func TestStandardTypeConverter_Convert(t *testing.T) {
	type name string

	tests := []struct {
		name  string
		value any
		to    reflect.Type
		want  any
	}{
		{"string to int", "42", reflect.TypeFor[int](), 42},
		{"hex string to int64", "0x10", reflect.TypeFor[int64](), int64(16)},
		{"string to float", "2.5", reflect.TypeFor[float64](), 2.5},
		{"string to bool", "true", reflect.TypeFor[bool](), true},
		{"double to int truncates", 3.9, reflect.TypeFor[int](), 3},
		{"int to double", 3, reflect.TypeFor[float64](), 3.0},
		{"int to string", 5, reflect.TypeFor[string](), "5"},
		{"double to string", 5.0, reflect.TypeFor[string](), "5.0"},
		{"string to named string", "x", reflect.TypeFor[name](), name("x")},
		{"assignable to interface", 1, reflect.TypeFor[any](), 1},
		{"null to pointer", nil, reflect.TypeFor[*int](), (*int)(nil)},
		{"null to interface", nil, reflect.TypeFor[any](), nil},
	}

	c := StandardTypeConverter{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.value, tt.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestStandardTypeConverter_ConvertSlices(t *testing.T) {
	c := StandardTypeConverter{}

	got, err := c.Convert([]any{1, "2", 3.0}, reflect.TypeFor[[]int]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(got.([]int), []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}

	strs, err := c.Convert([3]int{1, 2, 3}, reflect.TypeFor[[]string]())
	if err != nil || !slices.Equal(strs.([]string), []string{"1", "2", "3"}) {
		t.Errorf("expected string slice, got %v (%v)", strs, err)
	}
}

func TestStandardTypeConverter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		to    reflect.Type
	}{
		{"null to int", nil, reflect.TypeFor[int]()},
		{"bad number", "4x", reflect.TypeFor[int]()},
		{"overflow", "300", reflect.TypeFor[int8]()},
		{"struct to int", struct{}{}, reflect.TypeFor[int]()},
		{"bad element", []any{"a"}, reflect.TypeFor[[]int]()},
		{"null element", []any{nil}, reflect.TypeFor[[]int]()},
	}

	c := StandardTypeConverter{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Convert(tt.value, tt.to)
			if !errors.Is(err, diag.New(diag.TypeConversionError, 0)) {
				t.Errorf("expected conversion error, got %v", err)
			}
		})
	}
}

func TestStandardTypeConverter_CanConvert(t *testing.T) {
	c := StandardTypeConverter{}

	tests := []struct {
		from, to reflect.Type
		want     bool
	}{
		{nil, reflect.TypeFor[*int](), true},
		{nil, reflect.TypeFor[int](), false},
		{reflect.TypeFor[int](), reflect.TypeFor[float32](), true},
		{reflect.TypeFor[string](), reflect.TypeFor[uint](), true},
		{reflect.TypeFor[bool](), reflect.TypeFor[string](), true},
		{reflect.TypeFor[[]any](), reflect.TypeFor[[]int](), true},
		{reflect.TypeFor[time.Time](), reflect.TypeFor[int](), false},
		{reflect.TypeFor[int](), nil, false},
	}

	for _, tt := range tests {
		if got := c.CanConvert(tt.from, tt.to); got != tt.want {
			t.Errorf("CanConvert(%v, %v): expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestStandardTypeLocator(t *testing.T) {
	l := NewStandardTypeLocator()
	l.Register(&TypeRef{Name: "java.lang.Integer", Type: reflect.TypeFor[int]()}, "Int")
	l.Import("example")
	l.Register(&TypeRef{Name: "example.Thing", Type: reflect.TypeFor[struct{ A int }]()})

	tests := []struct {
		name string
		want reflect.Type
	}{
		{"int", reflect.TypeFor[int]()},
		{"Integer", reflect.TypeFor[int]()},
		{"java.lang.Integer", reflect.TypeFor[int]()},
		{"Int", reflect.TypeFor[int]()},
		{"Thing", reflect.TypeFor[struct{ A int }]()},
		{"string[]", reflect.TypeFor[[]string]()},
		{"int[][]", reflect.TypeFor[[][]int]()},
		{"time.Duration", reflect.TypeFor[time.Duration]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := l.FindType(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if ref.Type != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ref.Type)
			}
		})
	}

	if _, err := l.FindType("Nope"); !errors.Is(err, diag.New(diag.TypeNotFound, 0)) {
		t.Errorf("expected type not found, got %v", err)
	}
}
