package eval

import (
	"fmt"
	"maps"
	"slices"
)

// BeanResolver resolves @name references to objects owned by a host
// container.
type BeanResolver interface {
	Resolve(ctx *Context, name string) (any, error)
}

// MapBeanResolver resolves beans from a fixed set of named objects.
type MapBeanResolver map[string]any

// Resolve implements [BeanResolver].
func (r MapBeanResolver) Resolve(_ *Context, name string) (any, error) {
	b, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("no bean named %q among %v", name, slices.Sorted(maps.Keys(r)))
	}

	return b, nil
}

// BeanResolverFunc adapts a function to [BeanResolver].
type BeanResolverFunc func(ctx *Context, name string) (any, error)

// Resolve implements [BeanResolver].
func (f BeanResolverFunc) Resolve(ctx *Context, name string) (any, error) { return f(ctx, name) }
