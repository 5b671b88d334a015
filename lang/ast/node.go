// Package ast defines the syntax tree produced by the parser.
//
// A tree is made of [Node] values discriminated by [Kind]. Each node owns
// its children exclusively and carries the character span of the source it
// was parsed from and a pre-order identifier used to key evaluation state
// that is kept outside the tree.
//
// Child layout by kind:
//
//	literals                  Value (decoded), Name (source text)
//	TypeReference             Name (qualified type name)
//	VariableReference         Name ("this" and "root" are special)
//	BeanReference             Name
//	PropertyOrFieldReference  Name, NullSafe
//	MethodReference           Name, NullSafe, Children = arguments
//	FunctionReference         Name, Children = arguments
//	Indexer                   NullSafe, Children = [index]
//	Projection                NullSafe, Children = [expression]
//	Selection                 NullSafe, Value = Selector, Children = [predicate]
//	CompoundExpression        Children = [head, link...]
//	ConstructorReference      Name, Children = arguments; array form has
//	                          Value = true and Children = [size] or
//	                          [InlineList initializer]
//	InlineList                Children = elements
//	InlineMap                 Children = key, value, key, value...
//	Ternary                   Children = [condition, then, else]
//	Elvis, binary operators   Children = [left, right]
//	Between                   Children = [value, InlineList(low, high)]
//	InstanceOf                Children = [value, TypeReference]
//	Not, unary Plus/Minus     Children = [operand]
//	Assignment                Children = [target, value]
package ast

import "iter"

// Node is a single syntax tree node.
type Node struct {
	Value    any
	Name     string
	Children []*Node
	Pos      int
	End      int
	ID       int
	Kind     Kind
	NullSafe bool
}

// New returns a node of kind k spanning [pos, end) with children.
func New(k Kind, pos, end int, children ...*Node) *Node {
	return &Node{Kind: k, Pos: pos, End: end, Children: children}
}

// Child returns the i'th child of n, or nil if there is none.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// IsUnary reports whether n is a prefix Plus or Minus.
func (n *Node) IsUnary() bool {
	return (n.Kind == Plus || n.Kind == Minus) && len(n.Children) == 1
}

// IsArrayConstructor reports whether n constructs an array or slice.
func (n *Node) IsArrayConstructor() bool {
	if n.Kind != ConstructorReference {
		return false
	}

	b, _ := n.Value.(bool)

	return b
}

// Selector returns the variant of a Selection node.
func (n *Node) Selector() Selector {
	s, _ := n.Value.(Selector)

	return s
}

// Clone returns a deep copy of the tree rooted at n. Values are shared;
// they are decoded literals and are never modified.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}

	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = Clone(child)
		}
	}

	return &c
}

// Walk calls fn for n and its descendants in pre-order. Returning false
// from fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// All returns an iterator over n and its descendants in pre-order.
func All(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var visit func(*Node) bool

		visit = func(m *Node) bool {
			if m == nil {
				return true
			}

			if !yield(m) {
				return false
			}

			for _, c := range m.Children {
				if !visit(c) {
					return false
				}
			}

			return true
		}

		visit(n)
	}
}

// Number assigns pre-order identifiers starting at zero to every node of
// the tree rooted at n and returns the node count.
func Number(n *Node) int {
	id := 0

	Walk(n, func(m *Node) bool {
		m.ID = id
		id++

		return true
	})

	return id
}
