package ast

//go:generate go tool stringer --type Kind,Selector --output kind_string.go

// Kind identifies the variant of a [Node]. The set is closed.
type Kind uint8

const (
	Invalid Kind = iota
	IntLiteral
	LongLiteral
	FloatLiteral
	RealLiteral
	StringLiteral
	BooleanLiteral
	NullLiteral
	TypeReference
	InstanceOf
	Matches
	Between
	Or
	And
	Not
	Ternary
	Elvis
	VariableReference
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	Plus
	Minus
	Multiply
	Divide
	Modulus
	Power
	MethodReference
	PropertyOrFieldReference
	Indexer
	CompoundExpression
	ConstructorReference
	FunctionReference
	InlineList
	InlineMap
	Projection
	Selection
	Assignment
	BeanReference
)

// IsLiteral reports whether k is a literal kind.
func (k Kind) IsLiteral() bool { return k >= IntLiteral && k <= NullLiteral }

// IsNumericLiteral reports whether k is a numeric literal kind.
func (k Kind) IsNumericLiteral() bool { return k >= IntLiteral && k <= RealLiteral }

// IsRelational reports whether k compares its operands.
func (k Kind) IsRelational() bool { return k >= Lt && k <= Ne }

// IsArithmetic reports whether k is a binary arithmetic operator.
func (k Kind) IsArithmetic() bool { return k >= Plus && k <= Power }

// IsLink reports whether k can appear as a navigation link after the head
// of a [CompoundExpression].
func (k Kind) IsLink() bool {
	switch k {
	case PropertyOrFieldReference, MethodReference, Indexer, Projection, Selection:
		return true
	default:
		return false
	}
}

// Operator returns the source spelling of an operator kind, or the empty
// string for non-operators.
func (k Kind) Operator() string {
	switch k {
	case Or:
		return "or"
	case And:
		return "and"
	case Not:
		return "!"
	case InstanceOf:
		return "instanceof"
	case Matches:
		return "matches"
	case Between:
		return "between"
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulus:
		return "%"
	case Power:
		return "^"
	case Elvis:
		return "?:"
	case Assignment:
		return "="
	default:
		return ""
	}
}

// Selector is the variant of a [Selection] node, stored in [Node.Value].
type Selector uint8

const (
	SelectAll Selector = iota
	SelectFirst
	SelectLast
)

// Open returns the bracket that opens a selection of variant s.
func (s Selector) Open() string {
	switch s {
	case SelectFirst:
		return "^["
	case SelectLast:
		return "$["
	default:
		return "?["
	}
}
