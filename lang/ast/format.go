package ast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/xel/lang/token"
)

// String renders n back to expression source. Binary operators are fully
// parenthesized, so the output parses to an equivalent tree.
func (n *Node) String() string {
	var sb strings.Builder

	write(&sb, n)

	return sb.String()
}

//nolint:cyclop,funlen
func write(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case IntLiteral, LongLiteral, FloatLiteral, RealLiteral:
		sb.WriteString(n.Name)

	case StringLiteral:
		s, _ := n.Value.(string)
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(s, "'", "''"))
		sb.WriteByte('\'')

	case BooleanLiteral:
		fmt.Fprint(sb, n.Value)

	case NullLiteral:
		sb.WriteString("null")

	case TypeReference:
		sb.WriteString("T(")
		sb.WriteString(n.Name)
		sb.WriteByte(')')

	case VariableReference:
		sb.WriteByte('#')
		sb.WriteString(n.Name)

	case BeanReference:
		sb.WriteByte('@')

		if isIdent(n.Name) {
			sb.WriteString(n.Name)
		} else {
			sb.WriteByte('\'')
			sb.WriteString(strings.ReplaceAll(n.Name, "'", "''"))
			sb.WriteByte('\'')
		}

	case FunctionReference:
		sb.WriteByte('#')
		sb.WriteString(n.Name)
		writeArgs(sb, "(", ")", n.Children)

	case PropertyOrFieldReference:
		sb.WriteString(n.Name)

	case MethodReference:
		sb.WriteString(n.Name)
		writeArgs(sb, "(", ")", n.Children)

	case Indexer:
		writeArgs(sb, "[", "]", n.Children)

	case Projection:
		writeArgs(sb, "![", "]", n.Children)

	case Selection:
		writeArgs(sb, n.Selector().Open(), "]", n.Children)

	case CompoundExpression:
		for i, c := range n.Children {
			if i > 0 {
				switch {
				case c.NullSafe:
					sb.WriteString("?.")
				case c.Kind != Indexer:
					sb.WriteByte('.')
				}
			}

			write(sb, c)
		}

	case ConstructorReference:
		sb.WriteString("new ")
		sb.WriteString(n.Name)

		switch {
		case !n.IsArrayConstructor():
			writeArgs(sb, "(", ")", n.Children)
		case len(n.Children) == 1 && n.Children[0].Kind == InlineList:
			sb.WriteString("[]")
			write(sb, n.Children[0])
		default:
			writeArgs(sb, "[", "]", n.Children)
		}

	case InlineList:
		writeArgs(sb, "{", "}", n.Children)

	case InlineMap:
		sb.WriteByte('{')

		if len(n.Children) == 0 {
			sb.WriteByte(':')
		}

		for i := 0; i+1 < len(n.Children); i += 2 {
			if i > 0 {
				sb.WriteByte(',')
			}

			write(sb, n.Children[i])
			sb.WriteByte(':')
			write(sb, n.Children[i+1])
		}

		sb.WriteByte('}')

	case Ternary:
		sb.WriteByte('(')
		write(sb, n.Child(0))
		sb.WriteString(" ? ")
		write(sb, n.Child(1))
		sb.WriteString(" : ")
		write(sb, n.Child(2))
		sb.WriteByte(')')

	case Not:
		sb.WriteString("(!")
		write(sb, n.Child(0))
		sb.WriteByte(')')

	case Assignment:
		sb.WriteByte('(')
		write(sb, n.Child(0))
		sb.WriteString(" = ")
		write(sb, n.Child(1))
		sb.WriteByte(')')

	default:
		if n.IsUnary() {
			sb.WriteByte('(')
			sb.WriteString(n.Kind.Operator())
			write(sb, n.Child(0))
			sb.WriteByte(')')

			return
		}

		sb.WriteByte('(')
		write(sb, n.Child(0))
		sb.WriteByte(' ')
		sb.WriteString(n.Kind.Operator())
		sb.WriteByte(' ')
		write(sb, n.Child(1))
		sb.WriteByte(')')
	}
}

func isIdent(s string) bool {
	if _, ok := token.Word(s); ok || s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r == '$', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}

func writeArgs(sb *strings.Builder, opening, closing string, args []*Node) {
	sb.WriteString(opening)

	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}

		write(sb, a)
	}

	sb.WriteString(closing)
}

// View is a serializable projection of a [Node].
type View struct {
	Value    any    `json:"value,omitempty"    yaml:"value,omitempty"`
	Kind     string `json:"kind"               yaml:"kind"`
	Name     string `json:"name,omitempty"     yaml:"name,omitempty"`
	Children []View `json:"children,omitempty" yaml:"children,omitempty"`
	Span     [2]int `json:"span"               yaml:"span,flow"`
	ID       int    `json:"id"                 yaml:"id"`
	NullSafe bool   `json:"nullSafe,omitempty" yaml:"nullSafe,omitempty"`
}

// View returns the serializable projection of the tree rooted at n.
func (n *Node) View() View {
	v := View{
		Kind:     n.Kind.String(),
		Name:     n.Name,
		Span:     [2]int{n.Pos, n.End},
		ID:       n.ID,
		NullSafe: n.NullSafe,
	}

	switch val := n.Value.(type) {
	case nil:
	case Selector:
		v.Value = val.Open()
	default:
		v.Value = val
	}

	for _, c := range n.Children {
		v.Children = append(v.Children, c.View())
	}

	return v
}

// Format writes an indented outline of the tree rooted at n, one node per
// line.
func Format(_ context.Context, w io.Writer, n *Node, indent int) error {
	var walk func(m *Node, depth int) error

	walk = func(m *Node, depth int) error {
		line := strings.Repeat(" ", depth*indent) + m.Kind.String()

		if m.Name != "" && !m.Kind.IsLiteral() {
			line += " " + m.Name
		}

		switch {
		case m.Kind == StringLiteral:
			line += " " + m.String()
		case m.Kind.IsLiteral():
			line += " " + fmt.Sprint(m.Value)
		case m.Kind == Selection:
			line += " " + m.Selector().Open() + "]"
		}

		if m.NullSafe {
			line += " (null-safe)"
		}

		if _, err := fmt.Fprintf(w, "%s [%d,%d)\n", line, m.Pos, m.End); err != nil {
			return err
		}

		for _, c := range m.Children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}

		return nil
	}

	return walk(n, 0)
}

// FormatJSON writes the tree rooted at n as JSON.
func FormatJSON(_ context.Context, w io.Writer, n *Node, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(n.View(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(n.View())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the tree rooted at n as YAML.
func FormatYAML(ctx context.Context, w io.Writer, n *Node, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, n.View(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
