package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/xel/lang/eval"
)

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee, such as "#env" or "#cfg.name.startsWith"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor to find the opening paren of a function call.
	// Track nested parens so we find the correct one.
	parenDepth := 0
	openParenPos := -1

	for i := cursor - 1; i >= 0; i-- {
		ch, size := utf8.DecodeLastRuneInString(input[:i+1])

		switch ch {
		case ')':
			parenDepth++
		case '(':
			if parenDepth == 0 {
				openParenPos = i

				goto foundOpenParen
			}

			parenDepth--
		}

		// Move to start of this rune
		if i > 0 {
			i -= (size - 1)
		}
	}

foundOpenParen:
	if openParenPos == -1 {
		return functionCall{inCall: false}
	}

	// Extract the callee before the '('
	nameEnd := openParenPos
	nameStart := openParenPos

	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])

		// A callee is a #function or a method at the end of a reference
		// chain, so the name may carry dots, '?', and a leading '#'.
		if r == '.' || r == '?' || r == '#' || !isWordBoundary(r) {
			nameStart -= size
		} else {
			break
		}

		if r == '#' {
			break
		}
	}

	funcName := strings.TrimSpace(input[nameStart:nameEnd])
	if funcName == "" {
		return functionCall{inCall: false}
	}

	// Count arguments by counting commas at depth 0 in the parameter list
	argIndex := 0
	depth := 0

	for i := openParenPos + 1; i < cursor; i++ {
		ch, size := utf8.DecodeRuneInString(input[i:])

		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}

		i += size - 1
	}

	return functionCall{
		name:     funcName,
		argIndex: argIndex,
		inCall:   true,
	}
}

// getSignature retrieves the signature of the callee name: a #function
// registered in the session context, or a Go method of the value its
// receiver chain evaluates to. Returns empty string if the callee is not
// found.
func getSignature(s *session, name string) (signature string, params []string) {
	if fn, ok := strings.CutPrefix(name, "#"); ok && !strings.ContainsAny(fn, ".?") {
		f, ok := s.ectx.Function(fn)
		if !ok {
			return "", nil
		}

		sig, params, _ := funcSignature(name, reflect.TypeOf(f), 0)

		return sig, params
	}

	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return "", nil
	}

	recv, ok := s.resolve(strings.TrimSuffix(name[:dot], "?"))
	if !ok {
		return "", nil
	}

	method := name[dot+1:]

	m, ok := reflect.TypeOf(recv).MethodByName(eval.Capitalize(method))
	if !ok {
		return "", nil
	}

	sig, params, _ := funcSignature(method, m.Type, 1)

	return sig, params
}

// funcSignature formats the signature of the function type t under name,
// skipping its first skip parameters. Returns false if t is not a function.
func funcSignature(name string, t reflect.Type, skip int) (string, []string, bool) {
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	var params []string

	numParams := t.NumIn()
	isVariadic := t.IsVariadic()

	for i := skip; i < numParams; i++ {
		paramType := t.In(i)

		if isVariadic && i == numParams-1 {
			params = append(params, "..."+formatTypeName(paramType.Elem()))
		} else {
			params = append(params, formatTypeName(paramType))
		}
	}

	return name + "(" + strings.Join(params, ", ") + ")", params, true
}

// formatTypeName names a Go parameter type the way expressions see it.
// Examples: "String", "int", "long", "double", "List".
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "function"
	case reflect.String:
		return "String"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return "int"
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "long"
	case reflect.Float32:
		return "float"
	case reflect.Float64:
		return "double"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "List"
	case reflect.Map:
		return "Map"
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "Object"
		}

		return t.Name()
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return t.String()
	}
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	// Parse signature: "funcName(param1, param2, ...)"
	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	closeParen := strings.LastIndex(signature, ")")
	if closeParen == -1 {
		return signatureStyle.Render(signature)
	}

	// If no parameters, just render the signature
	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	// Build the signature with highlighted current parameter
	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// Check if this is a variadic parameter
		isVariadic := strings.HasPrefix(param, "...")

		// Highlight the current parameter
		// For variadic parameters, highlight if we're at or beyond that index
		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
