// Package token defines the lexical tokens of the expression language.
package token

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"strconv"
	"strings"
)

// Kind identifies the lexical class of a [Token].
type Kind uint8

const (
	EOF         Kind = iota // EOF
	Ident                   // identifier
	Int                     // int literal
	Long                    // long literal
	Float                   // float literal
	Double                  // double literal
	String                  // string literal
	LParen                  // (
	RParen                  // )
	LBracket                // [
	RBracket                // ]
	LBrace                  // {
	RBrace                  // }
	Comma                   // ,
	Dot                     // .
	Colon                   // :
	Question                // ?
	Hash                    // #
	At                      // @
	Plus                    // +
	Minus                   // -
	Star                    // *
	Slash                   // /
	Percent                 // %
	Caret                   // ^
	Not                     // !
	Assign                  // =
	Eq                      // ==
	Ne                      // !=
	Lt                      // <
	Le                      // <=
	Gt                      // >
	Ge                      // >=
	And                     // &&
	Or                      // ||
	Elvis                   // ?:
	SafeNav                 // ?.
	Project                 // ![
	Select                  // ?[
	SelectFirst             // ^[
	SelectLast              // $[
	InstanceOf              // instanceof
	Matches                 // matches
	Between                 // between
)

// words maps the textual operator aliases to their kinds. Lookup is
// case-insensitive.
//
//nolint:gochecknoglobals
var words = map[string]Kind{
	"and":        And,
	"or":         Or,
	"not":        Not,
	"div":        Slash,
	"mod":        Percent,
	"lt":         Lt,
	"le":         Le,
	"gt":         Gt,
	"ge":         Ge,
	"eq":         Eq,
	"ne":         Ne,
	"instanceof": InstanceOf,
	"matches":    Matches,
	"between":    Between,
}

// Word returns the operator kind spelled by ident, if any.
func Word(ident string) (Kind, bool) {
	k, ok := words[strings.ToLower(ident)]

	return k, ok
}

// IsLiteral reports whether k is a numeric or string literal kind.
func (k Kind) IsLiteral() bool { return k >= Int && k <= String }

// IsNumeric reports whether k is a numeric literal kind.
func (k Kind) IsNumeric() bool { return k >= Int && k <= Double }

// Token is a lexeme with its decoded value and span in the source.
//
// Text is the exact source text of the token. Value holds the decoded
// literal for numeric and string tokens: int, int64, float32, float64, or
// string.
type Token struct {
	Value any
	Text  string
	Pos   int
	End   int
	Kind  Kind
}

// Is reports whether t has any of the given kinds.
func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}

	return false
}

// String renders t for diagnostics.
func (t Token) String() string {
	switch {
	case t.Kind == EOF:
		return t.Kind.String()
	case t.Kind == Ident, t.Kind.IsLiteral():
		return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"
	default:
		return t.Text
	}
}
