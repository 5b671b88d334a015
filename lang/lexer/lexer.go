// Package lexer converts expression source text into tokens.
//
// The scanner follows the state-function-free variant of Rob Pike's
// "Lexical Scanning in Go": a cursor over the input with nextRune/backup
// primitives and one scan method per lexical class.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/token"
)

const eof = -1

// Lexer produces tokens from an expression one at a time.
type Lexer struct {
	input   string
	start   int
	current int
	width   int
	prev    token.Kind
}

// New returns a lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input, prev: token.EOF}
}

// Tokenize returns every token of source, terminated by a [token.EOF] token.
// The first lexical error stops scanning and is returned as a
// [*diag.Error] of kind [diag.KindParse].
func Tokenize(source string) ([]token.Token, error) {
	l := New(source)
	toks := make([]token.Token, 0, len(source)/2+1)

	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, t)

		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Next scans the next token. At the end of input it returns a
// [token.EOF] token for every subsequent call.
func (l *Lexer) Next() (token.Token, error) {
	t, err := l.scan()
	if err == nil {
		l.prev = t.Kind
	}

	return t, err
}

func (l *Lexer) scan() (token.Token, error) {
	l.skipWhitespace()

	r := l.nextRune()

	switch r {
	case eof:
		return token.Token{Kind: token.EOF, Pos: len(l.input), End: len(l.input)}, nil
	case '(':
		return l.newToken(token.LParen), nil
	case ')':
		return l.newToken(token.RParen), nil
	case '[':
		return l.newToken(token.LBracket), nil
	case ']':
		return l.newToken(token.RBracket), nil
	case '{':
		return l.newToken(token.LBrace), nil
	case '}':
		return l.newToken(token.RBrace), nil
	case ',':
		return l.newToken(token.Comma), nil
	case ':':
		return l.newToken(token.Colon), nil
	case '#':
		return l.newToken(token.Hash), nil
	case '@':
		return l.newToken(token.At), nil
	case '+':
		return l.newToken(token.Plus), nil
	case '-':
		return l.newToken(token.Minus), nil
	case '*':
		return l.newToken(token.Star), nil
	case '/':
		return l.newToken(token.Slash), nil
	case '%':
		return l.newToken(token.Percent), nil
	case '.':
		return l.newToken(token.Dot), nil
	case '^':
		if l.afterNavigation() && l.acceptRune('[') {
			return l.newToken(token.SelectFirst), nil
		}

		return l.newToken(token.Caret), nil
	case '$':
		if l.afterNavigation() && l.acceptRune('[') {
			return l.newToken(token.SelectLast), nil
		}

		l.backup()

		return l.scanIdent(), nil
	case '!':
		if l.acceptRune('=') {
			return l.newToken(token.Ne), nil
		}

		if l.afterNavigation() && l.acceptRune('[') {
			return l.newToken(token.Project), nil
		}

		return l.newToken(token.Not), nil
	case '?':
		switch {
		case l.acceptRune('.'):
			return l.newToken(token.SafeNav), nil
		case l.acceptRune(':'):
			return l.newToken(token.Elvis), nil
		case l.afterNavigation() && l.acceptRune('['):
			return l.newToken(token.Select), nil
		}

		return l.newToken(token.Question), nil
	case '=':
		if l.acceptRune('=') {
			return l.newToken(token.Eq), nil
		}

		return l.newToken(token.Assign), nil
	case '<':
		if l.acceptRune('=') {
			return l.newToken(token.Le), nil
		}

		return l.newToken(token.Lt), nil
	case '>':
		if l.acceptRune('=') {
			return l.newToken(token.Ge), nil
		}

		return l.newToken(token.Gt), nil
	case '&':
		if l.acceptRune('&') {
			return l.newToken(token.And), nil
		}
	case '|':
		if l.acceptRune('|') {
			return l.newToken(token.Or), nil
		}
	case '\'', '"':
		return l.scanString(r)
	}

	switch {
	case isDigit(r):
		l.backup()

		return l.scanNumber()
	case isIdentStart(r):
		l.backup()

		return l.scanIdent(), nil
	}

	return token.Token{}, l.errorf(diag.UnexpectedChar, l.start, string(r))
}

// afterNavigation reports whether the previous token was a navigation
// operator, which turns "?[", "![", "^[" and "$[" into collection operators
// and word operators back into plain identifiers.
func (l *Lexer) afterNavigation() bool {
	return l.prev == token.Dot || l.prev == token.SafeNav
}

func (l *Lexer) scanIdent() token.Token {
	for {
		r := l.nextRune()
		if r == '$' && l.current-l.width > l.start && l.peek() == '[' {
			l.backup()

			break
		}

		if !isIdentPart(r) {
			if r != eof {
				l.backup()
			}

			break
		}
	}

	t := l.newToken(token.Ident)

	if !l.afterNavigation() {
		if k, ok := token.Word(t.Text); ok {
			t.Kind = k
		}
	}

	return t
}

// scanString reads a quoted string. A doubled quote character inside the
// literal stands for one quote; there are no other escapes. A backslash
// followed by an escape character inside a double-quoted string is rejected
// rather than passed through.
func (l *Lexer) scanString(quote rune) (token.Token, error) {
	var sb strings.Builder

	for {
		switch r := l.nextRune(); r {
		case eof:
			code := diag.NonTerminatingQuotedString
			if quote == '"' {
				code = diag.NonTerminatingDoubleQuotedString
			}

			return token.Token{}, l.errorf(code, l.start)
		case quote:
			if !l.acceptRune(quote) {
				t := l.newToken(token.String)
				t.Value = sb.String()

				return t, nil
			}

			sb.WriteRune(quote)
		case '\\':
			if quote == '"' && strings.ContainsRune(escapeChars, l.peek()) {
				return token.Token{}, l.errorf(diag.UnsupportedEscape, l.current-1, l.peek())
			}

			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
}

func (l *Lexer) scanNumber() (token.Token, error) {
	if l.acceptRune('0') && l.acceptAny("xX") {
		return l.scanHex()
	}

	l.acceptAll(isDigit)

	isReal := false

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.nextRune()
		l.acceptAll(isDigit)

		isReal = true
	}

	if l.scanExponent() {
		isReal = true
	}

	digits := l.input[l.start:l.current]

	switch l.peek() {
	case 'l', 'L':
		if isReal {
			return token.Token{}, l.errorf(diag.RealCannotBeLong, l.start)
		}

		l.nextRune()

		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return token.Token{}, l.errorf(diag.NotALong, l.start, digits)
		}

		return l.literal(token.Long, v), nil

	case 'f', 'F':
		l.nextRune()

		v, err := strconv.ParseFloat(digits, 32)
		if err != nil {
			return token.Token{}, l.errorf(diag.NotAReal, l.start, digits)
		}

		return l.literal(token.Float, float32(v)), nil

	case 'd', 'D':
		l.nextRune()

		isReal = true
	}

	if isReal {
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return token.Token{}, l.errorf(diag.NotAReal, l.start, digits)
		}

		return l.literal(token.Double, v), nil
	}

	v, err := strconv.ParseInt(digits, 10, strconv.IntSize)
	if err != nil {
		return token.Token{}, l.errorf(diag.NotAnInteger, l.start, digits)
	}

	return l.literal(token.Int, int(v)), nil
}

// scanExponent consumes an exponent part only when it is well formed, so
// that "1e" leaves the "e" for the identifier scanner.
func (l *Lexer) scanExponent() bool {
	if r := l.peek(); r != 'e' && r != 'E' {
		return false
	}

	n := 1
	if s := l.peekAt(1); s == '+' || s == '-' {
		n++
	}

	if !isDigit(l.peekAt(n)) {
		return false
	}

	for range n {
		l.nextRune()
	}

	l.acceptAll(isDigit)

	return true
}

// scanHex reads the digits following a "0x" prefix. Hex literals are
// integral: they carry an optional long suffix but never a fraction.
func (l *Lexer) scanHex() (token.Token, error) {
	begin := l.current
	l.acceptAll(isHexDigit)
	digits := l.input[begin:l.current]

	long := l.acceptAny("lL")

	if digits == "" {
		if long {
			return token.Token{}, l.errorf(diag.NotALong, l.start, l.input[l.start:l.current])
		}

		return token.Token{}, l.errorf(diag.NotAnInteger, l.start, l.input[l.start:l.current])
	}

	if long {
		v, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return token.Token{}, l.errorf(diag.NotALong, l.start, l.input[l.start:l.current])
		}

		return l.literal(token.Long, int64(v)), nil
	}

	v, err := strconv.ParseUint(digits, 16, strconv.IntSize)
	if err != nil {
		return token.Token{}, l.errorf(diag.NotAnInteger, l.start, l.input[l.start:l.current])
	}

	return l.literal(token.Int, int(v)), nil
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.nextRune() {
		case ' ', '\t', '\r', '\n':
		case eof:
			l.ignore()

			return
		default:
			l.backup()
			l.ignore()

			return
		}
	}
}

func (l *Lexer) nextRune() rune {
	if l.current >= len(l.input) {
		l.width = 0

		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w

	return r
}

func (l *Lexer) backup() { l.current -= l.width }

func (l *Lexer) ignore() { l.start = l.current }

func (l *Lexer) peek() rune { return l.peekAt(0) }

// peekAt returns the rune n runes ahead of the cursor without consuming
// anything.
func (l *Lexer) peekAt(n int) rune {
	pos := l.current

	for i := 0; ; i++ {
		if pos >= len(l.input) {
			return eof
		}

		r, w := utf8.DecodeRuneInString(l.input[pos:])
		if i == n {
			return r
		}

		pos += w
	}
}

func (l *Lexer) acceptRune(r rune) bool {
	if l.nextRune() == r {
		return true
	}

	if l.width > 0 {
		l.backup()
	}

	return false
}

func (l *Lexer) acceptAny(valid string) bool {
	r := l.nextRune()
	if r != eof && strings.ContainsRune(valid, r) {
		return true
	}

	if l.width > 0 {
		l.backup()
	}

	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	n := 0

	for {
		r := l.nextRune()
		if r == eof || !isValid(r) {
			if l.width > 0 {
				l.backup()
			}

			return n > 0
		}

		n++
	}
}

func (l *Lexer) newToken(kind token.Kind) token.Token {
	t := token.Token{
		Kind: kind,
		Text: l.input[l.start:l.current],
		Pos:  l.start,
		End:  l.current,
	}
	l.ignore()

	return t
}

func (l *Lexer) literal(kind token.Kind, value any) token.Token {
	t := l.newToken(kind)
	t.Value = value

	return t
}

func (l *Lexer) errorf(code diag.Code, pos int, args ...any) *diag.Error {
	return diag.Parse(code, l.input, pos, args...).WithSpan(pos, l.current)
}

// escapeChars are the runes that would form an escape sequence after a
// backslash in other languages.
const escapeChars = `btnfr"'\`

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
