// Package parser builds syntax trees from expression source.
//
// The parser is a hand-written recursive descent over the token stream
// produced by [lexer.Tokenize]. Each precedence level has its own method;
// from lowest to highest binding:
//
//	assignment      =                      right-associative
//	ternary, elvis  ? :  ?:                right-associative
//	or              or ||
//	and             and &&
//	equality        == != eq ne
//	relational      < <= > >= lt le gt ge instanceof matches between
//	additive        + -
//	multiplicative  * / % div mod
//	unary           + - ! not              prefix
//	power           ^                      right-associative
//	postfix         .name ?.name .m() [i] .![] .?[] .^[] .$[]
//	primary         literals ( ) T() new {} #var #fn() @bean
package parser

import (
	"strings"

	"github.com/ardnew/xel/lang/ast"
	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/lexer"
	"github.com/ardnew/xel/lang/token"
)

// Parse returns the syntax tree of source. Node identifiers are assigned in
// pre-order. Errors are [*diag.Error] values of kind [diag.KindParse] that
// embed source.
func Parse(source string, opts ...Option) (*ast.Node, error) {
	cfg := makeConfig(opts...)

	if cfg.maxLength > 0 && len(source) > cfg.maxLength {
		return nil, diag.Parse(diag.ExpressionTooLong, source, 0, len(source), cfg.maxLength)
	}

	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, toks: toks, cfg: cfg}

	root, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != token.EOF {
		return nil, p.errorAt(diag.MoreInput, t, source[t.Pos:])
	}

	ast.Number(root)

	return root, nil
}

type parser struct {
	source string
	toks   []token.Token
	pos    int
	depth  int
	cfg    config
}

func (p *parser) peek() token.Token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}

	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}

	return t
}

func (p *parser) accept(kinds ...token.Kind) (token.Token, bool) {
	if t := p.peek(); t.Is(kinds...) {
		return p.next(), true
	}

	return token.Token{}, false
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	t := p.peek()
	if t.Kind == kind {
		return p.next(), nil
	}

	if t.Kind == token.EOF {
		return t, p.errorAt(diag.MissingCharacter, t, kind.String())
	}

	return t, p.errorAt(diag.NotExpectedToken, t, kind.String(), t.Text)
}

func (p *parser) errorAt(code diag.Code, t token.Token, args ...any) *diag.Error {
	return diag.Parse(code, p.source, t.Pos, args...).WithSpan(t.Pos, t.End)
}

func (p *parser) enter() error {
	p.depth++

	if p.cfg.maxDepth > 0 && p.depth > p.cfg.maxDepth {
		return p.errorAt(diag.ExpressionTooDeep, p.peek(), p.cfg.maxDepth)
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

func binary(k ast.Kind, l, r *ast.Node) *ast.Node {
	return ast.New(k, l.Pos, r.End, l, r)
}

// right parses the right operand of op with parse, reporting a missing
// operand at the operator.
func (p *parser) right(op token.Token, parse func() (*ast.Node, error)) (*ast.Node, error) {
	if p.peek().Kind == token.EOF {
		return nil, p.errorAt(diag.RightOperandProblem, op, op.Text)
	}

	return parse()
}

func (p *parser) parseAssignment() (*ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	lhs, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	op, ok := p.accept(token.Assign)
	if !ok {
		return lhs, nil
	}

	rhs, err := p.right(op, p.parseAssignment)
	if err != nil {
		return nil, err
	}

	return binary(ast.Assignment, lhs, rhs), nil
}

func (p *parser) parseTernary() (*ast.Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	switch op := p.peek(); op.Kind {
	case token.Elvis:
		p.next()

		rhs, err := p.right(op, p.parseAssignment)
		if err != nil {
			return nil, err
		}

		return binary(ast.Elvis, cond, rhs), nil

	case token.Question:
		p.next()

		then, err := p.right(op, p.parseAssignment)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}

		els, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		return ast.New(ast.Ternary, cond.Pos, els.End, cond, then, els), nil
	}

	return cond, nil
}

// parseBinary parses a left-associative level whose operators map to kinds
// through ops, with operands parsed by operand.
func (p *parser) parseBinary(
	operand func() (*ast.Node, error),
	ops map[token.Kind]ast.Kind,
) (*ast.Node, error) {
	lhs, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek()

		kind, ok := ops[op.Kind]
		if !ok {
			return lhs, nil
		}

		p.next()

		rhs, err := p.right(op, operand)
		if err != nil {
			return nil, err
		}

		lhs = binary(kind, lhs, rhs)
	}
}

//nolint:gochecknoglobals
var (
	orOps  = map[token.Kind]ast.Kind{token.Or: ast.Or}
	andOps = map[token.Kind]ast.Kind{token.And: ast.And}
	eqOps  = map[token.Kind]ast.Kind{token.Eq: ast.Eq, token.Ne: ast.Ne}
	relOps = map[token.Kind]ast.Kind{
		token.Lt:         ast.Lt,
		token.Le:         ast.Le,
		token.Gt:         ast.Gt,
		token.Ge:         ast.Ge,
		token.InstanceOf: ast.InstanceOf,
		token.Matches:    ast.Matches,
		token.Between:    ast.Between,
	}
	addOps = map[token.Kind]ast.Kind{token.Plus: ast.Plus, token.Minus: ast.Minus}
	mulOps = map[token.Kind]ast.Kind{
		token.Star:    ast.Multiply,
		token.Slash:   ast.Divide,
		token.Percent: ast.Modulus,
	}
)

func (p *parser) parseOr() (*ast.Node, error) { return p.parseBinary(p.parseAnd, orOps) }

func (p *parser) parseAnd() (*ast.Node, error) { return p.parseBinary(p.parseEquality, andOps) }

func (p *parser) parseEquality() (*ast.Node, error) {
	return p.parseBinary(p.parseRelational, eqOps)
}

func (p *parser) parseRelational() (*ast.Node, error) {
	return p.parseBinary(p.parseAdditive, relOps)
}

func (p *parser) parseAdditive() (*ast.Node, error) {
	return p.parseBinary(p.parseMultiplicative, addOps)
}

func (p *parser) parseMultiplicative() (*ast.Node, error) {
	return p.parseBinary(p.parseUnary, mulOps)
}

func (p *parser) parseUnary() (*ast.Node, error) {
	op, ok := p.accept(token.Plus, token.Minus, token.Not)
	if !ok {
		return p.parsePower()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.right(op, p.parseUnary)
	if err != nil {
		return nil, err
	}

	kind := ast.Not

	switch op.Kind {
	case token.Plus:
		kind = ast.Plus
	case token.Minus:
		kind = ast.Minus
	}

	return ast.New(kind, op.Pos, operand.End, operand), nil
}

func (p *parser) parsePower() (*ast.Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	op, ok := p.accept(token.Caret)
	if !ok {
		return base, nil
	}

	exp, err := p.right(op, p.parseUnary)
	if err != nil {
		return nil, err
	}

	return binary(ast.Power, base, exp), nil
}

func (p *parser) parsePostfix() (*ast.Node, error) {
	head, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	var links []*ast.Node

	for {
		var link *ast.Node

		switch t := p.peek(); t.Kind {
		case token.Dot, token.SafeNav:
			p.next()

			link, err = p.parseLink(t)
		case token.LBracket:
			link, err = p.parseIndexer(false)
		default:
			if len(links) == 0 {
				return head, nil
			}

			last := links[len(links)-1]
			children := append([]*ast.Node{head}, links...)

			return ast.New(ast.CompoundExpression, head.Pos, last.End, children...), nil
		}

		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}
}

// parseLink parses the member that follows a navigation operator nav.
func (p *parser) parseLink(nav token.Token) (*ast.Node, error) {
	nullSafe := nav.Kind == token.SafeNav

	switch t := p.peek(); t.Kind {
	case token.Ident:
		p.next()

		var n *ast.Node

		if p.peek().Kind == token.LParen {
			args, end, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			n = ast.New(ast.MethodReference, t.Pos, end, args...)
		} else {
			n = ast.New(ast.PropertyOrFieldReference, t.Pos, t.End)
		}

		n.Name = t.Text
		n.NullSafe = nullSafe

		return n, nil

	case token.Project, token.Select, token.SelectFirst, token.SelectLast:
		p.next()

		body, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		closing, err := p.expect(token.RBracket)
		if err != nil {
			return nil, err
		}

		n := ast.New(ast.Selection, t.Pos, closing.End, body)
		n.NullSafe = nullSafe

		switch t.Kind {
		case token.Project:
			n.Kind = ast.Projection
		case token.SelectFirst:
			n.Value = ast.SelectFirst
		case token.SelectLast:
			n.Value = ast.SelectLast
		default:
			n.Value = ast.SelectAll
		}

		return n, nil

	case token.LBracket:
		if nullSafe {
			return p.parseIndexer(true)
		}

	case token.Int, token.Long, token.Float, token.Double:
		return nil, p.errorAt(diag.UnexpectedDataAfterDot, t, t.Text)

	case token.EOF:
		return nil, p.errorAt(diag.OOD, t)
	}

	t := p.peek()

	return nil, p.errorAt(diag.NotExpectedToken, t, token.Ident.String(), t.Text)
}

func (p *parser) parseIndexer(nullSafe bool) (*ast.Node, error) {
	open, err := p.expect(token.LBracket)
	if err != nil {
		return nil, err
	}

	index, err := p.right(open, p.parseAssignment)
	if err != nil {
		return nil, err
	}

	closing, err := p.expect(token.RBracket)
	if err != nil {
		return nil, err
	}

	n := ast.New(ast.Indexer, open.Pos, closing.End, index)
	n.NullSafe = nullSafe

	return n, nil
}

// parseArgs parses a parenthesized argument list and returns the arguments
// with the end offset of the closing parenthesis.
func (p *parser) parseArgs() ([]*ast.Node, int, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, 0, err
	}

	if t, ok := p.accept(token.RParen); ok {
		return nil, t.End, nil
	}

	var args []*ast.Node

	for {
		if t := p.peek(); t.Kind == token.EOF {
			return nil, 0, p.errorAt(diag.RunOutOfArguments, t)
		}

		arg, err := p.parseAssignment()
		if err != nil {
			return nil, 0, err
		}

		args = append(args, arg)

		switch t := p.next(); t.Kind {
		case token.Comma:
		case token.RParen:
			return args, t.End, nil
		case token.EOF:
			return nil, 0, p.errorAt(diag.RunOutOfArguments, t)
		default:
			return nil, 0, p.errorAt(diag.NotExpectedToken, t, token.RParen.String(), t.Text)
		}
	}
}

//nolint:cyclop
func (p *parser) parsePrimary() (*ast.Node, error) {
	t := p.peek()

	switch t.Kind {
	case token.Int, token.Long, token.Float, token.Double, token.String:
		p.next()

		return literal(t), nil

	case token.Ident:
		return p.parseIdent()

	case token.Hash:
		return p.parseVariable()

	case token.At:
		p.next()

		name, ok := p.accept(token.Ident, token.String)
		if !ok {
			return nil, p.errorAt(diag.NotExpectedToken, p.peek(), token.Ident.String(), p.peek().Text)
		}

		n := ast.New(ast.BeanReference, t.Pos, name.End)
		n.Name = name.Text

		if name.Kind == token.String {
			n.Name, _ = name.Value.(string)
		}

		return n, nil

	case token.LParen:
		p.next()

		inner, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}

		return inner, nil

	case token.LBrace:
		return p.parseInline()

	case token.Dot:
		if next := p.peekAt(1); next.Kind.IsNumeric() {
			return nil, p.errorAt(diag.UnexpectedDataAfterDot, next, next.Text)
		}

	case token.EOF:
		return nil, p.errorAt(diag.OOD, t)

	case token.Star, token.Slash, token.Percent, token.Caret,
		token.Lt, token.Le, token.Gt, token.Ge, token.Eq, token.Ne,
		token.And, token.Or, token.InstanceOf, token.Matches, token.Between,
		token.Assign, token.Question, token.Elvis:
		return nil, p.errorAt(diag.LeftOperandProblem, t, t.Text)
	}

	return nil, p.errorAt(diag.UnexpectedToken, t, t.Text)
}

func literal(t token.Token) *ast.Node {
	n := ast.New(ast.Invalid, t.Pos, t.End)
	n.Name = t.Text
	n.Value = t.Value

	switch t.Kind {
	case token.Int:
		n.Kind = ast.IntLiteral
	case token.Long:
		n.Kind = ast.LongLiteral
	case token.Float:
		n.Kind = ast.FloatLiteral
	case token.Double:
		n.Kind = ast.RealLiteral
	default:
		n.Kind = ast.StringLiteral
	}

	return n
}

func (p *parser) parseIdent() (*ast.Node, error) {
	t := p.next()

	switch next := p.peek(); {
	case strings.EqualFold(t.Text, "true"), strings.EqualFold(t.Text, "false"):
		n := ast.New(ast.BooleanLiteral, t.Pos, t.End)
		n.Name = t.Text
		n.Value = strings.EqualFold(t.Text, "true")

		return n, nil

	case strings.EqualFold(t.Text, "null"):
		n := ast.New(ast.NullLiteral, t.Pos, t.End)
		n.Name = t.Text

		return n, nil

	case t.Text == "T" && next.Kind == token.LParen:
		return p.parseTypeReference(t)

	case strings.EqualFold(t.Text, "new") && next.Kind == token.Ident:
		return p.parseConstructor(t)

	case next.Kind == token.LParen:
		args, end, err := p.parseArgs()
		if err != nil {
			return nil, err
		}

		n := ast.New(ast.MethodReference, t.Pos, end, args...)
		n.Name = t.Text

		return n, nil
	}

	n := ast.New(ast.PropertyOrFieldReference, t.Pos, t.End)
	n.Name = t.Text

	return n, nil
}

// parseQualifiedName parses dot-separated identifiers.
func (p *parser) parseQualifiedName() (string, token.Token, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return "", first, err
	}

	parts := []string{first.Text}
	last := first

	for p.peek().Kind == token.Dot && p.peekAt(1).Kind == token.Ident {
		p.next()
		last = p.next()
		parts = append(parts, last.Text)
	}

	return strings.Join(parts, "."), last, nil
}

func (p *parser) parseTypeReference(t token.Token) (*ast.Node, error) {
	p.next()

	name, _, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}

	for p.peek().Kind == token.LBracket && p.peekAt(1).Kind == token.RBracket {
		p.next()
		p.next()

		name += "[]"
	}

	closing, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}

	n := ast.New(ast.TypeReference, t.Pos, closing.End)
	n.Name = name

	return n, nil
}

func (p *parser) parseConstructor(t token.Token) (*ast.Node, error) {
	name, _, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}

	switch next := p.peek(); next.Kind {
	case token.LParen:
		args, end, err := p.parseArgs()
		if err != nil {
			return nil, err
		}

		n := ast.New(ast.ConstructorReference, t.Pos, end, args...)
		n.Name = name

		return n, nil

	case token.LBracket:
		return p.parseArrayConstructor(t, name)

	default:
		return nil, p.errorAt(diag.MissingConstructorArgs, next, name)
	}
}

// parseArrayConstructor parses "[size]" or "[]{elements}" after the type
// name of a constructor.
func (p *parser) parseArrayConstructor(t token.Token, name string) (*ast.Node, error) {
	open := p.next()

	var child *ast.Node

	if closing, ok := p.accept(token.RBracket); ok {
		if p.peek().Kind != token.LBrace {
			return nil, p.errorAt(diag.MissingConstructorArgs, closing, name)
		}

		init, err := p.parseInline()
		if err != nil {
			return nil, err
		}

		if init.Kind != ast.InlineList {
			return nil, p.errorAt(diag.NotExpectedToken, open, token.LBrace.String(), "{:")
		}

		child = init
	} else {
		size, err := p.right(open, p.parseAssignment)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}

		child = size
	}

	n := ast.New(ast.ConstructorReference, t.Pos, p.toks[p.pos-1].End, child)
	n.Name = name
	n.Value = true

	return n, nil
}

// parseInline parses "{...}": an inline list, or an inline map when the
// first element is followed by a colon. "{:}" is the empty map.
func (p *parser) parseInline() (*ast.Node, error) {
	open := p.next()

	if closing, ok := p.accept(token.RBrace); ok {
		return ast.New(ast.InlineList, open.Pos, closing.End), nil
	}

	if p.peek().Kind == token.Colon && p.peekAt(1).Kind == token.RBrace {
		p.next()
		closing := p.next()

		return ast.New(ast.InlineMap, open.Pos, closing.End), nil
	}

	first, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	kind := ast.InlineList
	items := []*ast.Node{first}

	if _, ok := p.accept(token.Colon); ok {
		kind = ast.InlineMap

		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		items = []*ast.Node{mapKey(first), value}
	}

	for {
		switch t := p.next(); t.Kind {
		case token.RBrace:
			return ast.New(kind, open.Pos, t.End, items...), nil
		case token.Comma:
		case token.EOF:
			return nil, p.errorAt(diag.MissingCharacter, t, token.RBrace.String())
		default:
			return nil, p.errorAt(diag.NotExpectedToken, t, token.RBrace.String(), t.Text)
		}

		item, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		if kind == ast.InlineList {
			items = append(items, item)

			continue
		}

		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}

		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}

		items = append(items, mapKey(item), value)
	}
}

// mapKey turns a bare identifier key into a string literal.
func mapKey(n *ast.Node) *ast.Node {
	if n.Kind != ast.PropertyOrFieldReference {
		return n
	}

	k := ast.New(ast.StringLiteral, n.Pos, n.End)
	k.Name = n.Name
	k.Value = n.Name

	return k
}

func (p *parser) parseVariable() (*ast.Node, error) {
	hash := p.next()

	name, ok := p.accept(token.Ident)
	if !ok {
		t := p.peek()
		if t.Kind == token.EOF {
			return nil, p.errorAt(diag.OOD, t)
		}

		return nil, p.errorAt(diag.NotExpectedToken, t, token.Ident.String(), t.Text)
	}

	if p.peek().Kind == token.LParen {
		args, end, err := p.parseArgs()
		if err != nil {
			return nil, err
		}

		n := ast.New(ast.FunctionReference, hash.Pos, end, args...)
		n.Name = name.Text

		return n, nil
	}

	n := ast.New(ast.VariableReference, hash.Pos, name.End)
	n.Name = name.Text

	return n, nil
}
