package lexer

import (
	"testing"
	"unicode/utf8"

	"github.com/ardnew/xel/lang/diag"
	"github.com/ardnew/xel/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}

	return out
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"arithmetic", "2+3*5", []token.Kind{token.Int, token.Plus, token.Int, token.Star, token.Int, token.EOF}},
		{"word operators", "a and b or not c", []token.Kind{token.Ident, token.And, token.Ident, token.Or, token.Not, token.Ident, token.EOF}},
		{"upper word operators", "1 LT 2", []token.Kind{token.Int, token.Lt, token.Int, token.EOF}},
		{"word after dot is identifier", "x.matches", []token.Kind{token.Ident, token.Dot, token.Ident, token.EOF}},
		{"relational", "a<=b>=c!=d==e", []token.Kind{
			token.Ident, token.Le, token.Ident, token.Ge, token.Ident, token.Ne, token.Ident, token.Eq, token.Ident, token.EOF,
		}},
		{"elvis and safe navigation", "a?:b?.c", []token.Kind{token.Ident, token.Elvis, token.Ident, token.SafeNav, token.Ident, token.EOF}},
		{"ternary", "a?b:c", []token.Kind{token.Ident, token.Question, token.Ident, token.Colon, token.Ident, token.EOF}},
		{"selection", "list.?[#this>1]", []token.Kind{
			token.Ident, token.Dot, token.Select, token.Hash, token.Ident, token.Gt, token.Int, token.RBracket, token.EOF,
		}},
		{"projection", "list.![x]", []token.Kind{token.Ident, token.Dot, token.Project, token.Ident, token.RBracket, token.EOF}},
		{"first and last", "l.^[x].$[y]", []token.Kind{
			token.Ident, token.Dot, token.SelectFirst, token.Ident, token.RBracket,
			token.Dot, token.SelectLast, token.Ident, token.RBracket, token.EOF,
		}},
		{"power is not selection", "2^3", []token.Kind{token.Int, token.Caret, token.Int, token.EOF}},
		{"dollar identifier", "$x", []token.Kind{token.Ident, token.EOF}},
		{"logical symbols", "a&&b||!c", []token.Kind{token.Ident, token.And, token.Ident, token.Or, token.Not, token.Ident, token.EOF}},
		{"references", "#v @b T(x)", []token.Kind{
			token.Hash, token.Ident, token.At, token.Ident, token.Ident, token.LParen, token.Ident, token.RParen, token.EOF,
		}},
		{"leading dot number", ".5", []token.Kind{token.Dot, token.Int, token.EOF}},
		{"method on int", "1.toString()", []token.Kind{token.Int, token.Dot, token.Ident, token.LParen, token.RParen, token.EOF}},
		{"empty", "  \t\n", []token.Kind{token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestTokenize_Literals(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		value any
	}{
		{"42", token.Int, 42},
		{"42L", token.Long, int64(42)},
		{"42l", token.Long, int64(42)},
		{"0x1L", token.Long, int64(1)},
		{"0xFF", token.Int, 255},
		{"0X1f", token.Int, 31},
		{"3.5", token.Double, 3.5},
		{"3.0d", token.Double, 3.0},
		{"3d", token.Double, 3.0},
		{"2.5f", token.Float, float32(2.5)},
		{"1F", token.Float, float32(1)},
		{"1e3", token.Double, 1000.0},
		{"1.5E-1", token.Double, 0.15},
		{"'hello '' world'", token.String, "hello ' world"},
		{`"say ""hi"""`, token.String, `say "hi"`},
		{`'C:\tmp'`, token.String, `C:\tmp`},
		{`"C:\dir"`, token.String, `C:\dir`},
		{"''", token.String, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(toks) != 2 {
				t.Fatalf("expected one token and EOF, got %v", toks)
			}

			if toks[0].Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, toks[0].Kind)
			}

			if toks[0].Value != tt.value {
				t.Errorf("expected value %#v, got %#v", tt.value, toks[0].Value)
			}

			if toks[0].Text != tt.input {
				t.Errorf("expected text %q, got %q", tt.input, toks[0].Text)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diag.Code
		pos   int
	}{
		{"unterminated single quote", "foo + 'bar", diag.NonTerminatingQuotedString, 6},
		{"unterminated double quote", `"abc`, diag.NonTerminatingDoubleQuotedString, 0},
		{"real with long suffix", "3.4L", diag.RealCannotBeLong, 0},
		{"exponent with long suffix", "1e2L", diag.RealCannotBeLong, 0},
		{"hex without digits", "0x", diag.NotAnInteger, 0},
		{"hex long without digits", "1 + 0xL", diag.NotALong, 4},
		{"int overflow", "99999999999999999999", diag.NotAnInteger, 0},
		{"long overflow", "99999999999999999999L", diag.NotALong, 0},
		{"unexpected character", "1 ~ 2", diag.UnexpectedChar, 2},
		{"single ampersand", "a & b", diag.UnexpectedChar, 2},
		{"newline escape in double quotes", `"a\nb"`, diag.UnsupportedEscape, 2},
		{"quote escape in double quotes", `"a\"b"`, diag.UnsupportedEscape, 2},
		{"backslash escape after text", `x + "ab\\"`, diag.UnsupportedEscape, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}

			code, ok := diag.CodeOf(err)
			if !ok || code != tt.code {
				t.Fatalf("expected %v, got %v (%v)", tt.code, code, err)
			}

			if !diag.IsParse(err) {
				t.Errorf("expected parse error kind")
			}

			if e := err.(*diag.Error); e.Pos != tt.pos || e.Source != tt.input {
				t.Errorf("expected pos %d in %q, got %d in %q", tt.pos, tt.input, e.Pos, e.Source)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize("ab + 'c d'")
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]int{{0, 2}, {3, 4}, {5, 10}, {10, 10}}
	for i, w := range want {
		if toks[i].Pos != w[0] || toks[i].End != w[1] {
			t.Errorf("token %d: expected [%d,%d), got [%d,%d)", i, w[0], w[1], toks[i].Pos, toks[i].End)
		}
	}
}

func TestLexer_NextAfterEOF(t *testing.T) {
	l := New("x")

	for range 3 {
		if _, err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}

	tok, err := l.Next()
	if err != nil || tok.Kind != token.EOF {
		t.Errorf("expected repeated EOF, got %v (%v)", tok, err)
	}
}

func FuzzTokenize(f *testing.F) {
	for _, seed := range []string{
		"2+2", "'a''b'", `"x"`, "0x1L", "3.4L", "a?.b?:c", "list.?[#this>1]",
		"T(java.lang.Integer).valueOf(42)", "new String", "1e", "$[", "''",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		toks, err := Tokenize(input)
		if err != nil {
			return
		}

		end := 0
		for i, tok := range toks {
			if tok.Pos < end || tok.End < tok.Pos || tok.End > len(input) {
				t.Fatalf("token %d %v has invalid span [%d,%d)", i, tok, tok.Pos, tok.End)
			}

			end = tok.End
		}

		if toks[len(toks)-1].Kind != token.EOF {
			t.Fatal("missing EOF token")
		}
	})
}

func BenchmarkTokenize(b *testing.B) {
	const src = "T(java.lang.Math).max(#a * 2 + 3.5d, root.values.?[#this > 10].size()) ?: 'none'"

	for b.Loop() {
		if _, err := Tokenize(src); err != nil {
			b.Fatal(err)
		}
	}
}
