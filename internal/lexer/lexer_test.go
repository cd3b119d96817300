package lexer

import (
	"strings"
	"testing"

	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func assertKinds(t *testing.T, toks []token.Token, want []token.Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("kind count mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestLexerBasicOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		mwel  bool
		want  []token.Kind
	}{
		{"arithmetic", "1 + 2 * 3 - 4 / 5 % 6", false,
			[]token.Kind{token.NUMBER, token.PLUS, token.NUMBER, token.TIMES, token.NUMBER,
				token.MINUS, token.NUMBER, token.DIVIDE, token.NUMBER, token.MODULO, token.NUMBER, token.EOF}},
		{"power", "2**3", false, []token.Kind{token.NUMBER, token.POWER, token.NUMBER, token.EOF}},
		{"comparisons", "a < b <= c > d >= e != f == g", false,
			[]token.Kind{token.IDENTIFIER, token.LESSTHAN, token.IDENTIFIER, token.LESSTHANOREQUAL,
				token.IDENTIFIER, token.GREATERTHAN, token.IDENTIFIER, token.GREATERTHANOREQUAL,
				token.IDENTIFIER, token.NOTEQUAL, token.IDENTIFIER, token.EQUAL, token.IDENTIFIER, token.EOF}},
		{"not-in", "a not in b", false,
			[]token.Kind{token.IDENTIFIER, token.NOT, token.IN, token.IDENTIFIER, token.EOF}},
		{"mwel-assign", "a = 1", true, []token.Kind{token.IDENTIFIER, token.ASSIGN, token.NUMBER, token.EOF}},
		{"mwel-augassign", "a += 1", true, []token.Kind{token.IDENTIFIER, token.AUGASSIGN, token.NUMBER, token.EOF}},
		{"mwel-power-augassign", "a **= 2", true, []token.Kind{token.IDENTIFIER, token.AUGASSIGN, token.NUMBER, token.EOF}},
		{"mwel-arrows", "f(a <- b.c) -> x:", true,
			[]token.Kind{token.IDENTIFIER, token.LPAREN, token.IDENTIFIER, token.LARROW, token.IDENTIFIER,
				token.DOT, token.IDENTIFIER, token.RPAREN, token.RARROW, token.IDENTIFIER, token.COLON, token.EOF}},
		{"jel-equal-no-assign", "=", false, []token.Kind{token.EOF}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := diagnostics.NewCollector()
			l := New(tc.input, tc.mwel, sink)
			toks := l.Tokens()
			assertKinds(t, toks, tc.want)
		})
	}
}

func TestLexerKeywordReclassification(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("true false null and or not in foo", false, sink)
	toks := l.Tokens()
	want := []token.Kind{token.TRUE, token.FALSE, token.NULL, token.AND, token.OR, token.NOT, token.IN, token.IDENTIFIER, token.EOF}
	assertKinds(t, toks, want)
}

func TestLexerMWELKeywords(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("local function end else return", true, sink)
	toks := l.Tokens()
	want := []token.Kind{token.LOCAL, token.FUNCTION, token.END, token.ELSE, token.RETURN, token.EOF}
	assertKinds(t, toks, want)
}

func TestLexerNumberFragments(t *testing.T) {
	tests := []struct {
		name                       string
		input                      string
		wantInt, wantFrac, wantExp, wantTag string
	}{
		{"bare int", "123", "123", "", "", ""},
		{"leading zero splits", "0", "0", "", "", ""},
		{"frac", "1.23", "1", "23", "", ""},
		{"exp", "1e10", "1", "", "10", ""},
		{"exp with sign", "1.23E-4ms", "1", "23", "-4", "ms"},
		{"tag only", "5px", "5", "", "", "px"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := diagnostics.NewCollector()
			l := New(tc.input, false, sink)
			tok := l.NextToken()
			if tok.Kind != token.NUMBER {
				t.Fatalf("expected NUMBER, got %s", tok.Kind)
			}
			if tok.Number.Int != tc.wantInt || tok.Number.Frac != tc.wantFrac ||
				tok.Number.Exp != tc.wantExp || tok.Number.Tag != tc.wantTag {
				t.Errorf("got %+v, want int=%q frac=%q exp=%q tag=%q",
					tok.Number, tc.wantInt, tc.wantFrac, tc.wantExp, tc.wantTag)
			}
		})
	}
}

func TestLexerLeadingZeroSplitsDigits(t *testing.T) {
	// "012" lexes as NUMBER("0") followed by NUMBER("12") — spec.md §4.1.
	sink := diagnostics.NewCollector()
	l := New("012", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.NUMBER, token.NUMBER, token.EOF})
	if toks[0].Number.Int != "0" || toks[1].Number.Int != "12" {
		t.Errorf("got %q, %q; want 0, 12", toks[0].Number.Int, toks[1].Number.Int)
	}
}

func TestLexerNumberTagExcludesUnderscore(t *testing.T) {
	// tag = [A-Za-z][A-Za-z0-9]* — a leading underscore starts a separate
	// identifier token instead of extending the tag (spec.md §4.1).
	sink := diagnostics.NewCollector()
	l := New("5_oops", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.NUMBER, token.IDENTIFIER, token.EOF})
	if toks[0].Number.Tag != "" {
		t.Errorf("got tag %q, want no tag", toks[0].Number.Tag)
	}
	if toks[1].Lexeme != "_oops" {
		t.Errorf("got identifier %q, want _oops", toks[1].Lexeme)
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", `'hello'`, "hello"},
		{"double quote", `"hello"`, "hello"},
		{"escape quote", `'it\'s'`, "it's"},
		{"escape backslash", `'a\\b'`, `a\b`},
		{"escape slash", `'a\/b'`, "a/b"},
		{"escape newline", `'a\nb'`, "a\nb"},
		{"escape tab", `'a\tb'`, "a\tb"},
		{"unicode escape", `'\u0041'`, "A"},
		{"surrogate pair", `'\uD83D\uDE00'`, "\U0001F600"},
		{"triple single quoted with newline", "'''a\nb'''", "a\nb"},
		{"triple double quoted", `"""a""b"""`, `a""b`},
		{"adjacent quote chars inside triple", "'''a'b'''", "a'b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := diagnostics.NewCollector()
			l := New(tc.input, false, sink)
			tok := l.NextToken()
			if tok.Kind != token.STRING {
				t.Fatalf("expected STRING, got %s (errors: %v)", tok.Kind, sink.Diagnostics)
			}
			if tok.String != tc.want {
				t.Errorf("got %q, want %q", tok.String, tc.want)
			}
		})
	}
}

func TestLexerUnterminatedSingleLineString(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("'abc\ndef'", false, sink)
	l.Tokens()
	if !sink.HasErrors() {
		t.Fatal("expected a lexical error for a raw newline inside a single-line string")
	}
	if sink.Diagnostics[0].Kind != diagnostics.Lexical {
		t.Errorf("expected Lexical kind, got %s", sink.Diagnostics[0].Kind)
	}
}

func TestLexerUnknownEscapeKeepsBackslashLiteral(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New(`'a\qb'`, false, sink)
	tok := l.NextToken()
	if tok.String != `a\qb` {
		t.Errorf("got %q, want %q", tok.String, `a\qb`)
	}
	if !sink.HasErrors() {
		t.Error("expected an error to be reported for the unknown escape")
	}
}

func TestLexerIllegalCharacterSkipsAndContinues(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("a $ b", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.IDENTIFIER, token.IDENTIFIER, token.EOF})
	if !sink.HasErrors() {
		t.Fatal("expected an error for the illegal '$' character")
	}
}

func TestLexerNewlinesSuppressedInsideGroupings(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("f(\n1,\n2\n)\n", false, sink)
	toks := l.Tokens()
	// Newlines inside () are swallowed; only the trailing top-level
	// newline and EOF follow the closing paren.
	want := []token.Kind{token.IDENTIFIER, token.LPAREN, token.NUMBER, token.COMMA,
		token.NUMBER, token.RPAREN, token.NEWLINE, token.EOF}
	assertKinds(t, toks, want)
}

func TestLexerNewlineRunCollapsesToOneToken(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("a\n\n\nb", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.IDENTIFIER, token.NEWLINE, token.IDENTIFIER, token.EOF})
	if toks[2].Line != 4 {
		t.Errorf("expected 'b' on line 4 after 3 newlines, got line %d", toks[2].Line)
	}
}

func TestLexerBackslashLineContinuationSuppressesNewline(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("a \\\nb", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.IDENTIFIER, token.IDENTIFIER, token.EOF})
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", sink.Diagnostics)
	}
}

func TestLexerUnmatchedCloserIsErrorButEmitsToken(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New(")", false, sink)
	toks := l.Tokens()
	assertKinds(t, toks, []token.Kind{token.RPAREN, token.EOF})
	if !sink.HasErrors() {
		t.Fatal("expected an error for the unmatched ')'")
	}
}

func TestLexerLineTrackingAcrossConstructs(t *testing.T) {
	sink := diagnostics.NewCollector()
	l := New("a\nb = '''\nc\n'''\nd", true, sink)
	toks := l.Tokens()
	// a NEWLINE b ASSIGN STRING NEWLINE d EOF
	var dTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.IDENTIFIER && tok.Lexeme == "d" {
			dTok = tok
		}
	}
	if dTok.Line != 5 {
		t.Errorf("expected 'd' on line 5, got %d", dTok.Line)
	}
}

func TestLexerLexemeConcatenationReconstructsSource(t *testing.T) {
	// spec.md §8's round-trip property: concatenating lexeme fields of
	// emitted tokens, in order, reconstructs the input. Uses a source
	// with no insignificant whitespace so every character belongs to
	// some token's lexeme (a NEWLINE token's lexeme is the run of '\n'
	// characters it consumes, not a single collapsed one).
	sources := []string{
		"a+b*(c-d)\n",
		"f(1,2,'x')\nreturn a<=b\n\n\ng",
		"1.23E-4ms+foo.bar[baz]",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			sink := diagnostics.NewCollector()
			l := New(src, true, sink)
			toks := l.Tokens()
			var rebuilt strings.Builder
			for _, tok := range toks {
				if tok.Kind == token.EOF {
					continue
				}
				rebuilt.WriteString(tok.Lexeme)
			}
			if rebuilt.String() != src {
				t.Errorf("got %q, want %q", rebuilt.String(), src)
			}
		})
	}
}

func TestParseNumberText(t *testing.T) {
	tests := []struct {
		payload *token.NumberPayload
		want    string
	}{
		{&token.NumberPayload{Int: "1"}, "1"},
		{&token.NumberPayload{Int: "1", Frac: "23"}, "1.23"},
		{&token.NumberPayload{Int: "1", Exp: "-4"}, "1e-4"},
		{&token.NumberPayload{Int: "1", Frac: "23", Exp: "-4"}, "1.23e-4"},
	}
	for _, tc := range tests {
		if got := ParseNumberText(tc.payload); got != tc.want {
			t.Errorf("ParseNumberText(%+v) = %q, want %q", tc.payload, got, tc.want)
		}
	}
}
