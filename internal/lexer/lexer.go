// Package lexer implements the JEL/MWEL state-stack lexer described in
// spec.md §4.1: a stateful scanner with context-sensitive tokenization
// of strings, numbers, and newlines inside grouping constructs.
//
// Grounded on the teacher's internal/lexer (the readChar/peekChar byte
// scanner idiom) and on the original _examples/original_source/jel/lexer.py
// (the t_STRING/t_NUMBER/t_NEWLINE rules this state machine reproduces by
// hand instead of via a generated lex table).
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/token"
)

// Lexer scans JEL (mwel=false) or MWEL (mwel=true) source text.
type Lexer struct {
	input  string
	pos    int // index of ch
	readPos int
	ch     byte

	line   int
	column int

	groupings []byte // stack of '(' '[' '{' — see spec.md §4.1 "Grouping and newlines"

	mwel     bool
	keywords map[string]token.Kind
	sink     diagnostics.Sink
}

// New creates a lexer for the given dialect. sink receives lexical
// errors; it is never required to stop the lexer (spec.md §7: "the
// lexer never raises").
func New(input string, mwel bool, sink diagnostics.Sink) *Lexer {
	l := &Lexer{
		input:    input,
		line:     1,
		column:   0,
		mwel:     mwel,
		keywords: token.Keywords(mwel),
		sink:     sink,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// advance consumes the current character, updating line/column
// bookkeeping. It must be used (instead of readChar directly) whenever
// the character being consumed might be a newline, so that line
// tracking stays correct "including those inside strings and
// groupings" (spec.md §4.1).
func (l *Lexer) advance() byte {
	ch := l.ch
	l.readChar()
	if ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) peekAt(offset int) byte {
	idx := l.pos + offset
	if idx >= len(l.input) {
		return 0
	}
	return l.input[idx]
}

func (l *Lexer) peekChar() byte { return l.peekAt(1) }

func (l *Lexer) here() (int, int) { return l.line, l.column }

func (l *Lexer) errorf(kind diagnostics.Kind, line, col int, lexeme, format string, args ...interface{}) {
	if l.sink == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.sink.Report(diagnostics.Diagnostic{
		Phase:   diagnostics.PhaseLexer,
		Kind:    kind,
		Message: msg,
		Token:   lexeme,
		Line:    line,
		Column:  col,
	})
}

// NextToken returns the next token, skipping (and reporting) illegal
// characters, suppressed newlines, and escaped line continuations as
// needed until a real token — or EOF — is produced.
func (l *Lexer) NextToken() token.Token {
	for {
		if tok, ok := l.scanOne(); ok {
			return tok
		}
	}
}

// Tokens lexes the entire input and returns every emitted token,
// including the trailing EOF.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) make(kind token.Kind, line, col int, lexeme string) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col}
}

// scanOne scans at most one lexical unit. ok is false when nothing was
// emitted (an escaped newline or a suppressed grouping newline was
// consumed, or an illegal character was reported and skipped) and the
// caller should scan again.
func (l *Lexer) scanOne() (token.Token, bool) {
	// Ignored characters in `initial` (and inside groupings): space, tab, CR.
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.advance()
	}

	line, col := l.here()

	switch {
	case l.ch == 0:
		return l.make(token.EOF, line, col, ""), true

	case l.ch == '\n':
		return l.scanNewlineRun(line, col)

	case l.ch == '\\':
		return l.scanBackslash(line, col)

	case l.ch == '\'' || l.ch == '"':
		return l.scanString(line, col)

	case isDigit(l.ch):
		return l.scanNumber(line, col)

	case isIdentStart(l.ch):
		return l.scanIdentifier(line, col)
	}

	return l.scanOperatorOrGrouping(line, col)
}

// scanNewlineRun consumes a run of one or more '\n'. Inside any
// grouping, newlines are swallowed entirely (spec.md §4.1); at top
// level a run collapses to a single NEWLINE token.
func (l *Lexer) scanNewlineRun(line, col int) (token.Token, bool) {
	count := 0
	for l.ch == '\n' {
		l.advance()
		count++
	}
	if len(l.groupings) > 0 {
		return token.Token{}, false
	}
	return l.make(token.NEWLINE, line, col, strings.Repeat("\n", count)), true
}

// scanBackslash handles the line-continuation form: a backslash
// followed by optional spaces/tabs and then a single newline suppresses
// that newline entirely. Any other use of a bare backslash is illegal.
func (l *Lexer) scanBackslash(line, col int) (token.Token, bool) {
	offset := 1
	for {
		c := l.peekAt(offset)
		if c == ' ' || c == '\t' {
			offset++
			continue
		}
		break
	}
	if l.peekAt(offset) != '\n' {
		l.errorf(diagnostics.Lexical, line, col, "\\", "illegal character %q", "\\")
		l.advance()
		return token.Token{}, false
	}
	for i := 0; i < offset; i++ {
		l.advance()
	}
	l.advance() // the newline itself
	return token.Token{}, false
}

func (l *Lexer) scanOperatorOrGrouping(line, col int) (token.Token, bool) {
	ch := l.ch

	two := func(kind token.Kind, lexeme string) (token.Token, bool) {
		l.advance()
		l.advance()
		return l.make(kind, line, col, lexeme), true
	}
	one := func(kind token.Kind) (token.Token, bool) {
		lexeme := string(l.advance())
		return l.make(kind, line, col, lexeme), true
	}

	switch ch {
	case '(':
		l.groupings = append(l.groupings, '(')
		return one(token.LPAREN)
	case '[':
		l.groupings = append(l.groupings, '[')
		return one(token.LBRACKET)
	case '{':
		l.groupings = append(l.groupings, '{')
		return one(token.LBRACE)
	case ')':
		l.popGrouping('(')
		return one(token.RPAREN)
	case ']':
		l.popGrouping('[')
		return one(token.RBRACKET)
	case '}':
		l.popGrouping('{')
		return one(token.RBRACE)
	case ':':
		return one(token.COLON)
	case ',':
		return one(token.COMMA)
	case '.':
		return one(token.DOT)
	case '%':
		if l.mwel && l.peekChar() == '=' {
			return two(token.AUGASSIGN, "%=")
		}
		return one(token.MODULO)
	case '+':
		if l.mwel && l.peekChar() == '=' {
			return two(token.AUGASSIGN, "+=")
		}
		return one(token.PLUS)
	case '-':
		if l.mwel && l.peekChar() == '>' {
			return two(token.RARROW, "->")
		}
		if l.mwel && l.peekChar() == '=' {
			return two(token.AUGASSIGN, "-=")
		}
		return one(token.MINUS)
	case '*':
		if l.peekChar() == '*' {
			l.advance()
			l.advance()
			if l.mwel && l.ch == '=' {
				l.advance()
				return l.make(token.AUGASSIGN, line, col, "**="), true
			}
			return l.make(token.POWER, line, col, "**"), true
		}
		if l.mwel && l.peekChar() == '=' {
			return two(token.AUGASSIGN, "*=")
		}
		return one(token.TIMES)
	case '/':
		if l.mwel && l.peekChar() == '=' {
			return two(token.AUGASSIGN, "/=")
		}
		return one(token.DIVIDE)
	case '=':
		if l.peekChar() == '=' {
			return two(token.EQUAL, "==")
		}
		if l.mwel {
			return one(token.ASSIGN)
		}
	case '<':
		if l.mwel && l.peekChar() == '-' {
			return two(token.LARROW, "<-")
		}
		if l.peekChar() == '=' {
			return two(token.LESSTHANOREQUAL, "<=")
		}
		return one(token.LESSTHAN)
	case '>':
		if l.peekChar() == '=' {
			return two(token.GREATERTHANOREQUAL, ">=")
		}
		return one(token.GREATERTHAN)
	case '!':
		if l.peekChar() == '=' {
			return two(token.NOTEQUAL, "!=")
		}
	}

	l.errorf(diagnostics.Lexical, line, col, string(ch), "illegal character %q", string(ch))
	l.advance()
	return token.Token{}, false
}

func (l *Lexer) popGrouping(open byte) {
	if n := len(l.groupings); n > 0 && l.groupings[n-1] == open {
		l.groupings = l.groupings[:n-1]
		return
	}
	// An unmatched closer is an error but does not pop (spec.md §4.1);
	// the token is still emitted by the caller.
	line, col := l.here()
	l.errorf(diagnostics.Lexical, line, col, string(l.ch), "unmatched closing %q", string(l.ch))
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// isTagStart/isTagPart scan a number literal's trailing tag, which spec.md
// §4.1 defines as [A-Za-z][A-Za-z0-9]* — no underscore, unlike identifiers.
func isTagStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isTagPart(ch byte) bool {
	return isTagStart(ch) || isDigit(ch)
}

func (l *Lexer) scanIdentifier(line, col int) (token.Token, bool) {
	start := l.pos
	for isIdentPart(l.ch) {
		l.advance()
	}
	lexeme := l.input[start:l.pos]
	if kind, ok := l.keywords[lexeme]; ok {
		return l.make(kind, line, col, lexeme), true
	}
	return l.make(token.IDENTIFIER, line, col, lexeme), true
}

// scanNumber implements the grammar from spec.md §4.1:
//
//	(integer)(.frac)?([eE]exp)?(tag)?
//	integer = [1-9][0-9]+ | [0-9]   (only "0" itself may lead with zero)
//	frac    = [0-9]+
//	exp     = [+-]?[0-9]+
//	tag     = [A-Za-z][A-Za-z0-9]*
func (l *Lexer) scanNumber(line, col int) (token.Token, bool) {
	start := l.pos
	payload := &token.NumberPayload{}

	intStart := l.pos
	if l.ch == '0' {
		l.advance()
	} else {
		for isDigit(l.ch) {
			l.advance()
		}
	}
	payload.Int = l.input[intStart:l.pos]

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.advance() // '.'
		fracStart := l.pos
		for isDigit(l.ch) {
			l.advance()
		}
		payload.Frac = l.input[fracStart:l.pos]
	}

	if l.ch == 'e' || l.ch == 'E' {
		save := l.pos
		saveCh, saveReadPos, saveLine, saveCol := l.ch, l.readPos, l.line, l.column
		l.advance()
		sign := ""
		if l.ch == '+' || l.ch == '-' {
			sign = string(l.ch)
			l.advance()
		}
		if isDigit(l.ch) {
			expStart := l.pos
			for isDigit(l.ch) {
				l.advance()
			}
			payload.Exp = sign + l.input[expStart:l.pos]
		} else {
			// Not actually an exponent; backtrack.
			l.pos, l.ch, l.readPos, l.line, l.column = save, saveCh, saveReadPos, saveLine, saveCol
		}
	}

	if isTagStart(l.ch) {
		tagStart := l.pos
		for isTagPart(l.ch) {
			l.advance()
		}
		payload.Tag = l.input[tagStart:l.pos]
	}

	lexeme := l.input[start:l.pos]
	tok := l.make(token.NUMBER, line, col, lexeme)
	tok.Number = payload
	return tok, true
}

// scanString implements spec.md §4.1's four string syntaxes: single-line
// '…'/"…" (raw newlines forbidden), and triple-quoted '''…'''/"""…"""
// (newlines admitted). Escapes are decoded into a single STRING token
// emitted at the closing delimiter.
func (l *Lexer) scanString(line, col int) (token.Token, bool) {
	quote := l.ch
	triple := l.peekAt(1) == quote && l.peekAt(2) == quote
	delimLen := 1
	if triple {
		delimLen = 3
	}

	startLine, startCol := line, col
	lexemeStart := l.pos
	for i := 0; i < delimLen; i++ {
		l.advance()
	}

	var buf strings.Builder
	closed := false
	for {
		if l.ch == 0 {
			break
		}
		if l.ch == quote {
			if !triple {
				l.advance()
				closed = true
				break
			}
			if l.peekAt(1) == quote && l.peekAt(2) == quote {
				l.advance()
				l.advance()
				l.advance()
				closed = true
				break
			}
			buf.WriteByte(l.advance())
			continue
		}
		if l.ch == '\n' {
			if !triple {
				l.errorf(diagnostics.Lexical, startLine, startCol, l.input[lexemeStart:l.pos],
					"unterminated single-line string")
				break
			}
			buf.WriteByte(l.advance())
			continue
		}
		if l.ch == '\\' {
			l.decodeEscape(&buf, startLine, startCol)
			continue
		}
		buf.WriteByte(l.advance())
	}

	if !closed && l.ch == 0 {
		l.errorf(diagnostics.Lexical, startLine, startCol, l.input[lexemeStart:l.pos],
			"unterminated string at end of input")
	}

	tok := l.make(token.STRING, startLine, startCol, l.input[lexemeStart:l.pos])
	tok.String = buf.String()
	return tok, true
}

// decodeEscape consumes a backslash escape inside a string body,
// appending the decoded text to buf. Unknown escapes are reported and
// the backslash alone is emitted literally, leaving the following
// character for the next iteration (spec.md §4.1).
func (l *Lexer) decodeEscape(buf *strings.Builder, line, col int) {
	l.advance() // consume '\\'
	switch l.ch {
	case '\'':
		buf.WriteByte(l.advance())
	case '"':
		buf.WriteByte(l.advance())
	case '\\':
		buf.WriteByte(l.advance())
	case '/':
		l.advance()
		buf.WriteByte('/')
	case 'b':
		l.advance()
		buf.WriteByte('\b')
	case 'f':
		l.advance()
		buf.WriteByte('\f')
	case 'n':
		l.advance()
		buf.WriteByte('\n')
	case 'r':
		l.advance()
		buf.WriteByte('\r')
	case 't':
		l.advance()
		buf.WriteByte('\t')
	case 'u':
		l.decodeUnicodeEscape(buf, line, col)
	default:
		l.errorf(diagnostics.Lexical, line, col, string(l.ch), "unknown escape sequence \\%c", l.ch)
		buf.WriteByte('\\')
	}
}

// decodeUnicodeEscape decodes \uXXXX, recombining a UTF-16 surrogate
// pair (\uD8xx\uDCxx) into a single code point when present.
func (l *Lexer) decodeUnicodeEscape(buf *strings.Builder, line, col int) {
	l.advance() // 'u'
	r1, ok := l.readHex4()
	if !ok {
		l.errorf(diagnostics.Lexical, line, col, "", "invalid \\u escape")
		return
	}
	if utf16.IsSurrogate(rune(r1)) && l.ch == '\\' && l.peekChar() == 'u' {
		save := l.snapshot()
		l.advance()
		l.advance()
		r2, ok2 := l.readHex4()
		if ok2 {
			combined := utf16.DecodeRune(rune(r1), rune(r2))
			if combined != utf8.RuneError {
				buf.WriteRune(combined)
				return
			}
		}
		l.restore(save)
	}
	buf.WriteRune(rune(r1))
}

type lexerState struct {
	pos, readPos, line, column int
	ch                          byte
}

func (l *Lexer) snapshot() lexerState {
	return lexerState{l.pos, l.readPos, l.line, l.column, l.ch}
}

func (l *Lexer) restore(s lexerState) {
	l.pos, l.readPos, l.line, l.column, l.ch = s.pos, s.readPos, s.line, s.column, s.ch
}

func (l *Lexer) readHex4() (int, bool) {
	val := 0
	for i := 0; i < 4; i++ {
		d, ok := hexDigit(l.ch)
		if !ok {
			return 0, false
		}
		val = val*16 + d
		l.advance()
	}
	return val, true
}

func hexDigit(ch byte) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10, true
	}
	return 0, false
}

// ParseNumberText, exposed for the parser, reassembles the lexer's
// fragments back into the literal text decimal.NewFromString expects.
func ParseNumberText(p *token.NumberPayload) string {
	s := p.Int
	if p.Frac != "" {
		s += "." + p.Frac
	}
	if p.Exp != "" {
		s += "e" + p.Exp
	}
	return s
}
