// Package token defines the lexical tokens shared by the JEL and MWEL
// lexers and parsers.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind string

// Token is a single lexeme together with its source position and, for
// NUMBER and STRING tokens, its decoded payload.
type Token struct {
	Kind    Kind
	Lexeme  string
	Line    int
	Column  int
	Number  *NumberPayload // set only for NUMBER
	String  string         // decoded value, set only for STRING
}

// NumberPayload carries the raw fragments matched by the NUMBER rule, as
// described in spec.md §3: each field is a possibly-empty fragment of the
// literal, left for the parser to reassemble into an arbitrary-precision
// decimal.
type NumberPayload struct {
	Int  string
	Frac string
	Exp  string
	Tag  string
}

// Describe renders the token as "line:column KIND lexeme" for debugging.
func (t Token) Describe() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind, t.Lexeme)
}

// Token kinds. The ignored/grouping/keyword sets are documented in
// spec.md §4.1.
const (
	ILLEGAL Kind = "ILLEGAL"
	EOF     Kind = "EOF"
	NEWLINE Kind = "NEWLINE"

	NUMBER     Kind = "NUMBER"
	STRING     Kind = "STRING"
	IDENTIFIER Kind = "IDENTIFIER"

	COLON   Kind = "COLON"
	COMMA   Kind = "COMMA"
	DIVIDE  Kind = "DIVIDE"
	DOT     Kind = "DOT"
	EQUAL   Kind = "EQUAL"
	GREATERTHAN        Kind = "GREATERTHAN"
	GREATERTHANOREQUAL Kind = "GREATERTHANOREQUAL"
	LESSTHAN           Kind = "LESSTHAN"
	LESSTHANOREQUAL    Kind = "LESSTHANOREQUAL"
	MINUS   Kind = "MINUS"
	MODULO  Kind = "MODULO"
	NOTEQUAL Kind = "NOTEQUAL"
	PLUS    Kind = "PLUS"
	POWER   Kind = "POWER"
	TIMES   Kind = "TIMES"

	LBRACE   Kind = "LBRACE"
	LBRACKET Kind = "LBRACKET"
	LPAREN   Kind = "LPAREN"
	RBRACE   Kind = "RBRACE"
	RBRACKET Kind = "RBRACKET"
	RPAREN   Kind = "RPAREN"

	// MWEL-only operator tokens.
	ASSIGN    Kind = "ASSIGN"
	AUGASSIGN Kind = "AUGASSIGN"
	LARROW    Kind = "LARROW"
	RARROW    Kind = "RARROW"

	// Keywords, JEL.
	AND   Kind = "AND"
	FALSE Kind = "FALSE"
	IN    Kind = "IN"
	NOT   Kind = "NOT"
	NULL  Kind = "NULL"
	OR    Kind = "OR"
	TRUE  Kind = "TRUE"

	// Keywords, MWEL additions.
	ELSE     Kind = "ELSE"
	END      Kind = "END"
	FUNCTION Kind = "FUNCTION"
	LOCAL    Kind = "LOCAL"
	RETURN   Kind = "RETURN"
)

// jelKeywords and mwelExtraKeywords mirror the original's
// Lexer.get_keywords split between jel/lexer.py and mwel/lexer.py.
var jelKeywords = map[string]Kind{
	"and":   AND,
	"false": FALSE,
	"in":    IN,
	"not":   NOT,
	"null":  NULL,
	"or":    OR,
	"true":  TRUE,
}

var mwelExtraKeywords = map[string]Kind{
	"else":     ELSE,
	"end":      END,
	"function": FUNCTION,
	"local":    LOCAL,
	"return":   RETURN,
}

// Keywords returns the keyword table for the given dialect. mwel is a
// strict superset of jel's keyword set.
func Keywords(mwel bool) map[string]Kind {
	kw := make(map[string]Kind, len(jelKeywords)+len(mwelExtraKeywords))
	for k, v := range jelKeywords {
		kw[k] = v
	}
	if mwel {
		for k, v := range mwelExtraKeywords {
			kw[k] = v
		}
	}
	return kw
}

// AugAssignOp strips the trailing '=' from an AUGASSIGN lexeme to find
// the underlying binary operator, e.g. "+=" -> "+". Grounded on the
// original compiler's augmented_assignment_stmt, which does
// node.op[:-1] to find the BINARY_OP code.
func AugAssignOp(lexeme string) string {
	if len(lexeme) == 0 {
		return lexeme
	}
	return lexeme[:len(lexeme)-1]
}
