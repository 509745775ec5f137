// Package ast turns rule text into a validated AST of condition groups
// (spec §4.1, §4.2). Tokenizing is delegated to
// github.com/alecthomas/participle/v2's lexer.MustSimple, the same
// engine the teacher's grammar is built on; parsing is a hand-written
// recursive-descent walk over that token stream so the parser keeps
// full control over source spans, operator reclassification, and the
// error-recovery behavior spec §4.2 demands (neither of which a
// struct-tag grammar can express).
package ast

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	rerrors "github.com/Hentioe/matchingram/rules/errors"
)

// Kind classifies a token for the parser. The lexer itself stays
// context-free: words that might be keywords or operators are all
// tagged Ident, exactly as spec §4.1 requires ("the lexer itself is
// context-free and tags them Ident; the parser reclassifies").
type Kind int

const (
	EOF Kind = iota
	LParen
	RParen
	LBrace
	RBrace
	Ident
	Str
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case LParen:
		return "("
	case RParen:
		return ")"
	case LBrace:
		return "{"
	case RBrace:
		return "}"
	case Ident:
		return "identifier"
	case Str:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	default:
		return "?"
	}
}

// Token is one lexed unit with its source span and raw text.
type Token struct {
	Kind  Kind
	Value string // decoded value for Str; raw text otherwise
	Span  rerrors.Span
}

// lexerRules mirrors the teacher's lexer.SimpleRule table shape, with
// MatchinGram's own token vocabulary in place of AIP-160's.
var lexerRules = []lexer.SimpleRule{
	{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*`},
	{Name: "Str", Pattern: `"(\\.|[^"\\\n\r])*"`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
}

var simpleLexer = lexer.MustSimple(lexerRules)

var kindByName = map[string]Kind{
	"Float":  Float,
	"Int":    Int,
	"Ident":  Ident,
	"Str":    Str,
	"LParen": LParen,
	"RParen": RParen,
	"LBrace": LBrace,
	"RBrace": RBrace,
}

// Lex tokenizes rule text, dropping whitespace, decoding string escapes,
// and rejecting malformed numbers and unterminated strings as LexError
// (spec §4.1).
func Lex(text string) ([]Token, error) {
	symbols := simpleLexer.Symbols()
	whitespace := symbols["Whitespace"]

	lx, err := simpleLexer.Lex("", strings.NewReader(text))
	if err != nil {
		return nil, rerrors.Lex(lexErrorSpan(err, text), err.Error())
	}

	var out []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, rerrors.Lex(lexErrorSpan(err, text), err.Error())
		}
		if tok.Type == lexer.EOF {
			break
		}
		if tok.Type == whitespace {
			continue
		}

		span := rerrors.Span{Start: tok.Pos.Offset, End: tok.Pos.Offset + len(tok.Value)}
		kind, ok := kindForType(symbols, tok.Type)
		if !ok {
			return nil, rerrors.Lex(span, "unrecognized character "+quoteRune(tok.Value))
		}

		switch kind {
		case Str:
			decoded, err := unquote(tok.Value)
			if err != nil {
				return nil, rerrors.Lex(span, err.Error())
			}
			out = append(out, Token{Kind: Str, Value: decoded, Span: span})
		case Int:
			if err := checkIntRange(tok.Value); err != nil {
				return nil, rerrors.Lex(span, err.Error())
			}
			out = append(out, Token{Kind: Int, Value: tok.Value, Span: span})
		default:
			out = append(out, Token{Kind: kind, Value: tok.Value, Span: span})
		}
	}
	out = append(out, Token{Kind: EOF, Value: "", Span: rerrors.Span{Start: len(text), End: len(text)}})
	return out, nil
}

// lexErrorSpan extracts the offending offset from a participle lexer
// error so a failure reports its own span instead of the whole input
// (spec §4.1, §7). participle's own lexers (including the Str/Int/etc.
// rules above) fail via *lexer.Error, which carries the Position the
// failure occurred at; anything else (e.g. an io error from the
// Reader) falls back to spanning the full text.
func lexErrorSpan(err error, text string) rerrors.Span {
	var lerr *lexer.Error
	if errors.As(err, &lerr) {
		return rerrors.Span{Start: lerr.Pos.Offset, End: lerr.Pos.Offset}
	}
	return rerrors.Span{Start: 0, End: len(text)}
}

func kindForType(symbols map[string]lexer.TokenType, t lexer.TokenType) (Kind, bool) {
	for name, kind := range kindByName {
		if symbols[name] == t {
			return kind, true
		}
	}
	return 0, false
}

func quoteRune(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "'" + s + "'"
}

// unquote decodes the \" and \\ escapes spec §4.1 permits, rejecting
// anything else inside a double-quoted string (no embedded newlines:
// the lexer pattern already excludes raw control of that, but a
// trailing unescaped backslash is still a lex error).
func unquote(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", errUnterminatedString
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(inner) {
			return "", errUnterminatedString
		}
		switch inner[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", errBadEscape
		}
	}
	return b.String(), nil
}

func checkIntRange(raw string) error {
	const (
		minI64 = "-9223372036854775808"
		maxI64 = "9223372036854775807"
	)
	neg := strings.HasPrefix(raw, "-")
	digits := raw
	if neg {
		digits = raw[1:]
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return nil
	}
	bound := maxI64
	if neg {
		bound = minI64[1:]
	}
	if len(digits) > len(bound) || (len(digits) == len(bound) && digits > bound) {
		return errIntOutOfRange
	}
	return nil
}
