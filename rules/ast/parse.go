package ast

import (
	"fmt"
	"strconv"

	rerrors "github.com/Hentioe/matchingram/rules/errors"
)

// Parse lexes and parses rule text into an AST (spec §4.2's grammar).
// Structural errors inside one group are recovered by skipping to the
// next top-level "or" (or end of input), so a rule with several
// unrelated mistakes can report more than one ParseError from a single
// call; a lex failure always aborts immediately, matching spec §4.2's
// fallback ("otherwise the first error aborts").
func Parse(text string) (*Rule, error) {
	tokens, err := Lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	rule, errs := p.parseRule()
	if !errs.Empty() {
		return nil, errs.Err()
	}
	if len(rule.Groups) == 0 {
		return nil, rerrors.EmptyRule()
	}
	return rule, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) current() Token {
	return p.tokens[p.pos]
}

func (p *parser) consume() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) atEOF() bool {
	return p.current().Kind == EOF
}

func (p *parser) atKeyword(word string) bool {
	tok := p.current()
	return tok.Kind == Ident && tok.Value == word
}

func (p *parser) describe(tok Token) string {
	if tok.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Value)
}

// parseRule implements `rule := group ( "or" group )*` with the
// group-boundary recovery described in spec §4.2.
func (p *parser) parseRule() (*Rule, *rerrors.List) {
	errs := &rerrors.List{}
	var groups []Group

	for {
		if p.atEOF() {
			break
		}
		group, err := p.parseGroup()
		if err != nil {
			errs.Add(err)
			p.recoverToOrOrEOF()
			continue
		}
		groups = append(groups, group)
		if p.atEOF() {
			break
		}
		if p.atKeyword("or") {
			p.consume()
			continue
		}
		tok := p.current()
		errs.Add(rerrors.Parse(tok.Span, []string{"or", "end of input"}, p.describe(tok)))
		p.recoverToOrOrEOF()
	}

	return &Rule{Groups: groups}, errs
}

// recoverToOrOrEOF skips tokens until a top-level "or" (outside any
// paren/brace nesting) or end of input, consuming the "or" if found.
// It always advances, so the caller's loop always makes progress.
func (p *parser) recoverToOrOrEOF() {
	parenDepth, braceDepth := 0, 0
	for {
		tok := p.current()
		if tok.Kind == EOF {
			return
		}
		switch tok.Kind {
		case LParen:
			parenDepth++
		case RParen:
			if parenDepth > 0 {
				parenDepth--
			}
		case LBrace:
			braceDepth++
		case RBrace:
			if braceDepth > 0 {
				braceDepth--
			}
		case Ident:
			if tok.Value == "or" && parenDepth == 0 && braceDepth == 0 {
				p.consume()
				return
			}
		}
		p.consume()
	}
}

// parseGroup implements `group := "(" cond ( "and" cond )* ")"`.
func (p *parser) parseGroup() (Group, error) {
	open := p.current()
	if open.Kind != LParen {
		return Group{}, rerrors.Parse(open.Span, []string{"("}, p.describe(open))
	}
	p.consume()

	if p.current().Kind == RParen {
		close := p.consume()
		return Group{}, rerrors.EmptyGroup(rerrors.Span{Start: open.Span.Start, End: close.Span.End})
	}

	var conds []Condition
	cond, err := p.parseCond()
	if err != nil {
		return Group{}, err
	}
	conds = append(conds, cond)

	for p.atKeyword("and") {
		p.consume()
		cond, err := p.parseCond()
		if err != nil {
			return Group{}, err
		}
		conds = append(conds, cond)
	}

	if p.current().Kind != RParen {
		return Group{}, rerrors.Parse(p.current().Span, []string{")", "and"}, p.describe(p.current()))
	}
	close := p.consume()

	return Group{Conditions: conds, Span: rerrors.Span{Start: open.Span.Start, End: close.Span.End}}, nil
}

// parseCond implements `cond := "not"? field ( op value )?`. The
// operator position accepts any identifier, not just the eight real
// operator words: the Schema is the sole authority on which words
// name a supported operator (spec §9 — retired aliases are rejected
// by validation, not by a parser special case).
func (p *parser) parseCond() (Condition, error) {
	start := p.current().Span

	negated := false
	if p.atKeyword("not") {
		negated = true
		p.consume()
	}

	fieldTok := p.current()
	if fieldTok.Kind != Ident || fieldTok.Value == "and" || fieldTok.Value == "or" {
		return Condition{}, rerrors.Parse(fieldTok.Span, []string{"field"}, p.describe(fieldTok))
	}
	p.consume()
	field := Field{Path: fieldTok.Value, Span: fieldTok.Span}

	opCandidate := p.current()
	if opCandidate.Kind == Ident && opCandidate.Value != "and" && opCandidate.Value != "or" && opCandidate.Value != "not" {
		opTok := p.consume()
		val, err := p.parseValue()
		if err != nil {
			return Condition{}, err
		}
		return Condition{
			Negated: negated,
			Field:   field,
			Op:      &opTok,
			Value:   &val,
			Span:    rerrors.Span{Start: start.Start, End: val.Span.End},
		}, nil
	}

	return Condition{
		Negated: negated,
		Field:   field,
		Span:    rerrors.Span{Start: start.Start, End: fieldTok.Span.End},
	}, nil
}

// parseValue implements `value := atom | "{" atom* "}"`. An empty
// `{}` is syntactically legal (spec §3: "Empty lists are syntactically
// legal but semantically useless and accepted").
func (p *parser) parseValue() (Value, error) {
	if p.current().Kind == LBrace {
		open := p.consume()
		var atoms []Atom
		for p.current().Kind == Str || p.current().Kind == Int || p.current().Kind == Float {
			atom, err := p.parseAtom()
			if err != nil {
				return Value{}, err
			}
			atoms = append(atoms, atom)
		}
		if p.current().Kind != RBrace {
			return Value{}, rerrors.Parse(p.current().Span, []string{"}"}, p.describe(p.current()))
		}
		close := p.consume()
		return Value{IsList: true, Atoms: atoms, Span: rerrors.Span{Start: open.Span.Start, End: close.Span.End}}, nil
	}

	if p.current().Kind == Str || p.current().Kind == Int || p.current().Kind == Float {
		atom, err := p.parseAtom()
		if err != nil {
			return Value{}, err
		}
		return Value{IsList: false, Atoms: []Atom{atom}, Span: atom.Span}, nil
	}

	return Value{}, rerrors.Parse(p.current().Span, []string{"value"}, p.describe(p.current()))
}

func (p *parser) parseAtom() (Atom, error) {
	tok := p.current()
	switch tok.Kind {
	case Str:
		p.consume()
		return Atom{Kind: AtomStr, Str: tok.Value, Span: tok.Span}, nil
	case Int:
		p.consume()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return Atom{}, rerrors.Lex(tok.Span, "malformed integer literal")
		}
		return Atom{Kind: AtomInt, Int: n, Span: tok.Span}, nil
	case Float:
		p.consume()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return Atom{}, rerrors.Lex(tok.Span, "malformed float literal")
		}
		return Atom{Kind: AtomFloat, Float: f, Span: tok.Span}, nil
	default:
		return Atom{}, rerrors.Parse(tok.Span, []string{"string", "number"}, p.describe(tok))
	}
}
