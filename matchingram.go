// Package matchingram is a matching engine for structured chat
// messages. Rules are authored in a small, bespoke expression
// language, compiled once, and evaluated repeatedly with bounded,
// predictable cost — no regex backtracking, no super-linear
// amplification (spec §1).
//
// The package is library-shaped: it ingests nothing itself. A host
// decodes its own message objects, adapts them to message.View, and
// calls Match with a rule compiled once via Compile.
package matchingram

import (
	"github.com/Hentioe/matchingram/rules/ast"
	"github.com/Hentioe/matchingram/rules/compiler"
	"github.com/Hentioe/matchingram/rules/matcher"
	"github.com/Hentioe/matchingram/rules/message"
	"github.com/Hentioe/matchingram/rules/schema"
)

// CompiledRule is the immutable, validated result of Compile. It is
// safe to share across goroutines and to evaluate concurrently without
// locks (spec §5): nothing about it changes after Compile returns.
type CompiledRule struct {
	rule *compiler.Rule
}

// CompileError is returned by Compile when rule text fails to lex,
// parse, or validate against the Schema. It always carries at least
// one taxonomy member from spec §7; see the rules/errors package for
// inspecting the underlying code(s).
type CompileError = error

// Compile lexes, parses, and semantically validates rule text against
// the default Telegram-shaped schema, producing an immutable
// CompiledRule (spec §6.2). It is stateless: the same text always
// compiles to an equivalent rule.
func Compile(ruleText string) (*CompiledRule, error) {
	return CompileWithSchema(ruleText, schema.Default)
}

// CompileWithSchema is Compile against an explicit Schema, for hosts
// that extend or restrict the default field/operator table (spec
// §6.1: "optional extensions must either be added to the Schema or
// rejected by the compiler").
func CompileWithSchema(ruleText string, s *schema.Schema) (*CompiledRule, error) {
	tree, err := ast.Parse(ruleText)
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(tree, s)
	if err != nil {
		return nil, err
	}
	return &CompiledRule{rule: compiled}, nil
}

// Validate is a convenience equivalent to discarding Compile's result
// (spec §6.2).
func Validate(ruleText string) error {
	_, err := Compile(ruleText)
	return err
}

// Match evaluates rule against the message exposed by view, returning
// a boolean verdict. Match is pure and never fails: every legality
// check already happened when rule was compiled (spec §6.2).
func Match(rule *CompiledRule, view message.View) bool {
	return matcher.Match(rule.rule, view)
}
