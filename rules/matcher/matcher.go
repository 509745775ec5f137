// Package matcher evaluates a compiled rule against a message view
// (spec §4.6). Evaluation is pure, allocates nothing in the steady
// state, and never fails: every legality check already happened at
// compile time.
package matcher

import (
	"strings"

	"github.com/Hentioe/matchingram/rules/compiler"
	"github.com/Hentioe/matchingram/rules/message"
	"github.com/Hentioe/matchingram/rules/schema"
)

// Match reports whether r matches the message exposed by v:
//
//	rule matches <=> exists group g in r: forall cond c in g: eval(c, v) = true
//
// Groups are tried in source order and evaluation stops at the first
// one that matches fully; conditions within a group are tried in
// source order and evaluation stops at the first false one. Both
// short-circuits are part of the observable contract (spec §4.6), not
// merely an optimization.
func Match(r *compiler.Rule, v message.View) bool {
	for _, g := range r.Groups {
		if matchGroup(g, v) {
			return true
		}
	}
	return false
}

func matchGroup(g compiler.Group, v message.View) bool {
	for _, c := range g.Conditions {
		if !evalCondition(c, v) {
			return false
		}
	}
	return true
}

func evalCondition(c compiler.Condition, v message.View) bool {
	fv, ok := v.Get(c.Field)

	if !c.Bare && !ok {
		// Missing field is the neutral falsehood for an operated
		// condition, before negation (spec §4.6): otherwise "not field
		// eq X" would match every message lacking the field.
		return false
	}

	var result bool
	if c.Bare {
		result = evalBare(fv, ok)
	} else {
		result = evalOperated(c, fv)
	}

	return result != c.Negated // XOR against negation
}

// evalBare implements spec §4.6 point 2: true iff the field is
// Bool(true), Present(true), or a non-missing value-bearing field with
// non-empty content.
func evalBare(fv message.FieldValue, ok bool) bool {
	if !ok {
		return false
	}
	switch fv.Kind {
	case message.KBool:
		return fv.Bool
	case message.KPresent:
		return fv.Present
	case message.KStr:
		return fv.Str != ""
	case message.KNum:
		return true
	default:
		return false
	}
}

// evalOperated implements spec §4.6 point 3's dispatch table. The
// caller (evalCondition) already handled the missing-field case, so fv
// is always present here.
func evalOperated(c compiler.Condition, fv message.FieldValue) bool {
	switch c.Op {
	case schema.Eq:
		return evalEq(fv, c.Value)
	case schema.Gt:
		return evalCompare(fv, c.Value) > 0
	case schema.Ge:
		return evalCompare(fv, c.Value) >= 0
	case schema.Le:
		return evalCompare(fv, c.Value) <= 0
	case schema.In:
		return evalIn(fv, c.Value)
	case schema.Any:
		return evalAny(fv, c.Value)
	case schema.All:
		return evalAll(fv, c.Value)
	case schema.Hd:
		return evalHd(fv, c.Value)
	default:
		panic("matcher: unreachable operator id; rule was not produced by Compile")
	}
}

func evalEq(fv message.FieldValue, val compiler.CompiledValue) bool {
	switch fv.Kind {
	case message.KStr:
		return fv.Str == val.Str
	case message.KNum:
		return fv.Num.Equal(val.Num)
	default:
		return false
	}
}

// evalCompare is only reached for numeric fields (gt/ge/le are only
// ever allowed on Int/Float fields by the schema), so fv.Kind is
// always KNum here.
func evalCompare(fv message.FieldValue, val compiler.CompiledValue) int {
	return fv.Num.Compare(val.Num)
}

func evalIn(fv message.FieldValue, val compiler.CompiledValue) bool {
	switch fv.Kind {
	case message.KStr:
		return val.HasStr(fv.Str)
	case message.KNum:
		return val.HasNum(fv.Num)
	default:
		return false
	}
}

func evalAny(fv message.FieldValue, val compiler.CompiledValue) bool {
	if fv.Kind != message.KStr {
		return false
	}
	for _, needle := range val.StrSet {
		if strings.Contains(fv.Str, needle) {
			return true
		}
	}
	return false
}

func evalAll(fv message.FieldValue, val compiler.CompiledValue) bool {
	if fv.Kind != message.KStr {
		return false
	}
	for _, needle := range val.StrSet {
		if !strings.Contains(fv.Str, needle) {
			return false
		}
	}
	return true
}

func evalHd(fv message.FieldValue, val compiler.CompiledValue) bool {
	if fv.Kind != message.KStr {
		return false
	}
	if !val.IsList {
		return strings.HasPrefix(fv.Str, val.Str)
	}
	for _, prefix := range val.StrSet {
		if strings.HasPrefix(fv.Str, prefix) {
			return true
		}
	}
	return false
}
