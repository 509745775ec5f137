// Package compiler implements the semantic checker of spec §4.4: it
// walks the ast.Rule, validates every condition against the schema,
// and emits the flat, immutable CompiledRule the matcher runs against.
package compiler

import "github.com/Hentioe/matchingram/rules/schema"

// NumAtom is a single number that remembers whether it was written as
// an int or a float literal, so eq/in can cross-compare Int and Float
// by mathematical value (spec §4.6) without losing int64 precision for
// the common case of two ints.
type NumAtom struct {
	IsFloat bool
	I       int64
	F       float64
}

// Equal compares two numbers by mathematical value: exact for two
// ints, float-compared otherwise.
func (n NumAtom) Equal(o NumAtom) bool {
	if !n.IsFloat && !o.IsFloat {
		return n.I == o.I
	}
	return n.asFloat() == o.asFloat()
}

func (n NumAtom) asFloat() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

// Compare returns -1, 0, 1 as n is less than, equal to, or greater
// than o, by mathematical value: exact for two ints, float-compared
// otherwise.
func (n NumAtom) Compare(o NumAtom) int {
	if !n.IsFloat && !o.IsFloat {
		switch {
		case n.I < o.I:
			return -1
		case n.I > o.I:
			return 1
		default:
			return 0
		}
	}
	a, b := n.asFloat(), o.asFloat()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompiledValue is the pre-normalized right-hand side of a compiled
// condition: a single value or a list, string-shaped or number-shaped.
type CompiledValue struct {
	IsList bool

	Str    string
	Num    NumAtom
	StrSet []string        // list form, string-kind
	NumSet []NumAtom       // list form, number-kind, sorted ascending for `in`
	StrIdx map[string]bool // membership index for string `in`, built once at compile time
}

// HasStr reports whether s is present in a string-kind list value, via
// the membership index Compile already built (O(1) average). A
// CompiledValue that never went through compileInValue has a nil
// StrIdx and correctly reports no membership.
func (v CompiledValue) HasStr(s string) bool {
	return v.StrIdx[s]
}

// HasNum reports whether n is present in a number-kind list value via
// binary search over the sorted set (spec §4.4: "number list sorted
// for O(log n) membership in `in`").
func (v CompiledValue) HasNum(n NumAtom) bool {
	lo, hi := 0, len(v.NumSet)
	for lo < hi {
		mid := (lo + hi) / 2
		switch v.NumSet[mid].Compare(n) {
		case 0:
			return true
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}

// Condition is a compiled condition: field and operator pre-resolved
// to ids, value pre-normalized.
type Condition struct {
	Negated bool
	Field   schema.FieldID
	Bare    bool // true: no operator, presence/boolean test
	Op      schema.Op
	Value   CompiledValue
}

// Group is a flat, ordered list of compiled conditions, conjoined.
type Group struct {
	Conditions []Condition
}

// Rule is the immutable, flat compiled representation the matcher
// evaluates: an ordered, non-empty list of groups, disjoined.
type Rule struct {
	Groups []Group
	Schema *schema.Schema
}
