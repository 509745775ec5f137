package compiler

import (
	"sort"

	"github.com/Hentioe/matchingram/rules/ast"
	rerrors "github.com/Hentioe/matchingram/rules/errors"
	"github.com/Hentioe/matchingram/rules/schema"
)

// Compile validates an AST against s and emits a Rule (spec §4.4). It
// never aborts on the first semantic error: every condition in every
// group is checked, and all violations are returned together via the
// errors.List aggregate, so a caller sees every mistake in one pass.
func Compile(tree *ast.Rule, s *schema.Schema) (*Rule, error) {
	errs := &rerrors.List{}
	out := &Rule{Schema: s}

	for _, g := range tree.Groups {
		group, ok := compileGroup(g, s, errs)
		if ok {
			out.Groups = append(out.Groups, group)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func compileGroup(g ast.Group, s *schema.Schema, errs *rerrors.List) (Group, bool) {
	var group Group
	ok := true
	for _, c := range g.Conditions {
		cond, condOK := compileCondition(c, s, errs)
		if condOK {
			group.Conditions = append(group.Conditions, cond)
		} else {
			ok = false
		}
	}
	return group, ok
}

func compileCondition(c ast.Condition, s *schema.Schema, errs *rerrors.List) (Condition, bool) {
	field, found := s.Lookup(c.Field.Path)
	if !found {
		errs.Add(rerrors.UnknownField(c.Field.Span, c.Field.Path))
		return Condition{}, false
	}

	if c.Op == nil {
		if !field.BareOK() {
			errs.Add(rerrors.OperatorRequired(c.Span, c.Field.Path))
			return Condition{}, false
		}
		return Condition{Negated: c.Negated, Field: field.ID, Bare: true}, true
	}

	op, known := schema.LookupOp(c.Op.Value)
	if !known || !field.Allows(op) {
		errs.Add(rerrors.OperatorNotSupported(c.Op.Span, c.Field.Path, c.Op.Value))
		return Condition{}, false
	}

	value, valOK := compileValue(op, field, *c.Value, errs)
	if !valOK {
		return Condition{}, false
	}

	return Condition{
		Negated: c.Negated,
		Field:   field.ID,
		Bare:    false,
		Op:      op,
		Value:   value,
	}, true
}

func compileValue(op schema.Op, field schema.Field, v ast.Value, errs *rerrors.List) (CompiledValue, bool) {
	switch op {
	case schema.Eq, schema.Gt, schema.Ge, schema.Le:
		return compileScalarValue(op, field, v, errs)
	case schema.In:
		return compileInValue(field, v, errs)
	case schema.Any, schema.All:
		return compileStringListValue(op, field, v, errs)
	case schema.Hd:
		return compileHdValue(field, v, errs)
	default:
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "known operator", "unreachable"))
		return CompiledValue{}, false
	}
}

func compileScalarValue(op schema.Op, field schema.Field, v ast.Value, errs *rerrors.List) (CompiledValue, bool) {
	if v.IsList || len(v.Atoms) != 1 {
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "single value", describeShape(v)))
		return CompiledValue{}, false
	}
	atom := v.Atoms[0]

	switch field.Kind {
	case schema.String:
		if op != schema.Eq {
			errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "numeric field", "string field"))
			return CompiledValue{}, false
		}
		if atom.Kind != ast.AtomStr {
			errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "string", describeAtomKind(atom.Kind)))
			return CompiledValue{}, false
		}
		return CompiledValue{Str: atom.Str}, true

	case schema.Int, schema.Float:
		num, ok := atomToNum(atom)
		if !ok {
			errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "numeric", describeAtomKind(atom.Kind)))
			return CompiledValue{}, false
		}
		return CompiledValue{Num: num}, true

	default:
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "string or numeric field", field.Kind.String()))
		return CompiledValue{}, false
	}
}

func compileInValue(field schema.Field, v ast.Value, errs *rerrors.List) (CompiledValue, bool) {
	if !v.IsList {
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, "in", "list", describeShape(v)))
		return CompiledValue{}, false
	}

	switch field.Kind {
	case schema.String:
		strs := make([]string, 0, len(v.Atoms))
		for _, a := range v.Atoms {
			if a.Kind != ast.AtomStr {
				errs.Add(rerrors.ValueTypeMismatch(a.Span, field.Path, "in", "list of string", describeAtomKind(a.Kind)))
				return CompiledValue{}, false
			}
			strs = append(strs, a.Str)
		}
		return CompiledValue{IsList: true, StrSet: strs, StrIdx: strIndex(strs)}, true

	case schema.Int, schema.Float:
		nums := make([]NumAtom, 0, len(v.Atoms))
		for _, a := range v.Atoms {
			n, ok := atomToNum(a)
			if !ok {
				errs.Add(rerrors.ValueTypeMismatch(a.Span, field.Path, "in", "list of numeric", describeAtomKind(a.Kind)))
				return CompiledValue{}, false
			}
			nums = append(nums, n)
		}
		sortNums(nums)
		return CompiledValue{IsList: true, NumSet: nums}, true

	default:
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, "in", "string or numeric field", field.Kind.String()))
		return CompiledValue{}, false
	}
}

func compileStringListValue(op schema.Op, field schema.Field, v ast.Value, errs *rerrors.List) (CompiledValue, bool) {
	if field.Kind != schema.String {
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "string field", field.Kind.String()))
		return CompiledValue{}, false
	}
	if !v.IsList {
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, op.String(), "list of string", describeShape(v)))
		return CompiledValue{}, false
	}
	strs := make([]string, 0, len(v.Atoms))
	for _, a := range v.Atoms {
		if a.Kind != ast.AtomStr {
			errs.Add(rerrors.ValueTypeMismatch(a.Span, field.Path, op.String(), "string", describeAtomKind(a.Kind)))
			return CompiledValue{}, false
		}
		strs = append(strs, a.Str)
	}
	return CompiledValue{IsList: true, StrSet: strs}, true
}

// compileHdValue accepts either a list of strings or a single string
// (spec §4.6: "`hd` also accepts a single string").
func compileHdValue(field schema.Field, v ast.Value, errs *rerrors.List) (CompiledValue, bool) {
	if field.Kind != schema.String {
		errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, "hd", "string field", field.Kind.String()))
		return CompiledValue{}, false
	}
	if !v.IsList {
		if len(v.Atoms) != 1 || v.Atoms[0].Kind != ast.AtomStr {
			errs.Add(rerrors.ValueTypeMismatch(v.Span, field.Path, "hd", "string or list of string", describeShape(v)))
			return CompiledValue{}, false
		}
		return CompiledValue{Str: v.Atoms[0].Str}, true
	}
	return compileStringListValue(schema.Hd, field, v, errs)
}

func atomToNum(a ast.Atom) (NumAtom, bool) {
	switch a.Kind {
	case ast.AtomInt:
		return NumAtom{IsFloat: false, I: a.Int}, true
	case ast.AtomFloat:
		return NumAtom{IsFloat: true, F: a.Float}, true
	default:
		return NumAtom{}, false
	}
}

func sortNums(nums []NumAtom) {
	sort.Slice(nums, func(i, j int) bool {
		return nums[i].Compare(nums[j]) < 0
	})
}

// strIndex builds the membership index for a string-kind `in` set once,
// at compile time, so matching never pays for it (spec §4.4).
func strIndex(strs []string) map[string]bool {
	idx := make(map[string]bool, len(strs))
	for _, s := range strs {
		idx[s] = true
	}
	return idx
}

func describeAtomKind(k ast.AtomKind) string {
	switch k {
	case ast.AtomStr:
		return "string"
	case ast.AtomInt:
		return "int"
	case ast.AtomFloat:
		return "float"
	default:
		return "?"
	}
}

func describeShape(v ast.Value) string {
	if v.IsList {
		return "list"
	}
	return "single value"
}
