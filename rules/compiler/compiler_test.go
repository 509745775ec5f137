package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hentioe/matchingram/rules/ast"
	"github.com/Hentioe/matchingram/rules/compiler"
	rerrors "github.com/Hentioe/matchingram/rules/errors"
	"github.com/Hentioe/matchingram/rules/schema"
)

func compileText(t *testing.T, text string) (*compiler.Rule, error) {
	t.Helper()
	tree, err := ast.Parse(text)
	require.NoError(t, err, "unexpected parse error for %q", text)
	return compiler.Compile(tree, schema.Default)
}

func TestCompileValidRuleSucceeds(t *testing.T) {
	rule, err := compileText(t, `(message.from.id gt 100 and message.from.id le 200)`)
	require.NoError(t, err)
	require.Len(t, rule.Groups, 1)
	require.Len(t, rule.Groups[0].Conditions, 2)
}

func TestCompileUnknownFieldFails(t *testing.T) {
	_, err := compileText(t, `(message.nonexistent eq "x")`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeUnknownField, rerrors.Code(err))
}

func TestCompileBareStringFieldRequiresOperator(t *testing.T) {
	_, err := compileText(t, `(message.text)`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeOperatorRequired, rerrors.Code(err))
}

func TestCompileBareBoolField(t *testing.T) {
	rule, err := compileText(t, `(message.from.is_bot)`)
	require.NoError(t, err)
	require.True(t, rule.Groups[0].Conditions[0].Bare)
}

func TestCompileRetiredAliasIsRejected(t *testing.T) {
	_, err := compileText(t, `(message.text contains_all {"a"})`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeOperatorNotSupported, rerrors.Code(err))
}

func TestCompileBoolFieldRejectsEq(t *testing.T) {
	_, err := compileText(t, `(message.from.is_bot eq 1)`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeOperatorNotSupported, rerrors.Code(err))
}

func TestCompileEqStringFieldRejectsNumber(t *testing.T) {
	_, err := compileText(t, `(message.text eq 1)`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeValueTypeMismatch, rerrors.Code(err))
}

func TestCompileGtOnStringFieldRejected(t *testing.T) {
	_, err := compileText(t, `(message.text gt "a")`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeOperatorNotSupported, rerrors.Code(err))
}

func TestCompileInAcceptsMixedIntFloatList(t *testing.T) {
	rule, err := compileText(t, `(message.from.id in {1 2.5 3})`)
	require.NoError(t, err)
	cond := rule.Groups[0].Conditions[0]
	require.Len(t, cond.Value.NumSet, 3)
}

func TestCompileInRejectsNonListValue(t *testing.T) {
	_, err := compileText(t, `(message.from.id in 1)`)
	require.Error(t, err)
	require.Equal(t, rerrors.CodeValueTypeMismatch, rerrors.Code(err))
}

func TestCompileAnyRequiresStringField(t *testing.T) {
	_, err := compileText(t, `(message.from.id any {"1"})`)
	require.Error(t, err)
}

func TestCompileHdAcceptsSingleString(t *testing.T) {
	rule, err := compileText(t, `(message.text hd "/")`)
	require.NoError(t, err)
	cond := rule.Groups[0].Conditions[0]
	require.False(t, cond.Value.IsList)
	require.Equal(t, "/", cond.Value.Str)
}

func TestCompileHdAcceptsStringList(t *testing.T) {
	rule, err := compileText(t, `(message.text hd {"/" "!"})`)
	require.NoError(t, err)
	cond := rule.Groups[0].Conditions[0]
	require.True(t, cond.Value.IsList)
}

func TestCompileReportsAllErrorsInOneGroup(t *testing.T) {
	tree, err := ast.Parse(`(message.nonexistent eq "x" and message.from.is_bot eq 1)`)
	require.NoError(t, err)
	_, err = compiler.Compile(tree, schema.Default)
	require.Error(t, err)
	list, ok := err.(*rerrors.List)
	require.True(t, ok, "expected aggregate error, got %T", err)
	require.Len(t, list.Errors, 2)
}

func TestCompileEmptyListIsAccepted(t *testing.T) {
	rule, err := compileText(t, `(message.from.id in {})`)
	require.NoError(t, err)
	require.Empty(t, rule.Groups[0].Conditions[0].Value.NumSet)
}

func TestNumAtomEqualCrossComparesIntAndFloat(t *testing.T) {
	a := compiler.NumAtom{IsFloat: false, I: 5}
	b := compiler.NumAtom{IsFloat: true, F: 5.0}
	require.True(t, a.Equal(b))
}

func TestCompiledValueHasNumBinarySearch(t *testing.T) {
	v := compiler.CompiledValue{IsList: true, NumSet: []compiler.NumAtom{
		{I: 1}, {I: 3}, {I: 5}, {I: 7},
	}}
	require.True(t, v.HasNum(compiler.NumAtom{I: 5}))
	require.False(t, v.HasNum(compiler.NumAtom{I: 6}))
}

func TestCompileInBuildsStringMembershipIndexEagerly(t *testing.T) {
	rule, err := compileText(t, `(message.from.username in {"a" "b"})`)
	require.NoError(t, err)
	cond := rule.Groups[0].Conditions[0]
	require.True(t, cond.Value.HasStr("a"))
	require.False(t, cond.Value.HasStr("z"))
}
