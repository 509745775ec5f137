// Package errors defines the compile-time error taxonomy for MatchinGram
// rule text. Every member except EmptyRule carries a source span so a
// host can underline the offending text; EmptyRule has no span.
// Construction goes through samber/oops so the
// error keeps a stable code plus structured context alongside the
// human-readable message.
package errors

import (
	"fmt"

	"github.com/samber/oops"
)

// Codes identify each taxonomy member from spec §7. They are stable
// strings so a host can switch on them without string-matching the
// rendered message.
const (
	CodeLexError             = "LEX_ERROR"
	CodeParseError           = "PARSE_ERROR"
	CodeUnknownField         = "UNKNOWN_FIELD"
	CodeOperatorRequired     = "OPERATOR_REQUIRED"
	CodeOperatorNotSupported = "OPERATOR_NOT_SUPPORTED"
	CodeValueTypeMismatch    = "VALUE_TYPE_MISMATCH"
	CodeEmptyGroup           = "EMPTY_GROUP"
	CodeEmptyRule            = "EMPTY_RULE"
)

// Span is a byte-offset range into the rule text, half-open [Start, End).
type Span struct {
	Start int
	End   int
}

// Lex reports a bad character, unterminated string, or malformed number.
func Lex(span Span, reason string) error {
	return oops.
		Code(CodeLexError).
		With("span_start", span.Start).
		With("span_end", span.End).
		Errorf("lex error: %s", reason)
}

// Parse reports a structural grammar violation.
func Parse(span Span, expected []string, found string) error {
	return oops.
		Code(CodeParseError).
		With("span_start", span.Start).
		With("span_end", span.End).
		With("expected", expected).
		With("found", found).
		Errorf("parse error: expected %v, found %q", expected, found)
}

// UnknownField reports a field path absent from the Schema.
func UnknownField(span Span, path string) error {
	return oops.
		Code(CodeUnknownField).
		With("span_start", span.Start).
		With("span_end", span.End).
		With("field", path).
		Errorf("unknown field %q", path)
}

// OperatorRequired reports a bare condition on a field whose kind
// requires an explicit operator.
func OperatorRequired(span Span, field string) error {
	return oops.
		Code(CodeOperatorRequired).
		With("span_start", span.Start).
		With("span_end", span.End).
		With("field", field).
		Errorf("field %q requires an operator", field)
}

// OperatorNotSupported reports an operator outside a field's allow-set,
// including retired aliases and words that never named a real operator.
func OperatorNotSupported(span Span, field, op string) error {
	return oops.
		Code(CodeOperatorNotSupported).
		With("span_start", span.Start).
		With("span_end", span.End).
		With("field", field).
		With("op", op).
		Errorf("operator %q not supported on field %q", op, field)
}

// ValueTypeMismatch reports a value whose shape or element kind does
// not match the operator's contract for the field.
func ValueTypeMismatch(span Span, field, op, expectedKind, foundKind string) error {
	return oops.
		Code(CodeValueTypeMismatch).
		With("span_start", span.Start).
		With("span_end", span.End).
		With("field", field).
		With("op", op).
		With("expected_kind", expectedKind).
		With("found_kind", foundKind).
		Errorf("field %q operator %q expects %s, found %s", field, op, expectedKind, foundKind)
}

// EmptyGroup reports a `()` with no conditions.
func EmptyGroup(span Span) error {
	return oops.
		Code(CodeEmptyGroup).
		With("span_start", span.Start).
		With("span_end", span.End).
		Errorf("empty group")
}

// EmptyRule reports rule text with no groups at all.
func EmptyRule() error {
	return oops.
		Code(CodeEmptyRule).
		Errorf("empty rule")
}

// List aggregates every error produced by one compile attempt. The
// parser's recovery (spec §4.2) can surface more than one ParseError;
// the compiler always reports everything it can in one pass instead of
// aborting on the first semantic violation.
type List struct {
	Errors []error
}

func (l *List) Add(err error) {
	if err != nil {
		l.Errors = append(l.Errors, err)
	}
}

func (l *List) Empty() bool {
	return len(l.Errors) == 0
}

func (l *List) Err() error {
	if l.Empty() {
		return nil
	}
	if len(l.Errors) == 1 {
		return l.Errors[0]
	}
	return l
}

func (l *List) Error() string {
	s := fmt.Sprintf("%d compile error(s):", len(l.Errors))
	for _, e := range l.Errors {
		s += "\n  " + e.Error()
	}
	return s
}

// Code extracts the oops code from an error produced by this package,
// or "" if err did not originate here.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	return oopsErr.Code()
}
