package ast

import "errors"

var (
	errUnterminatedString = errors.New("unterminated string")
	errBadEscape          = errors.New("unsupported escape sequence")
	errIntOutOfRange      = errors.New("integer literal out of i64 range")
)
