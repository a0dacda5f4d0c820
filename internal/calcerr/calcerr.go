// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package calcerr defines the errors reported by the calc evaluator.
//
// Validation, division by zero, unsupported operations and overflow are
// ordinary returned errors. A broken evaluator invariant is a panic with an
// InvariantViolation value and is never returned.
package calcerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid expression")
	// ErrDivisionByZero is reported when the right operand of / is 0.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUnsupportedOperation is reported for negative or oversized exponents.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrArithmeticOverflow is reported when a result leaves the int64 range.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

// Kind identifies why an expression was rejected by validation.
type Kind int

const (
	EmptyExpression Kind = iota
	InvalidCharacter
	MisplacedOperand
	MisplacedClosingParen
	UnmatchedClosingParen
	UnmatchedOpeningParen
	EndsWithOperator
)

func (k Kind) String() string {
	switch k {
	case EmptyExpression:
		return "empty expression"
	case InvalidCharacter:
		return "invalid character"
	case MisplacedOperand:
		return "misplaced operand"
	case MisplacedClosingParen:
		return "misplaced closing parenthesis"
	case UnmatchedClosingParen:
		return "unmatched closing parenthesis"
	case UnmatchedOpeningParen:
		return "unmatched opening parenthesis"
	case EndsWithOperator:
		return "expression ends with an operator"
	}
	return "unknown validation error"
}

// ValidationError describes malformed input. Pos is a 0-based byte offset
// into the whitespace-stripped expression; Char is the offending rune, or 0
// when the error concerns the expression as a whole.
type ValidationError struct {
	Kind Kind
	Char rune
	Pos  int
}

func (e *ValidationError) Error() string {
	if e.Char == 0 {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %q at position %d", e.Kind, e.Char, e.Pos)
}

// Is reports a match against ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// OperationError records the reduction that failed.
type OperationError struct {
	Op    rune
	Left  int64
	Right int64
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%d %c %d: %v", e.Left, e.Op, e.Right, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// InvariantViolation is the panic value raised when the evaluator reaches
// a state that validated input can never produce.
type InvariantViolation struct {
	Msg string
}

func (v InvariantViolation) Error() string {
	return "calc: internal invariant violated: " + v.Msg
}

// Violate panics with an InvariantViolation.
func Violate(format string, args ...any) {
	panic(InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}

// KindOf returns a short machine-readable name for err, suitable for API
// responses and metric labels.
func KindOf(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, ErrArithmeticOverflow):
		return "overflow"
	}
	return "internal"
}

// IsUserError returns true if err is caused by the expression itself rather
// than by the surrounding infrastructure.
func IsUserError(err error) bool {
	switch KindOf(err) {
	case "validation", "division_by_zero", "unsupported_operation", "overflow":
		return true
	}
	return false
}
