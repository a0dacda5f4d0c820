// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"fmt"
	"math"

	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/internal/token"
)

// reduce pops one operator and two operands, applies the operator to
// (left, right) and pushes the result. The right operand is the one pushed
// most recently.
func (m *machine) reduce() error {
	op, ok := m.operators.Pop()
	if !ok {
		calcerr.Violate("reduce with empty operator stack")
	}
	right, okr := m.operands.Pop()
	left, okl := m.operands.Pop()
	if !okr || !okl {
		calcerr.Violate("operand stack underflow reducing %s", op)
	}

	v, err := m.ev.apply(op, left, right)
	if err != nil {
		return &calcerr.OperationError{Op: op.Rune(), Left: left, Right: right, Err: err}
	}
	m.operands.Push(v)

	if m.hook != nil {
		m.hook(Step{Op: op.Rune(), Left: left, Right: right, Result: v})
	}
	return nil
}

func (e *Evaluator) apply(op token.Token, a, b int64) (int64, error) {
	switch op {
	case token.PLUS:
		return e.add(a, b)
	case token.MINUS:
		return e.sub(a, b)
	case token.STAR:
		return e.mul(a, b)
	case token.SLASH:
		return e.div(a, b)
	case token.CARET:
		return e.pow(a, b)
	}
	calcerr.Violate("unexpected operator %s", op)
	return 0, nil
}

func (e *Evaluator) add(a, b int64) (int64, error) {
	s := a + b
	if e.overflow == OverflowFail && (a > 0 && b > 0 && s < 0 || a < 0 && b < 0 && s >= 0) {
		return 0, calcerr.ErrArithmeticOverflow
	}
	return s, nil
}

func (e *Evaluator) sub(a, b int64) (int64, error) {
	d := a - b
	if e.overflow == OverflowFail && (a^b)&(a^d) < 0 {
		return 0, calcerr.ErrArithmeticOverflow
	}
	return d, nil
}

func (e *Evaluator) mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if e.overflow == OverflowFail {
		if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || p/b != a {
			return 0, calcerr.ErrArithmeticOverflow
		}
	}
	return p, nil
}

// div truncates toward zero.
func (e *Evaluator) div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, calcerr.ErrDivisionByZero
	}
	if e.overflow == OverflowFail && a == math.MinInt64 && b == -1 {
		return 0, calcerr.ErrArithmeticOverflow
	}
	return a / b, nil
}

// pow multiplies 1 by a once per unit of b. Negative exponents and
// exponents above the configured limit are rejected up front.
func (e *Evaluator) pow(a, b int64) (int64, error) {
	if b < 0 {
		return 0, fmt.Errorf("%w: negative exponent", calcerr.ErrUnsupportedOperation)
	}
	if b > e.maxExponent {
		return 0, fmt.Errorf("%w: exponent exceeds limit of %d", calcerr.ErrUnsupportedOperation, e.maxExponent)
	}

	result := int64(1)
	for n := b; n > 0; n-- {
		var err error
		if result, err = e.mul(result, a); err != nil {
			return 0, err
		}
	}
	return result, nil
}
